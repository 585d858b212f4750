package orderproc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ecomkit/g2apay-gateway/internal/domain/order"
	"github.com/ecomkit/g2apay-gateway/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrTransitionNotAllowed is returned when a mutator is called
	// without its capability check holding.
	ErrTransitionNotAllowed = errors.New("payment status transition not allowed")
)

// Service encodes the order payment-status state machine. Callers ask
// whether a transition is legal via the Can* predicates, then apply it
// with the matching mutator. Mutators re-check the predicate, so a
// duplicate application is a safe no-op error rather than a double
// side effect.
type Service struct {
	orders order.Repository
	logger logger.Logger
	now    func() time.Time
}

func NewService(orders order.Repository, logger logger.Logger) *Service {
	return &Service{
		orders: orders,
		logger: logger,
		now:    time.Now,
	}
}

// CanMarkPaid reports whether the order may transition to paid.
func (s *Service) CanMarkPaid(o *order.Order) bool {
	if o.OrderTotal.IsZero() {
		return false
	}
	return o.PaymentStatus == order.PaymentStatusPending
}

// MarkPaid transitions the order to paid and persists it.
func (s *Service) MarkPaid(ctx context.Context, o *order.Order) error {
	if !s.CanMarkPaid(o) {
		return fmt.Errorf("%w: cannot mark order %d as paid in status %s",
			ErrTransitionNotAllowed, o.ID, o.PaymentStatus)
	}

	now := s.now().UTC()
	o.PaymentStatus = order.PaymentStatusPaid
	o.PaidDate = &now

	if err := s.orders.Update(ctx, o); err != nil {
		return fmt.Errorf("failed to persist paid order: %w", err)
	}

	s.logger.Info("order marked as paid",
		zap.Int64("order_id", o.ID),
		zap.String("capture_transaction_id", o.CaptureTransactionID),
	)
	return nil
}

// CanRefund reports whether a full refund may be recorded.
func (s *Service) CanRefund(o *order.Order) bool {
	if o.OrderTotal.IsZero() {
		return false
	}
	return o.PaymentStatus == order.PaymentStatusPaid
}

// RefundOffline records a full refund already settled by the processor.
// No outbound call is made.
func (s *Service) RefundOffline(ctx context.Context, o *order.Order) error {
	if !s.CanRefund(o) {
		return fmt.Errorf("%w: cannot refund order %d in status %s",
			ErrTransitionNotAllowed, o.ID, o.PaymentStatus)
	}

	o.PaymentStatus = order.PaymentStatusRefunded
	o.RefundedAmount = o.OrderTotal

	if err := s.orders.Update(ctx, o); err != nil {
		return fmt.Errorf("failed to persist refunded order: %w", err)
	}

	s.logger.Info("order refunded", zap.Int64("order_id", o.ID))
	return nil
}

// CanPartiallyRefund reports whether the given amount may be refunded on
// top of what is already refunded.
func (s *Service) CanPartiallyRefund(o *order.Order, amount decimal.Decimal) bool {
	if amount.IsZero() || amount.IsNegative() {
		return false
	}
	if o.PaymentStatus != order.PaymentStatusPaid && o.PaymentStatus != order.PaymentStatusPartiallyRefunded {
		return false
	}
	return o.RefundedAmount.Add(amount).LessThanOrEqual(o.OrderTotal)
}

// PartiallyRefundOffline records a partial refund already settled by the
// processor. When the refunded total reaches the order total the order
// flips to fully refunded.
func (s *Service) PartiallyRefundOffline(ctx context.Context, o *order.Order, amount decimal.Decimal) error {
	if !s.CanPartiallyRefund(o, amount) {
		return fmt.Errorf("%w: cannot partially refund %s on order %d in status %s",
			ErrTransitionNotAllowed, amount.StringFixed(2), o.ID, o.PaymentStatus)
	}

	o.RefundedAmount = o.RefundedAmount.Add(amount)
	if o.RefundedAmount.Equal(o.OrderTotal) {
		o.PaymentStatus = order.PaymentStatusRefunded
	} else {
		o.PaymentStatus = order.PaymentStatusPartiallyRefunded
	}

	if err := s.orders.Update(ctx, o); err != nil {
		return fmt.Errorf("failed to persist partially refunded order: %w", err)
	}

	s.logger.Info("order partially refunded",
		zap.Int64("order_id", o.ID),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("refunded_total", o.RefundedAmount.StringFixed(2)),
	)
	return nil
}
