package g2apay

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ecomkit/g2apay-gateway/internal/domain/order"
	"github.com/ecomkit/g2apay-gateway/internal/domain/settings"
	"github.com/ecomkit/g2apay-gateway/internal/services/orderproc"
	"github.com/ecomkit/g2apay-gateway/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Outcome classifies how a notification was reconciled. Rejections are
// surfaced only through logs, never through the HTTP response.
type Outcome string

const (
	OutcomeAcceptedPaid          Outcome = "accepted_paid"
	OutcomeAcceptedPartialRefund Outcome = "accepted_partial_refund"
	OutcomeAcceptedRefund        Outcome = "accepted_refund"
	OutcomeAcceptedPending       Outcome = "accepted_pending"

	OutcomeRejectedInvalidSignature Outcome = "rejected_invalid_signature"
	OutcomeRejectedUnknownOrder     Outcome = "rejected_unknown_order"
	OutcomeRejectedAmountMismatch   Outcome = "rejected_amount_mismatch"
	OutcomeRejectedUnknownStatus    Outcome = "rejected_unknown_status"
)

// Accepted reports whether the notification passed validation.
func (o Outcome) Accepted() bool {
	switch o {
	case OutcomeAcceptedPaid, OutcomeAcceptedPartialRefund, OutcomeAcceptedRefund, OutcomeAcceptedPending:
		return true
	}
	return false
}

const lockStripes = 32

// Reconciler authenticates inbound payment notifications and applies
// the resulting status transition to the order exactly once. It keeps
// no state between notifications: all state lives in the order store.
type Reconciler struct {
	orders   order.Repository
	proc     *orderproc.Service
	settings settings.Provider
	logger   logger.Logger
	now      func() time.Time

	// locks serialize notifications for the same order within this
	// process. The repository row lock covers cross-process races.
	locks [lockStripes]sync.Mutex
}

func NewReconciler(orders order.Repository, proc *orderproc.Service, provider settings.Provider, logger logger.Logger) *Reconciler {
	return &Reconciler{
		orders:   orders,
		proc:     proc,
		settings: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// Handle validates one notification and reconciles it against the
// order it references. Validation short-circuits on the first failure:
// order identity, order existence, amount, then signature. Nothing
// before the signature check is trusted to mutate order state.
func (r *Reconciler) Handle(ctx context.Context, form url.Values, storeID int) Outcome {
	rawOrderID := form.Get("userOrderId")
	guid, err := uuid.Parse(rawOrderID)
	if err != nil {
		r.logger.Error("IPN error: malformed order id", zap.String("user_order_id", rawOrderID))
		return OutcomeRejectedUnknownOrder
	}

	lock := &r.locks[guid[0]%lockStripes]
	lock.Lock()
	defer lock.Unlock()

	o, err := r.orders.GetByGuid(ctx, guid)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			r.logger.Error("IPN error: order not found", zap.String("guid", guid.String()))
		} else {
			r.logger.Error("IPN error: order lookup failed", zap.String("guid", guid.String()), zap.Error(err))
		}
		return OutcomeRejectedUnknownOrder
	}

	rawAmount := form.Get("amount")
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil || !o.OrderTotal.Round(2).Equal(amount.Round(2)) {
		r.logger.Error("IPN error: order totals not match",
			zap.String("guid", guid.String()),
			zap.String("amount", rawAmount),
			zap.String("order_total", o.OrderTotal.StringFixed(2)),
		)
		return OutcomeRejectedAmountMismatch
	}

	cfg, err := r.settings.Load(ctx, storeID)
	if err != nil {
		r.logger.Error("IPN error: cannot load payment settings",
			zap.Int("store_id", storeID), zap.Error(err))
		return OutcomeRejectedInvalidSignature
	}

	// Authentication boundary. The hash covers the raw field values
	// exactly as received and is compared case-sensitively.
	expected := NotificationHash(form.Get("transactionId"), rawOrderID, rawAmount, cfg.SecretKey)
	if expected != form.Get("hash") {
		r.logger.Error("IPN error: hashes not match", zap.String("guid", guid.String()))
		return OutcomeRejectedInvalidSignature
	}

	// Record the raw notification before any transition, so it is
	// durable even if the transition below fails.
	o.AddNote(auditNote(form), false, r.now().UTC())
	if err := r.orders.Update(ctx, o); err != nil {
		r.logger.Error("IPN error: failed to persist audit note",
			zap.String("guid", guid.String()), zap.Error(err))
	}

	return r.applyTransition(ctx, o, form)
}

func (r *Reconciler) applyTransition(ctx context.Context, o *order.Order, form url.Values) Outcome {
	status := strings.ToLower(form.Get("status"))
	switch status {
	case "complete":
		if r.proc.CanMarkPaid(o) {
			o.CaptureTransactionID = form.Get("transactionId")
			if err := r.orders.Update(ctx, o); err != nil {
				r.logger.Error("IPN error: failed to store capture transaction id",
					zap.Int64("order_id", o.ID), zap.Error(err))
				return OutcomeAcceptedPaid
			}
			if err := r.proc.MarkPaid(ctx, o); err != nil {
				r.logger.Error("IPN error: failed to mark order as paid",
					zap.Int64("order_id", o.ID), zap.Error(err))
			}
		}
		return OutcomeAcceptedPaid

	case "partial_refunded":
		amount, err := decimal.NewFromString(form.Get("refundedAmount"))
		if err == nil && r.proc.CanPartiallyRefund(o, amount) {
			if err := r.proc.PartiallyRefundOffline(ctx, o, amount); err != nil {
				r.logger.Error("IPN error: failed to partially refund order",
					zap.Int64("order_id", o.ID), zap.Error(err))
			}
		}
		return OutcomeAcceptedPartialRefund

	case "refunded":
		if r.proc.CanRefund(o) {
			if err := r.proc.RefundOffline(ctx, o); err != nil {
				r.logger.Error("IPN error: failed to refund order",
					zap.Int64("order_id", o.ID), zap.Error(err))
			}
		}
		return OutcomeAcceptedRefund

	case "pending":
		// Expected transient status, deliberately not logged.
		return OutcomeAcceptedPending

	default:
		r.logger.Error("IPN error: unrecognized transaction status",
			zap.Int64("order_id", o.ID), zap.String("status", form.Get("status")))
		return OutcomeRejectedUnknownStatus
	}
}

// auditNote renders every received field as "key: value" lines, keys
// sorted for stable output.
func auditNote(form url.Values) string {
	keys := make([]string, 0, len(form))
	for key := range form {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s: %s\n", key, form.Get(key))
	}
	return b.String()
}
