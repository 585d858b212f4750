package g2apay

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/ecomkit/g2apay-gateway/internal/domain/order"
	"github.com/ecomkit/g2apay-gateway/internal/domain/settings"
	"github.com/ecomkit/g2apay-gateway/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Operations invoked by internal flows report unsupported methods as
// typed failure results, not panics: the caller can react to them.
var (
	ErrCaptureNotSupported   = errors.New("capture method not supported")
	ErrVoidNotSupported      = errors.New("void method not supported")
	ErrRecurringNotSupported = errors.New("recurring payment not supported")
)

// Processor exposes the payment-method operations beyond checkout:
// refunds through the processor REST API, and the unsupported
// operations of this gateway.
type Processor struct {
	client   *Client
	settings settings.Provider
	logger   logger.Logger
}

func NewProcessor(client *Client, provider settings.Provider, logger logger.Logger) *Processor {
	return &Processor{
		client:   client,
		settings: provider,
		logger:   logger,
	}
}

// Refund asks the processor to refund the given amount of a captured
// order. The order keeps its current payment status: the refund is
// recorded locally when the matching IPN arrives.
func (p *Processor) Refund(ctx context.Context, o *order.Order, amount decimal.Decimal) error {
	if o.CaptureTransactionID == "" {
		return fmt.Errorf("order %d has no capture transaction to refund", o.ID)
	}

	cfg, err := p.settings.Load(ctx, o.StoreID)
	if err != nil {
		return fmt.Errorf("failed to load payment settings: %w", err)
	}

	params := url.Values{}
	params.Set("action", "refund")
	params.Set("order_id", o.Guid.String())
	params.Set("amount", amount.StringFixed(2))
	params.Set("currency", o.CurrencyCode)
	params.Set("hash", RefundHash(o.CaptureTransactionID, o.Guid, o.OrderTotal, amount, cfg.SecretKey))

	if err := p.client.Refund(ctx, cfg, o.CaptureTransactionID, params); err != nil {
		p.logger.Error("refund error",
			zap.Int64("order_id", o.ID),
			zap.String("capture_transaction_id", o.CaptureTransactionID),
			zap.Error(err),
		)
		return err
	}

	p.logger.Info("refund requested, awaiting IPN",
		zap.Int64("order_id", o.ID),
		zap.String("amount", amount.StringFixed(2)),
	)
	return nil
}

// Capture is not supported by this gateway.
func (p *Processor) Capture(ctx context.Context, o *order.Order) error {
	return ErrCaptureNotSupported
}

// Void is not supported by this gateway.
func (p *Processor) Void(ctx context.Context, o *order.Order) error {
	return ErrVoidNotSupported
}

// ProcessRecurring is not supported by this gateway.
func (p *Processor) ProcessRecurring(ctx context.Context, o *order.Order) error {
	return ErrRecurringNotSupported
}

// Support flags of the payment method.
func (p *Processor) SupportCapture() bool       { return false }
func (p *Processor) SupportRefund() bool        { return true }
func (p *Processor) SupportPartialRefund() bool { return true }
func (p *Processor) SupportVoid() bool          { return false }
