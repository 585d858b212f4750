package g2apay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/ecomkit/g2apay-gateway/internal/domain/order"
	"github.com/ecomkit/g2apay-gateway/internal/domain/settings"
	"github.com/ecomkit/g2apay-gateway/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// adjustmentSku marks the synthetic line reconciling itemized
	// prices with the order total.
	adjustmentSku  = "spec_item"
	adjustmentName = "Additional charges (delivery, payment fee, taxes, discounts, etc)"
)

// QuoteItem is one line of a createQuote request.
type QuoteItem struct {
	Sku      string `json:"sku"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Quantity int    `json:"qty"`
	ID       int64  `json:"id"`
	Price    string `json:"price"`
	Url      string `json:"url"`
}

// Initiator starts a hosted checkout for an order and decides where to
// send the payer next. It runs once per order at checkout time.
type Initiator struct {
	client   *Client
	settings settings.Provider
	// storeURL is the public base of the shop, with trailing slash.
	storeURL string
	logger   logger.Logger
}

func NewInitiator(client *Client, provider settings.Provider, storeURL string, logger logger.Logger) *Initiator {
	return &Initiator{
		client:   client,
		settings: provider,
		storeURL: storeURL,
		logger:   logger,
	}
}

// Initiate opens a checkout session for the order and returns the URL
// to redirect the payer to. Any failure is terminal from the payer's
// perspective: it is logged and the store home URL is returned, with no
// partial state persisted.
func (i *Initiator) Initiate(ctx context.Context, o *order.Order) string {
	cfg, err := i.settings.Load(ctx, o.StoreID)
	if err != nil {
		i.logger.Error("checkout failed: cannot load payment settings",
			zap.Int("store_id", o.StoreID), zap.Error(err))
		return i.storeURL
	}

	params := i.buildQuoteParams(o, cfg)

	resp, err := i.client.CreateQuote(ctx, cfg, params)
	if err != nil {
		i.logger.Error("checkout transaction error",
			zap.Int64("order_id", o.ID), zap.Error(err))
		return i.storeURL
	}

	return fmt.Sprintf("%s/index/gateway?token=%s", i.client.CheckoutURL(cfg), url.QueryEscape(resp.Token))
}

func (i *Initiator) buildQuoteParams(o *order.Order, cfg settings.PaymentSettings) url.Values {
	params := url.Values{}
	params.Set("api_hash", cfg.APIHash)
	params.Set("hash", CheckoutHash(o.Guid, o.OrderTotal, o.CurrencyCode, cfg.SecretKey))
	params.Set("order_id", o.Guid.String())
	params.Set("amount", o.OrderTotal.StringFixed(2))
	params.Set("currency", o.CurrencyCode)
	params.Set("description", fmt.Sprintf("Order #%d", o.ID))
	params.Set("url_ok", fmt.Sprintf("%scheckout/completed/%d", i.storeURL, o.ID))
	params.Set("url_failure", fmt.Sprintf("%sorderdetails/%d", i.storeURL, o.ID))

	items := i.buildItems(o)
	// Items always marshal cleanly, the type has no unsupported fields.
	itemsJSON, _ := json.Marshal(items)
	params.Set("items", string(itemsJSON))

	return params
}

// buildItems maps order lines to quote items and appends the synthetic
// adjustment line when the itemized sum does not cover the order total
// (shipping, fees, taxes, discounts).
func (i *Initiator) buildItems(o *order.Order) []QuoteItem {
	items := make([]QuoteItem, 0, len(o.Items)+1)
	for _, item := range o.Items {
		sku := item.Sku
		if sku == "" {
			sku = fmt.Sprintf("%d", item.ID)
		}
		items = append(items, QuoteItem{
			ID:       item.ID,
			Name:     item.Name,
			Sku:      sku,
			Price:    item.UnitPrice.StringFixed(2),
			Quantity: item.Quantity,
			Amount:   item.Amount.StringFixed(2),
			Url:      fmt.Sprintf("%s%s", i.storeURL, item.Url),
		})
	}

	difference := o.OrderTotal.Sub(o.ItemsTotal())
	if !difference.IsZero() {
		items = append(items, QuoteItem{
			ID:       1,
			Name:     adjustmentName,
			Sku:      adjustmentSku,
			Price:    difference.StringFixed(2),
			Quantity: 1,
			Amount:   difference.StringFixed(2),
			Url:      i.storeURL,
		})
	}

	return items
}

// AdditionalHandlingFee computes the configured handling fee for a cart
// total, either fixed or as a percentage.
func AdditionalHandlingFee(cfg settings.PaymentSettings, cartTotal decimal.Decimal) decimal.Decimal {
	if !cfg.AdditionalFeePercentage {
		return cfg.AdditionalFee
	}
	return cartTotal.Mul(cfg.AdditionalFee).Div(decimal.NewFromInt(100)).Round(2)
}

// CanRePostProcessPayment reports whether the payer may retry the
// redirect for an order that was placed but not completed.
func CanRePostProcessPayment(o *order.Order, now time.Time) bool {
	if o == nil {
		return false
	}
	// Give the first attempt a moment before allowing a retry.
	return now.Sub(o.CreatedAt) >= 5*time.Second
}
