package settings

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// DefaultStoreID is the global settings scope. Per-store lookups fall
// back to it when no override exists.
const DefaultStoreID = 0

// ErrNotConfigured is returned when neither the requested store nor the
// default store carries a merchant credential.
var ErrNotConfigured = errors.New("payment settings are not configured")

// PaymentSettings is the merchant credential and fee configuration for
// one store scope. Immutable during a single request.
type PaymentSettings struct {
	APIHash       string          `json:"api_hash"`
	SecretKey     string          `json:"secret_key"`
	MerchantEmail string          `json:"merchant_email"`
	UseSandbox    bool            `json:"use_sandbox"`
	AdditionalFee decimal.Decimal `json:"additional_fee"`
	// AdditionalFeePercentage: true means AdditionalFee is a percentage
	// of the cart total, false means a fixed value.
	AdditionalFeePercentage bool `json:"additional_fee_percentage"`
}

type Provider interface {
	Load(ctx context.Context, storeID int) (PaymentSettings, error)
}
