package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecomkit/g2apay-gateway/internal/domain/settings"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// SettingsStore reads per-store merchant credentials. A store without
// its own row falls back to the default store scope (store id 0).
type SettingsStore struct {
	db *pgxpool.Pool
	// defaults is used when even store 0 has no row, so a fresh
	// deployment can run entirely from config.
	defaults *settings.PaymentSettings
}

func NewSettingsStore(db *pgxpool.Pool, defaults *settings.PaymentSettings) *SettingsStore {
	return &SettingsStore{db: db, defaults: defaults}
}

func (s *SettingsStore) Load(ctx context.Context, storeID int) (settings.PaymentSettings, error) {
	cfg, err := s.load(ctx, storeID)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return settings.PaymentSettings{}, fmt.Errorf("failed to load payment settings for store %d: %w", storeID, err)
	}

	if storeID != settings.DefaultStoreID {
		return s.Load(ctx, settings.DefaultStoreID)
	}
	if s.defaults != nil && s.defaults.SecretKey != "" {
		return *s.defaults, nil
	}
	return settings.PaymentSettings{}, settings.ErrNotConfigured
}

func (s *SettingsStore) load(ctx context.Context, storeID int) (settings.PaymentSettings, error) {
	const query = `
		SELECT api_hash, secret_key, merchant_email, use_sandbox,
		       additional_fee::text, additional_fee_percentage
		FROM payment_settings
		WHERE store_id = $1`

	var (
		cfg    settings.PaymentSettings
		feeStr string
	)
	row := s.db.QueryRow(ctx, query, storeID)
	err := row.Scan(&cfg.APIHash, &cfg.SecretKey, &cfg.MerchantEmail, &cfg.UseSandbox,
		&feeStr, &cfg.AdditionalFeePercentage)
	if err != nil {
		return settings.PaymentSettings{}, err
	}
	if cfg.AdditionalFee, err = decimal.NewFromString(feeStr); err != nil {
		return settings.PaymentSettings{}, fmt.Errorf("failed to read additional fee: %w", err)
	}
	return cfg, nil
}
