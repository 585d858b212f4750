package settingscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ecomkit/g2apay-gateway/internal/domain/settings"
	"github.com/ecomkit/g2apay-gateway/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedProvider decorates a settings provider with a Redis cache.
// Entries are not invalidated on write: staleness up to the TTL is an
// accepted trade for not hitting the database on every notification.
type CachedProvider struct {
	client *redis.Client
	next   settings.Provider
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedProvider(client *redis.Client, next settings.Provider, ttl time.Duration, logger logger.Logger) *CachedProvider {
	return &CachedProvider{
		client: client,
		next:   next,
		ttl:    ttl,
		logger: logger,
	}
}

func (p *CachedProvider) Load(ctx context.Context, storeID int) (settings.PaymentSettings, error) {
	key := cacheKey(storeID)

	cached, err := p.client.Get(ctx, key).Result()
	if err == nil {
		var cfg settings.PaymentSettings
		if err := json.Unmarshal([]byte(cached), &cfg); err == nil {
			return cfg, nil
		}
		// Corrupted entry: drop it and fall through to the source.
		p.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		// Redis being down must not block payment processing.
		p.logger.Warn("settings cache unavailable, reading from source",
			zap.Int("store_id", storeID), zap.Error(err))
	}

	cfg, err := p.next.Load(ctx, storeID)
	if err != nil {
		return settings.PaymentSettings{}, err
	}

	if data, err := json.Marshal(cfg); err == nil {
		if err := p.client.Set(ctx, key, data, p.ttl).Err(); err != nil {
			p.logger.Warn("failed to cache payment settings",
				zap.Int("store_id", storeID), zap.Error(err))
		}
	}

	return cfg, nil
}

func cacheKey(storeID int) string {
	return fmt.Sprintf("g2apay:settings:%d", storeID)
}
