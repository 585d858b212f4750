package config

import (
	"fmt"
	"net/url"
	"strings"
)

type Validator interface {
	Validate(cfg *Config) error
}

type validator struct{}

func NewValidator() Validator {
	return &validator{}
}

func (validator) Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in range 1-65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.StoreURL != "" {
		if _, err := url.Parse(cfg.Server.StoreURL); err != nil {
			return fmt.Errorf("server.store_url is not a valid URL: %w", err)
		}
	}
	if cfg.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if cfg.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if cfg.Redis.SettingsTTL < 0 {
		return fmt.Errorf("redis.settings_ttl must not be negative")
	}
	if cfg.G2APay.CheckoutURL != "" && !strings.HasPrefix(cfg.G2APay.CheckoutURL, "http") {
		return fmt.Errorf("g2apay.checkout_url must be an http(s) URL")
	}
	if cfg.G2APay.RestURL != "" && !strings.HasPrefix(cfg.G2APay.RestURL, "http") {
		return fmt.Errorf("g2apay.rest_url must be an http(s) URL")
	}
	return nil
}
