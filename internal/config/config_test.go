package config

import (
	"context"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	// No config.yaml or .env in a temp dir: defaults apply.
	cfg, err := Load(t.TempDir(), context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "g2apay-gateway" {
		t.Errorf("database.name = %s, want g2apay-gateway", cfg.Database.Name)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("redis.addr = %s, want localhost:6379", cfg.Redis.Addr)
	}
	if !cfg.G2APay.UseSandbox {
		t.Errorf("g2apay.use_sandbox should default to true")
	}
}

func TestValidator(t *testing.T) {
	valid := func() *Config { return SetDefaultConfig() }

	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{"defaults pass", func(cfg *Config) {}, false},
		{"zero port", func(cfg *Config) { cfg.Server.Port = 0 }, true},
		{"port out of range", func(cfg *Config) { cfg.Server.Port = 70000 }, true},
		{"missing database host", func(cfg *Config) { cfg.Database.Host = "" }, true},
		{"missing database name", func(cfg *Config) { cfg.Database.Name = "" }, true},
		{"missing redis addr", func(cfg *Config) { cfg.Redis.Addr = "" }, true},
		{"negative settings ttl", func(cfg *Config) { cfg.Redis.SettingsTTL = -1 }, true},
		{"non-http checkout url", func(cfg *Config) { cfg.G2APay.CheckoutURL = "ftp://x" }, true},
		{"http checkout url", func(cfg *Config) { cfg.G2APay.CheckoutURL = "http://localhost:9" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := NewValidator().Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
