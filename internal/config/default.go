package config

import "time"

func SetDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
			StoreURL:     "http://localhost:8080/",
		},
		Database: DatabaseConfig{
			Host:              "localhost",
			Port:              5432,
			User:              "postgres",
			Password:          "",
			Name:              "g2apay-gateway",
			SSLMode:           "require",
			MaxOpenConns:      10,
			MaxIdleConns:      5,
			ConnMaxLifetime:   1 * time.Hour,
			ConnMaxIdleTime:   15 * time.Minute,
			HealthCheckPeriod: 1 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			Password:    "",
			DB:          0,
			SettingsTTL: 10 * time.Minute,
		},
		Logger: LoggerConfig{
			Level:        "info",
			Format:       "json",
			Output:       "stdout",
			EnableColors: false,
			FilePath:     "",
			MaxSize:      0,
			MaxBackups:   0,
			MaxAge:       0,
			Compress:     false,
		},
		G2APay: G2APayConfig{
			UseSandbox: true,
		},
	}
}
