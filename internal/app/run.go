package app

import (
	"context"
	"fmt"
	"os"

	"github.com/ecomkit/g2apay-gateway/internal/config"
	"github.com/ecomkit/g2apay-gateway/internal/domain/order"
	"github.com/ecomkit/g2apay-gateway/internal/domain/settings"
	"github.com/ecomkit/g2apay-gateway/internal/infrastructure/repository/postgres"
	"github.com/ecomkit/g2apay-gateway/internal/infrastructure/settingscache"
	"github.com/ecomkit/g2apay-gateway/internal/server"
	"github.com/ecomkit/g2apay-gateway/internal/server/gateway"
	"github.com/ecomkit/g2apay-gateway/internal/services/g2apay"
	"github.com/ecomkit/g2apay-gateway/internal/services/orderproc"
	"github.com/ecomkit/g2apay-gateway/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds high-level application dependencies.
type App struct {
	Config     *config.Config
	Logger     logger.Logger
	DB         *postgres.Pool
	Redis      *redis.Client
	Settings   settings.Provider
	OrderRepo  order.Repository
	Reconciler *g2apay.Reconciler
	Initiator  *g2apay.Initiator
	Processor  *g2apay.Processor
	Server     *server.Server
}

// NewApp constructs the application object and wires the services.
func NewApp(cfg *config.Config, pool *postgres.Pool, redisClient *redis.Client, logger logger.Logger) *App {
	defaults := &settings.PaymentSettings{
		APIHash:       cfg.G2APay.APIHash,
		SecretKey:     cfg.G2APay.SecretKey,
		MerchantEmail: cfg.G2APay.MerchantEmail,
		UseSandbox:    cfg.G2APay.UseSandbox,
	}

	store := postgres.NewSettingsStore(pool.Pool, defaults)
	provider := settingscache.NewCachedProvider(redisClient, store, cfg.Redis.SettingsTTL, logger)

	orderRepo := postgres.NewOrderRepository(pool.Pool)
	proc := orderproc.NewService(orderRepo, logger)

	client := g2apay.NewClient(g2apay.ClientOptions{
		CheckoutURL: cfg.G2APay.CheckoutURL,
		RestURL:     cfg.G2APay.RestURL,
	}, logger)

	initiator := g2apay.NewInitiator(client, provider, cfg.Server.StoreURL, logger)
	processor := g2apay.NewProcessor(client, provider, logger)
	reconciler := g2apay.NewReconciler(orderRepo, proc, provider, logger)

	webhook := gateway.NewWebhookHandler(reconciler, logger)
	checkout := gateway.NewCheckoutHandler(orderRepo, initiator, cfg.Server.StoreURL, logger)

	srv := server.New(&cfg.Server, webhook, checkout, pool, logger)

	return &App{
		Config:     cfg,
		Logger:     logger,
		DB:         pool,
		Redis:      redisClient,
		Settings:   provider,
		OrderRepo:  orderRepo,
		Reconciler: reconciler,
		Initiator:  initiator,
		Processor:  processor,
		Server:     srv,
	}
}

func Run(ctx context.Context) error {
	configPath := os.Getenv("G2APAY_CONFIG_PATH")
	cfg, err := initConfig(configPath, ctx)
	if err != nil {
		return fmt.Errorf("failed to init config: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	logger.Debug("logger debug enabled...")

	pool, err := initPostgresDatabase(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to init database: %w", err)
	}

	redisClient := initRedis(cfg, logger)

	app := NewApp(cfg, pool, redisClient, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := app.Server.Start(ctx); err != nil {
			serverErr <- err
		}
	}()

	gracefulShutdown(ctx, logger, pool, redisClient, serverErr)

	return nil
}

func initConfig(configPath string, ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(configPath, ctx)
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

func initLogger(cfg *config.Config) (logger.Logger, error) {
	return logger.New(cfg.Logger)
}

func initPostgresDatabase(ctx context.Context, cfg *config.Config, logger logger.Logger) (*postgres.Pool, error) {
	return postgres.NewPool(ctx, &cfg.Database, logger)
}

func initRedis(cfg *config.Config, logger logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	logger.Info("redis client configured", zap.String("addr", cfg.Redis.Addr))
	return client
}
