package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecomkit/g2apay-gateway/internal/infrastructure/repository/postgres"
	"github.com/ecomkit/g2apay-gateway/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(ctx context.Context, logger logger.Logger, pool *postgres.Pool, redisClient *redis.Client, serverErr <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		logger.Info("context cancelled, starting shutdown")
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("closing database connections")
	pool.Close()

	if err := redisClient.Close(); err != nil {
		logger.Warn("failed to close redis client", zap.Error(err))
	}

	select {
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded")
		return shutdownCtx.Err()
	default:
		logger.Info("shutdown completed successfully")
		return nil
	}
}
