package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ecomkit/g2apay-gateway/internal/config"
	"github.com/ecomkit/g2apay-gateway/internal/server/gateway"
	"github.com/ecomkit/g2apay-gateway/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Server struct {
	server *http.Server
	logger logger.Logger
}

func New(cfg *config.ServerConfig, webhook *gateway.WebhookHandler, checkout *gateway.CheckoutHandler, health HealthChecker, logger logger.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// The processor posts notifications with or without the store scope
	// in the path.
	r.Method(http.MethodPost, "/Plugins/PaymentG2APay/IPNHandler", webhook)
	r.Method(http.MethodPost, "/Plugins/PaymentG2APay/IPNHandler/{storeID}", webhook)

	r.Method(http.MethodGet, "/checkout/{orderGuid}", checkout)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health.HealthCheck(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{server: srv, logger: logger}
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	errChan := make(chan error, 1)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	}
}
