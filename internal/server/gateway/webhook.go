package gateway

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ecomkit/g2apay-gateway/internal/domain/settings"
	"github.com/ecomkit/g2apay-gateway/internal/services/g2apay"
	"github.com/ecomkit/g2apay-gateway/pkg/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Reconciler is the notification processing dependency of the webhook.
type Reconciler interface {
	Handle(ctx context.Context, form url.Values, storeID int) g2apay.Outcome
}

// WebhookHandler receives IPN callbacks from the payment processor.
//
// It always answers 200 with an empty body, whatever the validation or
// transition outcome: a different status would let a caller probe which
// rejection fired, and the processor retries non-200 responses.
type WebhookHandler struct {
	reconciler Reconciler
	logger     logger.Logger
}

func NewWebhookHandler(reconciler Reconciler, logger logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer w.WriteHeader(http.StatusOK)

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("IPN error: failed to read request body", zap.Error(err))
		return
	}
	r.Body.Close()

	form, err := url.ParseQuery(string(bodyBytes))
	if err != nil {
		h.logger.Error("IPN error: failed to parse form body", zap.Error(err))
		return
	}

	storeID := storeIDFromRequest(r)

	outcome := h.reconciler.Handle(r.Context(), form, storeID)
	h.logger.Info("IPN processed",
		zap.String("outcome", string(outcome)),
		zap.Int("store_id", storeID),
		zap.String("user_order_id", form.Get("userOrderId")),
		zap.String("status", form.Get("status")),
	)
}

// storeIDFromRequest reads the optional storeID path segment. Absent or
// malformed values mean the default store scope.
func storeIDFromRequest(r *http.Request) int {
	raw := chi.URLParam(r, "storeID")
	if raw == "" {
		return settings.DefaultStoreID
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return settings.DefaultStoreID
	}
	return id
}
