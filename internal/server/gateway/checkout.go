package gateway

import (
	"context"
	"net/http"

	"github.com/ecomkit/g2apay-gateway/internal/domain/order"
	"github.com/ecomkit/g2apay-gateway/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Initiator is the checkout dependency of the redirect handler.
type Initiator interface {
	Initiate(ctx context.Context, o *order.Order) string
}

// CheckoutHandler redirects the payer to the processor's hosted
// checkout page, or back to the store home when the session cannot be
// opened.
type CheckoutHandler struct {
	orders    order.Repository
	initiator Initiator
	storeURL  string
	logger    logger.Logger
}

func NewCheckoutHandler(orders order.Repository, initiator Initiator, storeURL string, logger logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		orders:    orders,
		initiator: initiator,
		storeURL:  storeURL,
		logger:    logger,
	}
}

func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	guid, err := uuid.Parse(chi.URLParam(r, "orderGuid"))
	if err != nil {
		h.logger.Error("checkout error: malformed order guid", zap.Error(err))
		http.Redirect(w, r, h.storeURL, http.StatusFound)
		return
	}

	o, err := h.orders.GetByGuid(r.Context(), guid)
	if err != nil {
		h.logger.Error("checkout error: order not found", zap.String("guid", guid.String()), zap.Error(err))
		http.Redirect(w, r, h.storeURL, http.StatusFound)
		return
	}

	redirectURL := h.initiator.Initiate(r.Context(), o)
	http.Redirect(w, r, redirectURL, http.StatusFound)
}
