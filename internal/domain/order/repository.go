package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no order matches the requested guid.
var ErrNotFound = errors.New("order not found")

type Repository interface {
	GetByGuid(ctx context.Context, guid uuid.UUID) (*Order, error)
	// Update persists the payment fields and any unsaved notes of the
	// order. Implementations must serialize concurrent updates of the
	// same order so the final state is never a torn write.
	Update(ctx context.Context, order *Order) error
}
