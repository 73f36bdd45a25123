package repositories

import (
	"context"
	"errors"

	"orderintake/internal/models"
)

// ErrOrderNotFound is returned when a lookup misses.
var ErrOrderNotFound = errors.New("order not found")

// OrderStore defines the key-value persistence contract for orders.
// Put is last-writer-wins; there is no update or delete.
type OrderStore interface {
	Put(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, orderID string) (*models.Order, error)
	GetAll(ctx context.Context) ([]models.Order, error)
}
