package repositories

import (
	"context"
	"sync"

	"orderintake/internal/models"
)

// MockOrderStore is an in-memory implementation of OrderStore.
type MockOrderStore struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderStore creates a new instance of MockOrderStore.
func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{
		orders: make(map[string]models.Order),
	}
}

// Put stores a copy of the order under its orderId.
func (s *MockOrderStore) Put(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[order.OrderID] = *order
	return nil
}

// Get returns the order stored under orderID, or ErrOrderNotFound.
func (s *MockOrderStore) Get(ctx context.Context, orderID string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &order, nil
}

// GetAll returns all stored orders.
func (s *MockOrderStore) GetAll(ctx context.Context) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]models.Order, 0, len(s.orders))
	for _, order := range s.orders {
		orders = append(orders, order)
	}
	return orders, nil
}
