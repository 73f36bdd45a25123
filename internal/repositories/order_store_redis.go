package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"orderintake/internal/models"
)

// RedisOrderStore persists orders as JSON values in Redis, one key per order.
type RedisOrderStore struct {
	client *redis.Client
	prefix string
}

// NewRedisOrderStore creates a RedisOrderStore talking to addr. All order
// keys share the given prefix so GetAll can scan them.
func NewRedisOrderStore(addr, prefix string) *RedisOrderStore {
	return &RedisOrderStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: prefix,
	}
}

func (s *RedisOrderStore) key(orderID string) string {
	return s.prefix + orderID
}

// Put stores the order under its orderId.
func (s *RedisOrderStore) Put(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order %s: %w", order.OrderID, err)
	}
	if err := s.client.Set(ctx, s.key(order.OrderID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store order %s: %w", order.OrderID, err)
	}
	return nil
}

// Get retrieves a single order by its orderId.
func (s *RedisOrderStore) Get(ctx context.Context, orderID string) (*models.Order, error) {
	data, err := s.client.Get(ctx, s.key(orderID)).Bytes()
	if err == redis.Nil {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order %s: %w", orderID, err)
	}
	return &order, nil
}

// GetAll scans every order key and fetches the records in one MGET.
func (s *RedisOrderStore) GetAll(ctx context.Context) ([]models.Order, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan orders: %w", err)
	}

	orders := make([]models.Order, 0, len(keys))
	if len(keys) == 0 {
		return orders, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Key deleted between SCAN and MGET.
			continue
		}
		var order models.Order
		if err := json.Unmarshal([]byte(raw), &order); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stored order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// Close releases the underlying Redis connection pool.
func (s *RedisOrderStore) Close() error {
	return s.client.Close()
}
