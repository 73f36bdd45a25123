package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"orderintake/internal/models"
	"orderintake/internal/repositories"
	"orderintake/pkg/eventbus"
	"orderintake/pkg/orderid"
)

// Topics produced by the order intake workflow.
const (
	TopicStockUpdate    = "stockUpdate"
	TopicOrderProcessed = "orderProcessed"
)

// Days between order creation and the estimated delivery date.
const deliveryLeadDays = 7

// OrderService handles the order intake workflow: derive the order record,
// persist it, then notify downstream consumers.
type OrderService struct {
	store  repositories.OrderStore
	outbox repositories.OutboxRepository
	bus    eventbus.Publisher
	idGen  orderid.Generator
}

// NewOrderService creates a new OrderService.
func NewOrderService(store repositories.OrderStore, outbox repositories.OutboxRepository, bus eventbus.Publisher, idGen orderid.Generator) *OrderService {
	return &OrderService{
		store:  store,
		outbox: outbox,
		bus:    bus,
		idGen:  idGen,
	}
}

// CreateOrder assembles the canonical order record, persists it, then
// publishes the stockUpdate and orderProcessed events. Persistence strictly
// precedes publication: a consumer observing an event can rely on the record
// already existing in the store. The inverse does not hold; a publish failure
// after a successful persist leaves a durable but unnotified order, and no
// rollback or retry is attempted here.
func (s *OrderService) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	order := &models.Order{
		OrderID:               s.idGen.NewOrderID(),
		Status:                models.OrderStatusConfirmed,
		OrderSummary:          models.OrderSummary{Total: req.Total, Items: req.Items},
		PaymentStatus:         models.PaymentStatusProcessing,
		EstimatedDeliveryDate: time.Now().UTC().AddDate(0, 0, deliveryLeadDays).Format("2006-01-02"),
		BillingAddress:        req.PaymentInfo.BillingAddress,
		CustomerNotification: models.CustomerNotification{
			Email:              req.PaymentInfo.Email,
			NotificationStatus: models.NotificationEmailSent,
		},
	}

	if err := s.store.Put(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to persist order %s: %w", order.OrderID, err)
	}
	log.Printf("Order %s saved to state store", order.OrderID)

	updates := make([]models.StockUpdateEntry, 0, len(req.Items))
	for _, item := range req.Items {
		updates = append(updates, models.StockUpdateEntry{ID: item.ID, PurchaseQty: item.Quantity})
	}
	if err := s.publish(ctx, order.OrderID, TopicStockUpdate, models.StockUpdate{Updates: updates}); err != nil {
		return nil, err
	}

	if err := s.publish(ctx, order.OrderID, TopicOrderProcessed, order); err != nil {
		return nil, err
	}

	return order, nil
}

// publish journals the event, publishes it, and marks the journal row once
// the bus accepted it. The journal is advisory: its own failures are logged,
// never surfaced, so a broken outbox store cannot block intake.
func (s *OrderService) publish(ctx context.Context, orderID, topic string, payload interface{}) error {
	event := &models.OutboxEvent{
		OrderID: orderID,
		Topic:   topic,
		Status:  models.OutboxStatusPending,
	}
	if body, err := json.Marshal(payload); err == nil {
		event.Payload = body
	} else {
		log.Printf("Warning: failed to marshal %s payload for outbox journal: %v", topic, err)
	}

	recorded := true
	if err := s.outbox.Record(ctx, event); err != nil {
		recorded = false
		log.Printf("Warning: failed to record outbox event for order %s topic %s: %v", orderID, topic, err)
	}

	if err := s.bus.Publish(ctx, topic, payload); err != nil {
		return fmt.Errorf("failed to publish %s event for order %s: %w", topic, orderID, err)
	}
	log.Printf("Published %s event for order %s", topic, orderID)

	if recorded {
		if err := s.outbox.MarkPublished(ctx, event.ID); err != nil {
			log.Printf("Warning: failed to mark outbox event %s published: %v", event.ID, err)
		}
	}
	return nil
}

// GetOrder retrieves a single order by its orderId.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.store.Get(ctx, orderID)
}

// ListOrders retrieves all orders from the state store.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.store.GetAll(ctx)
}
