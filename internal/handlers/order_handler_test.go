package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"sync"
	"testing"

	"orderintake/internal/handlers"
	"orderintake/internal/models"
	"orderintake/internal/repositories"
	"orderintake/internal/services"
	"orderintake/pkg/orderid"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stubPublisher records publications in memory and can be told to fail a
// given topic, standing in for the RabbitMQ client.
type stubPublisher struct {
	mu        sync.Mutex
	published []publishedEvent
	failTopic string
}

type publishedEvent struct {
	topic   string
	payload interface{}
}

func (p *stubPublisher) Publish(ctx context.Context, topic string, payload interface{}) error {
	if p.failTopic == topic {
		return fmt.Errorf("bus unreachable")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, publishedEvent{topic: topic, payload: payload})
	return nil
}

func (p *stubPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.published {
		out = append(out, e.topic)
	}
	return out
}

// failingOrderStore simulates an unreachable state store.
type failingOrderStore struct{}

func (failingOrderStore) Put(ctx context.Context, order *models.Order) error {
	return fmt.Errorf("state store unreachable")
}

func (failingOrderStore) Get(ctx context.Context, orderID string) (*models.Order, error) {
	return nil, fmt.Errorf("state store unreachable")
}

func (failingOrderStore) GetAll(ctx context.Context) ([]models.Order, error) {
	return nil, fmt.Errorf("state store unreachable")
}

// setupApp sets up a Fiber app for testing with an in-memory order store,
// an in-memory SQLite outbox, and the given publisher stub.
func setupApp(store repositories.OrderStore, bus *stubPublisher) (*fiber.App, *gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open in-memory outbox database: %w", err)
	}
	outboxRepo, err := repositories.NewGORMOutboxRepository(db)
	if err != nil {
		return nil, nil, err
	}

	orderService := services.NewOrderService(store, outboxRepo, bus, orderid.NewRandomGenerator())
	orderHandler := handlers.NewOrderHandler(orderService)

	app := fiber.New()

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Healthy")
	})
	app.Get("/ready", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Ready")
	})

	orderHandler.RegisterRoutes(app)

	return app, db, nil
}

// TestMain suppresses logging during tests for cleaner output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func checkoutBody() []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"items": []map[string]interface{}{
			{"id": 1, "quantity": 2, "name": "Widget", "price": 9.99},
		},
		"total": 19.98,
		"paymentInfo": map[string]interface{}{
			"billingAddress": "1 Main St",
			"email":          "a@b.com",
		},
	})
	return body
}

func postOrder(t *testing.T, app *fiber.App, body []byte) *http.Response {
	req := httptest.NewRequest(http.MethodPost, "/order", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	app, _, err := setupApp(repositories.NewMockOrderStore(), &stubPublisher{})
	assert.NoError(t, err)

	for path, expected := range map[string]string{"/healthz": "Healthy", "/ready": "Ready"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, expected, string(body))
	}
}

func TestCreateOrderAndGetOrder(t *testing.T) {
	bus := &stubPublisher{}
	app, db, err := setupApp(repositories.NewMockOrderStore(), bus)
	assert.NoError(t, err)

	resp := postOrder(t, app, checkoutBody())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var created models.Order
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Regexp(t, regexp.MustCompile(`^ORD[A-Z0-9]{9}$`), created.OrderID)
	assert.Equal(t, "Confirmed", created.Status)
	assert.Equal(t, "Processing", created.PaymentStatus)
	assert.Equal(t, 19.98, created.OrderSummary.Total)
	assert.Equal(t, "1 Main St", created.BillingAddress)
	assert.Equal(t, "a@b.com", created.CustomerNotification.Email)
	assert.Equal(t, "Email sent", created.CustomerNotification.NotificationStatus)

	// Both events were published, stock update first.
	assert.Equal(t, []string{services.TopicStockUpdate, services.TopicOrderProcessed}, bus.topics())

	// Both outbox rows flipped to published.
	var events []models.OutboxEvent
	assert.NoError(t, db.Where("order_id = ?", created.OrderID).Find(&events).Error)
	assert.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, models.OutboxStatusPublished, e.Status)
		assert.NotNil(t, e.PublishedAt)
	}

	// The record read back is structurally equal to the create response.
	getResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/order/"+created.OrderID, nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	var fetched models.Order
	assert.NoError(t, json.NewDecoder(getResp.Body).Decode(&fetched))
	assert.Equal(t, created, fetched)
}

func TestGetOrderNotFound(t *testing.T) {
	app, _, err := setupApp(repositories.NewMockOrderStore(), &stubPublisher{})
	assert.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/order/ORDMISSING00", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Order not found", body["message"])
}

func TestListOrders(t *testing.T) {
	bus := &stubPublisher{}
	app, _, err := setupApp(repositories.NewMockOrderStore(), bus)
	assert.NoError(t, err)

	// Empty store responds 404.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/orders", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "No orders found", body["message"])

	// After three creates the full set comes back.
	for i := 0; i < 3; i++ {
		createResp := postOrder(t, app, checkoutBody())
		assert.Equal(t, http.StatusOK, createResp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/orders", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var orders []models.Order
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&orders))
	assert.Len(t, orders, 3)
}

func TestCreateOrderValidation(t *testing.T) {
	bus := &stubPublisher{}
	app, _, err := setupApp(repositories.NewMockOrderStore(), bus)
	assert.NoError(t, err)

	cases := []map[string]interface{}{
		{}, // everything missing
		{"items": []map[string]interface{}{}, "total": 10.0,
			"paymentInfo": map[string]interface{}{"billingAddress": "1 Main St", "email": "a@b.com"}},
		{"items": []map[string]interface{}{{"id": 1, "quantity": 0}}, "total": 10.0,
			"paymentInfo": map[string]interface{}{"billingAddress": "1 Main St", "email": "a@b.com"}},
		{"items": []map[string]interface{}{{"id": 1, "quantity": 1}}, "total": 10.0,
			"paymentInfo": map[string]interface{}{"billingAddress": "1 Main St", "email": "not-an-email"}},
	}

	for _, payload := range cases {
		body, _ := json.Marshal(payload)
		resp := postOrder(t, app, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}

	// No side effect may have occurred for rejected requests.
	assert.Empty(t, bus.topics())
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/orders", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateOrderPersistFailure(t *testing.T) {
	bus := &stubPublisher{}
	app, _, err := setupApp(failingOrderStore{}, bus)
	assert.NoError(t, err)

	resp := postOrder(t, app, checkoutBody())
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Error processing order", body["message"])
	assert.Contains(t, body["error"], "state store unreachable")

	// Nothing was published when persistence failed.
	assert.Empty(t, bus.topics())
}

func TestCreateOrderPublishFailureLeavesOrderPersisted(t *testing.T) {
	bus := &stubPublisher{failTopic: services.TopicOrderProcessed}
	app, db, err := setupApp(repositories.NewMockOrderStore(), bus)
	assert.NoError(t, err)

	resp := postOrder(t, app, checkoutBody())
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	// The order is durable despite the failed publication.
	listResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/orders", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, listResp.StatusCode)

	var orders []models.Order
	assert.NoError(t, json.NewDecoder(listResp.Body).Decode(&orders))
	assert.Len(t, orders, 1)

	getResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/order/"+orders[0].OrderID, nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	// stockUpdate went out and is marked published; orderProcessed stayed pending.
	assert.Equal(t, []string{services.TopicStockUpdate}, bus.topics())

	var events []models.OutboxEvent
	assert.NoError(t, db.Where("order_id = ?", orders[0].OrderID).Find(&events).Error)
	assert.Len(t, events, 2)
	byTopic := make(map[string]models.OutboxEvent, len(events))
	for _, e := range events {
		byTopic[e.Topic] = e
	}
	assert.Equal(t, models.OutboxStatusPublished, byTopic[services.TopicStockUpdate].Status)
	assert.Equal(t, models.OutboxStatusPending, byTopic[services.TopicOrderProcessed].Status)
}
