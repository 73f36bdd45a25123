package models

// Statuses assigned at intake. Further transitions (shipped, cancelled, ...)
// belong to downstream consumers of the published events, not this service.
const (
	OrderStatusConfirmed    = "Confirmed"
	PaymentStatusProcessing = "Processing"
	NotificationEmailSent   = "Email sent"
)

// OrderItem is a single line item, both in the checkout request and in the
// stored order summary.
type OrderItem struct {
	ID       int     `json:"id" validate:"required"`
	Quantity int     `json:"quantity" validate:"required,gt=0"`
	Name     string  `json:"name"`
	Price    float64 `json:"price" validate:"gte=0"`
}

// OrderSummary echoes the checkout contents back to the customer. The total
// is client-supplied and stored as-is; it is not recomputed server-side.
type OrderSummary struct {
	Total float64     `json:"total"`
	Items []OrderItem `json:"items"`
}

// CustomerNotification records where the order confirmation was addressed.
type CustomerNotification struct {
	Email              string `json:"email"`
	NotificationStatus string `json:"notificationStatus"`
}

// Order is the canonical order record. It is persisted in the state store
// under its orderId and carried in full on the orderProcessed topic.
type Order struct {
	OrderID               string               `json:"orderId"`
	Status                string               `json:"status"`
	OrderSummary          OrderSummary         `json:"orderSummary"`
	PaymentStatus         string               `json:"paymentStatus"`
	EstimatedDeliveryDate string               `json:"estimatedDeliveryDate"`
	BillingAddress        string               `json:"billingAddress"`
	CustomerNotification  CustomerNotification `json:"customerNotification"`
}

// PaymentInfo is accepted and stored verbatim. Nothing here is authorized
// or charged.
type PaymentInfo struct {
	BillingAddress string `json:"billingAddress" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	CardNumber     string `json:"cardNumber,omitempty"`
	NameOnCard     string `json:"nameOnCard,omitempty"`
}

// CreateOrderRequest is the typed checkout payload.
type CreateOrderRequest struct {
	Items       []OrderItem `json:"items" validate:"required,min=1,dive"`
	Total       float64     `json:"total" validate:"required,gte=0"`
	PaymentInfo PaymentInfo `json:"paymentInfo" validate:"required"`
}

// StockUpdateEntry tells the inventory system how much of one product was
// purchased. The quantity field is named purchaseQty per that consumer's
// contract.
type StockUpdateEntry struct {
	ID          int `json:"id"`
	PurchaseQty int `json:"purchaseQty"`
}

// StockUpdate is the payload published on the stockUpdate topic.
type StockUpdate struct {
	Updates []StockUpdateEntry `json:"updates"`
}
