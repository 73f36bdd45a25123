package models

import "time"

// Outbox event statuses.
const (
	OutboxStatusPending   = "pending"
	OutboxStatusPublished = "published"
)

// OutboxEvent journals an intended publication alongside the persisted order,
// so an external reconciler can replay publications that never reached the
// bus. A row stays pending until the corresponding publish succeeds.
type OutboxEvent struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID     string     `json:"orderId" gorm:"index;type:varchar(16)"`
	Topic       string     `json:"topic" gorm:"type:varchar(64)"`
	Payload     []byte     `json:"payload"`
	Status      string     `json:"status" gorm:"index;type:varchar(16)"`
	CreatedAt   time.Time  `json:"createdAt"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}
