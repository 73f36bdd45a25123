package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"orderintake/internal/models"
)

// OutboxRepository journals intended publications and their outcome. Rows
// left pending are the replay surface for an external reconciler; this
// service never drains them itself.
type OutboxRepository interface {
	Record(ctx context.Context, event *models.OutboxEvent) error
	MarkPublished(ctx context.Context, id string) error
	Pending(ctx context.Context) ([]models.OutboxEvent, error)
}

// GORMOutboxRepository is a GORM implementation of OutboxRepository.
type GORMOutboxRepository struct {
	db *gorm.DB
}

// NewGORMOutboxRepository migrates the outbox table and returns a repository
// backed by db.
func NewGORMOutboxRepository(db *gorm.DB) (*GORMOutboxRepository, error) {
	if err := db.AutoMigrate(&models.OutboxEvent{}); err != nil {
		return nil, fmt.Errorf("failed to migrate outbox table: %w", err)
	}
	return &GORMOutboxRepository{db: db}, nil
}

// Record inserts a journal row for an event about to be published.
func (r *GORMOutboxRepository) Record(ctx context.Context, event *models.OutboxEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Status == "" {
		event.Status = models.OutboxStatusPending
	}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to record outbox event for order %s: %w", event.OrderID, err)
	}
	return nil
}

// MarkPublished flips a journal row to published once the bus accepted it.
func (r *GORMOutboxRepository) MarkPublished(ctx context.Context, id string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.OutboxStatusPublished,
			"published_at": &now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark outbox event %s published: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("outbox event %s not found", id)
	}
	return nil
}

// Pending returns every journal row whose publication never completed,
// oldest first.
func (r *GORMOutboxRepository) Pending(ctx context.Context) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("status = ?", models.OutboxStatusPending).
		Order("created_at").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending outbox events: %w", err)
	}
	return events, nil
}
