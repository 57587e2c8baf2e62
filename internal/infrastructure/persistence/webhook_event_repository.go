package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/supplier"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormWebhookEventRepository implements WebhookEventRepository using GORM
type GormWebhookEventRepository struct {
	db *gorm.DB
}

// NewGormWebhookEventRepository creates a new GormWebhookEventRepository
func NewGormWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

// FindByMessageID returns the event recorded for an idempotency key.
// A nil event with nil error means no event was recorded.
func (r *GormWebhookEventRepository) FindByMessageID(ctx context.Context, supplierID uuid.UUID, messageID string) (*supplier.WebhookEvent, error) {
	var model models.WebhookEventModel
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND message_id = ?", supplierID, messageID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates an event
func (r *GormWebhookEventRepository) Save(ctx context.Context, event *supplier.WebhookEvent) error {
	model := models.WebhookEventModelFromDomain(event)
	return r.db.WithContext(ctx).Save(model).Error
}

// ListByStatus returns recent events in a given status, newest first
func (r *GormWebhookEventRepository) ListByStatus(ctx context.Context, supplierID uuid.UUID, status supplier.EventStatus, limit int) ([]supplier.WebhookEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	var eventModels []models.WebhookEventModel
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND status = ?", supplierID, status).
		Order("received_at DESC").
		Limit(limit).
		Find(&eventModels).Error; err != nil {
		return nil, err
	}

	events := make([]supplier.WebhookEvent, len(eventModels))
	for i, model := range eventModels {
		events[i] = *model.ToDomain()
	}
	return events, nil
}

// Ensure GormWebhookEventRepository implements WebhookEventRepository
var _ supplier.WebhookEventRepository = (*GormWebhookEventRepository)(nil)
