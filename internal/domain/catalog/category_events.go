package catalog

import (
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

const (
	AggregateTypeCategory        = "Category"
	AggregateTypeCategoryMapping = "CategoryMapping"
)

const (
	EventTypeCategoryCreated = "CategoryCreated"
	EventTypeCategoryUpdated = "CategoryUpdated"
	EventTypeCategoryMapped  = "CategoryMapped"
)

// CategoryCreatedEvent records a new category entering the tree.
type CategoryCreatedEvent struct {
	shared.BaseDomainEvent
	CategoryID uuid.UUID  `json:"category_id"`
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
	Level      int        `json:"level"`
}

func NewCategoryCreatedEvent(category *Category) *CategoryCreatedEvent {
	return &CategoryCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCategoryCreated, AggregateTypeCategory, category.ID),
		CategoryID:      category.ID,
		Code:            category.Code,
		Name:            category.Name,
		ParentID:        category.ParentID,
		Level:           category.Level,
	}
}

// CategoryUpdatedEvent records a rename or description change.
type CategoryUpdatedEvent struct {
	shared.BaseDomainEvent
	CategoryID uuid.UUID `json:"category_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
}

func NewCategoryUpdatedEvent(category *Category) *CategoryUpdatedEvent {
	return &CategoryUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCategoryUpdated, AggregateTypeCategory, category.ID),
		CategoryID:      category.ID,
		Code:            category.Code,
		Name:            category.Name,
	}
}

// CategoryMappedEvent records a supplier category name being bound to a
// merchant category.
type CategoryMappedEvent struct {
	shared.BaseDomainEvent
	MappingID    uuid.UUID `json:"mapping_id"`
	ExternalName string    `json:"external_name"`
	CategoryID   uuid.UUID `json:"category_id"`
}

func NewCategoryMappedEvent(mapping *CategoryMapping) *CategoryMappedEvent {
	return &CategoryMappedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCategoryMapped, AggregateTypeCategoryMapping, mapping.ID),
		MappingID:       mapping.ID,
		ExternalName:    mapping.ExternalName,
		CategoryID:      mapping.CategoryID,
	}
}
