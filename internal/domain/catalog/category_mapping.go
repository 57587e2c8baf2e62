package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// CategoryMapping binds a supplier category name to a local storefront
// category. External names are matched case-sensitively as delivered by
// the supplier.
type CategoryMapping struct {
	shared.SupplierAggregateRoot
	ExternalName string    `gorm:"type:varchar(200);not null;uniqueIndex:idx_mapping_supplier_name,priority:2"`
	CategoryID   uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (CategoryMapping) TableName() string {
	return "category_mappings"
}

// NewCategoryMapping binds a supplier category name to a local category.
func NewCategoryMapping(supplierID uuid.UUID, externalName string, categoryID uuid.UUID) (*CategoryMapping, error) {
	if strings.TrimSpace(externalName) == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_NAME", "External category name cannot be empty")
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Local category is required")
	}

	mapping := &CategoryMapping{
		SupplierAggregateRoot: shared.NewSupplierAggregateRoot(supplierID),
		ExternalName:          externalName,
		CategoryID:            categoryID,
	}

	mapping.AddDomainEvent(NewCategoryMappedEvent(mapping))

	return mapping, nil
}

// Retarget points the mapping at a different local category.
func (m *CategoryMapping) Retarget(categoryID uuid.UUID) error {
	if categoryID == uuid.Nil {
		return shared.NewDomainError("INVALID_CATEGORY", "Local category is required")
	}
	m.CategoryID = categoryID
	m.UpdatedAt = time.Now()
	m.IncrementVersion()
	return nil
}

// UnmappedCategoryStatus tracks an unmapped supplier category through the
// curator workflow.
type UnmappedCategoryStatus string

const (
	UnmappedCategoryStatusPending UnmappedCategoryStatus = "pending"
	UnmappedCategoryStatusIgnored UnmappedCategoryStatus = "ignored"
)

// UnmappedExternalCategory is a supplier category name observed on synced
// products that has no local mapping yet. It queues the name for a human
// curator; no mapping is ever guessed automatically.
type UnmappedExternalCategory struct {
	shared.SupplierAggregateRoot
	ExternalName string                 `gorm:"type:varchar(200);not null;uniqueIndex:idx_unmapped_supplier_name,priority:2"`
	ProductCount int64                  `gorm:"not null;default:0"`
	Status       UnmappedCategoryStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	FirstSeenAt  time.Time              `gorm:"not null"`
	LastSeenAt   time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UnmappedExternalCategory) TableName() string {
	return "unmapped_external_categories"
}

// NewUnmappedExternalCategory queues a supplier category name for curation.
func NewUnmappedExternalCategory(supplierID uuid.UUID, externalName string, productCount int64) (*UnmappedExternalCategory, error) {
	if strings.TrimSpace(externalName) == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_NAME", "External category name cannot be empty")
	}

	now := time.Now()
	return &UnmappedExternalCategory{
		SupplierAggregateRoot: shared.NewSupplierAggregateRoot(supplierID),
		ExternalName:          externalName,
		ProductCount:          productCount,
		Status:                UnmappedCategoryStatusPending,
		FirstSeenAt:           now,
		LastSeenAt:            now,
	}, nil
}

// Observe refreshes the product count after another sync pass.
func (u *UnmappedExternalCategory) Observe(productCount int64) {
	u.ProductCount = productCount
	u.LastSeenAt = time.Now()
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// MarkIgnored records that a curator chose to leave the name unmapped.
func (u *UnmappedExternalCategory) MarkIgnored() {
	u.Status = UnmappedCategoryStatusIgnored
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// IsPending returns true if the entry still awaits curation
func (u *UnmappedExternalCategory) IsPending() bool {
	return u.Status == UnmappedCategoryStatusPending
}

// CategoryMappingRepository persists supplier category mappings.
type CategoryMappingRepository interface {
	// FindByExternalName finds the mapping for a supplier category name.
	// A nil mapping with nil error means the name is unmapped.
	FindByExternalName(ctx context.Context, supplierID uuid.UUID, externalName string) (*CategoryMapping, error)

	// FindAll returns every mapping for a supplier connection
	FindAll(ctx context.Context, supplierID uuid.UUID) ([]CategoryMapping, error)

	// Save creates or updates a mapping
	Save(ctx context.Context, mapping *CategoryMapping) error
}

// UnmappedCategoryRepository persists the curation queue.
type UnmappedCategoryRepository interface {
	// FindByExternalName finds a queue entry by supplier category name.
	// A nil entry with nil error means the name was never observed.
	FindByExternalName(ctx context.Context, supplierID uuid.UUID, externalName string) (*UnmappedExternalCategory, error)

	// FindPending returns entries awaiting curation, most products first
	FindPending(ctx context.Context, supplierID uuid.UUID) ([]UnmappedExternalCategory, error)

	// Save creates or updates a queue entry
	Save(ctx context.Context, entry *UnmappedExternalCategory) error

	// Delete removes a queue entry. Entries are deleted when the name is
	// mapped or when no unmapped products carry it anymore.
	Delete(ctx context.Context, id uuid.UUID) error
}
