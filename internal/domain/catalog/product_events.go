package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeProduct = "Product"
	AggregateTypeVariant = "Variant"
)

// Event type constants
const (
	EventTypeProductListed        = "ProductListed"
	EventTypeProductUpdated       = "ProductUpdated"
	EventTypeProductCategorized   = "ProductCategorized"
	EventTypeProductStatusChanged = "ProductStatusChanged"
	EventTypeVariantVidCorrected  = "VariantVidCorrected"
	EventTypeVariantDeactivated   = "VariantDeactivated"
)

// ProductListedEvent is published when a supplier product is first listed
type ProductListedEvent struct {
	shared.BaseDomainEvent
	ProductID        uuid.UUID       `json:"product_id"`
	PID              string          `json:"pid"`
	Name             string          `json:"name"`
	ExternalCategory string          `json:"external_category"`
	SellingPrice     decimal.Decimal `json:"selling_price"`
}

// NewProductListedEvent creates a new ProductListedEvent
func NewProductListedEvent(product *Product) *ProductListedEvent {
	return &ProductListedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeProductListed, AggregateTypeProduct, product.ID),
		ProductID:        product.ID,
		PID:              product.PID,
		Name:             product.Name,
		ExternalCategory: product.ExternalCategory,
		SellingPrice:     product.SellingPrice,
	}
}

// ProductUpdatedEvent is published when a listing is refreshed from
// supplier data
type ProductUpdatedEvent struct {
	shared.BaseDomainEvent
	ProductID    uuid.UUID       `json:"product_id"`
	PID          string          `json:"pid"`
	Name         string          `json:"name"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// NewProductUpdatedEvent creates a new ProductUpdatedEvent
func NewProductUpdatedEvent(product *Product) *ProductUpdatedEvent {
	return &ProductUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductUpdated, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		PID:             product.PID,
		Name:            product.Name,
		SellingPrice:    product.SellingPrice,
	}
}

// ProductCategorizedEvent is published when a local category is assigned
type ProductCategorizedEvent struct {
	shared.BaseDomainEvent
	ProductID  uuid.UUID `json:"product_id"`
	CategoryID uuid.UUID `json:"category_id"`
}

// NewProductCategorizedEvent creates a new ProductCategorizedEvent
func NewProductCategorizedEvent(product *Product, categoryID uuid.UUID) *ProductCategorizedEvent {
	return &ProductCategorizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCategorized, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		CategoryID:      categoryID,
	}
}

// ProductStatusChangedEvent is published when a listing is shown or hidden
type ProductStatusChangedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID     `json:"product_id"`
	OldStatus ProductStatus `json:"old_status"`
	NewStatus ProductStatus `json:"new_status"`
}

// NewProductStatusChangedEvent creates a new ProductStatusChangedEvent
func NewProductStatusChangedEvent(product *Product, oldStatus, newStatus ProductStatus) *ProductStatusChangedEvent {
	return &ProductStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductStatusChanged, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// VariantVidCorrectedEvent is published when reconciliation replaces a
// corrupt vid with the supplier's authoritative one
type VariantVidCorrectedEvent struct {
	shared.BaseDomainEvent
	VariantID uuid.UUID `json:"variant_id"`
	ProductID uuid.UUID `json:"product_id"`
	OldVID    string    `json:"old_vid"`
	NewVID    string    `json:"new_vid"`
}

// NewVariantVidCorrectedEvent creates a new VariantVidCorrectedEvent
func NewVariantVidCorrectedEvent(variant *Variant, oldVID, newVID string) *VariantVidCorrectedEvent {
	return &VariantVidCorrectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVariantVidCorrected, AggregateTypeVariant, variant.ID),
		VariantID:       variant.ID,
		ProductID:       variant.ProductID,
		OldVID:          oldVID,
		NewVID:          newVID,
	}
}

// VariantDeactivatedEvent is published when a variant is made unorderable
type VariantDeactivatedEvent struct {
	shared.BaseDomainEvent
	VariantID uuid.UUID `json:"variant_id"`
	ProductID uuid.UUID `json:"product_id"`
	Reason    string    `json:"reason"`
}

// NewVariantDeactivatedEvent creates a new VariantDeactivatedEvent
func NewVariantDeactivatedEvent(variant *Variant, reason string) *VariantDeactivatedEvent {
	return &VariantDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVariantDeactivated, AggregateTypeVariant, variant.ID),
		VariantID:       variant.ID,
		ProductID:       variant.ProductID,
		Reason:          reason,
	}
}
