package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByPID finds a product by its supplier product ID
	FindByPID(ctx context.Context, supplierID uuid.UUID, pid string) (*Product, error)

	// FindAll finds all products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// FindByExternalCategory finds all products carrying a supplier category name
	FindByExternalCategory(ctx context.Context, supplierID uuid.UUID, externalCategory string) ([]Product, error)

	// FindUncategorized finds products with no local category assigned
	FindUncategorized(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]Product, error)

	// FindActive finds all active products, paginated
	FindActive(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByExternalCategory counts products per supplier category name,
	// restricted to products with no local category assigned
	CountByExternalCategory(ctx context.Context, supplierID uuid.UUID) (map[string]int64, error)
}

// VariantRepository defines the interface for variant persistence
type VariantRepository interface {
	// FindByID finds a variant by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Variant, error)

	// FindByVID finds a variant by its supplier variant ID
	FindByVID(ctx context.Context, vid string) (*Variant, error)

	// FindByProduct finds all variants under a product
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]Variant, error)

	// FindAll walks every stored variant in stable order, paginated,
	// for reconciliation sweeps
	FindAll(ctx context.Context, filter shared.Filter) ([]Variant, error)

	// Save creates or updates a variant
	Save(ctx context.Context, variant *Variant) error

	// Count counts all stored variants
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
