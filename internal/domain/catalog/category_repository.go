package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// CategoryRepository persists the merchant category tree. Lookups by id
// return shared.ErrNotFound on a miss.
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// FindByCode looks a category up by its stable code.
	FindByCode(ctx context.Context, code string) (*Category, error)

	FindAll(ctx context.Context, filter shared.Filter) ([]Category, error)

	// FindChildren returns the direct children of a category.
	FindChildren(ctx context.Context, parentID uuid.UUID) ([]Category, error)

	// FindRootCategories returns the categories without a parent.
	FindRootCategories(ctx context.Context) ([]Category, error)

	// Save inserts or updates a category.
	Save(ctx context.Context, category *Category) error

	Delete(ctx context.Context, id uuid.UUID) error

	// HasChildren reports whether any category names this one as parent.
	HasChildren(ctx context.Context, categoryID uuid.UUID) (bool, error)

	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
