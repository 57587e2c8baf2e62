package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductReview is a customer review mirrored from the supplier and shown
// on the local listing. ExternalID is the supplier's review identifier
// and deduplicates repeated imports.
type ProductReview struct {
	shared.BaseAggregateRoot
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_review_product_external,priority:1"`
	ExternalID  string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_review_product_external,priority:2"`
	Rating      int       `gorm:"not null"`
	Content     *string   `gorm:"type:text"`
	Reviewer    *string   `gorm:"type:varchar(100)"`
	CountryCode *string   `gorm:"type:varchar(8)"`
	Visible     bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ProductReview) TableName() string {
	return "product_reviews"
}

// NewProductReview mirrors a supplier review under a local listing.
// Ratings outside 1..5 are clamped into range.
func NewProductReview(productID uuid.UUID, externalID string, rating int) (*ProductReview, error) {
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_REVIEW", "Supplier review ID cannot be empty")
	}
	if rating < 1 {
		rating = 1
	}
	if rating > 5 {
		rating = 5
	}

	return &ProductReview{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		ExternalID:        externalID,
		Rating:            rating,
		Visible:           true,
	}, nil
}

// Hide removes the review from the listing without deleting it.
func (r *ProductReview) Hide() {
	r.Visible = false
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// ProductReviewRepository persists mirrored reviews.
type ProductReviewRepository interface {
	// FindByExternalID finds a review by its supplier identifier.
	// A nil review with nil error means the review was never imported.
	FindByExternalID(ctx context.Context, productID uuid.UUID, externalID string) (*ProductReview, error)

	// FindByProduct returns visible reviews for a listing, newest first
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]ProductReview, error)

	// Save creates or updates a review
	Save(ctx context.Context, review *ProductReview) error

	// CountByProduct counts visible reviews for a listing
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}
