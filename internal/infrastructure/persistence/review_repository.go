package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormProductReviewRepository implements ProductReviewRepository using GORM
type GormProductReviewRepository struct {
	db *gorm.DB
}

// NewGormProductReviewRepository creates a new GormProductReviewRepository
func NewGormProductReviewRepository(db *gorm.DB) *GormProductReviewRepository {
	return &GormProductReviewRepository{db: db}
}

// FindByExternalID finds a review by its supplier identifier.
// A nil review with nil error means the review was never imported.
func (r *GormProductReviewRepository) FindByExternalID(ctx context.Context, productID uuid.UUID, externalID string) (*catalog.ProductReview, error) {
	var review catalog.ProductReview
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND external_id = ?", productID, externalID).
		First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

// FindByProduct returns visible reviews for a listing, newest first
func (r *GormProductReviewRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]catalog.ProductReview, error) {
	var reviews []catalog.ProductReview
	query := r.db.WithContext(ctx).
		Where("product_id = ? AND visible = ?", productID, true).
		Order("created_at DESC, external_id DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// Save creates or updates a review
func (r *GormProductReviewRepository) Save(ctx context.Context, review *catalog.ProductReview) error {
	return r.db.WithContext(ctx).Save(review).Error
}

// CountByProduct counts visible reviews for a listing
func (r *GormProductReviewRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.ProductReview{}).
		Where("product_id = ? AND visible = ?", productID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormProductReviewRepository implements ProductReviewRepository
var _ catalog.ProductReviewRepository = (*GormProductReviewRepository)(nil)
