package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormCategoryMappingRepository implements CategoryMappingRepository using GORM
type GormCategoryMappingRepository struct {
	db *gorm.DB
}

// NewGormCategoryMappingRepository creates a new GormCategoryMappingRepository
func NewGormCategoryMappingRepository(db *gorm.DB) *GormCategoryMappingRepository {
	return &GormCategoryMappingRepository{db: db}
}

// FindByExternalName finds the mapping for a supplier category name.
// A nil mapping with nil error means the name is unmapped.
func (r *GormCategoryMappingRepository) FindByExternalName(ctx context.Context, supplierID uuid.UUID, externalName string) (*catalog.CategoryMapping, error) {
	var mapping catalog.CategoryMapping
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND external_name = ?", supplierID, externalName).
		First(&mapping).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mapping, nil
}

// FindAll returns every mapping for a supplier connection
func (r *GormCategoryMappingRepository) FindAll(ctx context.Context, supplierID uuid.UUID) ([]catalog.CategoryMapping, error) {
	var mappings []catalog.CategoryMapping
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("external_name ASC").
		Find(&mappings).Error; err != nil {
		return nil, err
	}
	return mappings, nil
}

// Save creates or updates a mapping
func (r *GormCategoryMappingRepository) Save(ctx context.Context, mapping *catalog.CategoryMapping) error {
	return r.db.WithContext(ctx).Save(mapping).Error
}

// Ensure GormCategoryMappingRepository implements CategoryMappingRepository
var _ catalog.CategoryMappingRepository = (*GormCategoryMappingRepository)(nil)

// GormUnmappedCategoryRepository implements UnmappedCategoryRepository using GORM
type GormUnmappedCategoryRepository struct {
	db *gorm.DB
}

// NewGormUnmappedCategoryRepository creates a new GormUnmappedCategoryRepository
func NewGormUnmappedCategoryRepository(db *gorm.DB) *GormUnmappedCategoryRepository {
	return &GormUnmappedCategoryRepository{db: db}
}

// FindByExternalName finds a queue entry by supplier category name.
// A nil entry with nil error means the name was never observed.
func (r *GormUnmappedCategoryRepository) FindByExternalName(ctx context.Context, supplierID uuid.UUID, externalName string) (*catalog.UnmappedExternalCategory, error) {
	var entry catalog.UnmappedExternalCategory
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND external_name = ?", supplierID, externalName).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// FindPending returns entries awaiting curation, most products first
func (r *GormUnmappedCategoryRepository) FindPending(ctx context.Context, supplierID uuid.UUID) ([]catalog.UnmappedExternalCategory, error) {
	var entries []catalog.UnmappedExternalCategory
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND status = ?", supplierID, catalog.UnmappedCategoryStatusPending).
		Order("product_count DESC, external_name ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Save creates or updates a queue entry
func (r *GormUnmappedCategoryRepository) Save(ctx context.Context, entry *catalog.UnmappedExternalCategory) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

// Delete removes a queue entry
func (r *GormUnmappedCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&catalog.UnmappedExternalCategory{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormUnmappedCategoryRepository implements UnmappedCategoryRepository
var _ catalog.UnmappedCategoryRepository = (*GormUnmappedCategoryRepository)(nil)
