package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormProductRepository stores imported supplier products.
type GormProductRepository struct {
	db *gorm.DB
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByPID looks a product up by its supplier-assigned product ID.
// PIDs are only unique per supplier, so both keys are required.
func (r *GormProductRepository) FindByPID(ctx context.Context, supplierID uuid.UUID, pid string) (*catalog.Product, error) {
	var product catalog.Product
	err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND pid = ?", supplierID, pid).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	var products []catalog.Product
	query := r.pagedQuery(r.db.WithContext(ctx).Model(&catalog.Product{}), filter)
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByExternalCategory returns every product carrying the given raw
// supplier category name, in stable PID order.
func (r *GormProductRepository) FindByExternalCategory(ctx context.Context, supplierID uuid.UUID, externalCategory string) ([]catalog.Product, error) {
	var products []catalog.Product
	err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND external_category = ?", supplierID, externalCategory).
		Order("pid ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// FindUncategorized returns products that still have no local category.
func (r *GormProductRepository) FindUncategorized(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	var products []catalog.Product
	base := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("supplier_id = ? AND category_id IS NULL", supplierID)
	if err := r.pagedQuery(base, filter).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductRepository) FindActive(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	var products []catalog.Product
	base := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("supplier_id = ? AND status = ?", supplierID, catalog.ProductStatusActive)
	if err := r.pagedQuery(base, filter).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *GormProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.filteredQuery(r.db.WithContext(ctx).Model(&catalog.Product{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByExternalCategory groups unmapped products by their raw supplier
// category name. Products already assigned a local category are excluded
// so the counts reflect remaining mapping work.
func (r *GormProductRepository) CountByExternalCategory(ctx context.Context, supplierID uuid.UUID) (map[string]int64, error) {
	type row struct {
		ExternalCategory string
		Count            int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Select("external_category, COUNT(*) AS count").
		Where("supplier_id = ? AND category_id IS NULL AND external_category <> ''", supplierID).
		Group("external_category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, rec := range rows {
		counts[rec.ExternalCategory] = rec.Count
	}
	return counts, nil
}

func (r *GormProductRepository) pagedQuery(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.filteredQuery(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		column := ValidateSortField(filter.OrderBy, ProductSortFields, "created_at")
		return query.Order(column + " " + ValidateSortOrder(filter.OrderDir))
	}
	// PID breaks ties between products imported in the same batch.
	return query.Order("created_at ASC, pid ASC")
}

func (r *GormProductRepository) filteredQuery(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.TrimSpace(filter.Search) + "%"
		query = query.Where("name LIKE ? OR pid LIKE ?", pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "supplier_id":
			query = query.Where("supplier_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "category_id":
			if value == nil {
				query = query.Where("category_id IS NULL")
			} else {
				query = query.Where("category_id = ?", value)
			}
		case "external_category":
			query = query.Where("external_category = ?", value)
		}
	}
	return query
}
