package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/supplier"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormCredentialRepository implements CredentialRepository using GORM
type GormCredentialRepository struct {
	db *gorm.DB
}

// NewGormCredentialRepository creates a new GormCredentialRepository
func NewGormCredentialRepository(db *gorm.DB) *GormCredentialRepository {
	return &GormCredentialRepository{db: db}
}

// FindBySupplier returns the live credential for a supplier connection
func (r *GormCredentialRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID) (*supplier.Credential, error) {
	var model models.CredentialModel
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, supplier.ErrCredentialNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a credential
func (r *GormCredentialRepository) Save(ctx context.Context, cred *supplier.Credential) error {
	model := models.CredentialModelFromDomain(cred)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormCredentialRepository implements CredentialRepository
var _ supplier.CredentialRepository = (*GormCredentialRepository)(nil)
