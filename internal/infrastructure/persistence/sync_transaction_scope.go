package persistence

import (
	"context"

	"gorm.io/gorm"

	appsync "github.com/storefront/backend/internal/application/sync"
	"github.com/storefront/backend/internal/domain/catalog"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations: the
// category mapper keeps backfill and queue removal in one commit, and
// webhook ingestion applies all writes for one event together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appsync.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to catalog repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// ProductRepo returns the product repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// VariantRepo returns the variant repository scoped to the current transaction.
func (r *gormTransactionalRepositories) VariantRepo() catalog.VariantRepository {
	return NewGormVariantRepository(r.tx)
}

// MappingRepo returns the category mapping repository scoped to the current transaction.
func (r *gormTransactionalRepositories) MappingRepo() catalog.CategoryMappingRepository {
	return NewGormCategoryMappingRepository(r.tx)
}

// UnmappedRepo returns the unmapped category queue repository scoped to the current transaction.
func (r *gormTransactionalRepositories) UnmappedRepo() catalog.UnmappedCategoryRepository {
	return NewGormUnmappedCategoryRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appsync.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appsync.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
