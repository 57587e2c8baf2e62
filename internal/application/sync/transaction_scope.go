package sync

import (
	"context"

	"github.com/storefront/backend/internal/domain/catalog"
)

// TransactionScope provides transactional access to catalog repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and are committed
// or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the catalog repositories
// within a transaction. All repositories returned share the same
// underlying database transaction.
type TransactionalRepositories interface {
	// ProductRepo returns the product repository scoped to the current transaction
	ProductRepo() catalog.ProductRepository
	// VariantRepo returns the variant repository scoped to the current transaction
	VariantRepo() catalog.VariantRepository
	// MappingRepo returns the category mapping repository scoped to the current transaction
	MappingRepo() catalog.CategoryMappingRepository
	// UnmappedRepo returns the unmapped category queue repository scoped to the current transaction
	UnmappedRepo() catalog.UnmappedCategoryRepository
}

// NoOpTransactionScope runs the function against plain repositories without
// a real transaction. Useful for tests and stores without transaction support.
type NoOpTransactionScope struct {
	productRepo  catalog.ProductRepository
	variantRepo  catalog.VariantRepository
	mappingRepo  catalog.CategoryMappingRepository
	unmappedRepo catalog.UnmappedCategoryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories.
func NewNoOpTransactionScope(
	productRepo catalog.ProductRepository,
	variantRepo catalog.VariantRepository,
	mappingRepo catalog.CategoryMappingRepository,
	unmappedRepo catalog.UnmappedCategoryRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		productRepo:  productRepo,
		variantRepo:  variantRepo,
		mappingRepo:  mappingRepo,
		unmappedRepo: unmappedRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ProductRepo returns the product repository.
func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository {
	return s.productRepo
}

// VariantRepo returns the variant repository.
func (s *NoOpTransactionScope) VariantRepo() catalog.VariantRepository {
	return s.variantRepo
}

// MappingRepo returns the category mapping repository.
func (s *NoOpTransactionScope) MappingRepo() catalog.CategoryMappingRepository {
	return s.mappingRepo
}

// UnmappedRepo returns the unmapped category queue repository.
func (s *NoOpTransactionScope) UnmappedRepo() catalog.UnmappedCategoryRepository {
	return s.unmappedRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
