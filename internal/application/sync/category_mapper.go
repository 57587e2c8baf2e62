package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
)

// CategoryMapperService keeps supplier category names routed into the
// local category tree. Unknown names land in a curation queue; applying a
// mapping backfills every product still carrying the name, atomically with
// the mapping itself.
type CategoryMapperService struct {
	products   catalog.ProductRepository
	mappings   catalog.CategoryMappingRepository
	unmapped   catalog.UnmappedCategoryRepository
	categories catalog.CategoryRepository
	txScope    TransactionScope
	logger     *zap.Logger
}

// NewCategoryMapperService creates a category mapper service
func NewCategoryMapperService(
	products catalog.ProductRepository,
	mappings catalog.CategoryMappingRepository,
	unmapped catalog.UnmappedCategoryRepository,
	categories catalog.CategoryRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *CategoryMapperService {
	return &CategoryMapperService{
		products:   products,
		mappings:   mappings,
		unmapped:   unmapped,
		categories: categories,
		txScope:    txScope,
		logger:     logger,
	}
}

// ---------------------------------------------------------------------------
// Curation Queue
// ---------------------------------------------------------------------------

// SyncUnmappedCategories scans stored products for supplier category names
// with no mapping and refreshes the curation queue. Safe to run repeatedly;
// known names only have their product counts updated. The whole sweep
// commits as one transaction, so readers never see queue counts that
// disagree with the product table.
func (s *CategoryMapperService) SyncUnmappedCategories(ctx context.Context, supplierID uuid.UUID) (int, error) {
	queued := 0
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		queued, err = s.refreshQueue(ctx, repos, supplierID)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("refreshed unmapped category queue",
		zap.String("supplier_id", supplierID.String()),
		zap.Int("pending", queued),
	)
	return queued, nil
}

// refreshQueue is the sweep body. It runs against transaction-scoped
// repositories so callers decide what else commits with it.
func (s *CategoryMapperService) refreshQueue(ctx context.Context, repos TransactionalRepositories, supplierID uuid.UUID) (int, error) {
	counts, err := repos.ProductRepo().CountByExternalCategory(ctx, supplierID)
	if err != nil {
		return 0, fmt.Errorf("count unmapped products per category: %w", err)
	}

	queued := 0
	for name, count := range counts {
		if name == "" || count == 0 {
			continue
		}

		mapping, err := repos.MappingRepo().FindByExternalName(ctx, supplierID, name)
		if err != nil {
			return queued, fmt.Errorf("look up mapping for %q: %w", name, err)
		}
		if mapping != nil {
			continue
		}

		entry, err := repos.UnmappedRepo().FindByExternalName(ctx, supplierID, name)
		if err != nil {
			return queued, fmt.Errorf("look up queue entry for %q: %w", name, err)
		}
		if entry == nil {
			entry, err = catalog.NewUnmappedExternalCategory(supplierID, name, count)
			if err != nil {
				return queued, err
			}
		} else {
			entry.Observe(count)
		}

		if err := repos.UnmappedRepo().Save(ctx, entry); err != nil {
			return queued, fmt.Errorf("save queue entry for %q: %w", name, err)
		}
		queued++
	}

	// Queue entries whose unmapped product count fell to zero are stale.
	pending, err := repos.UnmappedRepo().FindPending(ctx, supplierID)
	if err != nil {
		return queued, fmt.Errorf("list pending queue entries: %w", err)
	}
	for i := range pending {
		if count, ok := counts[pending[i].ExternalName]; ok && count > 0 {
			continue
		}
		if err := repos.UnmappedRepo().Delete(ctx, pending[i].ID); err != nil {
			return queued, fmt.Errorf("drop stale queue entry %q: %w", pending[i].ExternalName, err)
		}
	}

	return queued, nil
}

// ListPending returns queue entries awaiting curation, most products first
func (s *CategoryMapperService) ListPending(ctx context.Context, supplierID uuid.UUID) ([]catalog.UnmappedExternalCategory, error) {
	return s.unmapped.FindPending(ctx, supplierID)
}

// ---------------------------------------------------------------------------
// Mapping Application
// ---------------------------------------------------------------------------

// ApplyMapping records a supplier-name-to-category mapping and backfills
// every product still carrying the name. The mapping, the backfill and the
// queue transition commit together or not at all.
func (s *CategoryMapperService) ApplyMapping(ctx context.Context, supplierID uuid.UUID, externalName string, categoryID uuid.UUID) (int, error) {
	if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
		return 0, fmt.Errorf("target category: %w", err)
	}

	backfilled := 0
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		mapping, err := repos.MappingRepo().FindByExternalName(ctx, supplierID, externalName)
		if err != nil {
			return err
		}
		if mapping == nil {
			mapping, err = catalog.NewCategoryMapping(supplierID, externalName, categoryID)
			if err != nil {
				return err
			}
		} else if err := mapping.Retarget(categoryID); err != nil {
			return err
		}
		if err := repos.MappingRepo().Save(ctx, mapping); err != nil {
			return err
		}

		products, err := repos.ProductRepo().FindByExternalCategory(ctx, supplierID, externalName)
		if err != nil {
			return err
		}
		for i := range products {
			product := &products[i]
			if product.CategoryID != nil && *product.CategoryID == categoryID {
				continue
			}
			product.AssignCategory(categoryID)
			if err := repos.ProductRepo().Save(ctx, product); err != nil {
				return err
			}
			backfilled++
		}

		// The queue entry is resolved, so it leaves the curation queue
		// in the same transaction as the backfill.
		entry, err := repos.UnmappedRepo().FindByExternalName(ctx, supplierID, externalName)
		if err != nil {
			return err
		}
		if entry != nil {
			if err := repos.UnmappedRepo().Delete(ctx, entry.ID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("applied category mapping",
		zap.String("supplier_id", supplierID.String()),
		zap.String("external_name", externalName),
		zap.String("category_id", categoryID.String()),
		zap.Int("backfilled", backfilled),
	)
	return backfilled, nil
}

// IgnoreCategory dismisses a queue entry without creating a mapping
func (s *CategoryMapperService) IgnoreCategory(ctx context.Context, supplierID uuid.UUID, externalName string) error {
	entry, err := s.unmapped.FindByExternalName(ctx, supplierID, externalName)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}
	entry.MarkIgnored()
	return s.unmapped.Save(ctx, entry)
}

// ResolveCategory returns the mapped local category for a supplier name,
// or nil when the name is unmapped.
func (s *CategoryMapperService) ResolveCategory(ctx context.Context, supplierID uuid.UUID, externalName string) (*uuid.UUID, error) {
	mapping, err := s.mappings.FindByExternalName(ctx, supplierID, externalName)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, nil
	}
	return &mapping.CategoryID, nil
}
