package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/supplier"
)

// catalogPageSize is the page size used when walking the supplier catalog
const catalogPageSize = 50

// CatalogSyncService mirrors the supplier catalog into local storage.
// Products and variants are upserted keyed on their supplier ids; optional
// fields the supplier stops sending are cleared locally rather than left
// stale.
type CatalogSyncService struct {
	gateway  supplier.Gateway
	products catalog.ProductRepository
	variants catalog.VariantRepository
	mappings catalog.CategoryMappingRepository
	logger   *zap.Logger
}

// NewCatalogSyncService creates a catalog sync service
func NewCatalogSyncService(
	gateway supplier.Gateway,
	products catalog.ProductRepository,
	variants catalog.VariantRepository,
	mappings catalog.CategoryMappingRepository,
	logger *zap.Logger,
) *CatalogSyncService {
	return &CatalogSyncService{
		gateway:  gateway,
		products: products,
		variants: variants,
		mappings: mappings,
		logger:   logger,
	}
}

// ---------------------------------------------------------------------------
// Catalog Walk
// ---------------------------------------------------------------------------

// SyncCatalog walks the supplier catalog page by page and upserts every
// product it returns. One failed product does not stop the walk; failures
// are counted and logged.
func (s *CatalogSyncService) SyncCatalog(ctx context.Context, supplierID uuid.UUID, filter supplier.ProductFilter) (SyncSummary, error) {
	startedAt := time.Now()
	counters := &summaryCounters{}

	pageNum := 1
	for {
		select {
		case <-ctx.Done():
			return counters.summary("catalog_sync", startedAt), ctx.Err()
		default:
		}

		page, err := s.gateway.ListProducts(ctx, filter, pageNum, catalogPageSize)
		if err != nil {
			return counters.summary("catalog_sync", startedAt), fmt.Errorf("list supplier products page %d: %w", pageNum, err)
		}

		for i := range page.Products {
			counters.scanned.Add(1)
			imported, err := s.UpsertProduct(ctx, supplierID, &page.Products[i])
			if err != nil {
				counters.failed.Add(1)
				s.logger.Warn("failed to upsert supplier product",
					zap.String("pid", page.Products[i].PID),
					zap.Error(err),
				)
				continue
			}
			if imported {
				counters.imported.Add(1)
			} else {
				counters.updated.Add(1)
			}
		}

		if !page.HasMore() {
			break
		}
		pageNum++
	}

	summary := counters.summary("catalog_sync", startedAt)
	s.logger.Info("catalog sync finished",
		zap.Int64("scanned", summary.Scanned),
		zap.Int64("imported", summary.Imported),
		zap.Int64("updated", summary.Updated),
		zap.Int64("failed", summary.Failed),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// RefreshProduct re-fetches one product from the supplier and upserts it
func (s *CatalogSyncService) RefreshProduct(ctx context.Context, supplierID uuid.UUID, pid string) error {
	external, err := s.FetchProductWithVariants(ctx, pid)
	if err != nil {
		return err
	}
	_, err = s.UpsertProduct(ctx, supplierID, external)
	return err
}

// FetchProductWithVariants fetches the authoritative product record and
// makes sure its variant list is populated. Callers that write inside a
// transaction use this to keep supplier calls out of it.
func (s *CatalogSyncService) FetchProductWithVariants(ctx context.Context, pid string) (*supplier.ExternalProduct, error) {
	external, err := s.gateway.GetProductDetail(ctx, pid)
	if err != nil {
		return nil, err
	}
	if len(external.Variants) == 0 {
		variants, err := s.gateway.GetVariantsByPID(ctx, pid)
		if err != nil && !errors.Is(err, supplier.ErrProductNotFound) {
			return nil, fmt.Errorf("fetch variants for %s: %w", pid, err)
		}
		external.Variants = variants
	}
	return external, nil
}

// ---------------------------------------------------------------------------
// Upserts
// ---------------------------------------------------------------------------

// catalogStores names the write targets for one product upsert. The
// catalog walk passes the service's plain repositories; webhook ingestion
// passes transaction-scoped ones.
type catalogStores struct {
	products catalog.ProductRepository
	variants catalog.VariantRepository
	mappings catalog.CategoryMappingRepository
}

// UpsertProduct stores one supplier product and its variants. It returns
// true when the product was newly imported.
func (s *CatalogSyncService) UpsertProduct(ctx context.Context, supplierID uuid.UUID, external *supplier.ExternalProduct) (bool, error) {
	stores := catalogStores{products: s.products, variants: s.variants, mappings: s.mappings}
	return s.upsertProduct(ctx, stores, supplierID, external)
}

func (s *CatalogSyncService) upsertProduct(ctx context.Context, stores catalogStores, supplierID uuid.UUID, external *supplier.ExternalProduct) (bool, error) {
	product, err := stores.products.FindByPID(ctx, supplierID, external.PID)
	imported := false
	switch {
	case err == nil:
		if err := product.Update(external.Name, external.Description, external.ImageURL, external.SellPrice); err != nil {
			return false, err
		}
		product.SetExternalCategory(external.Category)
	case errors.Is(err, shared.ErrNotFound):
		product, err = catalog.NewProduct(supplierID, external.PID, external.Name, external.Category, external.SellPrice)
		if err != nil {
			return false, err
		}
		if external.Description != nil || external.ImageURL != nil {
			if err := product.Update(external.Name, external.Description, external.ImageURL, external.SellPrice); err != nil {
				return false, err
			}
		}
		imported = true
	default:
		return false, err
	}

	if !product.HasCategory() {
		mapping, err := stores.mappings.FindByExternalName(ctx, supplierID, external.Category)
		if err != nil {
			return false, err
		}
		if mapping != nil {
			product.AssignCategory(mapping.CategoryID)
		}
	}

	if err := stores.products.Save(ctx, product); err != nil {
		return imported, fmt.Errorf("save product %s: %w", external.PID, err)
	}

	variants := external.Variants
	if len(variants) == 0 {
		// The list endpoint omits variants; fetch them separately.
		variants, err = s.gateway.GetVariantsByPID(ctx, external.PID)
		if err != nil && !errors.Is(err, supplier.ErrProductNotFound) {
			return imported, fmt.Errorf("fetch variants for %s: %w", external.PID, err)
		}
	}

	for i := range variants {
		if err := s.upsertVariant(ctx, stores, product, &variants[i]); err != nil {
			return imported, err
		}
	}

	return imported, nil
}

func (s *CatalogSyncService) upsertVariant(ctx context.Context, stores catalogStores, product *catalog.Product, external *supplier.ExternalVariant) error {
	if !external.Valid() {
		s.logger.Warn("skipping invalid supplier variant",
			zap.String("pid", product.PID),
			zap.String("vid", external.VID),
		)
		return nil
	}

	variant, err := stores.variants.FindByVID(ctx, external.VID)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrNotFound):
		variant, err = catalog.NewVariant(product.ID, external.VID, external.Price)
		if err != nil {
			return err
		}
	default:
		return err
	}

	// A merchant-assigned SKU wins over the supplier's.
	if variant.SKU == nil && external.SKU != nil {
		variant.SetSKU(external.SKU)
	}
	if err := variant.SetPrice(external.Price); err != nil {
		return err
	}
	if external.Stock != nil {
		variant.SetStock(*external.Stock)
	}
	if err := variant.SetAttributes(external.Attributes); err != nil {
		return err
	}

	if err := stores.variants.Save(ctx, variant); err != nil {
		return fmt.Errorf("save variant %s: %w", external.VID, err)
	}
	return nil
}
