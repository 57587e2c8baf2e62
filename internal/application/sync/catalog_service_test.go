package sync

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/supplier"
)

type catalogFixture struct {
	supplierID uuid.UUID
	gateway    *stubGateway
	products   *memProductRepo
	variants   *memVariantRepo
	mappings   *memMappingRepo
	service    *CatalogSyncService
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	f := &catalogFixture{
		supplierID: uuid.New(),
		gateway:    newStubGateway(),
		products:   newMemProductRepo(),
		variants:   newMemVariantRepo(),
		mappings:   newMemMappingRepo(),
	}
	f.service = NewCatalogSyncService(f.gateway, f.products, f.variants, f.mappings, zap.NewNop())
	return f
}

func TestCatalogSyncService_SyncCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("imports products and variants across pages", func(t *testing.T) {
		f := newCatalogFixture(t)
		for i := 0; i < 3; i++ {
			pid := string(rune('A' + i))
			f.gateway.addProduct(supplier.ExternalProduct{
				PID:       "P-" + pid,
				Name:      "Product " + pid,
				SellPrice: decimal.NewFromInt(int64(i + 1)),
				Category:  "Home",
				Variants: []supplier.ExternalVariant{
					{VID: "V-" + pid, PID: "P-" + pid, Price: decimal.NewFromInt(int64(i + 1))},
				},
			})
		}

		summary, err := f.service.SyncCatalog(ctx, f.supplierID, supplier.ProductFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), summary.Scanned)
		assert.Equal(t, int64(3), summary.Imported)
		assert.Equal(t, int64(0), summary.Updated)

		product, err := f.products.FindByPID(ctx, f.supplierID, "P-A")
		require.NoError(t, err)
		assert.Equal(t, "Product A", product.Name)

		variant, err := f.variants.FindByVID(ctx, "V-A")
		require.NoError(t, err)
		assert.Equal(t, product.ID, variant.ProductID)
	})

	t.Run("second sync updates instead of importing", func(t *testing.T) {
		f := newCatalogFixture(t)
		f.gateway.addProduct(supplier.ExternalProduct{
			PID: "P-1", Name: "Lamp", SellPrice: decimal.NewFromInt(10), Category: "Home",
		})

		_, err := f.service.SyncCatalog(ctx, f.supplierID, supplier.ProductFilter{})
		require.NoError(t, err)

		f.gateway.addProduct(supplier.ExternalProduct{
			PID: "P-1", Name: "Better Lamp", SellPrice: decimal.NewFromInt(12), Category: "Home",
		})
		summary, err := f.service.SyncCatalog(ctx, f.supplierID, supplier.ProductFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), summary.Imported)
		assert.Equal(t, int64(1), summary.Updated)

		product, err := f.products.FindByPID(ctx, f.supplierID, "P-1")
		require.NoError(t, err)
		assert.Equal(t, "Better Lamp", product.Name)
		assert.True(t, product.SellingPrice.Equal(decimal.NewFromInt(12)))
	})

	t.Run("absent optional fields clear local values", func(t *testing.T) {
		f := newCatalogFixture(t)
		f.gateway.addProduct(supplier.ExternalProduct{
			PID: "P-1", Name: "Lamp", SellPrice: decimal.NewFromInt(10), Category: "Home",
			Description: strPtr("warm light"),
		})
		_, err := f.service.SyncCatalog(ctx, f.supplierID, supplier.ProductFilter{})
		require.NoError(t, err)

		// Supplier stops sending the description.
		f.gateway.addProduct(supplier.ExternalProduct{
			PID: "P-1", Name: "Lamp", SellPrice: decimal.NewFromInt(10), Category: "Home",
		})
		_, err = f.service.SyncCatalog(ctx, f.supplierID, supplier.ProductFilter{})
		require.NoError(t, err)

		product, err := f.products.FindByPID(ctx, f.supplierID, "P-1")
		require.NoError(t, err)
		assert.Nil(t, product.Description)
	})

	t.Run("applies existing category mapping on import", func(t *testing.T) {
		f := newCatalogFixture(t)
		categoryID := uuid.New()
		mapping, err := catalog.NewCategoryMapping(f.supplierID, "Home", categoryID)
		require.NoError(t, err)
		require.NoError(t, f.mappings.Save(ctx, mapping))

		f.gateway.addProduct(supplier.ExternalProduct{
			PID: "P-1", Name: "Lamp", SellPrice: decimal.NewFromInt(10), Category: "Home",
		})
		_, err = f.service.SyncCatalog(ctx, f.supplierID, supplier.ProductFilter{})
		require.NoError(t, err)

		product, err := f.products.FindByPID(ctx, f.supplierID, "P-1")
		require.NoError(t, err)
		require.NotNil(t, product.CategoryID)
		assert.Equal(t, categoryID, *product.CategoryID)
	})

	t.Run("skips variants with corrupt identity", func(t *testing.T) {
		f := newCatalogFixture(t)
		f.gateway.addProduct(supplier.ExternalProduct{
			PID: "P-1", Name: "Lamp", SellPrice: decimal.NewFromInt(10), Category: "Home",
			Variants: []supplier.ExternalVariant{
				{VID: "P-1", PID: "P-1", Price: decimal.NewFromInt(10)},
				{VID: "V-1", PID: "P-1", Price: decimal.NewFromInt(10)},
			},
		})

		_, err := f.service.SyncCatalog(ctx, f.supplierID, supplier.ProductFilter{})
		require.NoError(t, err)

		_, err = f.variants.FindByVID(ctx, "P-1")
		require.Error(t, err)
		variant, err := f.variants.FindByVID(ctx, "V-1")
		require.NoError(t, err)
		assert.Equal(t, "V-1", variant.VID)
	})
}
