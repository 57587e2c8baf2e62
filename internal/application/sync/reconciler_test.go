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

type reconcilerFixture struct {
	supplierID uuid.UUID
	gateway    *stubGateway
	products   *memProductRepo
	variants   *memVariantRepo
	service    *ReconciliationService
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()
	f := &reconcilerFixture{
		supplierID: uuid.New(),
		gateway:    newStubGateway(),
		products:   newMemProductRepo(),
		variants:   newMemVariantRepo(),
	}
	f.service = NewReconciliationService(f.gateway, f.products, f.variants, zap.NewNop())
	return f
}

func (f *reconcilerFixture) addProduct(t *testing.T, pid string) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(f.supplierID, pid, "Product "+pid, "Misc", decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, f.products.Save(context.Background(), product))
	return product
}

func (f *reconcilerFixture) addVariant(t *testing.T, productID uuid.UUID, vid string, sku *string) *catalog.Variant {
	t.Helper()
	variant, err := catalog.NewVariant(productID, vid, decimal.NewFromInt(10))
	require.NoError(t, err)
	if sku != nil {
		variant.SetSKU(sku)
	}
	require.NoError(t, f.variants.Save(context.Background(), variant))
	return variant
}

func TestReconciliationService_ReconcileVariant(t *testing.T) {
	ctx := context.Background()

	t.Run("corrects vid equal to pid via sku match", func(t *testing.T) {
		f := newReconcilerFixture(t)
		product := f.addProduct(t, "PID123")
		variant := f.addVariant(t, product.ID, "PID123", strPtr("SKU-RED-M"))

		f.gateway.addProduct(supplier.ExternalProduct{
			PID: "PID123", Name: "Lamp", Variants: []supplier.ExternalVariant{
				{VID: "VID-777", PID: "PID123", SKU: strPtr("SKU-RED-M")},
				{VID: "VID-778", PID: "PID123", SKU: strPtr("SKU-BLUE-M")},
			},
		})

		result, err := f.service.ReconcileVariant(ctx, variant)
		require.NoError(t, err)
		assert.Equal(t, OutcomeCorrected, result.Outcome)
		assert.Equal(t, "vid_equals_pid", result.Rule)
		assert.Equal(t, "VID-777", result.VID)

		stored, err := f.variants.FindByID(ctx, variant.ID)
		require.NoError(t, err)
		assert.Equal(t, "VID-777", stored.VID)
		assert.True(t, stored.Active)
	})

	t.Run("confirms a suspect vid the supplier still lists", func(t *testing.T) {
		f := newReconcilerFixture(t)
		product := f.addProduct(t, "PID123")
		variant := f.addVariant(t, product.ID, "PID123", strPtr("SKU-RED-M"))
		savesBefore := f.variants.saves.Load()

		f.gateway.addProduct(supplier.ExternalProduct{
			PID: "PID123", Name: "Lamp", Variants: []supplier.ExternalVariant{
				{VID: "PID123", PID: "PID123", SKU: strPtr("SKU-RED-M")},
			},
		})

		result, err := f.service.ReconcileVariant(ctx, variant)
		require.NoError(t, err)
		assert.Equal(t, OutcomeConfirmed, result.Outcome)
		assert.Equal(t, "vid_equals_pid", result.Rule)
		assert.Equal(t, "PID123", result.VID)

		// A confirmed identity needs no write.
		assert.Equal(t, savesBefore, f.variants.saves.Load())
	})

	t.Run("deactivates when no match exists", func(t *testing.T) {
		f := newReconcilerFixture(t)
		product := f.addProduct(t, "P-1")
		variant := f.addVariant(t, product.ID, "tmp-abc", strPtr("SKU-GONE"))

		f.gateway.addProduct(supplier.ExternalProduct{
			PID: "P-1", Name: "Lamp", Variants: []supplier.ExternalVariant{
				{VID: "V-1", PID: "P-1", SKU: strPtr("SKU-OTHER")},
			},
		})

		result, err := f.service.ReconcileVariant(ctx, variant)
		require.NoError(t, err)
		assert.Equal(t, OutcomeDeactivated, result.Outcome)
		assert.Equal(t, "synthetic_vid", result.Rule)

		stored, err := f.variants.FindByID(ctx, variant.ID)
		require.NoError(t, err)
		assert.False(t, stored.Active)
	})

	t.Run("deactivates on ambiguous match", func(t *testing.T) {
		f := newReconcilerFixture(t)
		product := f.addProduct(t, "P-1")
		variant := f.addVariant(t, product.ID, "local-1", strPtr("SKU-1"))

		f.gateway.addProduct(supplier.ExternalProduct{
			PID: "P-1", Name: "Lamp", Variants: []supplier.ExternalVariant{
				{VID: "V-1", PID: "P-1", SKU: strPtr("SKU-1")},
				{VID: "V-2", PID: "P-1", SKU: strPtr("SKU-1")},
			},
		})

		result, err := f.service.ReconcileVariant(ctx, variant)
		require.NoError(t, err)
		assert.Equal(t, OutcomeDeactivated, result.Outcome)
	})

	t.Run("skips healthy vid without a supplier call", func(t *testing.T) {
		f := newReconcilerFixture(t)
		product := f.addProduct(t, "P-1")
		variant := f.addVariant(t, product.ID, "V-1", nil)

		f.gateway.addProduct(supplier.ExternalProduct{
			PID: "P-1", Name: "Lamp", Variants: []supplier.ExternalVariant{
				{VID: "V-1", PID: "P-1"},
			},
		})

		result, err := f.service.ReconcileVariant(ctx, variant)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, result.Outcome)
		assert.Equal(t, int64(0), f.gateway.variantCalls.Load(),
			"a vid cleared by the local rules needs no supplier lookup")

		stored, err := f.variants.FindByID(ctx, variant.ID)
		require.NoError(t, err)
		assert.True(t, stored.Active)
	})

	t.Run("missing vid deactivates when the supplier lists variants", func(t *testing.T) {
		f := newReconcilerFixture(t)
		product := f.addProduct(t, "P-1")
		variant := f.addVariant(t, product.ID, "", nil)

		f.gateway.addProduct(supplier.ExternalProduct{
			PID: "P-1", Name: "Lamp", Variants: []supplier.ExternalVariant{
				{VID: "V-1", PID: "P-1", SKU: strPtr("SKU-1")},
			},
		})

		result, err := f.service.ReconcileVariant(ctx, variant)
		require.NoError(t, err)
		assert.Equal(t, OutcomeDeactivated, result.Outcome)
		assert.Equal(t, "missing_vid", result.Rule)
	})

	t.Run("underscore in vid is suspect", func(t *testing.T) {
		f := newReconcilerFixture(t)
		product := f.addProduct(t, "P-1")
		variant := f.addVariant(t, product.ID, "abc_def", strPtr("SKU-X"))

		f.gateway.addProduct(supplier.ExternalProduct{
			PID: "P-1", Name: "Lamp", Variants: []supplier.ExternalVariant{
				{VID: "V-1", PID: "P-1", SKU: strPtr("SKU-X")},
			},
		})

		result, err := f.service.ReconcileVariant(ctx, variant)
		require.NoError(t, err)
		assert.Equal(t, OutcomeCorrected, result.Outcome)
		assert.Equal(t, "synthetic_vid", result.Rule)
	})

	t.Run("retired supplier product deactivates the whole listing", func(t *testing.T) {
		f := newReconcilerFixture(t)
		product := f.addProduct(t, "P-GONE")
		variant := f.addVariant(t, product.ID, "local-1", nil)
		sibling := f.addVariant(t, product.ID, "V-2", nil)

		result, err := f.service.ReconcileVariant(ctx, variant)
		require.NoError(t, err)
		assert.Equal(t, OutcomeDeactivated, result.Outcome)

		storedProduct, err := f.products.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.False(t, storedProduct.IsActive())

		storedSibling, err := f.variants.FindByID(ctx, sibling.ID)
		require.NoError(t, err)
		assert.False(t, storedSibling.Active)
	})

	t.Run("empty variant list for a dead listing retires the product", func(t *testing.T) {
		f := newReconcilerFixture(t)
		f.gateway.emptyListForMissing = true
		product := f.addProduct(t, "P-GONE")
		variant := f.addVariant(t, product.ID, "local-1", nil)
		sibling := f.addVariant(t, product.ID, "V-2", nil)

		result, err := f.service.ReconcileVariant(ctx, variant)
		require.NoError(t, err)
		assert.Equal(t, OutcomeDeactivated, result.Outcome)

		storedProduct, err := f.products.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.False(t, storedProduct.IsActive())

		storedSibling, err := f.variants.FindByID(ctx, sibling.ID)
		require.NoError(t, err)
		assert.False(t, storedSibling.Active)
	})

	t.Run("missing vid with a variantless live product is left alone", func(t *testing.T) {
		f := newReconcilerFixture(t)
		product := f.addProduct(t, "P-1")
		variant := f.addVariant(t, product.ID, "", nil)

		f.gateway.addProduct(supplier.ExternalProduct{PID: "P-1", Name: "Lamp"})

		result, err := f.service.ReconcileVariant(ctx, variant)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, result.Outcome)

		stored, err := f.variants.FindByID(ctx, variant.ID)
		require.NoError(t, err)
		assert.True(t, stored.Active)
	})
}

func TestReconciliationService_VerifyBeforeOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("passes a healthy variant", func(t *testing.T) {
		f := newReconcilerFixture(t)
		product := f.addProduct(t, "P-1")
		variant := f.addVariant(t, product.ID, "V-1", nil)

		f.gateway.addProduct(supplier.ExternalProduct{
			PID: "P-1", Name: "Lamp", Variants: []supplier.ExternalVariant{
				{VID: "V-1", PID: "P-1"},
			},
		})

		verified, err := f.service.VerifyBeforeOrder(ctx, variant.ID)
		require.NoError(t, err)
		assert.Equal(t, "V-1", verified.VID)
	})

	t.Run("rejects inactive variant", func(t *testing.T) {
		f := newReconcilerFixture(t)
		product := f.addProduct(t, "P-1")
		variant := f.addVariant(t, product.ID, "V-1", nil)
		variant.Deactivate("test")
		require.NoError(t, f.variants.Save(ctx, variant))

		_, err := f.service.VerifyBeforeOrder(ctx, variant.ID)
		assert.ErrorIs(t, err, supplier.ErrVariantInactive)
	})

	t.Run("rejects suspect vid without calling supplier", func(t *testing.T) {
		f := newReconcilerFixture(t)
		product := f.addProduct(t, "PID123")
		variant := f.addVariant(t, product.ID, "PID123", nil)

		_, err := f.service.VerifyBeforeOrder(ctx, variant.ID)
		assert.ErrorIs(t, err, supplier.ErrVariantCorrupt)
	})

	t.Run("rejects vid unknown upstream", func(t *testing.T) {
		f := newReconcilerFixture(t)
		product := f.addProduct(t, "P-1")
		variant := f.addVariant(t, product.ID, "V-MISSING", nil)

		f.gateway.addProduct(supplier.ExternalProduct{PID: "P-1", Name: "Lamp"})

		_, err := f.service.VerifyBeforeOrder(ctx, variant.ID)
		assert.ErrorIs(t, err, supplier.ErrVariantCorrupt)
	})

	t.Run("rejects vid belonging to a different product", func(t *testing.T) {
		f := newReconcilerFixture(t)
		product := f.addProduct(t, "P-1")
		variant := f.addVariant(t, product.ID, "V-OTHER", nil)

		f.gateway.addProduct(supplier.ExternalProduct{
			PID: "P-2", Name: "Mug", Variants: []supplier.ExternalVariant{
				{VID: "V-OTHER", PID: "P-2"},
			},
		})

		_, err := f.service.VerifyBeforeOrder(ctx, variant.ID)
		assert.ErrorIs(t, err, supplier.ErrVariantCorrupt)
	})
}
