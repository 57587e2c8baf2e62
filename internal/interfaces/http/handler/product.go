package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appsync "github.com/storefront/backend/internal/application/sync"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/supplier"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// ProductHandler serves the synced storefront catalog: browse products and
// variants, force a single-product refresh from the supplier, and verify a
// variant's supplier identity before an order is forwarded.
type ProductHandler struct {
	BaseHandler
	products    catalog.ProductRepository
	variants    catalog.VariantRepository
	reviews     catalog.ProductReviewRepository
	catalogSync *appsync.CatalogSyncService
	reconciler  *appsync.ReconciliationService
	supplierID  uuid.UUID
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(
	products catalog.ProductRepository,
	variants catalog.VariantRepository,
	reviews catalog.ProductReviewRepository,
	catalogSync *appsync.CatalogSyncService,
	reconciler *appsync.ReconciliationService,
	supplierID uuid.UUID,
) *ProductHandler {
	return &ProductHandler{
		products:    products,
		variants:    variants,
		reviews:     reviews,
		catalogSync: catalogSync,
		reconciler:  reconciler,
		supplierID:  supplierID,
	}
}

// ProductResponse represents a storefront product listing
type ProductResponse struct {
	ID               uuid.UUID       `json:"id"`
	PID              string          `json:"pid"`
	Name             string          `json:"name"`
	Description      *string         `json:"description"`
	ImageURL         *string         `json:"image_url"`
	ExternalCategory string          `json:"external_category"`
	CategoryID       *uuid.UUID      `json:"category_id"`
	SellingPrice     decimal.Decimal `json:"selling_price"`
	Status           string          `json:"status"`
}

func toProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:               p.ID,
		PID:              p.PID,
		Name:             p.Name,
		Description:      p.Description,
		ImageURL:         p.ImageURL,
		ExternalCategory: p.ExternalCategory,
		CategoryID:       p.CategoryID,
		SellingPrice:     p.SellingPrice,
		Status:           string(p.Status),
	}
}

// VariantResponse represents a purchasable variant
type VariantResponse struct {
	ID         uuid.UUID       `json:"id"`
	ProductID  uuid.UUID       `json:"product_id"`
	VID        string          `json:"vid"`
	SKU        *string         `json:"sku"`
	Name       *string         `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	Attributes string          `json:"attributes,omitempty"`
	Active     bool            `json:"active"`
}

func toVariantResponse(v *catalog.Variant) VariantResponse {
	return VariantResponse{
		ID:         v.ID,
		ProductID:  v.ProductID,
		VID:        v.VID,
		SKU:        v.SKU,
		Name:       v.Name,
		Price:      v.Price,
		Stock:      v.Stock,
		Attributes: v.Attributes,
		Active:     v.Active,
	}
}

// ProductDetailResponse represents a product with its variants
type ProductDetailResponse struct {
	ProductResponse
	Variants []VariantResponse `json:"variants"`
}

// ReviewResponse represents a synced product review
type ReviewResponse struct {
	ID          uuid.UUID `json:"id"`
	Rating      int       `json:"rating"`
	Content     *string   `json:"content"`
	Reviewer    *string   `json:"reviewer"`
	CountryCode *string   `json:"country_code"`
}

// ListProducts returns synced products with pagination.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid list parameters: "+err.Error())
		return
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}

	products, err := h.products.FindAll(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	total, err := h.products.Count(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, toProductResponse(&products[i]))
	}
	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// ListUncategorized returns products whose supplier category name has no
// local mapping yet. Curators work this list down alongside the unmapped
// category queue.
func (h *ProductHandler) ListUncategorized(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid list parameters: "+err.Error())
		return
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
	}

	products, err := h.products.FindUncategorized(c.Request.Context(), h.supplierID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, toProductResponse(&products[i]))
	}
	h.Success(c, responses)
}

// GetProduct returns one product with its variants.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	product, err := h.products.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	variants, err := h.variants.FindByProduct(c.Request.Context(), product.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	detail := ProductDetailResponse{
		ProductResponse: toProductResponse(product),
		Variants:        make([]VariantResponse, 0, len(variants)),
	}
	for i := range variants {
		detail.Variants = append(detail.Variants, toVariantResponse(&variants[i]))
	}
	h.Success(c, detail)
}

// ListReviews returns the visible reviews synced for one product.
func (h *ProductHandler) ListReviews(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid list parameters: "+err.Error())
		return
	}
	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
	}

	reviews, err := h.reviews.FindByProduct(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	total, err := h.reviews.CountByProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		r := &reviews[i]
		responses = append(responses, ReviewResponse{
			ID:          r.ID,
			Rating:      r.Rating,
			Content:     r.Content,
			Reviewer:    r.Reviewer,
			CountryCode: r.CountryCode,
		})
	}
	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// RefreshProduct re-fetches one product from the supplier and reapplies the
// normalized upstream state.
func (h *ProductHandler) RefreshProduct(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	product, err := h.products.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.catalogSync.RefreshProduct(c.Request.Context(), h.supplierID, product.PID); err != nil {
		h.handleSupplierError(c, err)
		return
	}
	h.Success(c, gin.H{"pid": product.PID, "status": "refreshed"})
}

// VerifyVariant confirms a variant's supplier identity before an order is
// forwarded upstream.
func (h *ProductHandler) VerifyVariant(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	variant, err := h.reconciler.VerifyBeforeOrder(c.Request.Context(), id)
	if err != nil {
		h.handleSupplierError(c, err)
		return
	}
	h.Success(c, toVariantResponse(variant))
}

// bindID parses the :id path parameter.
func (h *ProductHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "id must be a valid UUID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// handleSupplierError maps upstream supplier failures onto API error codes
// before falling back to the generic handler.
func (h *ProductHandler) handleSupplierError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, supplier.ErrVariantInactive), errors.Is(err, supplier.ErrVariantCorrupt):
		h.ErrorWithCode(c, dto.ErrCodeVariantUnverified, err.Error())
	case errors.Is(err, supplier.ErrProductNotFound), errors.Is(err, supplier.ErrVariantNotFound):
		h.ErrorWithCode(c, dto.ErrCodeNotFound, err.Error())
	case errors.Is(err, supplier.ErrAuthFailed), errors.Is(err, supplier.ErrCredentialInvalid), errors.Is(err, supplier.ErrCredentialNotFound):
		h.ErrorWithCode(c, dto.ErrCodeSupplierAuth, err.Error())
	case errors.Is(err, supplier.ErrUnavailable), errors.Is(err, supplier.ErrRateLimited), errors.Is(err, supplier.ErrRequestFailed):
		h.ErrorWithCode(c, dto.ErrCodeSupplierUnavailable, err.Error())
	default:
		h.HandleError(c, err)
	}
}
