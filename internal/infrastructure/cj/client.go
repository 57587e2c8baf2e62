package cj

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/supplier"
)

// CJClient implements the supplier Gateway against the CJ-Dropshipping
// API. All calls ride the shared dispatcher for pacing, retries and token
// handling; this type only shapes requests and normalizes responses.
type CJClient struct {
	dispatcher *Dispatcher
}

// NewCJClient creates a gateway client on top of a paced dispatcher
func NewCJClient(dispatcher *Dispatcher) *CJClient {
	return &CJClient{dispatcher: dispatcher}
}

// ---------------------------------------------------------------------------
// Catalog Operations
// ---------------------------------------------------------------------------

// ListProducts fetches one page of the supplier catalog
func (c *CJClient) ListProducts(ctx context.Context, filter supplier.ProductFilter, pageNum, pageSize int) (*supplier.ProductPage, error) {
	if pageNum < 1 {
		pageNum = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	query := url.Values{}
	query.Set("pageNum", strconv.Itoa(pageNum))
	query.Set("pageSize", strconv.Itoa(pageSize))
	if filter.Category != "" {
		query.Set("categoryKeyword", filter.Category)
	}
	if filter.Keyword != "" {
		query.Set("productNameEn", filter.Keyword)
	}

	respBody, err := c.dispatcher.Get(ctx, "/product/list", query)
	if err != nil {
		return nil, err
	}

	var resp CJProductListResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", supplier.ErrInvalidResponse, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %d - %s", supplier.ErrRequestFailed, resp.Code, resp.Message)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: missing product list data", supplier.ErrInvalidResponse)
	}

	page := &supplier.ProductPage{
		Products: make([]supplier.ExternalProduct, 0, len(resp.Data.List)),
		PageNum:  pageNum,
		PageSize: pageSize,
		Total:    int64(resp.Data.Total),
	}
	for i := range resp.Data.List {
		page.Products = append(page.Products, normalizeProduct(&resp.Data.List[i]))
	}

	return page, nil
}

// GetProductDetail fetches the authoritative product record with variants
func (c *CJClient) GetProductDetail(ctx context.Context, pid string) (*supplier.ExternalProduct, error) {
	query := url.Values{}
	query.Set("pid", pid)

	respBody, err := c.dispatcher.Get(ctx, "/product/query", query)
	if err != nil {
		return nil, err
	}

	var resp CJProductDetailResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", supplier.ErrInvalidResponse, err)
	}
	if resp.IsProductMissing() {
		return nil, fmt.Errorf("%w: pid %s", supplier.ErrProductNotFound, pid)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %d - %s", supplier.ErrRequestFailed, resp.Code, resp.Message)
	}
	if resp.Data == nil || resp.Data.PID == "" {
		return nil, fmt.Errorf("%w: pid %s", supplier.ErrProductNotFound, pid)
	}

	product := normalizeProduct(resp.Data)
	return &product, nil
}

// GetVariantsByPID fetches the authoritative variant list for a product
func (c *CJClient) GetVariantsByPID(ctx context.Context, pid string) ([]supplier.ExternalVariant, error) {
	query := url.Values{}
	query.Set("pid", pid)

	respBody, err := c.dispatcher.Get(ctx, "/product/variant/query", query)
	if err != nil {
		return nil, err
	}

	var resp CJVariantListResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", supplier.ErrInvalidResponse, err)
	}
	if resp.IsProductMissing() {
		return nil, fmt.Errorf("%w: pid %s", supplier.ErrProductNotFound, pid)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %d - %s", supplier.ErrRequestFailed, resp.Code, resp.Message)
	}

	variants := make([]supplier.ExternalVariant, 0, len(resp.Data))
	for i := range resp.Data {
		variants = append(variants, normalizeVariant(&resp.Data[i]))
	}
	return variants, nil
}

// GetVariant validates a variant id against the supplier
func (c *CJClient) GetVariant(ctx context.Context, vid string) (*supplier.ExternalVariant, error) {
	query := url.Values{}
	query.Set("vid", vid)

	respBody, err := c.dispatcher.Get(ctx, "/product/variant/queryByVid", query)
	if err != nil {
		return nil, err
	}

	var resp CJVariantDetailResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", supplier.ErrInvalidResponse, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %d - %s", supplier.ErrRequestFailed, resp.Code, resp.Message)
	}
	if resp.Data == nil || resp.Data.VID == "" {
		return nil, fmt.Errorf("%w: vid %s", supplier.ErrVariantNotFound, vid)
	}

	variant := normalizeVariant(resp.Data)
	return &variant, nil
}

// GetStockByVID fetches current stock for a variant, summed across
// supplier warehouses
func (c *CJClient) GetStockByVID(ctx context.Context, vid string) (int, error) {
	query := url.Values{}
	query.Set("vid", vid)

	respBody, err := c.dispatcher.Get(ctx, "/product/stock/queryByVid", query)
	if err != nil {
		return 0, err
	}

	var resp CJStockResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return 0, fmt.Errorf("%w: %v", supplier.ErrInvalidResponse, err)
	}
	if !resp.IsSuccess() {
		return 0, fmt.Errorf("%w: %d - %s", supplier.ErrRequestFailed, resp.Code, resp.Message)
	}

	total := 0
	for _, item := range resp.Data {
		total += item.StorageNum
	}
	return total, nil
}

// ---------------------------------------------------------------------------
// Review Operations
// ---------------------------------------------------------------------------

// ListReviews fetches one page of reviews for a product
func (c *CJClient) ListReviews(ctx context.Context, pid string, pageNum, pageSize int) (*supplier.ReviewPage, error) {
	if pageNum < 1 {
		pageNum = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	query := url.Values{}
	query.Set("pid", pid)
	query.Set("pageNum", strconv.Itoa(pageNum))
	query.Set("pageSize", strconv.Itoa(pageSize))

	respBody, err := c.dispatcher.Get(ctx, "/product/productComments", query)
	if err != nil {
		return nil, err
	}

	var resp CJReviewListResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", supplier.ErrInvalidResponse, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %d - %s", supplier.ErrRequestFailed, resp.Code, resp.Message)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: missing review data", supplier.ErrInvalidResponse)
	}

	page := &supplier.ReviewPage{
		Reviews:  make([]supplier.ExternalReview, 0, len(resp.Data.List)),
		PageNum:  pageNum,
		PageSize: pageSize,
		Total:    int64(resp.Data.Total),
	}
	for _, review := range resp.Data.List {
		page.Reviews = append(page.Reviews, supplier.ExternalReview{
			ReviewID: review.CommentID,
			PID:      review.PID,
			Score:    review.Score,
			Comment:  review.Comment,
			Reviewer: review.CommentUser,
		})
	}

	return page, nil
}

// ---------------------------------------------------------------------------
// Webhook Operations
// ---------------------------------------------------------------------------

// RegisterWebhook points the supplier's push notifications at the callback
func (c *CJClient) RegisterWebhook(ctx context.Context, callbackURL string) error {
	body := map[string]any{
		"productType": "ALL",
		"url":         callbackURL,
	}

	respBody, err := c.dispatcher.Post(ctx, "/webhook/set", body)
	if err != nil {
		return err
	}

	var resp CJWebhookSetResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("%w: %v", supplier.ErrInvalidResponse, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: %d - %s", supplier.ErrRequestFailed, resp.Code, resp.Message)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Normalization
// ---------------------------------------------------------------------------

// normalizeProduct maps a CJ product onto the domain representation.
// Absent optional fields stay nil; they are never defaulted.
func normalizeProduct(item *CJProduct) supplier.ExternalProduct {
	product := supplier.ExternalProduct{
		PID:         item.PID,
		Name:        item.ProductName,
		SellPrice:   parsePrice(item.SellPrice),
		Category:    item.CategoryName,
		Description: item.Description,
		ImageURL:    item.ProductImage,
		SourceFrom:  item.SourceFrom,
	}
	for i := range item.Variants {
		product.Variants = append(product.Variants, normalizeVariant(&item.Variants[i]))
	}
	return product
}

// normalizeVariant maps a CJ variant onto the domain representation
func normalizeVariant(item *CJVariantItem) supplier.ExternalVariant {
	variant := supplier.ExternalVariant{
		VID:        item.VID,
		PID:        item.PID,
		SKU:        item.SKU(),
		Price:      parsePrice(item.VariantPrice),
		Stock:      item.Stock,
		Name:       item.VariantName,
		Attributes: variantAttributes(item),
	}

	if item.Weight != nil {
		if w, err := decimal.NewFromString(*item.Weight); err == nil {
			variant.Weight = &w
		}
	}

	return variant
}

// SKU returns the variant SKU, treating blank strings as absent
func (v *CJVariantItem) SKU() *string {
	if v.VariantSKU == nil || strings.TrimSpace(*v.VariantSKU) == "" {
		return nil
	}
	return v.VariantSKU
}

// variantAttributes extracts option attributes, preferring the structured
// property map over the encoded variant key.
func variantAttributes(item *CJVariantItem) map[string]string {
	if len(item.VariantProperty) > 0 {
		attrs := make(map[string]string, len(item.VariantProperty))
		for k, v := range item.VariantProperty {
			attrs[k] = v
		}
		return attrs
	}

	if item.VariantKey == nil || *item.VariantKey == "" {
		return nil
	}

	// Fallback: "Red-XL" style keys become positional attributes.
	parts := strings.Split(*item.VariantKey, "-")
	attrs := make(map[string]string, len(parts))
	for i, part := range parts {
		attrs["option"+strconv.Itoa(i+1)] = strings.TrimSpace(part)
	}
	return attrs
}

// parsePrice parses a supplier price, defaulting to zero on malformed input
func parsePrice(value json.Number) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	price, err := decimal.NewFromString(value.String())
	if err != nil {
		return decimal.Zero
	}
	return price
}

// Ensure CJClient implements Gateway
var _ supplier.Gateway = (*CJClient)(nil)
