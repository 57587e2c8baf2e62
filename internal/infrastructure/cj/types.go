package cj

import (
	"encoding/json"
	"time"
)

// ---------------------------------------------------------------------------
// Common CJ API Response Types
// ---------------------------------------------------------------------------

// CJResponse is the base response wrapper for all CJ API calls. Every
// endpoint returns HTTP 200 with the real outcome inside this envelope.
type CJResponse struct {
	// Code is the business status code (200 for success)
	Code int `json:"code"`
	// Result mirrors Code as a boolean
	Result bool `json:"result"`
	// Message is the human-readable status message
	Message string `json:"message"`
	// RequestID is the request trace ID for debugging
	RequestID string `json:"requestId,omitempty"`
}

// Envelope status codes observed in the CJ API
const (
	cjCodeSuccess        = 200
	cjCodeAuthFailed     = 1600100
	cjCodeTokenExpired   = 1600101
	cjCodeRateLimited    = 1600200
	cjCodeProductMissing = 1602000
)

// IsSuccess returns true if the response indicates success
func (r *CJResponse) IsSuccess() bool {
	return r.Result && r.Code == cjCodeSuccess
}

// IsAuthError returns true if the envelope carries an authentication code
func (r *CJResponse) IsAuthError() bool {
	return r.Code == cjCodeAuthFailed || r.Code == cjCodeTokenExpired
}

// IsRateLimited returns true if the envelope carries the throttling code
func (r *CJResponse) IsRateLimited() bool {
	return r.Code == cjCodeRateLimited
}

// IsProductMissing returns true if the envelope reports an unknown product
func (r *CJResponse) IsProductMissing() bool {
	return r.Code == cjCodeProductMissing
}

// ---------------------------------------------------------------------------
// Authentication Types
// ---------------------------------------------------------------------------

// CJAccessTokenResponse is the response for getAccessToken and
// refreshAccessToken
type CJAccessTokenResponse struct {
	CJResponse
	Data *CJAccessTokenData `json:"data,omitempty"`
}

// CJAccessTokenData carries a freshly issued token pair
type CJAccessTokenData struct {
	AccessToken            string `json:"accessToken"`
	AccessTokenExpiryDate  string `json:"accessTokenExpiryDate"`
	RefreshToken           string `json:"refreshToken"`
	RefreshTokenExpiryDate string `json:"refreshTokenExpiryDate"`
}

// cjTimeLayouts are the timestamp formats the API has been seen to emit
var cjTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseCJTime parses a supplier timestamp, returning nil when the value is
// absent or unparseable.
func parseCJTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range cjTimeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return &ts
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Product Types
// ---------------------------------------------------------------------------

// CJProductListResponse is the response for product/list
type CJProductListResponse struct {
	CJResponse
	Data *CJProductListData `json:"data,omitempty"`
}

// CJProductListData contains one page of products
type CJProductListData struct {
	PageNum  int         `json:"pageNum"`
	PageSize int         `json:"pageSize"`
	Total    int         `json:"total"`
	List     []CJProduct `json:"list,omitempty"`
}

// CJProductDetailResponse is the response for product/query
type CJProductDetailResponse struct {
	CJResponse
	Data *CJProduct `json:"data,omitempty"`
}

// CJProduct represents a product from the CJ catalog. Optional fields are
// pointers so that absence survives into normalization.
type CJProduct struct {
	PID          string          `json:"pid"`
	ProductName  string          `json:"productNameEn"`
	SellPrice    json.Number     `json:"sellPrice"`
	CategoryName string          `json:"categoryName"`
	Description  *string         `json:"description,omitempty"`
	ProductImage *string         `json:"productImage,omitempty"`
	SourceFrom   *string         `json:"sourceFrom,omitempty"`
	Variants     []CJVariantItem `json:"variants,omitempty"`
}

// CJVariantListResponse is the response for product/variant/query
type CJVariantListResponse struct {
	CJResponse
	Data []CJVariantItem `json:"data,omitempty"`
}

// CJVariantDetailResponse is the response for product/variant/queryByVid
type CJVariantDetailResponse struct {
	CJResponse
	Data *CJVariantItem `json:"data,omitempty"`
}

// CJVariantItem represents a purchasable variant from the CJ catalog
type CJVariantItem struct {
	VID          string      `json:"vid"`
	PID          string      `json:"pid"`
	VariantSKU   *string     `json:"variantSku,omitempty"`
	VariantName  *string     `json:"variantNameEn,omitempty"`
	VariantPrice json.Number `json:"variantSellPrice"`
	Weight       *string     `json:"variantWeight,omitempty"`
	Stock        *int        `json:"variantStock,omitempty"`
	// VariantKey encodes option values, e.g. "Red-XL"
	VariantKey *string `json:"variantKey,omitempty"`
	// VariantProperty holds structured option attributes
	VariantProperty map[string]string `json:"variantProperty,omitempty"`
}

// CJStockResponse is the response for product/stock/queryByVid
type CJStockResponse struct {
	CJResponse
	Data []CJStockItem `json:"data,omitempty"`
}

// CJStockItem represents warehouse stock for a variant
type CJStockItem struct {
	VID          string `json:"vid"`
	AreaID       int    `json:"areaId"`
	AreaName     string `json:"areaEn"`
	CountryCode  string `json:"countryCode"`
	StorageNum   int    `json:"storageNum"`
	TotalInvNum  int    `json:"totalInventoryNum"`
	FactoryInvNo int    `json:"factoryInventoryNum"`
}

// ---------------------------------------------------------------------------
// Review Types
// ---------------------------------------------------------------------------

// CJReviewListResponse is the response for product/productComments
type CJReviewListResponse struct {
	CJResponse
	Data *CJReviewListData `json:"data,omitempty"`
}

// CJReviewListData contains one page of product reviews
type CJReviewListData struct {
	PageNum  int        `json:"pageNum"`
	PageSize int        `json:"pageSize"`
	Total    int        `json:"total"`
	List     []CJReview `json:"list,omitempty"`
}

// CJReview represents a customer review from the supplier
type CJReview struct {
	CommentID   string  `json:"commentId"`
	PID         string  `json:"pid"`
	Score       int     `json:"score"`
	Comment     *string `json:"comment,omitempty"`
	CommentUser *string `json:"commentUser,omitempty"`
	CommentDate *string `json:"commentDate,omitempty"`
}

// ---------------------------------------------------------------------------
// Webhook Types
// ---------------------------------------------------------------------------

// CJWebhookSetResponse is the response for webhook/set
type CJWebhookSetResponse struct {
	CJResponse
	Data json.RawMessage `json:"data,omitempty"`
}
