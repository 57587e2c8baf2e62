package supplier

import (
	"github.com/shopspring/decimal"
)

// ExternalProduct is the supplier's authoritative product representation.
// It is never persisted verbatim; it serves as a validation oracle and as
// the ingestion source. Optional fields are explicit pointers so downstream
// consumers receive nulls rather than silently missing values.
type ExternalProduct struct {
	// PID is the supplier-assigned product identifier.
	PID string
	// Name is the supplier product title.
	Name string
	// SellPrice is the supplier sell price.
	SellPrice decimal.Decimal
	// Category is the supplier's free-text category path.
	Category string
	// Description is optional.
	Description *string
	// ImageURL is optional.
	ImageURL *string
	// SourceFrom identifies the upstream marketplace, optional.
	SourceFrom *string
	// Variants are the supplier-reported variants of this product.
	Variants []ExternalVariant
}

// ExternalVariant is the supplier's authoritative variant representation.
// Invariant: VID != PID for any valid variant.
type ExternalVariant struct {
	// VID is the supplier-assigned variant identifier.
	VID string
	// PID is the parent product identifier.
	PID string
	// SKU is the stock-keeping unit code, optional on the supplier side.
	SKU *string
	// Price is the variant sell price.
	Price decimal.Decimal
	// Stock is the available quantity, nil when the supplier omits it.
	Stock *int
	// Weight in grams, optional.
	Weight *decimal.Decimal
	// Name is the variant display name (e.g. "Red-M"), optional.
	Name *string
	// Attributes are the variant spec values (color, size, ...), keyed by
	// attribute name.
	Attributes map[string]string
}

// Valid reports whether the variant satisfies the identity invariant.
func (v *ExternalVariant) Valid() bool {
	return v.VID != "" && v.PID != "" && v.VID != v.PID
}

// ExternalReview is a supplier-side product review mirrored locally by the
// review refresh job.
type ExternalReview struct {
	// ReviewID is the supplier-assigned review identifier.
	ReviewID string
	// PID is the reviewed product.
	PID string
	// Score is the 1-5 rating.
	Score int
	// Comment is optional free text.
	Comment *string
	// Reviewer is the reviewer display name, optional.
	Reviewer *string
	// CountryCode is optional.
	CountryCode *string
}

// ProductFilter narrows a product listing request.
type ProductFilter struct {
	// Category filters by the supplier free-text category, empty = all.
	Category string
	// Keyword filters by product name, empty = all.
	Keyword string
}

// ProductPage is one page of a finite, restartable product listing.
type ProductPage struct {
	Products []ExternalProduct
	// PageNum is the 1-indexed page this result covers.
	PageNum int
	// PageSize is the requested page size.
	PageSize int
	// Total is the supplier-reported total matching products.
	Total int64
}

// HasMore reports whether another page follows.
func (p *ProductPage) HasMore() bool {
	return int64(p.PageNum*p.PageSize) < p.Total
}

// ReviewPage is one page of product reviews.
type ReviewPage struct {
	Reviews  []ExternalReview
	PageNum  int
	PageSize int
	Total    int64
}

// HasMore reports whether another page follows.
func (p *ReviewPage) HasMore() bool {
	return int64(p.PageNum*p.PageSize) < p.Total
}
