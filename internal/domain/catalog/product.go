package catalog

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductStatus represents the status of a mirrored product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is a storefront listing mirrored from a supplier product.
// It is the aggregate root for listing-related operations. PID is the
// supplier's product identifier and stays stable across syncs.
type Product struct {
	shared.SupplierAggregateRoot
	PID              string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_product_supplier_pid,priority:2"`
	Name             string          `gorm:"type:varchar(200);not null"`
	Description      *string         `gorm:"type:text"`
	ImageURL         *string         `gorm:"type:varchar(500)"`
	ExternalCategory string          `gorm:"type:varchar(200);index"`
	CategoryID       *uuid.UUID      `gorm:"type:uuid;index"`
	SellingPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status           ProductStatus   `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct lists a supplier product on the storefront. The listing
// starts active with no local category until a mapping is applied.
func NewProduct(supplierID uuid.UUID, pid, name, externalCategory string, price decimal.Decimal) (*Product, error) {
	if pid == "" {
		return nil, shared.NewDomainError("INVALID_PID", "Supplier product ID cannot be empty")
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}

	product := &Product{
		SupplierAggregateRoot: shared.NewSupplierAggregateRoot(supplierID),
		PID:                   pid,
		Name:                  name,
		ExternalCategory:      externalCategory,
		SellingPrice:          price,
		Status:                ProductStatusActive,
	}

	product.AddDomainEvent(NewProductListedEvent(product))

	return product, nil
}

// Update refreshes the listing from supplier data. Nil description and
// image mean the supplier reports no value, and the local value is cleared.
func (p *Product) Update(name string, description, imageURL *string, price decimal.Decimal) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}

	p.Name = name
	p.Description = description
	p.ImageURL = imageURL
	p.SellingPrice = price
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductUpdatedEvent(p))

	return nil
}

// SetExternalCategory records the supplier's category name for the listing.
func (p *Product) SetExternalCategory(name string) {
	p.ExternalCategory = name
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// AssignCategory attaches the listing to a local storefront category.
func (p *Product) AssignCategory(categoryID uuid.UUID) {
	p.CategoryID = &categoryID
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductCategorizedEvent(p, categoryID))
}

// Activate restores the listing to the storefront
func (p *Product) Activate() error {
	if p.Status == ProductStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Product is already active")
	}

	p.Status = ProductStatusActive
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStatusChangedEvent(p, ProductStatusInactive, ProductStatusActive))

	return nil
}

// Deactivate hides the listing from the storefront
func (p *Product) Deactivate() error {
	if p.Status == ProductStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Product is already inactive")
	}

	p.Status = ProductStatusInactive
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStatusChangedEvent(p, ProductStatusActive, ProductStatusInactive))

	return nil
}

// IsActive returns true if the listing is visible on the storefront
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// HasCategory returns true if a local category has been assigned
func (p *Product) HasCategory() bool {
	return p.CategoryID != nil
}

// ---------------------------------------------------------------------------
// Variant
// ---------------------------------------------------------------------------

// Variant is a purchasable variation stored under a Product. VID is the
// supplier's variant identifier; historical imports left some variants
// with corrupt or missing vids, which reconciliation either corrects with
// the supplier's authoritative value or resolves by deactivation.
type Variant struct {
	shared.BaseAggregateRoot
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	VID        string          `gorm:"type:varchar(64);index"`
	SKU        *string         `gorm:"type:varchar(100);index"`
	Name       *string         `gorm:"type:varchar(200)"`
	Price      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Stock      int             `gorm:"not null;default:0"`
	Attributes string          `gorm:"type:jsonb"` // JSON object of option name -> value
	Active     bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Variant) TableName() string {
	return "product_variants"
}

// NewVariant stores a purchasable variation under a product.
func NewVariant(productID uuid.UUID, vid string, price decimal.Decimal) (*Variant, error) {
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Variant price cannot be negative")
	}

	return &Variant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		VID:               vid,
		Price:             price,
		Attributes:        "{}",
		Active:            true,
	}, nil
}

// AssignAuthoritativeVid replaces a corrupt or missing vid with the
// supplier's authoritative identifier.
func (v *Variant) AssignAuthoritativeVid(vid string) error {
	if vid == "" {
		return shared.NewDomainError("INVALID_VID", "Authoritative vid cannot be empty")
	}

	old := v.VID
	v.VID = vid
	v.UpdatedAt = time.Now()
	v.IncrementVersion()

	v.AddDomainEvent(NewVariantVidCorrectedEvent(v, old, vid))

	return nil
}

// SetSKU records the merchant SKU for the variant.
func (v *Variant) SetSKU(sku *string) {
	v.SKU = sku
	v.UpdatedAt = time.Now()
	v.IncrementVersion()
}

// SetPrice records the supplier-reported price.
func (v *Variant) SetPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Variant price cannot be negative")
	}
	v.Price = price
	v.UpdatedAt = time.Now()
	v.IncrementVersion()
	return nil
}

// SetStock records the supplier-reported stock level. Negative reports
// clamp to zero.
func (v *Variant) SetStock(stock int) {
	if stock < 0 {
		stock = 0
	}
	v.Stock = stock
	v.UpdatedAt = time.Now()
	v.IncrementVersion()
}

// SetAttributes stores the variant's option attributes as JSON.
func (v *Variant) SetAttributes(attrs map[string]string) error {
	if attrs == nil {
		v.Attributes = "{}"
	} else {
		data, err := json.Marshal(attrs)
		if err != nil {
			return shared.NewDomainError("INVALID_ATTRIBUTES", "Attributes must be serializable")
		}
		v.Attributes = string(data)
	}
	v.UpdatedAt = time.Now()
	v.IncrementVersion()
	return nil
}

// AttributeMap parses the stored attribute JSON. Malformed storage yields
// an empty map rather than an error so matching can proceed.
func (v *Variant) AttributeMap() map[string]string {
	attrs := make(map[string]string)
	if v.Attributes == "" {
		return attrs
	}
	_ = json.Unmarshal([]byte(v.Attributes), &attrs)
	return attrs
}

// AttributeSignature returns a stable normalized form of the attributes,
// usable for equality comparison between two variants.
func (v *Variant) AttributeSignature() string {
	return AttributeSignatureOf(v.AttributeMap())
}

// AttributeSignatureOf normalizes an attribute set into a stable signature.
// Keys and values are lowercased and trimmed, then joined in key order, so
// two attribute sets compare equal regardless of casing or map order.
func AttributeSignatureOf(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(strings.ToLower(strings.TrimSpace(k)))
		sb.WriteByte('=')
		sb.WriteString(strings.ToLower(strings.TrimSpace(attrs[k])))
		sb.WriteByte(';')
	}
	return sb.String()
}

// Activate makes the variant orderable again
func (v *Variant) Activate() {
	v.Active = true
	v.UpdatedAt = time.Now()
	v.IncrementVersion()
}

// Deactivate makes the variant unorderable. Reconciliation deactivates
// rather than guesses when no confident supplier match exists.
func (v *Variant) Deactivate(reason string) {
	v.Active = false
	v.UpdatedAt = time.Now()
	v.IncrementVersion()

	v.AddDomainEvent(NewVariantDeactivatedEvent(v, reason))
}

// validateProductName validates the product name
func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
