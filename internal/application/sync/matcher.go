package sync

import (
	"fmt"
	"strings"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/supplier"
)

// VariantMatcher re-identifies a locally stored variant among the
// supplier's authoritative variants for the same product.
//
// Matching is two-phase. The SKU is tried first because it is assigned by
// the merchant and survives supplier-side relabeling. Attributes are the
// fallback for variants imported before a SKU was set. A match is accepted
// only when it is unique; any tie is ambiguity and ambiguity is never
// resolved by guessing.
type VariantMatcher struct{}

// NewVariantMatcher creates a matcher
func NewVariantMatcher() *VariantMatcher {
	return &VariantMatcher{}
}

// Match finds the unique supplier variant corresponding to the local one.
// An absent or ambiguous SKU falls through to attribute matching; a tie
// that attributes cannot break yields ErrAmbiguousMatch, and no candidate
// matching at all yields (nil, nil).
func (m *VariantMatcher) Match(local *catalog.Variant, candidates []supplier.ExternalVariant) (*supplier.ExternalVariant, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	skuAmbiguous := false
	if local.SKU != nil && strings.TrimSpace(*local.SKU) != "" {
		matched, ambiguous := matchBySKU(*local.SKU, candidates)
		if matched != nil {
			return matched, nil
		}
		skuAmbiguous = ambiguous
	}

	matched, ambiguous := matchByAttributes(local.AttributeSignature(), candidates)
	if matched != nil {
		return matched, nil
	}
	if ambiguous || skuAmbiguous {
		return nil, fmt.Errorf("%w: multiple supplier variants tie for this identity", supplier.ErrAmbiguousMatch)
	}
	return nil, nil
}

func matchBySKU(sku string, candidates []supplier.ExternalVariant) (matched *supplier.ExternalVariant, ambiguous bool) {
	want := normalizeSKU(sku)

	for i := range candidates {
		candidate := &candidates[i]
		if candidate.SKU == nil || normalizeSKU(*candidate.SKU) != want {
			continue
		}
		if matched != nil {
			return nil, true
		}
		matched = candidate
	}
	return matched, false
}

func matchByAttributes(signature string, candidates []supplier.ExternalVariant) (matched *supplier.ExternalVariant, ambiguous bool) {
	// An empty signature matches nothing: a variant without attributes
	// cannot be told apart from its siblings.
	if signature == "" {
		return nil, false
	}

	for i := range candidates {
		candidate := &candidates[i]
		if catalog.AttributeSignatureOf(candidate.Attributes) != signature {
			continue
		}
		if matched != nil {
			return nil, true
		}
		matched = candidate
	}
	return matched, false
}

func normalizeSKU(sku string) string {
	return strings.ToLower(strings.TrimSpace(sku))
}
