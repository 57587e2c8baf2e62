package supplier

import "strings"

// SuspectRule names a predicate over locally stored variant identity data.
// A variant matching any rule is treated as potentially corrupt and queued
// for reconciliation against the supplier's authoritative records.
type SuspectRule struct {
	Name  string
	Match func(v VariantIdentity) bool
}

// VariantIdentity is the slice of a locally stored variant the suspect
// rules inspect. HasSupplierVariants reports whether the supplier lists
// any variants for the parent product.
type VariantIdentity struct {
	VID                 string
	PID                 string
	SKU                 *string
	HasSupplierVariants bool
}

// syntheticPrefixes mark vids minted locally during bulk imports rather
// than assigned by the supplier.
var syntheticPrefixes = []string{"local-", "import-", "tmp-"}

// DefaultSuspectRules returns the built-in corruption heuristics.
func DefaultSuspectRules() []SuspectRule {
	return []SuspectRule{
		{
			Name: "vid_equals_pid",
			Match: func(v VariantIdentity) bool {
				return v.VID != "" && v.VID == v.PID
			},
		},
		{
			Name: "synthetic_vid",
			Match: func(v VariantIdentity) bool {
				if v.VID == "" {
					return false
				}
				// Underscores never appear in supplier-assigned ids.
				if strings.Contains(v.VID, "_") {
					return true
				}
				for _, p := range syntheticPrefixes {
					if strings.HasPrefix(v.VID, p) {
						return true
					}
				}
				return false
			},
		},
		{
			Name: "missing_vid",
			Match: func(v VariantIdentity) bool {
				return v.VID == "" && v.HasSupplierVariants
			},
		},
	}
}

// IsSuspect reports whether the identity trips any rule, along with the
// name of the first rule that matched.
func IsSuspect(v VariantIdentity, rules []SuspectRule) (bool, string) {
	for _, r := range rules {
		if r.Match(v) {
			return true, r.Name
		}
	}
	return false, ""
}
