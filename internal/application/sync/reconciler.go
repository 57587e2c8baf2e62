package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/supplier"
)

// ReconciliationService repairs locally stored variant identities against
// the supplier's authoritative records. Variants flagged by a suspect rule
// are re-matched within their parent product; a unique match corrects the
// stored vid, and anything less deactivates the variant so it cannot be
// ordered with an identity nobody trusts.
type ReconciliationService struct {
	gateway  supplier.Gateway
	products catalog.ProductRepository
	variants catalog.VariantRepository
	matcher  *VariantMatcher
	rules    []supplier.SuspectRule
	logger   *zap.Logger
}

// NewReconciliationService creates a reconciliation service with the
// built-in suspect rules
func NewReconciliationService(
	gateway supplier.Gateway,
	products catalog.ProductRepository,
	variants catalog.VariantRepository,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		gateway:  gateway,
		products: products,
		variants: variants,
		matcher:  NewVariantMatcher(),
		rules:    supplier.DefaultSuspectRules(),
		logger:   logger,
	}
}

// ---------------------------------------------------------------------------
// Reconciliation
// ---------------------------------------------------------------------------

// ReconcileVariant checks one variant's identity and repairs it if needed.
// The decision record is always returned; an error means the check itself
// could not be carried out and should be retried later.
func (s *ReconciliationService) ReconcileVariant(ctx context.Context, variant *catalog.Variant) (*ReconcileResult, error) {
	product, err := s.products.FindByID(ctx, variant.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load parent product: %w", err)
	}

	identity := supplier.VariantIdentity{
		VID: variant.VID,
		PID: product.PID,
		SKU: variant.SKU,
	}

	// The local rules clear most variants without spending a paced
	// supplier call. Only a missing vid still depends on whether the
	// supplier lists variants at all.
	suspect, rule := supplier.IsSuspect(identity, s.rules)
	if !suspect && variant.VID != "" {
		return &ReconcileResult{
			VariantID: variant.ID.String(),
			VID:       variant.VID,
			Outcome:   OutcomeSkipped,
		}, nil
	}

	candidates, err := s.gateway.GetVariantsByPID(ctx, product.PID)
	if err != nil {
		if errors.Is(err, supplier.ErrProductNotFound) {
			// The supplier no longer lists the product. No identity can
			// be verified against it, so the whole listing goes dark.
			if err := s.retireProduct(ctx, product, variant.ID); err != nil {
				return nil, err
			}
			return s.deactivate(ctx, variant, "", "supplier product no longer exists")
		}
		return nil, fmt.Errorf("fetch supplier variants: %w", err)
	}
	if len(candidates) == 0 {
		// An empty list is ambiguous: the product may legitimately carry
		// no variants, or its listing may be gone entirely.
		if _, derr := s.gateway.GetProductDetail(ctx, product.PID); derr != nil {
			if errors.Is(derr, supplier.ErrProductNotFound) {
				if err := s.retireProduct(ctx, product, variant.ID); err != nil {
					return nil, err
				}
				return s.deactivate(ctx, variant, "", "supplier product no longer exists")
			}
			return nil, fmt.Errorf("confirm supplier product: %w", derr)
		}
	}

	if !suspect {
		identity.HasSupplierVariants = len(candidates) > 0
		suspect, rule = supplier.IsSuspect(identity, s.rules)
		if !suspect {
			return &ReconcileResult{
				VariantID: variant.ID.String(),
				VID:       variant.VID,
				Outcome:   OutcomeSkipped,
			}, nil
		}
	}

	matched, err := s.matcher.Match(variant, candidates)
	if err != nil {
		if errors.Is(err, supplier.ErrAmbiguousMatch) {
			return s.deactivate(ctx, variant, rule, "supplier match ambiguous")
		}
		return nil, err
	}
	if matched == nil {
		return s.deactivate(ctx, variant, rule, "no supplier match")
	}

	return s.correct(ctx, variant, matched, rule)
}

func (s *ReconciliationService) correct(ctx context.Context, variant *catalog.Variant, matched *supplier.ExternalVariant, rule string) (*ReconcileResult, error) {
	previous := variant.VID
	if previous == matched.VID {
		// The rule fired, but the supplier lists the stored vid under this
		// product after all. The identity stands unchanged.
		s.logger.Info("confirmed variant identity",
			zap.String("variant_id", variant.ID.String()),
			zap.String("vid", variant.VID),
			zap.String("rule", rule),
		)
		return &ReconcileResult{
			VariantID: variant.ID.String(),
			VID:       variant.VID,
			Outcome:   OutcomeConfirmed,
			Rule:      rule,
		}, nil
	}
	if err := variant.AssignAuthoritativeVid(matched.VID); err != nil {
		return nil, err
	}
	if matched.SKU != nil && variant.SKU == nil {
		variant.SetSKU(matched.SKU)
	}
	if err := s.variants.Save(ctx, variant); err != nil {
		return nil, fmt.Errorf("persist corrected variant: %w", err)
	}

	s.logger.Info("corrected variant identity",
		zap.String("variant_id", variant.ID.String()),
		zap.String("previous_vid", previous),
		zap.String("vid", matched.VID),
		zap.String("rule", rule),
	)

	return &ReconcileResult{
		VariantID: variant.ID.String(),
		VID:       matched.VID,
		Outcome:   OutcomeCorrected,
		Rule:      rule,
	}, nil
}

// retireProduct deactivates a product whose supplier listing disappeared,
// along with every sibling variant. The variant being reconciled is
// excluded; its own deactivation is recorded separately.
func (s *ReconciliationService) retireProduct(ctx context.Context, product *catalog.Product, excludeVariantID uuid.UUID) error {
	if product.IsActive() {
		if err := product.Deactivate(); err != nil {
			return err
		}
		if err := s.products.Save(ctx, product); err != nil {
			return fmt.Errorf("persist retired product: %w", err)
		}
	}

	siblings, err := s.variants.FindByProduct(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("load sibling variants: %w", err)
	}
	for i := range siblings {
		sibling := &siblings[i]
		if sibling.ID == excludeVariantID || !sibling.Active {
			continue
		}
		sibling.Deactivate("supplier product no longer exists")
		if err := s.variants.Save(ctx, sibling); err != nil {
			return fmt.Errorf("persist deactivated sibling: %w", err)
		}
	}
	return nil
}

func (s *ReconciliationService) deactivate(ctx context.Context, variant *catalog.Variant, rule, reason string) (*ReconcileResult, error) {
	if variant.Active {
		variant.Deactivate(reason)
		if err := s.variants.Save(ctx, variant); err != nil {
			return nil, fmt.Errorf("persist deactivated variant: %w", err)
		}
	}

	s.logger.Warn("deactivated variant with unverifiable identity",
		zap.String("variant_id", variant.ID.String()),
		zap.String("vid", variant.VID),
		zap.String("rule", rule),
		zap.String("reason", reason),
	)

	return &ReconcileResult{
		VariantID: variant.ID.String(),
		VID:       variant.VID,
		Outcome:   OutcomeDeactivated,
		Rule:      rule,
		Reason:    reason,
	}, nil
}

// ---------------------------------------------------------------------------
// Pre-Order Verification
// ---------------------------------------------------------------------------

// VerifyBeforeOrder confirms a variant can be safely forwarded to the
// supplier on an order. It returns ErrVariantInactive for deactivated
// variants and ErrVariantCorrupt when the stored identity fails any
// suspect rule or is unknown to the supplier.
func (s *ReconciliationService) VerifyBeforeOrder(ctx context.Context, variantID uuid.UUID) (*catalog.Variant, error) {
	variant, err := s.variants.FindByID(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if !variant.Active {
		return nil, fmt.Errorf("%w: variant %s", supplier.ErrVariantInactive, variantID)
	}

	product, err := s.products.FindByID(ctx, variant.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load parent product: %w", err)
	}

	identity := supplier.VariantIdentity{
		VID: variant.VID,
		PID: product.PID,
		SKU: variant.SKU,
		// Assume the supplier lists variants; a bare missing vid must
		// fail verification rather than slip through.
		HasSupplierVariants: true,
	}
	if suspect, rule := supplier.IsSuspect(identity, s.rules); suspect {
		return nil, fmt.Errorf("%w: rule %s", supplier.ErrVariantCorrupt, rule)
	}

	remote, err := s.gateway.GetVariant(ctx, variant.VID)
	if err != nil {
		if errors.Is(err, supplier.ErrVariantNotFound) {
			return nil, fmt.Errorf("%w: vid %s unknown to supplier", supplier.ErrVariantCorrupt, variant.VID)
		}
		return nil, err
	}
	if remote.PID != product.PID {
		return nil, fmt.Errorf("%w: vid %s belongs to supplier product %s", supplier.ErrVariantCorrupt, variant.VID, remote.PID)
	}

	return variant, nil
}
