package supplier

import (
	"context"
)

// Gateway is the port interface for the dropshipping supplier's remote API.
// It follows the Ports & Adapters pattern: the interface lives in the domain
// layer and the concrete HTTP client lives in the infrastructure layer. All
// calls are paced and retried by the adapter's dispatcher; callers see only
// the error taxonomy in errors.go.
type Gateway interface {
	// ListProducts fetches one page of the supplier catalog. Pagination is
	// finite and restartable from any page.
	ListProducts(ctx context.Context, filter ProductFilter, pageNum, pageSize int) (*ProductPage, error)

	// GetProductDetail fetches the authoritative product record including
	// its variants. Returns ErrProductNotFound when the product no longer
	// exists upstream.
	GetProductDetail(ctx context.Context, pid string) (*ExternalProduct, error)

	// GetVariantsByPID fetches the authoritative variant list for a product.
	GetVariantsByPID(ctx context.Context, pid string) ([]ExternalVariant, error)

	// GetVariant validates a variant id against the supplier. Returns
	// ErrVariantNotFound when the id does not exist upstream; this is an
	// expected reconciliation outcome.
	GetVariant(ctx context.Context, vid string) (*ExternalVariant, error)

	// GetStockByVID fetches current stock for a variant.
	GetStockByVID(ctx context.Context, vid string) (int, error)

	// ListReviews fetches one page of reviews for a product.
	ListReviews(ctx context.Context, pid string, pageNum, pageSize int) (*ReviewPage, error)

	// RegisterWebhook points the supplier's push notifications at the given
	// callback URL.
	RegisterWebhook(ctx context.Context, callbackURL string) error
}

// Authenticator is the subset of the supplier API that issues tokens. It is
// consumed by the credential manager only.
type Authenticator interface {
	// Login performs a full authentication with email + API key.
	Login(ctx context.Context, email, apiKey string) (*TokenPair, error)

	// Refresh exchanges a refresh token for a new token pair.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

// TokenSource yields a token valid for the immediate call. Implemented by
// the credential manager; consumed by the dispatcher.
type TokenSource interface {
	// GetValidToken returns an access token guaranteed valid right now,
	// refreshing or re-authenticating as needed.
	GetValidToken(ctx context.Context) (string, error)

	// Invalidate forces the next GetValidToken to re-authenticate.
	Invalidate()
}
