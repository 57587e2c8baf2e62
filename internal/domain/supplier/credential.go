package supplier

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tier is the supplier account service level. It determines the minimum
// spacing between outbound API calls.
type Tier string

const (
	TierFree       Tier = "FREE"
	TierPlus       Tier = "PLUS"
	TierPro        Tier = "PRO"
	TierEnterprise Tier = "ENTERPRISE"
)

// IsValid returns true if the tier is a known service level.
func (t Tier) IsValid() bool {
	switch t {
	case TierFree, TierPlus, TierPro, TierEnterprise:
		return true
	default:
		return false
	}
}

// String returns the string representation of Tier.
func (t Tier) String() string {
	return string(t)
}

// PacingInterval returns the minimum delay between consecutive API calls
// for this tier. Unknown tiers fall back to the free-tier interval.
func (t Tier) PacingInterval() time.Duration {
	switch t {
	case TierEnterprise:
		return 200 * time.Millisecond
	case TierPro:
		return 500 * time.Millisecond
	case TierPlus:
		return time.Second
	default:
		return 2 * time.Second
	}
}

// tokenExpirySkew is subtracted from the nominal expiry so a token is never
// presented upstream moments before it lapses.
const tokenExpirySkew = time.Minute

// Credential holds the supplier access/refresh token pair and its expiry.
// Exactly one live instance exists per supplier connection; it is mutated
// only by the credential manager.
type Credential struct {
	ID                 uuid.UUID
	SupplierID         uuid.UUID
	Email              string
	APIKey             string
	AccessToken        string
	RefreshToken       string
	AccessTokenExpiry  *time.Time
	RefreshTokenExpiry *time.Time
	Tier               Tier
	Enabled            bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewCredential creates a credential for a supplier connection. No tokens
// are held until the first login.
func NewCredential(supplierID uuid.UUID, email, apiKey string, tier Tier) (*Credential, error) {
	if supplierID == uuid.Nil || email == "" || apiKey == "" {
		return nil, ErrCredentialInvalid
	}
	if !tier.IsValid() {
		tier = TierFree
	}
	now := time.Now()
	return &Credential{
		ID:         uuid.New(),
		SupplierID: supplierID,
		Email:      email,
		APIKey:     apiKey,
		Tier:       tier,
		Enabled:    true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// HasValidAccessToken reports whether the access token can be presented
// upstream at the given instant, applying the expiry skew.
func (c *Credential) HasValidAccessToken(now time.Time) bool {
	if c.AccessToken == "" || c.AccessTokenExpiry == nil {
		return false
	}
	return now.Before(c.AccessTokenExpiry.Add(-tokenExpirySkew))
}

// HasValidRefreshToken reports whether a refresh (rather than a full login)
// is still possible.
func (c *Credential) HasValidRefreshToken(now time.Time) bool {
	if c.RefreshToken == "" {
		return false
	}
	if c.RefreshTokenExpiry == nil {
		return true
	}
	return now.Before(c.RefreshTokenExpiry.Add(-tokenExpirySkew))
}

// ApplyTokenPair records a freshly issued token pair.
func (c *Credential) ApplyTokenPair(pair TokenPair) {
	c.AccessToken = pair.AccessToken
	c.RefreshToken = pair.RefreshToken
	c.AccessTokenExpiry = pair.AccessTokenExpiry
	c.RefreshTokenExpiry = pair.RefreshTokenExpiry
	c.UpdatedAt = time.Now()
}

// ClearTokens discards the held token pair, forcing a full login on the
// next authenticated call.
func (c *Credential) ClearTokens() {
	c.AccessToken = ""
	c.RefreshToken = ""
	c.AccessTokenExpiry = nil
	c.RefreshTokenExpiry = nil
	c.UpdatedAt = time.Now()
}

// Disable turns the connection off; all sync activity short-circuits.
func (c *Credential) Disable() {
	c.Enabled = false
	c.UpdatedAt = time.Now()
}

// Enable turns the connection back on.
func (c *Credential) Enable() {
	c.Enabled = true
	c.UpdatedAt = time.Now()
}

// TokenPair is a freshly issued supplier token pair.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  *time.Time
	RefreshToken       string
	RefreshTokenExpiry *time.Time
}

// CredentialRepository persists supplier credentials.
type CredentialRepository interface {
	// FindBySupplier returns the live credential for a supplier connection.
	FindBySupplier(ctx context.Context, supplierID uuid.UUID) (*Credential, error)

	// Save creates or updates a credential.
	Save(ctx context.Context, cred *Credential) error
}
