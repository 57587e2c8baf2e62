package cj

import (
	"errors"

	"github.com/storefront/backend/internal/domain/supplier"
)

// CJConfig holds configuration for the CJ-Dropshipping API connection
type CJConfig struct {
	// Email is the account email registered with the supplier
	Email string
	// APIKey is the API password generated in the supplier console
	APIKey string
	// Tier is the account tier, which determines request pacing
	Tier supplier.Tier
	// APIBaseURL is the base URL for the supplier API
	APIBaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// MaxRetries is the number of retries for transient failures
	MaxRetries int
}

const (
	// CJProductionAPIURL is the production API endpoint
	CJProductionAPIURL = "https://developers.cjdropshipping.com/api2.0/v1"

	// defaultTimeoutSeconds is the default HTTP timeout
	defaultTimeoutSeconds = 30
	// defaultMaxRetries is the default retry budget for transient failures
	defaultMaxRetries = 3
)

// Errors for CJ configuration
var (
	ErrCJConfigMissingEmail  = errors.New("cj: account email is required")
	ErrCJConfigMissingAPIKey = errors.New("cj: API key is required")
	ErrCJConfigInvalidTier   = errors.New("cj: invalid account tier")
)

// NewCJConfig creates a new CJ configuration with defaults
func NewCJConfig(email, apiKey string, tier supplier.Tier) *CJConfig {
	return &CJConfig{
		Email:          email,
		APIKey:         apiKey,
		Tier:           tier,
		APIBaseURL:     CJProductionAPIURL,
		TimeoutSeconds: defaultTimeoutSeconds,
		MaxRetries:     defaultMaxRetries,
	}
}

// Validate validates the CJ configuration
func (c *CJConfig) Validate() error {
	if c.Email == "" {
		return ErrCJConfigMissingEmail
	}
	if c.APIKey == "" {
		return ErrCJConfigMissingAPIKey
	}
	if c.Tier == "" {
		c.Tier = supplier.TierFree
	}
	if !c.Tier.IsValid() {
		return ErrCJConfigInvalidTier
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = CJProductionAPIURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = defaultMaxRetries
	}
	return nil
}
