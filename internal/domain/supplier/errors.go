package supplier

import "errors"

var (
	// Connection / transport errors
	ErrNotConfigured   = errors.New("supplier: connection not configured")
	ErrDisabled        = errors.New("supplier: connection disabled")
	ErrUnavailable     = errors.New("supplier: temporarily unavailable")
	ErrRequestFailed   = errors.New("supplier: request failed")
	ErrInvalidResponse = errors.New("supplier: invalid response")

	// Authentication errors
	ErrAuthFailed   = errors.New("supplier: authentication failed")
	ErrTokenExpired = errors.New("supplier: access token expired")

	// Throttling
	ErrRateLimited = errors.New("supplier: rate limited")

	// Catalog lookup errors. NotFound is an expected outcome during
	// reconciliation, not an exceptional condition.
	ErrProductNotFound = errors.New("supplier: product not found")
	ErrVariantNotFound = errors.New("supplier: variant not found")

	// Reconciliation errors
	ErrAmbiguousMatch  = errors.New("supplier: ambiguous variant match")
	ErrVariantCorrupt  = errors.New("supplier: variant id corrupt")
	ErrVariantInactive = errors.New("supplier: variant is inactive")

	// Webhook errors
	ErrWebhookInvalidPayload = errors.New("supplier: invalid webhook payload")
	ErrWebhookInsecure       = errors.New("supplier: webhook received over insecure transport")
	ErrWebhookUnknownType    = errors.New("supplier: unknown webhook event type")
	ErrWebhookDuplicate      = errors.New("supplier: webhook event already processed")

	// Credential errors
	ErrCredentialNotFound = errors.New("supplier: credential not found")
	ErrCredentialInvalid  = errors.New("supplier: credential is invalid")
)

// IsAuthError reports whether err is an authentication failure, as opposed
// to a network or throttling error. Callers use this to decide whether the
// connection should be disabled.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrTokenExpired)
}

// IsRetryable reports whether the operation may succeed if repeated later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrRateLimited)
}
