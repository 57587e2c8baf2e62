package cj

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/storefront/backend/internal/domain/supplier"
)

// maxCJResponseSize limits the response body size to prevent memory
// exhaustion
const maxCJResponseSize = 10 * 1024 * 1024 // 10MB max response

// CJAuthenticator exchanges account credentials for supplier token pairs.
// Auth endpoints are not paced by the dispatcher; the supplier exempts
// them from tier throttling.
type CJAuthenticator struct {
	config     *CJConfig
	httpClient *http.Client
}

// NewCJAuthenticator creates an authenticator for the CJ API
func NewCJAuthenticator(config *CJConfig) (*CJAuthenticator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &CJAuthenticator{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Login exchanges the account email and API key for a token pair
func (a *CJAuthenticator) Login(ctx context.Context, email, apiKey string) (*supplier.TokenPair, error) {
	body := map[string]string{
		"email":    email,
		"password": apiKey,
	}
	return a.requestTokenPair(ctx, "/authentication/getAccessToken", body)
}

// Refresh exchanges a refresh token for a new token pair
func (a *CJAuthenticator) Refresh(ctx context.Context, refreshToken string) (*supplier.TokenPair, error) {
	body := map[string]string{
		"refreshToken": refreshToken,
	}
	return a.requestTokenPair(ctx, "/authentication/refreshAccessToken", body)
}

func (a *CJAuthenticator) requestTokenPair(ctx context.Context, path string, payload map[string]string) (*supplier.TokenPair, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("cj: failed to marshal auth request: %w", err)
	}

	url := a.config.APIBaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("cj: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", supplier.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxCJResponseSize))
	if err != nil {
		return nil, fmt.Errorf("cj: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: HTTP %d", supplier.ErrAuthFailed, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", supplier.ErrRequestFailed, resp.StatusCode)
	}

	var tokenResp CJAccessTokenResponse
	if err := json.Unmarshal(respBody, &tokenResp); err != nil {
		return nil, fmt.Errorf("%w: %v", supplier.ErrInvalidResponse, err)
	}

	if !tokenResp.IsSuccess() {
		if tokenResp.IsAuthError() {
			return nil, fmt.Errorf("%w: %d - %s", supplier.ErrAuthFailed, tokenResp.Code, tokenResp.Message)
		}
		return nil, fmt.Errorf("%w: %d - %s", supplier.ErrRequestFailed, tokenResp.Code, tokenResp.Message)
	}

	if tokenResp.Data == nil || tokenResp.Data.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty token data", supplier.ErrInvalidResponse)
	}

	return &supplier.TokenPair{
		AccessToken:        tokenResp.Data.AccessToken,
		AccessTokenExpiry:  parseCJTime(tokenResp.Data.AccessTokenExpiryDate),
		RefreshToken:       tokenResp.Data.RefreshToken,
		RefreshTokenExpiry: parseCJTime(tokenResp.Data.RefreshTokenExpiryDate),
	}, nil
}

// Ensure CJAuthenticator implements Authenticator
var _ supplier.Authenticator = (*CJAuthenticator)(nil)
