package cj

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/storefront/backend/internal/domain/supplier"
)

// Backoff bounds for transient failures
const (
	backoffBase = 500 * time.Millisecond
	backoffCap  = 8 * time.Second
)

// accessTokenHeader carries the access token on every authenticated call
const accessTokenHeader = "CJ-Access-Token"

// Dispatcher serializes all authenticated supplier calls through a single
// pacing gate so the account-wide request budget is never exceeded, no
// matter how many goroutines issue calls. Transient failures are retried
// with exponential backoff; an authentication failure invalidates the
// cached token and retries exactly once with a fresh one.
type Dispatcher struct {
	config     *CJConfig
	tokens     supplier.TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewDispatcher creates a dispatcher paced for the configured tier
func NewDispatcher(config *CJConfig, tokens supplier.TokenSource, logger *zap.Logger) (*Dispatcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	interval := config.Tier.PacingInterval()
	return &Dispatcher{
		config: config,
		tokens: tokens,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
	}, nil
}

// SetTier re-paces the dispatcher after an account tier change
func (d *Dispatcher) SetTier(tier supplier.Tier) {
	d.limiter.SetLimit(rate.Every(tier.PacingInterval()))
}

// Get performs a paced GET request and returns the raw response body
func (d *Dispatcher) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return d.do(ctx, http.MethodGet, path, query, nil)
}

// Post performs a paced POST request and returns the raw response body
func (d *Dispatcher) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return d.do(ctx, http.MethodPost, path, nil, body)
}

func (d *Dispatcher) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	authRetried := false

	for attempt := 0; ; attempt++ {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		respBody, err := d.send(ctx, method, path, query, body)
		if err == nil {
			return respBody, nil
		}

		if supplier.IsAuthError(err) {
			if authRetried {
				return nil, err
			}
			// One fresh-token retry: the cached token may have been
			// revoked server-side before its recorded expiry.
			authRetried = true
			d.tokens.Invalidate()
			d.logger.Warn("supplier rejected token, retrying with fresh one",
				zap.String("path", path))
			continue
		}

		if !supplier.IsRetryable(err) || attempt >= d.config.MaxRetries {
			return nil, err
		}

		delay := backoffDelay(attempt)
		d.logger.Warn("supplier request failed, backing off",
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// send performs one HTTP round trip and maps failures onto the supplier
// error taxonomy.
func (d *Dispatcher) send(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	token, err := d.tokens.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}

	reqURL := d.config.APIBaseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("cj: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("cj: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(accessTokenHeader, token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", supplier.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxCJResponseSize))
	if err != nil {
		return nil, fmt.Errorf("cj: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP 429", supplier.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d", supplier.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", supplier.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", supplier.ErrRequestFailed, resp.StatusCode)
	}

	// The API reports most failures inside the envelope with HTTP 200.
	var envelope CJResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", supplier.ErrInvalidResponse, err)
	}

	switch {
	case envelope.IsRateLimited():
		return nil, fmt.Errorf("%w: %d - %s", supplier.ErrRateLimited, envelope.Code, envelope.Message)
	case envelope.IsAuthError():
		return nil, fmt.Errorf("%w: %d - %s", supplier.ErrAuthFailed, envelope.Code, envelope.Message)
	}

	return respBody, nil
}

// backoffDelay returns the exponential delay for a retry attempt
func backoffDelay(attempt int) time.Duration {
	delay := backoffBase << attempt
	if delay > backoffCap || delay <= 0 {
		return backoffCap
	}
	return delay
}
