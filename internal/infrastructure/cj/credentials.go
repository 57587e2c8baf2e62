package cj

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/supplier"
)

// CredentialManager caches the supplier token pair and refreshes it on
// demand. Concurrent callers that find the token expired share a single
// in-flight refresh; exactly one network call is made and every waiter
// receives its outcome.
type CredentialManager struct {
	supplierID uuid.UUID
	repo       supplier.CredentialRepository
	auth       supplier.Authenticator
	logger     *zap.Logger

	mu   sync.Mutex
	cred *supplier.Credential

	// inflight is non-nil while a refresh is running. It is closed when
	// the refresh finishes and the outcome fields below are set.
	inflight      chan struct{}
	inflightToken string
	inflightErr   error
}

// NewCredentialManager creates a credential manager for one supplier
// connection.
func NewCredentialManager(supplierID uuid.UUID, repo supplier.CredentialRepository, auth supplier.Authenticator, logger *zap.Logger) *CredentialManager {
	return &CredentialManager{
		supplierID: supplierID,
		repo:       repo,
		auth:       auth,
		logger:     logger,
	}
}

// GetValidToken returns a non-expired access token, refreshing or logging
// in first when needed.
func (m *CredentialManager) GetValidToken(ctx context.Context) (string, error) {
	m.mu.Lock()

	if m.cred == nil {
		cred, err := m.repo.FindBySupplier(ctx, m.supplierID)
		if err != nil {
			m.mu.Unlock()
			return "", fmt.Errorf("%w: %v", supplier.ErrCredentialNotFound, err)
		}
		m.cred = cred
	}

	if !m.cred.Enabled {
		m.mu.Unlock()
		return "", supplier.ErrDisabled
	}

	if m.cred.HasValidAccessToken(time.Now()) {
		token := m.cred.AccessToken
		m.mu.Unlock()
		return token, nil
	}

	// Join an in-flight refresh if one is running.
	if m.inflight != nil {
		done := m.inflight
		m.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		m.mu.Lock()
		token, err := m.inflightToken, m.inflightErr
		m.mu.Unlock()
		return token, err
	}

	done := make(chan struct{})
	m.inflight = done
	cred := m.cred
	m.mu.Unlock()

	token, err := m.renew(ctx, cred)

	m.mu.Lock()
	m.inflightToken = token
	m.inflightErr = err
	m.inflight = nil
	m.mu.Unlock()
	close(done)

	return token, err
}

// renew obtains a fresh token pair, preferring refresh over a full login,
// and persists the outcome.
func (m *CredentialManager) renew(ctx context.Context, cred *supplier.Credential) (string, error) {
	var pair *supplier.TokenPair
	var err error

	if cred.HasValidRefreshToken(time.Now()) {
		pair, err = m.auth.Refresh(ctx, cred.RefreshToken)
		if err != nil && supplier.IsAuthError(err) {
			m.logger.Warn("token refresh rejected, falling back to login",
				zap.String("supplier_id", m.supplierID.String()),
				zap.Error(err))
			pair, err = m.auth.Login(ctx, cred.Email, cred.APIKey)
		}
	} else {
		pair, err = m.auth.Login(ctx, cred.Email, cred.APIKey)
	}

	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.cred.ApplyTokenPair(*pair)
	snapshot := *m.cred
	m.mu.Unlock()

	if err := m.repo.Save(ctx, &snapshot); err != nil {
		// The in-memory token is still usable; persistence catches up on
		// the next renewal.
		m.logger.Error("failed to persist refreshed credential",
			zap.String("supplier_id", m.supplierID.String()),
			zap.Error(err))
	}

	m.logger.Info("supplier token renewed",
		zap.String("supplier_id", m.supplierID.String()),
		zap.Timep("access_expiry", pair.AccessTokenExpiry))

	return pair.AccessToken, nil
}

// Invalidate discards the cached access token so the next call renews it.
// The refresh token is kept; a renewal will try it before a full login.
func (m *CredentialManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return
	}
	m.cred.AccessToken = ""
	m.cred.AccessTokenExpiry = nil
}

// Ensure CredentialManager implements TokenSource
var _ supplier.TokenSource = (*CredentialManager)(nil)
