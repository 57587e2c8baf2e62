package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/supplier"
)

func TestGormWebhookEventRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown message ID returns nil without error", func(t *testing.T) {
		db := setupCatalogTestDB(t)
		repo := NewGormWebhookEventRepository(db)

		event, err := repo.FindByMessageID(ctx, uuid.New(), "msg-404")
		require.NoError(t, err)
		assert.Nil(t, event)
	})

	t.Run("saves an event and reads it back through the model", func(t *testing.T) {
		db := setupCatalogTestDB(t)
		repo := NewGormWebhookEventRepository(db)
		supplierID := uuid.New()

		event := supplier.NewWebhookEvent(supplierID, "msg-1", supplier.EventTypeStock, `{"vid":"V-1","stock":7}`)
		event.MarkValidated()
		event.MarkApplied()
		require.NoError(t, repo.Save(ctx, event))

		found, err := repo.FindByMessageID(ctx, supplierID, "msg-1")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, supplier.EventStatusApplied, found.Status)
		assert.Equal(t, supplier.EventTypeStock, found.Type)
		require.NotNil(t, found.AppliedAt)
	})

	t.Run("status transitions persist across saves", func(t *testing.T) {
		db := setupCatalogTestDB(t)
		repo := NewGormWebhookEventRepository(db)
		supplierID := uuid.New()

		event := supplier.NewWebhookEvent(supplierID, "msg-1", supplier.EventTypeProduct, `{"pid":"P-1"}`)
		require.NoError(t, repo.Save(ctx, event))

		event.MarkRejected("insecure transport")
		require.NoError(t, repo.Save(ctx, event))

		found, err := repo.FindByMessageID(ctx, supplierID, "msg-1")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, supplier.EventStatusRejected, found.Status)
		assert.Equal(t, "insecure transport", found.Error)
	})

	t.Run("ListByStatus returns newest first and honors the limit", func(t *testing.T) {
		db := setupCatalogTestDB(t)
		repo := NewGormWebhookEventRepository(db)
		supplierID := uuid.New()

		base := time.Now().Add(-time.Hour)
		for i := 0; i < 3; i++ {
			event := supplier.NewWebhookEvent(supplierID, uuid.NewString(), supplier.EventTypeStock, "{}")
			event.ReceivedAt = base.Add(time.Duration(i) * time.Minute)
			event.MarkValidated()
			event.MarkApplied()
			require.NoError(t, repo.Save(ctx, event))
		}

		events, err := repo.ListByStatus(ctx, supplierID, supplier.EventStatusApplied, 2)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.True(t, events[0].ReceivedAt.After(events[1].ReceivedAt))
	})
}

func TestGormCredentialRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("missing credential returns ErrCredentialNotFound", func(t *testing.T) {
		db := setupCatalogTestDB(t)
		repo := NewGormCredentialRepository(db)

		_, err := repo.FindBySupplier(ctx, uuid.New())
		assert.ErrorIs(t, err, supplier.ErrCredentialNotFound)
	})

	t.Run("saves a credential and reads it back", func(t *testing.T) {
		db := setupCatalogTestDB(t)
		repo := NewGormCredentialRepository(db)
		supplierID := uuid.New()

		cred, err := supplier.NewCredential(supplierID, "shop@example.com", "api-key-123", supplier.TierPro)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, cred))

		found, err := repo.FindBySupplier(ctx, supplierID)
		require.NoError(t, err)
		assert.Equal(t, "shop@example.com", found.Email)
		assert.Equal(t, supplier.TierPro, found.Tier)
		assert.True(t, found.Enabled)
	})

	t.Run("token pair updates persist", func(t *testing.T) {
		db := setupCatalogTestDB(t)
		repo := NewGormCredentialRepository(db)
		supplierID := uuid.New()

		cred, err := supplier.NewCredential(supplierID, "shop@example.com", "api-key-123", supplier.TierFree)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, cred))

		expiry := time.Now().Add(2 * time.Hour).Truncate(time.Second)
		cred.ApplyTokenPair(supplier.TokenPair{
			AccessToken:       "access-token",
			AccessTokenExpiry: &expiry,
			RefreshToken:      "refresh-token",
		})
		require.NoError(t, repo.Save(ctx, cred))

		found, err := repo.FindBySupplier(ctx, supplierID)
		require.NoError(t, err)
		assert.Equal(t, "access-token", found.AccessToken)
		assert.Equal(t, "refresh-token", found.RefreshToken)
		require.NotNil(t, found.AccessTokenExpiry)
		assert.WithinDuration(t, expiry, *found.AccessTokenExpiry, time.Second)
	})
}
