package consent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "pathway/pkg/domain"
	"pathway/pkg/platform/sentinel"
)

var storeRef = testStudent("ab")

func TestInMemoryStore_RoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	granted := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	record := Record{
		StudentRef: storeRef,
		Tier:       id.TierStandard,
		GrantedAt:  granted,
		ExpiresAt:  granted.Add(365 * 24 * time.Hour),
	}
	require.NoError(t, store.Save(ctx, record))

	got, err := store.Get(ctx, storeRef)
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestInMemoryStore_GetNotFound(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get(context.Background(), storeRef)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_SaveReplacesExisting(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Record{StudentRef: storeRef, Tier: id.TierMinimal}))
	require.NoError(t, store.Save(ctx, Record{StudentRef: storeRef, Tier: id.TierEnhanced}))

	got, err := store.Get(ctx, storeRef)
	require.NoError(t, err)
	assert.Equal(t, id.TierEnhanced, got.Tier)
}

func TestInMemoryStore_Revoke(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	revokedAt := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, Record{StudentRef: storeRef, Tier: id.TierStandard}))
	require.NoError(t, store.Revoke(ctx, storeRef, revokedAt))

	got, err := store.Get(ctx, storeRef)
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	assert.Equal(t, revokedAt, *got.RevokedAt)
	assert.Equal(t, id.TierStandard, got.Tier, "revocation keeps the record for audit, only marks it")
}

func TestInMemoryStore_RevokeUnknownStudent(t *testing.T) {
	store := NewInMemoryStore()

	err := store.Revoke(context.Background(), storeRef, time.Now())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}
