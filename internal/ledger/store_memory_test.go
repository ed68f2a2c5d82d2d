package ledger

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "pathway/pkg/domain"
	"pathway/pkg/platform/sentinel"
)

func TestInMemoryStore_RoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	state := NewProgressState(testRef, "algebra-basics")
	state.section("intro").TimeSpentMs = 30_000
	state.Applied["fp-1"] = true
	require.NoError(t, store.Save(ctx, state))

	got, err := store.Get(ctx, testRef, "algebra-basics")
	require.NoError(t, err)
	assert.Equal(t, int64(30_000), got.Sections["intro"].TimeSpentMs)
	assert.True(t, got.Applied["fp-1"])
}

func TestInMemoryStore_GetNotFound(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get(context.Background(), testRef, "algebra-basics")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_SnapshotsDoNotAlias(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	state := NewProgressState(testRef, "algebra-basics")
	state.section("intro").InteractionCount = 1
	require.NoError(t, store.Save(ctx, state))

	// Mutating the caller's copy must not leak into the store.
	state.section("intro").InteractionCount = 99
	got, err := store.Get(ctx, testRef, "algebra-basics")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Sections["intro"].InteractionCount)

	// And mutating a read snapshot must not either.
	got.section("intro").InteractionCount = 42
	again, err := store.Get(ctx, testRef, "algebra-basics")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Sections["intro"].InteractionCount)
}

func TestInMemoryStore_ListByStudent(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	otherRef := id.StudentRef(strings.Repeat("cd", 32))

	require.NoError(t, store.Save(ctx, NewProgressState(testRef, "algebra-basics")))
	require.NoError(t, store.Save(ctx, NewProgressState(testRef, "counting")))
	require.NoError(t, store.Save(ctx, NewProgressState(otherRef, "algebra-basics")))

	states, err := store.ListByStudent(ctx, testRef)
	require.NoError(t, err)
	assert.Len(t, states, 2)
}

func TestInMemoryStore_PurgeStudent(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	otherRef := id.StudentRef(strings.Repeat("cd", 32))

	require.NoError(t, store.Save(ctx, NewProgressState(testRef, "algebra-basics")))
	require.NoError(t, store.Save(ctx, NewProgressState(testRef, "counting")))
	require.NoError(t, store.Save(ctx, NewProgressState(otherRef, "algebra-basics")))

	removed, err := store.PurgeStudent(ctx, testRef)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = store.Get(ctx, testRef, "algebra-basics")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	// The other student is untouched.
	_, err = store.Get(ctx, otherRef, "algebra-basics")
	assert.NoError(t, err)
}
