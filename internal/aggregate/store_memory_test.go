package aggregate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCohort = cohortID{ObjectiveID: "algebra-basics", CohortKey: "grade-7:algebra-basics"}

func TestInMemoryStore_UpsertReplaces(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testCohort, nthRef(1), StudentStat{MasteryScore: 40}))
	require.NoError(t, store.Upsert(ctx, testCohort, nthRef(1), StudentStat{MasteryScore: 70}))

	stats, err := store.Snapshot(ctx, testCohort)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 70.0, stats[nthRef(1)].MasteryScore)
}

func TestInMemoryStore_SnapshotUnknownCohortIsEmpty(t *testing.T) {
	store := NewInMemoryStore()

	stats, err := store.Snapshot(context.Background(), testCohort)
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestInMemoryStore_PurgeStudentSpansCohorts(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	other := cohortID{ObjectiveID: "counting", CohortKey: "grade-1:counting"}

	require.NoError(t, store.Upsert(ctx, testCohort, nthRef(1), StudentStat{}))
	require.NoError(t, store.Upsert(ctx, other, nthRef(1), StudentStat{}))
	require.NoError(t, store.Upsert(ctx, testCohort, nthRef(2), StudentStat{}))

	removed, err := store.PurgeStudent(ctx, nthRef(1))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	stats, err := store.Snapshot(ctx, testCohort)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	_, remains := stats[nthRef(2)]
	assert.True(t, remains)
}
