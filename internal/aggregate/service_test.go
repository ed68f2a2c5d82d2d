package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathway/internal/consent"
	id "pathway/pkg/domain"
	dErrors "pathway/pkg/domain-errors"
	"pathway/pkg/requestcontext"
)

var aggAuthz = consent.Authorization{
	Tier:              id.TierMinimal,
	AllowIdentifiable: false,
	AllowAggregate:    true,
}

func newAggService(cfg Config) *Service {
	return NewService(NewInMemoryStore(), cfg, nil, slog.New(slog.DiscardHandler))
}

func nthRef(n int) id.StudentRef {
	return id.StudentRef(strings.Repeat(fmt.Sprintf("%02x", n), 32))
}

func contribution(n int, mastery float64) Contribution {
	return Contribution{
		StudentRef:   nthRef(n),
		ObjectiveID:  "algebra-basics",
		CohortKey:    "grade-7:algebra-basics",
		TimeSpentMs:  int64(n) * 60_000,
		MasteryScore: mastery,
		HasMastery:   true,
		Completed:    n%2 == 0,
	}
}

func TestIngestDelta_AccumulatesAggregateOnlyStudents(t *testing.T) {
	svc := newAggService(DefaultConfig())
	ctx := context.Background()

	// Four identifiable students plus one minimal-tier student contributing
	// event deltas only.
	for n := 1; n <= 4; n++ {
		require.NoError(t, svc.Ingest(ctx, contribution(n, 60), aggAuthz))
	}
	delta := Contribution{
		StudentRef:  nthRef(5),
		ObjectiveID: "algebra-basics",
		CohortKey:   "grade-7:algebra-basics",
		TimeSpentMs: 30_000,
	}
	require.NoError(t, svc.IngestDelta(ctx, delta, aggAuthz))
	require.NoError(t, svc.IngestDelta(ctx, delta, aggAuthz))

	agg, err := svc.GetAggregate(ctx, "algebra-basics", "grade-7:algebra-basics")
	require.NoError(t, err)
	// The minimal-tier student counts once toward the sample, their time
	// accumulates, and the mastery mean excludes them.
	assert.Equal(t, 5, agg.SampleSize)
	assert.InDelta(t, 60.0, agg.MeanMastery, 1e-9)
	assert.InDelta(t, (60_000.0+120_000+180_000+240_000+60_000)/5, agg.MeanTimeSpentMs, 1e-9)
}

func TestIngest_RequiresAggregateConsent(t *testing.T) {
	svc := newAggService(DefaultConfig())

	err := svc.Ingest(context.Background(), contribution(1, 50), consent.Denied())
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeConsentDenied, dErrors.CodeOf(err))
}

func TestGetAggregate_KAnonymityFloor(t *testing.T) {
	svc := newAggService(DefaultConfig())
	ctx := context.Background()

	// Four students: one short of the floor.
	for n := 1; n <= 4; n++ {
		require.NoError(t, svc.Ingest(ctx, contribution(n, 50), aggAuthz))
	}
	_, err := svc.GetAggregate(ctx, "algebra-basics", "grade-7:algebra-basics")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeInsufficientSample, dErrors.CodeOf(err))

	// The fifth student tips the cohort over the floor.
	require.NoError(t, svc.Ingest(ctx, contribution(5, 80), aggAuthz))
	agg, err := svc.GetAggregate(ctx, "algebra-basics", "grade-7:algebra-basics")
	require.NoError(t, err)
	assert.Equal(t, 5, agg.SampleSize)
	assert.InDelta(t, 56.0, agg.MeanMastery, 1e-9)
	assert.InDelta(t, 0.4, agg.CompletionRate, 1e-9)
	assert.False(t, agg.NoiseApplied)
}

func TestIngest_ReplacesPriorContribution(t *testing.T) {
	svc := newAggService(DefaultConfig())
	ctx := context.Background()

	for n := 1; n <= 5; n++ {
		require.NoError(t, svc.Ingest(ctx, contribution(n, 50), aggAuthz))
	}
	// The same student contributing again must not inflate the sample.
	updated := contribution(1, 90)
	require.NoError(t, svc.Ingest(ctx, updated, aggAuthz))

	agg, err := svc.GetAggregate(ctx, "algebra-basics", "grade-7:algebra-basics")
	require.NoError(t, err)
	assert.Equal(t, 5, agg.SampleSize)
	assert.InDelta(t, 58.0, agg.MeanMastery, 1e-9)
}

func TestPurgeStudent_DropsCohortBelowFloor(t *testing.T) {
	svc := newAggService(DefaultConfig())
	ctx := context.Background()

	for n := 1; n <= 5; n++ {
		require.NoError(t, svc.Ingest(ctx, contribution(n, 50), aggAuthz))
	}
	_, err := svc.GetAggregate(ctx, "algebra-basics", "grade-7:algebra-basics")
	require.NoError(t, err)

	require.NoError(t, svc.PurgeStudent(ctx, nthRef(3)))

	_, err = svc.GetAggregate(ctx, "algebra-basics", "grade-7:algebra-basics")
	assert.Equal(t, dErrors.CodeInsufficientSample, dErrors.CodeOf(err))
}

func TestGetAggregate_NoiseIsStableWithinEpoch(t *testing.T) {
	svc := newAggService(Config{KThreshold: 5, NoiseScale: 2.0, NoiseEpoch: time.Hour})
	now := time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	for n := 1; n <= 5; n++ {
		require.NoError(t, svc.Ingest(ctx, contribution(n, 50), aggAuthz))
	}

	first, err := svc.GetAggregate(ctx, "algebra-basics", "grade-7:algebra-basics")
	require.NoError(t, err)
	assert.True(t, first.NoiseApplied)
	assert.Equal(t, now.Truncate(time.Hour), first.Epoch)

	// Re-querying inside the epoch returns identical noisy values, so noise
	// cannot be averaged away.
	second, err := svc.GetAggregate(ctx, "algebra-basics", "grade-7:algebra-basics")
	require.NoError(t, err)
	assert.Equal(t, first.MeanMastery, second.MeanMastery)
	assert.Equal(t, first.MeanTimeSpentMs, second.MeanTimeSpentMs)
	assert.Equal(t, first.CompletionRate, second.CompletionRate)

	// A later epoch draws fresh noise.
	laterCtx := requestcontext.WithTime(context.Background(), now.Add(time.Hour))
	third, err := svc.GetAggregate(laterCtx, "algebra-basics", "grade-7:algebra-basics")
	require.NoError(t, err)
	assert.NotEqual(t, first.Epoch, third.Epoch)
	assert.NotEqual(t, first.MeanMastery, third.MeanMastery)
}

func TestGetAggregate_NoisyValuesStayInRange(t *testing.T) {
	svc := newAggService(Config{KThreshold: 5, NoiseScale: 500.0, NoiseEpoch: time.Hour})
	ctx := context.Background()

	for n := 1; n <= 5; n++ {
		require.NoError(t, svc.Ingest(ctx, contribution(n, 99), aggAuthz))
	}

	agg, err := svc.GetAggregate(ctx, "algebra-basics", "grade-7:algebra-basics")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, agg.MeanMastery, 0.0)
	assert.LessOrEqual(t, agg.MeanMastery, 100.0)
	assert.GreaterOrEqual(t, agg.CompletionRate, 0.0)
	assert.LessOrEqual(t, agg.CompletionRate, 1.0)
	assert.GreaterOrEqual(t, agg.MeanTimeSpentMs, 0.0)
}
