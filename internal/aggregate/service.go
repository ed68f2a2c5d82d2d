// Package aggregate maintains anonymous cohort statistics. Contributions are
// keyed per student internally so the sample size counts distinct students,
// but a released aggregate carries means and rates only, never a ref. Release
// is gated twice: a k-anonymity floor on the sample size and, when configured,
// Laplace noise on the released values.
package aggregate

import (
	"context"
	"log/slog"
	"time"

	"pathway/internal/aggregate/metrics"
	"pathway/internal/consent"
	id "pathway/pkg/domain"
	dErrors "pathway/pkg/domain-errors"
	"pathway/pkg/requestcontext"
)

// Config tunes the privacy gates on released aggregates.
type Config struct {
	// KThreshold is the minimum distinct-student sample for release.
	KThreshold int
	// NoiseScale is the Laplace scale applied to released values. Zero
	// disables noise.
	NoiseScale float64
	// NoiseEpoch is how long one noise draw stays fixed per cohort.
	NoiseEpoch time.Duration
}

// DefaultConfig mirrors the documented privacy policy: k of 5, no noise.
func DefaultConfig() Config {
	return Config{KThreshold: 5, NoiseEpoch: time.Hour}
}

type Service struct {
	store   Store
	k       int
	noise   noiser
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(store Store, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Service {
	k := cfg.KThreshold
	if k < 2 {
		k = 2
	}
	return &Service{
		store:   store,
		k:       k,
		noise:   newNoiser(cfg.NoiseScale, cfg.NoiseEpoch),
		metrics: m,
		logger:  logger,
	}
}

// Ingest folds a student's current standing into their cohort. Replaces any
// prior contribution from the same student, so replays and later events keep
// the sample size honest.
func (s *Service) Ingest(ctx context.Context, c Contribution, authz consent.Authorization) error {
	if !authz.AllowAggregate {
		return dErrors.New(dErrors.CodeConsentDenied, "consent tier does not permit aggregation")
	}
	cohort := cohortID{ObjectiveID: c.ObjectiveID, CohortKey: c.CohortKey}
	err := s.store.Upsert(ctx, cohort, c.StudentRef, StudentStat{
		TimeSpentMs:  c.TimeSpentMs,
		MasteryScore: c.MasteryScore,
		HasMastery:   c.HasMastery,
		Completed:    c.Completed,
	})
	if err != nil {
		return dErrors.Wrap(dErrors.CodeUnavailable, "failed to record cohort contribution", err)
	}
	if s.metrics != nil {
		s.metrics.ContributionsUpserted.Inc()
	}
	return nil
}

// IngestDelta folds an event-sized increment into the student's cohort stat.
// This is the path for aggregate-only students: no ledger state exists for
// them, so their standing lives solely inside the accumulator.
func (s *Service) IngestDelta(ctx context.Context, c Contribution, authz consent.Authorization) error {
	if !authz.AllowAggregate {
		return dErrors.New(dErrors.CodeConsentDenied, "consent tier does not permit aggregation")
	}
	cohort := cohortID{ObjectiveID: c.ObjectiveID, CohortKey: c.CohortKey}
	err := s.store.Accumulate(ctx, cohort, c.StudentRef, StudentStat{
		TimeSpentMs:  c.TimeSpentMs,
		MasteryScore: c.MasteryScore,
		HasMastery:   c.HasMastery,
		Completed:    c.Completed,
	})
	if err != nil {
		return dErrors.Wrap(dErrors.CodeUnavailable, "failed to record cohort contribution", err)
	}
	if s.metrics != nil {
		s.metrics.ContributionsUpserted.Inc()
	}
	return nil
}

// GetAggregate releases the cohort's anonymous statistics, or refuses when the
// sample is below the k-anonymity floor. The refusal does not disclose the
// actual sample size.
func (s *Service) GetAggregate(ctx context.Context, objectiveID id.ObjectiveID, cohortKey id.CohortKey) (CohortAggregate, error) {
	cohort := cohortID{ObjectiveID: objectiveID, CohortKey: cohortKey}
	stats, err := s.store.Snapshot(ctx, cohort)
	if err != nil {
		return CohortAggregate{}, dErrors.Wrap(dErrors.CodeUnavailable, "failed to load cohort", err)
	}

	if len(stats) < s.k {
		if s.metrics != nil {
			s.metrics.InsufficientSample.Inc()
		}
		return CohortAggregate{}, dErrors.New(dErrors.CodeInsufficientSample,
			"cohort sample below anonymity threshold")
	}

	var (
		timeSum      float64
		masterySum   float64
		masteryCnt   int
		completedCnt int
	)
	for _, stat := range stats {
		timeSum += float64(stat.TimeSpentMs)
		// Aggregate-only students carry no score; the mean covers only
		// students with a mastery signal.
		if stat.HasMastery {
			masterySum += stat.MasteryScore
			masteryCnt++
		}
		if stat.Completed {
			completedCnt++
		}
	}
	n := float64(len(stats))

	agg := CohortAggregate{
		ObjectiveID:     objectiveID,
		CohortKey:       cohortKey,
		SampleSize:      len(stats),
		MeanTimeSpentMs: timeSum / n,
		CompletionRate:  float64(completedCnt) / n,
	}
	if masteryCnt > 0 {
		agg.MeanMastery = masterySum / float64(masteryCnt)
	}

	if s.noise.enabled() {
		epoch := s.noise.epochStart(requestcontext.Now(ctx))
		s.noise.perturb(cohort, epoch, &agg.MeanTimeSpentMs, &agg.MeanMastery, &agg.CompletionRate)
		agg.MeanTimeSpentMs = max(agg.MeanTimeSpentMs, 0)
		agg.MeanMastery = clampF(agg.MeanMastery, 0, 100)
		agg.CompletionRate = clampF(agg.CompletionRate, 0, 1)
		agg.NoiseApplied = true
		agg.Epoch = epoch
	}

	if s.metrics != nil {
		s.metrics.AggregatesServed.Inc()
	}
	return agg, nil
}

// PurgeStudent removes the student's contributions from every accumulator.
// Registered as a consent withdrawal hook alongside the ledger purge.
func (s *Service) PurgeStudent(ctx context.Context, ref id.StudentRef) error {
	removed, err := s.store.PurgeStudent(ctx, ref)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeUnavailable, "failed to purge cohort contributions", err)
	}
	if s.metrics != nil {
		s.metrics.StudentsPurged.Inc()
	}
	s.logger.InfoContext(ctx, "student removed from cohort accumulators",
		"student_ref", ref.String(),
		"cohorts_touched", removed,
	)
	return nil
}

func clampF(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}
