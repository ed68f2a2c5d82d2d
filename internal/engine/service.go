// Package engine wires the privacy pipeline together: validate, authorize,
// redact, apply, aggregate, audit. Handlers call this service; everything
// below it is a collaborator.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"pathway/internal/adapt"
	"pathway/internal/aggregate"
	"pathway/internal/consent"
	"pathway/internal/course"
	"pathway/internal/engine/metrics"
	"pathway/internal/event"
	"pathway/internal/ledger"
	id "pathway/pkg/domain"
	dErrors "pathway/pkg/domain-errors"
	"pathway/pkg/platform/audit"
	"pathway/pkg/platform/sentinel"
	"pathway/pkg/requestcontext"
)

// recommendTimeout bounds the parallel loads behind one recommendation.
const recommendTimeout = 2 * time.Second

type Service struct {
	validator  *event.Validator
	consents   *consent.Service
	gate       *consent.Gate
	ledger     *ledger.Service
	aggregates *aggregate.Service
	defs       course.Definitions
	scorer     ledger.Scorer
	auditor    *audit.Publisher

	// reinforceAttempts feeds the adaptation rule chain.
	reinforceAttempts int

	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

func NewService(
	validator *event.Validator,
	consents *consent.Service,
	gate *consent.Gate,
	ledgerSvc *ledger.Service,
	aggregates *aggregate.Service,
	defs course.Definitions,
	scorer ledger.Scorer,
	auditor *audit.Publisher,
	reinforceAttempts int,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		validator:         validator,
		consents:          consents,
		gate:              gate,
		ledger:            ledgerSvc,
		aggregates:        aggregates,
		defs:              defs,
		scorer:            scorer,
		auditor:           auditor,
		reinforceAttempts: reinforceAttempts,
		metrics:           m,
		logger:            logger,
		tracer:            otel.Tracer("pathway"),
	}
}

// Ingest runs one raw event through the full pipeline. A consent denial is a
// terminal result, not an error; validation and infrastructure failures are
// domain errors.
func (s *Service) Ingest(ctx context.Context, raw event.RawEvent) (IngestResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "engine.Ingest",
		trace.WithAttributes(
			attribute.String("objective_id", raw.ObjectiveID),
			attribute.String("event_kind", raw.Kind),
		))
	defer span.End()

	now := requestcontext.Now(ctx)

	ev, err := s.validator.Validate(raw, now)
	if err != nil {
		s.countIngest("rejected")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return IngestResult{}, err
	}

	record, err := s.consents.Get(ctx, ev.StudentRef)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "consent lookup failed")
		return IngestResult{}, err
	}
	authz := s.gate.Authorize(record, now)

	if !authz.AllowIdentifiable && !authz.AllowAggregate {
		s.countIngest(string(IngestConsentDenied))
		span.SetAttributes(attribute.String("outcome", string(IngestConsentDenied)))
		s.auditor.Emit(ctx, audit.Event{
			StudentRef:  ev.StudentRef,
			ObjectiveID: ev.ObjectiveID,
			Action:      audit.ActionEventDenied,
			Tier:        authz.Tier.String(),
			Outcome:     string(IngestConsentDenied),
			RequestID:   requestcontext.RequestID(ctx),
		})
		return IngestResult{Status: IngestConsentDenied, Tier: authz.Tier}, nil
	}

	ev = s.gate.Redact(ev, authz)

	def, err := s.defs.GetObjectiveDefinition(ctx, ev.ObjectiveID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			err = dErrors.New(dErrors.CodeUnknownObjective, "unknown objective: "+ev.ObjectiveID.String())
		} else {
			err = dErrors.Wrap(dErrors.CodeUnavailable, "course definition lookup failed", err)
		}
		s.countIngest("rejected")
		span.RecordError(err)
		span.SetStatus(codes.Error, "definition lookup failed")
		return IngestResult{}, err
	}

	var result IngestResult
	if authz.AllowIdentifiable {
		result, err = s.ingestIdentifiable(ctx, ev, authz, def)
	} else {
		result, err = s.ingestAggregateOnly(ctx, ev, authz, def)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ingest failed")
		return IngestResult{}, err
	}

	s.countIngest(string(result.Status))
	span.SetAttributes(attribute.String("outcome", string(result.Status)))
	if s.metrics != nil {
		s.metrics.IngestDuration.Observe(time.Since(start).Seconds())
	}
	return result, nil
}

// IngestBatch processes entries independently: one bad event never aborts the
// rest. The context is checked between items so large batches cancel cleanly.
func (s *Service) IngestBatch(ctx context.Context, raws []event.RawEvent) ([]BatchItem, error) {
	out := make([]BatchItem, 0, len(raws))
	for i, raw := range raws {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		result, err := s.Ingest(ctx, raw)
		out = append(out, BatchItem{Index: i, Result: result, Err: err})
	}
	return out, nil
}

// Recommend produces an adaptation directive for the pair. Consent, progress,
// and the course definition load in parallel; the rule chain itself is pure.
func (s *Service) Recommend(ctx context.Context, ref id.StudentRef, objectiveID id.ObjectiveID) (adapt.Directive, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "engine.Recommend",
		trace.WithAttributes(attribute.String("objective_id", objectiveID.String())))
	defer span.End()

	now := requestcontext.Now(ctx)

	loadCtx, cancel := context.WithTimeout(ctx, recommendTimeout)
	defer cancel()
	g, loadCtx := errgroup.WithContext(loadCtx)

	var (
		record consent.Record
		state  *ledger.ProgressState
		def    course.ObjectiveDefinition
	)
	g.Go(func() error {
		var err error
		record, err = s.consents.Get(loadCtx, ref)
		return err
	})
	g.Go(func() error {
		var err error
		state, err = s.ledger.GetProgress(loadCtx, ref, objectiveID)
		// No progress yet is not an error: the rule chain holds steady on
		// missing evidence.
		if dErrors.CodeOf(err) == dErrors.CodeNotFound {
			state = ledger.NewProgressState(ref, objectiveID)
			return nil
		}
		return err
	})
	g.Go(func() error {
		var err error
		def, err = s.defs.GetObjectiveDefinition(loadCtx, objectiveID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeUnknownObjective, "unknown objective: "+objectiveID.String())
		}
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recommendation loads failed")
		return adapt.Directive{}, err
	}

	authz := s.gate.Authorize(record, now)
	if !authz.AllowIdentifiable {
		err := dErrors.New(dErrors.CodeConsentDenied, "consent tier does not permit recommendations")
		span.SetStatus(codes.Error, "consent denied")
		return adapt.Directive{}, err
	}

	score := s.scorer.Score(ledger.BuildScoreInput(state, def))
	action, reason := adapt.EvaluateAdaptation(adapt.Input{
		Score:             score,
		TotalAnswers:      state.TotalAnswers,
		SectionsCompleted: len(state.CompletedSections()),
		SectionsTotal:     len(def.Sections),
		ReinforceAttempts: s.reinforceAttempts,
	})
	directive := adapt.BuildDirective(ref, objectiveID, action, reason)

	s.auditor.Emit(ctx, audit.Event{
		StudentRef:  ref,
		ObjectiveID: objectiveID,
		Action:      audit.ActionAdaptationMade,
		Tier:        authz.Tier.String(),
		Outcome:     string(directive.Action),
		Reason:      string(directive.Reason),
		RequestID:   requestcontext.RequestID(ctx),
	})
	if s.metrics != nil {
		s.metrics.Recommendations.WithLabelValues(string(directive.Action)).Inc()
		s.metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	}
	span.SetAttributes(attribute.String("action", string(directive.Action)))
	return directive, nil
}

func (s *Service) ingestIdentifiable(ctx context.Context, ev event.InteractionEvent, authz consent.Authorization, def course.ObjectiveDefinition) (IngestResult, error) {
	applied, err := s.ledger.Apply(ctx, ev, authz)
	if err != nil {
		return IngestResult{}, err
	}

	status := IngestApplied
	if applied.Outcome == ledger.OutcomeDuplicate {
		status = IngestDuplicate
	} else {
		// Cohort statistics are best-effort alongside an applied event: a
		// failed contribution must not lose the progress write.
		contribution := aggregate.Contribution{
			StudentRef:   ev.StudentRef,
			ObjectiveID:  ev.ObjectiveID,
			CohortKey:    def.CohortKey,
			TimeSpentMs:  applied.State.TimeSpentMs,
			MasteryScore: applied.State.MasteryScore,
			HasMastery:   true,
			Completed:    len(applied.State.CompletedSections()) == len(def.Sections),
		}
		if err := s.aggregates.Ingest(ctx, contribution, authz); err != nil {
			s.logger.WarnContext(ctx, "cohort contribution failed",
				"objective_id", ev.ObjectiveID.String(),
				"error", err,
			)
		}
		s.auditor.Emit(ctx, audit.Event{
			StudentRef:  ev.StudentRef,
			ObjectiveID: ev.ObjectiveID,
			Action:      audit.ActionEventApplied,
			Tier:        authz.Tier.String(),
			Outcome:     string(status),
			RequestID:   requestcontext.RequestID(ctx),
		})
	}

	return IngestResult{
		Status:   status,
		Tier:     authz.Tier,
		Progress: applied.State,
		Check:    applied.Check,
	}, nil
}

func (s *Service) ingestAggregateOnly(ctx context.Context, ev event.InteractionEvent, authz consent.Authorization, def course.ObjectiveDefinition) (IngestResult, error) {
	// The accumulator is the only place this student's activity lands, so a
	// failed write here fails the ingest.
	err := s.aggregates.IngestDelta(ctx, aggregate.Contribution{
		StudentRef:  ev.StudentRef,
		ObjectiveID: ev.ObjectiveID,
		CohortKey:   def.CohortKey,
		TimeSpentMs: ev.DurationMs,
	}, authz)
	if err != nil {
		return IngestResult{}, err
	}

	s.auditor.Emit(ctx, audit.Event{
		StudentRef:  ev.StudentRef,
		ObjectiveID: ev.ObjectiveID,
		Action:      audit.ActionEventApplied,
		Tier:        authz.Tier.String(),
		Outcome:     string(IngestAggregateOnly),
		RequestID:   requestcontext.RequestID(ctx),
	})
	return IngestResult{Status: IngestAggregateOnly, Tier: authz.Tier}, nil
}

func (s *Service) countIngest(outcome string) {
	if s.metrics != nil {
		s.metrics.IngestOutcomes.WithLabelValues(outcome).Inc()
	}
}
