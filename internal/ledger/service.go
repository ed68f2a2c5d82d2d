package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pathway/internal/consent"
	"pathway/internal/course"
	"pathway/internal/event"
	"pathway/internal/ledger/metrics"
	"pathway/internal/mastery"
	id "pathway/pkg/domain"
	dErrors "pathway/pkg/domain-errors"
	"pathway/pkg/platform/audit"
	"pathway/pkg/platform/sentinel"
	"pathway/pkg/requestcontext"
)

// Scorer computes mastery from accumulated history. Satisfied by
// mastery.Scorer; an interface so tests can pin scores.
type Scorer interface {
	Score(input mastery.Input) mastery.Result
}

// Thresholds are the completion rules the ledger enforces.
type Thresholds struct {
	// MinSectionTime is the minimum time-on-task for section completion.
	MinSectionTime time.Duration
	// MinInteractions is the minimum interaction count for completion.
	// Beginner-difficulty objectives use MinInteractionsBeginner.
	MinInteractions         int
	MinInteractionsBeginner int
}

// DefaultThresholds mirror the documented completion policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinSectionTime:          2 * time.Minute,
		MinInteractions:         2,
		MinInteractionsBeginner: 3,
	}
}

// Service is the progress ledger. Append-only event application with
// idempotent replay; one writer at a time per (student, objective) key.
type Service struct {
	store      Store
	defs       course.Definitions
	scorer     Scorer
	thresholds Thresholds
	auditor    *audit.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	locks      keyLocks
}

func NewService(
	store Store,
	defs course.Definitions,
	scorer Scorer,
	thresholds Thresholds,
	auditor *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:      store,
		defs:       defs,
		scorer:     scorer,
		thresholds: thresholds,
		auditor:    auditor,
		metrics:    m,
		logger:     logger,
	}
}

// Apply folds one authorized event into the student's progress state.
// Replaying an identical event (same fingerprint) returns the current state
// without double-counting time or interactions.
func (s *Service) Apply(ctx context.Context, ev event.InteractionEvent, authz consent.Authorization) (ApplyResult, error) {
	start := time.Now()
	if !authz.AllowIdentifiable {
		return ApplyResult{}, dErrors.New(dErrors.CodeConsentDenied, "consent tier does not permit progress tracking")
	}

	def, err := s.objectiveDef(ctx, ev.ObjectiveID, ev.SectionID)
	if err != nil {
		return ApplyResult{}, err
	}

	lock := s.locks.lock(lockKey(ev.StudentRef, ev.ObjectiveID))
	defer lock.Unlock()

	state, err := s.loadOrCreate(ctx, ev.StudentRef, ev.ObjectiveID)
	if err != nil {
		return ApplyResult{}, err
	}

	fp := ev.Fingerprint()
	if state.Applied[fp] {
		if s.metrics != nil {
			s.metrics.DuplicateReplays.Inc()
		}
		return ApplyResult{
			Outcome: OutcomeDuplicate,
			State:   state,
			Check:   s.checkCompletion(state.section(ev.SectionID), ev.SectionID, def),
		}, nil
	}

	section := state.section(ev.SectionID)
	wasComplete := section.Completed

	if ev.Kind == id.KindReset {
		// Explicit retake: the only path that lowers section mastery or
		// clears completion.
		*section = SectionProgress{}
		state.KindCounts[id.KindReset]++
	} else {
		section.TimeSpentMs += ev.DurationMs
		section.InteractionCount++
		state.KindCounts[ev.Kind]++
		if answer, ok := ev.Payload.(event.AnswerPayload); ok {
			section.AnswerAttempts++
			state.TotalAnswers++
			if answer.Correct() {
				state.CorrectAnswers++
			}
		}
	}
	state.recomputeTotals()

	check := s.checkCompletion(section, ev.SectionID, def)
	if check.Completed && !section.Completed {
		section.Completed = true
		section.CompletedAt = requestcontext.Now(ctx)
		if s.metrics != nil {
			s.metrics.SectionsCompleted.Inc()
		}
	}
	// Completion is monotonic: a completed section never reverts on a later
	// event, only on reset.
	if wasComplete && ev.Kind != id.KindReset {
		section.Completed = true
		check.Completed = true
		check.Unmet = nil
	}

	result := s.scorer.Score(BuildScoreInput(state, def))
	state.MasteryScore = result.MasteryScore
	if ev.Kind != id.KindReset && result.MasteryScore > section.Mastery {
		section.Mastery = result.MasteryScore
	}

	state.Applied[fp] = true
	state.LastUpdated = requestcontext.Now(ctx)

	if err := s.store.Save(ctx, state); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return ApplyResult{}, dErrors.Wrap(dErrors.CodeConflict, "concurrent write on progress state", err)
		}
		return ApplyResult{}, dErrors.Wrap(dErrors.CodeUnavailable, "failed to save progress state", err)
	}

	if s.metrics != nil {
		s.metrics.EventsApplied.Inc()
		s.metrics.ApplyDuration.Observe(time.Since(start).Seconds())
	}
	return ApplyResult{Outcome: OutcomeApplied, State: state, Check: check}, nil
}

// GetProgress returns the current state for the pair.
func (s *Service) GetProgress(ctx context.Context, ref id.StudentRef, objectiveID id.ObjectiveID) (*ProgressState, error) {
	state, err := s.store.Get(ctx, ref, objectiveID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no progress for student and objective")
		}
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "failed to load progress state", err)
	}
	return state, nil
}

// PurgeStudent removes all of the student's progress. Registered as the
// consent service's withdrawal hook. The purge is audited fail-closed: if the
// compliance trail cannot record it, the error propagates and the caller's
// revocation fails.
func (s *Service) PurgeStudent(ctx context.Context, ref id.StudentRef) error {
	removed, err := s.store.PurgeStudent(ctx, ref)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeUnavailable, "failed to purge progress", err)
	}
	if s.metrics != nil {
		s.metrics.StudentsPurged.Inc()
	}
	s.logger.InfoContext(ctx, "student progress purged",
		"student_ref", ref.String(),
		"states_removed", removed,
	)
	return s.auditor.EmitSync(ctx, audit.Event{
		StudentRef: ref,
		Action:     audit.ActionStudentPurged,
		RequestID:  requestcontext.RequestID(ctx),
	})
}

// BuildScoreInput summarizes a state for the scorer.
func BuildScoreInput(state *ProgressState, def course.ObjectiveDefinition) mastery.Input {
	completed := 0
	for _, section := range state.Sections {
		if section.Completed {
			completed++
		}
	}
	return mastery.Input{
		TimeSpentMs:       state.TimeSpentMs,
		InteractionCount:  state.InteractionCount,
		KindCounts:        state.KindCounts,
		TotalAnswers:      state.TotalAnswers,
		CorrectAnswers:    state.CorrectAnswers,
		SectionsCompleted: completed,
		SectionsTotal:     len(def.Sections),
	}
}

func (s *Service) objectiveDef(ctx context.Context, objectiveID id.ObjectiveID, sectionID id.SectionID) (course.ObjectiveDefinition, error) {
	def, err := s.defs.GetObjectiveDefinition(ctx, objectiveID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return course.ObjectiveDefinition{}, dErrors.New(dErrors.CodeUnknownObjective, "unknown objective: "+objectiveID.String())
		}
		return course.ObjectiveDefinition{}, dErrors.Wrap(dErrors.CodeUnavailable, "course definition lookup failed", err)
	}
	if !def.HasSection(sectionID) {
		return course.ObjectiveDefinition{}, dErrors.New(dErrors.CodeUnknownSection, "unknown section: "+sectionID.String())
	}
	return def, nil
}

func (s *Service) loadOrCreate(ctx context.Context, ref id.StudentRef, objectiveID id.ObjectiveID) (*ProgressState, error) {
	state, err := s.store.Get(ctx, ref, objectiveID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return NewProgressState(ref, objectiveID), nil
		}
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "failed to load progress state", err)
	}
	return state, nil
}

// checkCompletion evaluates the completion policy without mutating state.
func (s *Service) checkCompletion(section *SectionProgress, sectionID id.SectionID, def course.ObjectiveDefinition) CompletionCheck {
	minInteractions := s.thresholds.MinInteractions
	if def.Difficulty == course.DifficultyBeginner {
		minInteractions = s.thresholds.MinInteractionsBeginner
	}

	check := CompletionCheck{SectionID: sectionID}
	if section.TimeSpentMs < s.thresholds.MinSectionTime.Milliseconds() {
		check.Unmet = append(check.Unmet, CriterionMinTimeOnTask)
	}
	if section.InteractionCount < minInteractions {
		check.Unmet = append(check.Unmet, CriterionMinInteractions)
	}
	check.Completed = len(check.Unmet) == 0
	return check
}

func lockKey(ref id.StudentRef, objectiveID id.ObjectiveID) string {
	return ref.String() + "|" + objectiveID.String()
}
