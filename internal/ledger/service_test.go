package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathway/internal/consent"
	"pathway/internal/course"
	"pathway/internal/event"
	"pathway/internal/mastery"
	id "pathway/pkg/domain"
	dErrors "pathway/pkg/domain-errors"
	"pathway/pkg/platform/audit"
	auditmem "pathway/pkg/platform/audit/store/memory"
	"pathway/pkg/requestcontext"
)

var (
	testRef   = id.StudentRef(strings.Repeat("ab", 32))
	testNow   = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	testAuthz = consent.Authorization{
		Tier:              id.TierStandard,
		AllowIdentifiable: true,
		AllowAggregate:    true,
	}
)

type ledgerFixture struct {
	svc      *Service
	store    *InMemoryStore
	auditLog *auditmem.InMemoryStore
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	defs := course.NewInMemoryDefinitions()
	defs.Put(course.ObjectiveDefinition{
		ObjectiveID: "algebra-basics",
		Sections:    []id.SectionID{"intro", "equations", "quiz"},
		Difficulty:  course.DifficultyIntermediate,
		CohortKey:   "grade-7:algebra-basics",
	})
	defs.Put(course.ObjectiveDefinition{
		ObjectiveID: "counting",
		Sections:    []id.SectionID{"numbers"},
		Difficulty:  course.DifficultyBeginner,
		CohortKey:   "grade-1:counting",
	})

	store := NewInMemoryStore()
	auditLog := auditmem.NewInMemoryStore()
	logger := slog.New(slog.DiscardHandler)
	svc := NewService(
		store,
		defs,
		mastery.NewScorer(),
		DefaultThresholds(),
		audit.NewPublisher(auditLog, 16, logger),
		nil,
		logger,
	)
	return &ledgerFixture{svc: svc, store: store, auditLog: auditLog}
}

func testCtx() context.Context {
	return requestcontext.WithTime(context.Background(), testNow)
}

func viewEvent(at time.Time, durationMs int64) event.InteractionEvent {
	return event.InteractionEvent{
		StudentRef:  testRef,
		ObjectiveID: "algebra-basics",
		SectionID:   "intro",
		Kind:        id.KindView,
		Timestamp:   at,
		DurationMs:  durationMs,
		Payload:     event.ViewPayload{ScrollDepth: 0.8},
	}
}

func answerEvent(at time.Time, selected, correct string) event.InteractionEvent {
	return event.InteractionEvent{
		StudentRef:  testRef,
		ObjectiveID: "algebra-basics",
		SectionID:   "intro",
		Kind:        id.KindAnswer,
		Timestamp:   at,
		DurationMs:  15_000,
		Payload:     event.AnswerPayload{SelectedOption: selected, CorrectOption: correct},
	}
}

func TestApply_ConsentDenied_FailsClosed(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.svc.Apply(testCtx(), viewEvent(testNow, 30_000), consent.Denied())
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeConsentDenied, dErrors.CodeOf(err))

	// Nothing persisted.
	_, err = f.store.Get(context.Background(), testRef, "algebra-basics")
	require.Error(t, err)
}

func TestApply_UnknownObjective(t *testing.T) {
	f := newLedgerFixture(t)

	ev := viewEvent(testNow, 30_000)
	ev.ObjectiveID = "no-such-objective"
	_, err := f.svc.Apply(testCtx(), ev, testAuthz)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnknownObjective, dErrors.CodeOf(err))
}

func TestApply_UnknownSection(t *testing.T) {
	f := newLedgerFixture(t)

	ev := viewEvent(testNow, 30_000)
	ev.SectionID = "appendix"
	_, err := f.svc.Apply(testCtx(), ev, testAuthz)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnknownSection, dErrors.CodeOf(err))
}

func TestApply_AccumulatesEvidence(t *testing.T) {
	f := newLedgerFixture(t)

	result, err := f.svc.Apply(testCtx(), viewEvent(testNow, 30_000), testAuthz)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.Equal(t, int64(30_000), result.State.TimeSpentMs)
	assert.Equal(t, 1, result.State.InteractionCount)

	// Below both completion thresholds; the check names what is missing.
	assert.False(t, result.Check.Completed)
	assert.ElementsMatch(t,
		[]Criterion{CriterionMinTimeOnTask, CriterionMinInteractions},
		result.Check.Unmet)
}

func TestApply_ReplayIsIdempotent(t *testing.T) {
	f := newLedgerFixture(t)
	ev := viewEvent(testNow, 45_000)

	first, err := f.svc.Apply(testCtx(), ev, testAuthz)
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, first.Outcome)

	// Network retry delivers the identical event again.
	second, err := f.svc.Apply(testCtx(), ev, testAuthz)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, second.Outcome)
	assert.Equal(t, first.State.TimeSpentMs, second.State.TimeSpentMs)
	assert.Equal(t, first.State.InteractionCount, second.State.InteractionCount)
	assert.Equal(t, first.State.MasteryScore, second.State.MasteryScore)
}

func TestApply_SameInteractionLaterIsNotADuplicate(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.svc.Apply(testCtx(), viewEvent(testNow, 30_000), testAuthz)
	require.NoError(t, err)

	result, err := f.svc.Apply(testCtx(), viewEvent(testNow.Add(time.Minute), 30_000), testAuthz)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.Equal(t, int64(60_000), result.State.TimeSpentMs)
}

func TestApply_SectionCompletes(t *testing.T) {
	f := newLedgerFixture(t)

	result, err := f.svc.Apply(testCtx(), viewEvent(testNow, 90_000), testAuthz)
	require.NoError(t, err)
	require.False(t, result.Check.Completed)

	result, err = f.svc.Apply(testCtx(), viewEvent(testNow.Add(2*time.Minute), 40_000), testAuthz)
	require.NoError(t, err)
	assert.True(t, result.Check.Completed)
	assert.Empty(t, result.Check.Unmet)

	section := result.State.Sections["intro"]
	require.NotNil(t, section)
	assert.True(t, section.Completed)
	assert.Equal(t, testNow, section.CompletedAt)
}

func TestApply_BeginnerNeedsMoreInteractions(t *testing.T) {
	f := newLedgerFixture(t)
	ev := event.InteractionEvent{
		StudentRef:  testRef,
		ObjectiveID: "counting",
		SectionID:   "numbers",
		Kind:        id.KindView,
		Timestamp:   testNow,
		DurationMs:  70_000,
		Payload:     event.ViewPayload{},
	}

	// Two interactions clear the time bar but not the beginner interaction bar.
	result, err := f.svc.Apply(testCtx(), ev, testAuthz)
	require.NoError(t, err)
	ev.Timestamp = testNow.Add(time.Minute)
	result, err = f.svc.Apply(testCtx(), ev, testAuthz)
	require.NoError(t, err)
	assert.False(t, result.Check.Completed)
	assert.Equal(t, []Criterion{CriterionMinInteractions}, result.Check.Unmet)

	ev.Timestamp = testNow.Add(2 * time.Minute)
	result, err = f.svc.Apply(testCtx(), ev, testAuthz)
	require.NoError(t, err)
	assert.True(t, result.Check.Completed)
}

func TestApply_CompletionIsMonotonic(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.svc.Apply(testCtx(), viewEvent(testNow, 120_000), testAuthz)
	require.NoError(t, err)
	result, err := f.svc.Apply(testCtx(), viewEvent(testNow.Add(time.Minute), 10_000), testAuthz)
	require.NoError(t, err)
	require.True(t, result.Check.Completed)

	// A later sub-threshold event never un-completes the section.
	result, err = f.svc.Apply(testCtx(), viewEvent(testNow.Add(2*time.Minute), 100), testAuthz)
	require.NoError(t, err)
	assert.True(t, result.Check.Completed)
	assert.True(t, result.State.Sections["intro"].Completed)
}

func TestApply_ResetClearsSection(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.svc.Apply(testCtx(), viewEvent(testNow, 120_000), testAuthz)
	require.NoError(t, err)
	result, err := f.svc.Apply(testCtx(), answerEvent(testNow.Add(time.Minute), "b", "b"), testAuthz)
	require.NoError(t, err)
	require.True(t, result.State.Sections["intro"].Completed)
	require.Greater(t, result.State.Sections["intro"].Mastery, 0.0)

	reset := event.InteractionEvent{
		StudentRef:  testRef,
		ObjectiveID: "algebra-basics",
		SectionID:   "intro",
		Kind:        id.KindReset,
		Timestamp:   testNow.Add(2 * time.Minute),
		Payload:     event.ResetPayload{},
	}
	result, err = f.svc.Apply(testCtx(), reset, testAuthz)
	require.NoError(t, err)

	section := result.State.Sections["intro"]
	assert.False(t, section.Completed)
	assert.Zero(t, section.TimeSpentMs)
	assert.Zero(t, section.InteractionCount)
	assert.Zero(t, section.Mastery)
	// Objective totals follow the section back down.
	assert.Zero(t, result.State.TimeSpentMs)
	assert.Zero(t, result.State.InteractionCount)
}

func TestApply_CorrectAnswersRaiseMastery(t *testing.T) {
	f := newLedgerFixture(t)

	result, err := f.svc.Apply(testCtx(), viewEvent(testNow, 60_000), testAuthz)
	require.NoError(t, err)
	baseline := result.State.MasteryScore

	result, err = f.svc.Apply(testCtx(), answerEvent(testNow.Add(time.Minute), "b", "b"), testAuthz)
	require.NoError(t, err)
	assert.Greater(t, result.State.MasteryScore, baseline)
	assert.Equal(t, 1, result.State.TotalAnswers)
	assert.Equal(t, 1, result.State.CorrectAnswers)

	result, err = f.svc.Apply(testCtx(), answerEvent(testNow.Add(2*time.Minute), "a", "b"), testAuthz)
	require.NoError(t, err)
	assert.Equal(t, 2, result.State.TotalAnswers)
	assert.Equal(t, 1, result.State.CorrectAnswers)
}

func TestApply_SectionMasteryIsHighWater(t *testing.T) {
	f := newLedgerFixture(t)

	result, err := f.svc.Apply(testCtx(), answerEvent(testNow, "b", "b"), testAuthz)
	require.NoError(t, err)
	peak := result.State.Sections["intro"].Mastery
	require.Greater(t, peak, 0.0)

	// Wrong answers lower the objective score but not the section mark.
	result, err = f.svc.Apply(testCtx(), answerEvent(testNow.Add(time.Minute), "a", "b"), testAuthz)
	require.NoError(t, err)
	assert.Less(t, result.State.MasteryScore, peak)
	assert.Equal(t, peak, result.State.Sections["intro"].Mastery)
}

func TestGetProgress_NotFound(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.svc.GetProgress(context.Background(), testRef, "algebra-basics")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestPurgeStudent_RemovesAllProgressAndAudits(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := requestcontext.WithRequestID(testCtx(), "req-123")

	_, err := f.svc.Apply(ctx, viewEvent(testNow, 60_000), testAuthz)
	require.NoError(t, err)

	require.NoError(t, f.svc.PurgeStudent(ctx, testRef))

	_, err = f.svc.GetProgress(ctx, testRef, "algebra-basics")
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))

	events, err := f.auditLog.ListByStudent(ctx, testRef)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionStudentPurged, events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.Equal(t, "req-123", events[0].RequestID)
}

type failingAuditStore struct{}

func (failingAuditStore) Append(context.Context, audit.Event) error {
	return errors.New("audit store down")
}

func TestPurgeStudent_FailsWhenAuditFails(t *testing.T) {
	defs := course.NewInMemoryDefinitions()
	logger := slog.New(slog.DiscardHandler)
	svc := NewService(
		NewInMemoryStore(),
		defs,
		mastery.NewScorer(),
		DefaultThresholds(),
		audit.NewPublisher(failingAuditStore{}, 16, logger),
		nil,
		logger,
	)

	err := svc.PurgeStudent(context.Background(), testRef)
	require.Error(t, err)
}
