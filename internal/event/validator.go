package event

import (
	"context"
	"time"

	id "pathway/pkg/domain"
	dErrors "pathway/pkg/domain-errors"
)

// Validator normalizes and validates raw interaction events. It is a pure
// component: no I/O, deterministic for a given "now".
type Validator struct {
	clockSkew        time.Duration
	retentionHorizon time.Duration
}

// NewValidator builds a validator with the given timestamp bounds.
func NewValidator(clockSkew, retentionHorizon time.Duration) *Validator {
	return &Validator{clockSkew: clockSkew, retentionHorizon: retentionHorizon}
}

// Validate turns a RawEvent into an InteractionEvent or a domain error.
// Errors are returned, never panicked, so callers can batch-validate without
// aborting the whole batch.
func (v *Validator) Validate(raw RawEvent, now time.Time) (InteractionEvent, error) {
	studentRef, err := id.ParseStudentRef(raw.StudentRef)
	if err != nil {
		return InteractionEvent{}, err
	}
	objectiveID, err := id.ParseObjectiveID(raw.ObjectiveID)
	if err != nil {
		return InteractionEvent{}, err
	}
	sectionID, err := id.ParseSectionID(raw.SectionID)
	if err != nil {
		return InteractionEvent{}, err
	}
	kind, err := id.ParseEventKind(raw.Kind)
	if err != nil {
		return InteractionEvent{}, err
	}

	if raw.TimestampUTC.IsZero() {
		return InteractionEvent{}, dErrors.New(dErrors.CodeInvalidInput, "timestampUtc is required")
	}
	ts := raw.TimestampUTC.UTC()
	if ts.After(now.Add(v.clockSkew)) {
		return InteractionEvent{}, dErrors.New(dErrors.CodeInvalidInput, "timestampUtc is too far in the future")
	}
	if ts.Before(now.Add(-v.retentionHorizon)) {
		return InteractionEvent{}, dErrors.New(dErrors.CodeInvalidInput, "timestampUtc is past the retention horizon")
	}

	if raw.DurationMs < 0 {
		return InteractionEvent{}, dErrors.New(dErrors.CodeInvalidInput, "durationMs cannot be negative")
	}

	payload, err := normalizePayload(kind, raw.Payload)
	if err != nil {
		return InteractionEvent{}, err
	}

	return InteractionEvent{
		StudentRef:  studentRef,
		ObjectiveID: objectiveID,
		SectionID:   sectionID,
		Kind:        kind,
		Timestamp:   ts,
		DurationMs:  raw.DurationMs,
		Payload:     payload,
	}, nil
}

// BatchResult pairs one raw event with its validation outcome.
type BatchResult struct {
	Index int
	Event InteractionEvent
	Err   error
}

// ValidateBatch validates raws independently; one bad event never aborts the
// batch. The context is checked between items so large batches cancel cleanly.
func (v *Validator) ValidateBatch(ctx context.Context, raws []RawEvent, now time.Time) ([]BatchResult, error) {
	results := make([]BatchResult, 0, len(raws))
	for i, raw := range raws {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		ev, err := v.Validate(raw, now)
		results = append(results, BatchResult{Index: i, Event: ev, Err: err})
	}
	return results, nil
}

// normalizePayload builds the typed payload for a kind, enforcing required
// fields. The switch is exhaustive over the kind enum.
func normalizePayload(kind id.EventKind, raw map[string]any) (Payload, error) {
	switch kind {
	case id.KindView:
		return ViewPayload{
			ScrollDepth:    clamp01(floatField(raw, "scrollDepth")),
			FocusLossCount: intField(raw, "focusLossCount"),
		}, nil
	case id.KindNavigate:
		from, _ := id.ParseSectionID(stringField(raw, "fromSection"))
		return NavigatePayload{FromSection: from}, nil
	case id.KindAnswer:
		selected := stringField(raw, "selectedOption")
		correct := stringField(raw, "correctOption")
		if selected == "" || correct == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "answer events require selectedOption and correctOption")
		}
		return AnswerPayload{
			SelectedOption: selected,
			CorrectOption:  correct,
			HesitationMs:   int64(floatField(raw, "hesitationMs")),
			RevisionCount:  intField(raw, "revisionCount"),
		}, nil
	case id.KindPractice:
		attempts := intField(raw, "attempts")
		if attempts < 1 {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "practice events require attempts >= 1")
		}
		return PracticePayload{
			Attempts:  attempts,
			Completed: boolField(raw, "completed"),
		}, nil
	case id.KindReflect:
		return ReflectPayload{WordCount: intField(raw, "wordCount")}, nil
	case id.KindReset:
		return ResetPayload{}, nil
	}
	return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown event kind: "+kind.String())
}

// JSON numbers decode as float64, so every numeric accessor goes through
// floatField.
func floatField(m map[string]any, key string) float64 {
	if m == nil {
		return 0
	}
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0
}

func intField(m map[string]any, key string) int {
	return int(floatField(m, key))
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func boolField(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
