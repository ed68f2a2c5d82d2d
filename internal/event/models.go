package event

import (
	"encoding/hex"
	"strconv"
	"time"

	"golang.org/x/crypto/blake2b"

	id "pathway/pkg/domain"
)

// RawEvent is the wire shape the collection layer submits. Nothing in it is
// trusted until Validate has run.
type RawEvent struct {
	StudentRef   string    `json:"studentRef"`
	ObjectiveID  string    `json:"objectiveId"`
	SectionID    string    `json:"sectionId"`
	Kind         string    `json:"kind"`
	TimestampUTC time.Time `json:"timestampUtc"`
	// DurationMs is the time-on-task this event accounts for.
	DurationMs int64          `json:"durationMs,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// InteractionEvent is a validated, normalized student interaction. Immutable
// once created.
type InteractionEvent struct {
	StudentRef  id.StudentRef
	ObjectiveID id.ObjectiveID
	SectionID   id.SectionID
	Kind        id.EventKind
	Timestamp   time.Time
	DurationMs  int64
	Payload     Payload
}

// Fingerprint identifies the event for idempotent replay. Two submissions of
// the same interaction hash identically regardless of payload details.
func (e InteractionEvent) Fingerprint() string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(e.StudentRef))
	h.Write([]byte{0})
	h.Write([]byte(e.ObjectiveID))
	h.Write([]byte{0})
	h.Write([]byte(e.SectionID))
	h.Write([]byte{0})
	h.Write([]byte(e.Kind))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(e.Timestamp.UnixNano(), 10)))
	return hex.EncodeToString(h.Sum(nil))
}

// Payload is the kind-specific part of an event. The concrete types below form
// a closed union; the validator guarantees Payload matches Kind.
type Payload interface {
	Kind() id.EventKind
	// StripBehavioral returns a copy with behavioral-pattern fields removed.
	// Applied when the consent tier is standard rather than enhanced.
	StripBehavioral() Payload
}

// ViewPayload accompanies passive content views.
type ViewPayload struct {
	// ScrollDepth is the furthest fraction of the section viewed, [0,1].
	ScrollDepth float64
	// FocusLossCount is behavioral: how often the student tabbed away.
	FocusLossCount int
}

func (p ViewPayload) Kind() id.EventKind { return id.KindView }
func (p ViewPayload) StripBehavioral() Payload {
	p.FocusLossCount = 0
	return p
}

// NavigatePayload records movement between sections.
type NavigatePayload struct {
	FromSection id.SectionID
}

func (p NavigatePayload) Kind() id.EventKind       { return id.KindNavigate }
func (p NavigatePayload) StripBehavioral() Payload { return p }

// AnswerPayload carries an assessment response.
type AnswerPayload struct {
	SelectedOption string
	CorrectOption  string
	// HesitationMs and RevisionCount are behavioral fields.
	HesitationMs  int64
	RevisionCount int
}

// Correct reports whether the selected option matched.
func (p AnswerPayload) Correct() bool { return p.SelectedOption == p.CorrectOption }

func (p AnswerPayload) Kind() id.EventKind { return id.KindAnswer }
func (p AnswerPayload) StripBehavioral() Payload {
	p.HesitationMs = 0
	p.RevisionCount = 0
	return p
}

// PracticePayload records a practice exercise attempt.
type PracticePayload struct {
	Attempts  int
	Completed bool
}

func (p PracticePayload) Kind() id.EventKind       { return id.KindPractice }
func (p PracticePayload) StripBehavioral() Payload { return p }

// ReflectPayload records a free-form reflection. Only the length is retained;
// reflection text never enters the engine.
type ReflectPayload struct {
	WordCount int
}

func (p ReflectPayload) Kind() id.EventKind       { return id.KindReflect }
func (p ReflectPayload) StripBehavioral() Payload { return p }

// ResetPayload marks an explicit retake of a section.
type ResetPayload struct{}

func (p ResetPayload) Kind() id.EventKind       { return id.KindReset }
func (p ResetPayload) StripBehavioral() Payload { return p }
