package domain

import dErrors "pathway/pkg/domain-errors"

// EventKind labels what a student did. The set is closed: stores, scorers, and
// the aggregator all switch over it exhaustively.
//
// Usage: construct via ParseEventKind at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type EventKind string

// Supported interaction kinds.
const (
	KindView     EventKind = "view"
	KindNavigate EventKind = "navigate"
	KindAnswer   EventKind = "answer"
	KindPractice EventKind = "practice"
	KindReflect  EventKind = "reflect"
	// KindReset marks an explicit retake. It is the only kind allowed to lower
	// a section's recorded mastery or clear its completion flag.
	KindReset EventKind = "reset"
)

// validEventKinds is the single source of truth for valid kinds.
var validEventKinds = map[EventKind]bool{
	KindView:     true,
	KindNavigate: true,
	KindAnswer:   true,
	KindPractice: true,
	KindReflect:  true,
	KindReset:    true,
}

// ParseEventKind constructs an EventKind from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported; no
// other errors are expected.
func ParseEventKind(s string) (EventKind, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "event kind cannot be empty")
	}
	k := EventKind(s)
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown event kind: "+s)
	}
	return k, nil
}

// IsValid checks if the kind is one of the supported enum values.
func (k EventKind) IsValid() bool {
	return validEventKinds[k]
}

// String returns the string representation of the kind.
func (k EventKind) String() string {
	return string(k)
}
