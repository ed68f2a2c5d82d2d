package audit

import (
	"time"

	id "pathway/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// consent changes and data purges. These require tamper-proof storage and
	// long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and operational
	// visibility: routine ingests and adaptation decisions. These can be
	// sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// StudentRef is already pseudonymous; no further hashing needed here.
	StudentRef  id.StudentRef
	ObjectiveID id.ObjectiveID
	Action      Action
	Tier        string
	Outcome     string
	Reason      string
	RequestID   string
}

// Action names an auditable action.
type Action string

const (
	ActionConsentGranted Action = "consent_granted"
	ActionConsentRevoked Action = "consent_revoked"
	ActionStudentPurged  Action = "student_purged"
	ActionEventApplied   Action = "event_applied"
	ActionEventDenied    Action = "event_denied"
	ActionAdaptationMade Action = "adaptation_made"
)

// actionCategories maps each action to its category. Consent changes and
// purges are compliance events; the rest is operational telemetry.
var actionCategories = map[Action]EventCategory{
	ActionConsentGranted: CategoryCompliance,
	ActionConsentRevoked: CategoryCompliance,
	ActionStudentPurged:  CategoryCompliance,
	ActionEventApplied:   CategoryOperations,
	ActionEventDenied:    CategoryOperations,
	ActionAdaptationMade: CategoryOperations,
}

// CategoryOf returns the category for an action, defaulting to operations.
func CategoryOf(action Action) EventCategory {
	if c, ok := actionCategories[action]; ok {
		return c
	}
	return CategoryOperations
}
