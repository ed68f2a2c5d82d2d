package engine

import (
	id "pathway/pkg/domain"
	"pathway/internal/ledger"
)

// IngestStatus classifies what the pipeline did with an event.
type IngestStatus string

const (
	// IngestApplied means the event updated the student's progress state.
	IngestApplied IngestStatus = "applied"
	// IngestDuplicate means the event was a replay and changed nothing.
	IngestDuplicate IngestStatus = "duplicate"
	// IngestAggregateOnly means the event contributed to cohort statistics
	// but no per-student state exists (minimal tier).
	IngestAggregateOnly IngestStatus = "aggregate_only"
	// IngestConsentDenied means the event was discarded entirely. This is a
	// terminal outcome, not an error: the caller did nothing wrong.
	IngestConsentDenied IngestStatus = "consent_denied"
)

// IngestResult is the pipeline's answer to one submitted event.
type IngestResult struct {
	Status IngestStatus   `json:"status"`
	Tier   id.PrivacyTier `json:"tier"`

	// Progress and Check are set for identifiable outcomes only.
	Progress *ledger.ProgressState  `json:"progress,omitempty"`
	Check    ledger.CompletionCheck `json:"check,omitzero"`
}

// BatchItem pairs one batch entry with its result or error. A failing entry
// never aborts the rest of the batch.
type BatchItem struct {
	Index  int
	Result IngestResult
	Err    error
}
