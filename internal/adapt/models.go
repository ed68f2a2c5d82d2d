package adapt

import (
	id "pathway/pkg/domain"
	"pathway/internal/mastery"
)

// Action is the adaptation the engine recommends for a student.
type Action string

const (
	// ActionReinforce routes the student to remedial content.
	ActionReinforce Action = "reinforce"
	// ActionMaintain keeps the current difficulty and sequence.
	ActionMaintain Action = "maintain"
	// ActionAdvance unlocks harder or enrichment content.
	ActionAdvance Action = "advance"
)

// Adjustment names a concrete content change delivery can act on.
type Adjustment string

const (
	AdjustmentSimplifiedContent  Adjustment = "simplified_content"
	AdjustmentPrerequisiteReview Adjustment = "prerequisite_review"
	AdjustmentEnrichmentContent  Adjustment = "enrichment_content"
	AdjustmentSkipAhead          Adjustment = "skip_ahead"
)

// Reason explains which rule produced the directive.
type Reason string

const (
	ReasonStrugglingAfterAttempts Reason = "struggling_after_attempts"
	ReasonHighMastery             Reason = "high_mastery"
	ReasonSteadyProgress          Reason = "steady_progress"
	ReasonInsufficientEvidence    Reason = "insufficient_evidence"
)

// Difficulty delta bounds. A single directive never moves more than one step;
// the clamp also bounds any caller-supplied starting point.
const (
	MinDifficultyDelta = -2
	MaxDifficultyDelta = 2
)

// Input is everything the rule chain needs, gathered by the caller.
// No I/O happens at evaluation time.
type Input struct {
	Score mastery.Result
	// TotalAnswers counts assessment attempts across the objective.
	TotalAnswers int
	// SectionsCompleted and SectionsTotal describe coverage.
	SectionsCompleted int
	SectionsTotal     int
	// ReinforceAttempts is the attempt count after which persistent low
	// comprehension triggers reinforcement.
	ReinforceAttempts int
}

// Directive is the engine's recommendation for one (student, objective) pair.
type Directive struct {
	StudentRef  id.StudentRef `json:"studentRef"`
	ObjectiveID id.ObjectiveID `json:"objectiveId"`

	Action Action `json:"action"`
	// DifficultyDelta is clamped to [MinDifficultyDelta, MaxDifficultyDelta].
	DifficultyDelta    int          `json:"difficultyDelta"`
	ContentAdjustments []Adjustment `json:"contentAdjustments"`
	Reason             Reason       `json:"reason"`
}
