// Package adapt decides how content should change for a student based on
// scored progress. This is pure domain logic - no I/O, no side effects - so
// the same evidence always yields the same directive.
package adapt

import (
	id "pathway/pkg/domain"
	"pathway/internal/mastery"
)

// advanceFloor is the mastery score required before advancement, on top of a
// high comprehension level.
const advanceFloor = 80.0

// EvaluateAdaptation applies the adaptation rule chain.
// Rule priority (first match wins):
//  1. No evidence at all - hold steady, nothing to adapt on
//  2. Persistent low comprehension after enough attempts - reinforce
//  3. High comprehension with strong mastery - advance
//  4. Everything else - maintain
func EvaluateAdaptation(input Input) (Action, Reason) {
	// Rule 1: No evidence at all - hold steady
	if input.TotalAnswers == 0 && input.SectionsCompleted == 0 {
		return ActionMaintain, ReasonInsufficientEvidence
	}

	// Rule 2: Persistent low comprehension after enough attempts
	if input.Score.Comprehension == mastery.LevelLow && input.TotalAnswers > input.ReinforceAttempts {
		return ActionReinforce, ReasonStrugglingAfterAttempts
	}

	// Rule 3: High comprehension with strong mastery
	if input.Score.Comprehension == mastery.LevelHigh && input.Score.MasteryScore >= advanceFloor {
		return ActionAdvance, ReasonHighMastery
	}

	// Rule 4: Everything else
	return ActionMaintain, ReasonSteadyProgress
}

// BuildDirective constructs the directive for an evaluated action.
func BuildDirective(ref id.StudentRef, objectiveID id.ObjectiveID, action Action, reason Reason) Directive {
	directive := Directive{
		StudentRef:         ref,
		ObjectiveID:        objectiveID,
		Action:             action,
		Reason:             reason,
		ContentAdjustments: []Adjustment{},
	}

	switch action {
	case ActionReinforce:
		directive.DifficultyDelta = clampDelta(-1)
		directive.ContentAdjustments = []Adjustment{
			AdjustmentSimplifiedContent,
			AdjustmentPrerequisiteReview,
		}
	case ActionAdvance:
		directive.DifficultyDelta = clampDelta(+1)
		directive.ContentAdjustments = []Adjustment{
			AdjustmentEnrichmentContent,
			AdjustmentSkipAhead,
		}
	}

	return directive
}

func clampDelta(delta int) int {
	if delta < MinDifficultyDelta {
		return MinDifficultyDelta
	}
	if delta > MaxDifficultyDelta {
		return MaxDifficultyDelta
	}
	return delta
}
