package adapt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"pathway/internal/mastery"
	id "pathway/pkg/domain"
)

func TestEvaluateAdaptation_NoEvidenceMaintains(t *testing.T) {
	action, reason := EvaluateAdaptation(Input{
		Score:             mastery.Result{MasteryScore: 0, Comprehension: mastery.LevelLow},
		ReinforceAttempts: 2,
	})
	assert.Equal(t, ActionMaintain, action)
	assert.Equal(t, ReasonInsufficientEvidence, reason)
}

func TestEvaluateAdaptation_StrugglingStudentGetsReinforcement(t *testing.T) {
	action, reason := EvaluateAdaptation(Input{
		Score:             mastery.Result{MasteryScore: 25, Comprehension: mastery.LevelLow},
		TotalAnswers:      3,
		ReinforceAttempts: 2,
	})
	assert.Equal(t, ActionReinforce, action)
	assert.Equal(t, ReasonStrugglingAfterAttempts, reason)
}

func TestEvaluateAdaptation_LowScoreWithFewAttemptsMaintains(t *testing.T) {
	// Struggling but still within the attempt allowance: do not demote yet.
	action, reason := EvaluateAdaptation(Input{
		Score:             mastery.Result{MasteryScore: 25, Comprehension: mastery.LevelLow},
		TotalAnswers:      2,
		ReinforceAttempts: 2,
	})
	assert.Equal(t, ActionMaintain, action)
	assert.Equal(t, ReasonSteadyProgress, reason)
}

func TestEvaluateAdaptation_HighMasteryAdvances(t *testing.T) {
	action, reason := EvaluateAdaptation(Input{
		Score:             mastery.Result{MasteryScore: 85, Comprehension: mastery.LevelHigh},
		TotalAnswers:      4,
		SectionsCompleted: 3,
		SectionsTotal:     3,
		ReinforceAttempts: 2,
	})
	assert.Equal(t, ActionAdvance, action)
	assert.Equal(t, ReasonHighMastery, reason)
}

func TestEvaluateAdaptation_HighLevelBelowFloorMaintains(t *testing.T) {
	action, reason := EvaluateAdaptation(Input{
		Score:             mastery.Result{MasteryScore: 78, Comprehension: mastery.LevelHigh},
		TotalAnswers:      4,
		ReinforceAttempts: 2,
	})
	assert.Equal(t, ActionMaintain, action)
	assert.Equal(t, ReasonSteadyProgress, reason)
}

func TestBuildDirective_Reinforce(t *testing.T) {
	ref := id.StudentRef(strings.Repeat("ab", 32))

	d := BuildDirective(ref, "algebra-basics", ActionReinforce, ReasonStrugglingAfterAttempts)
	assert.Equal(t, -1, d.DifficultyDelta)
	assert.Equal(t, []Adjustment{AdjustmentSimplifiedContent, AdjustmentPrerequisiteReview}, d.ContentAdjustments)
}

func TestBuildDirective_Advance(t *testing.T) {
	ref := id.StudentRef(strings.Repeat("ab", 32))

	d := BuildDirective(ref, "algebra-basics", ActionAdvance, ReasonHighMastery)
	assert.Equal(t, 1, d.DifficultyDelta)
	assert.Equal(t, []Adjustment{AdjustmentEnrichmentContent, AdjustmentSkipAhead}, d.ContentAdjustments)
}

func TestBuildDirective_MaintainHasNoAdjustments(t *testing.T) {
	ref := id.StudentRef(strings.Repeat("ab", 32))

	d := BuildDirective(ref, "algebra-basics", ActionMaintain, ReasonSteadyProgress)
	assert.Zero(t, d.DifficultyDelta)
	assert.Empty(t, d.ContentAdjustments)
}

func TestClampDelta(t *testing.T) {
	assert.Equal(t, MaxDifficultyDelta, clampDelta(5))
	assert.Equal(t, MinDifficultyDelta, clampDelta(-5))
	assert.Equal(t, 1, clampDelta(1))
}
