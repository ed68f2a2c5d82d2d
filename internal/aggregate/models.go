package aggregate

import (
	"time"

	id "pathway/pkg/domain"
)

// Contribution is one student's current standing in a cohort, derived from the
// ledger after an event applies. The aggregator keeps the latest contribution
// per student internally; nothing identifiable ever leaves the store.
type Contribution struct {
	StudentRef  id.StudentRef
	ObjectiveID id.ObjectiveID
	CohortKey   id.CohortKey
	// TimeSpentMs is the student's cumulative time on the objective.
	TimeSpentMs int64
	// MasteryScore is the student's current objective-level score. Only
	// meaningful when HasMastery is set; aggregate-only students contribute
	// time and cardinality but no score.
	MasteryScore float64
	HasMastery   bool
	// Completed reports whether the student finished every section.
	Completed bool
}

// StudentStat is the per-student record kept inside an accumulator. It exists
// so distinct students can be counted and replaced-in-place; it is never part
// of a published aggregate and is deleted on consent withdrawal.
type StudentStat struct {
	TimeSpentMs  int64   `json:"timeSpentMs"`
	MasteryScore float64 `json:"masteryScore"`
	HasMastery   bool    `json:"hasMastery"`
	Completed    bool    `json:"completed"`
}

// merge folds a delta stat onto the receiver: time accumulates, mastery and
// completion are latest-wins and sticky respectively.
func (s StudentStat) merge(delta StudentStat) StudentStat {
	s.TimeSpentMs += delta.TimeSpentMs
	if delta.HasMastery {
		s.MasteryScore = delta.MasteryScore
		s.HasMastery = true
	}
	s.Completed = s.Completed || delta.Completed
	return s
}

// CohortAggregate is the published, anonymous view of a cohort. Released only
// when the sample size clears the k-anonymity floor.
type CohortAggregate struct {
	ObjectiveID id.ObjectiveID `json:"objectiveId"`
	CohortKey   id.CohortKey   `json:"cohortKey"`
	SampleSize  int            `json:"sampleSize"`

	MeanTimeSpentMs float64 `json:"meanTimeSpentMs"`
	MeanMastery     float64 `json:"meanMastery"`
	// CompletionRate is the fraction of the sample that finished the objective.
	CompletionRate float64 `json:"completionRate"`

	// NoiseApplied reports whether differential-privacy noise perturbed the
	// means. Epoch is the noise window the values belong to.
	NoiseApplied bool      `json:"noiseApplied"`
	Epoch        time.Time `json:"epoch,omitzero"`
}
