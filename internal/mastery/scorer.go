// Package mastery computes comprehension scores from accumulated interaction
// evidence. This is pure domain logic - no I/O, no hidden randomness - so the
// same history always produces the same score.
package mastery

import (
	"time"

	id "pathway/pkg/domain"
)

// Input summarizes a student's accumulated interactions for one objective.
// The ledger builds it; the scorer never sees raw events.
type Input struct {
	TimeSpentMs      int64
	InteractionCount int
	// KindCounts holds how many interactions of each kind were applied.
	KindCounts map[id.EventKind]int
	// TotalAnswers and CorrectAnswers summarize assessment evidence.
	TotalAnswers   int
	CorrectAnswers int
	// SectionsCompleted and SectionsTotal describe coverage of the objective.
	SectionsCompleted int
	SectionsTotal     int
}

// Level buckets a mastery score into a comprehension level.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Result is the scorer's output.
type Result struct {
	// MasteryScore is clamped to [0,100].
	MasteryScore  float64
	Comprehension Level
}

// Factor weights. Demonstrated assessment evidence dominates; raw time on
// task contributes least and is capped so idle tabs cannot farm mastery.
const (
	timeWeight     = 0.2
	qualityWeight  = 0.35
	evidenceWeight = 0.45

	// timeSaturation is the time-on-task at which the time factor maxes out.
	timeSaturation = 30 * time.Minute
)

// kindDepth ranks interaction kinds by cognitive depth. Passive viewing
// counts least; producing an answer counts most.
var kindDepth = map[id.EventKind]float64{
	id.KindView:     0.2,
	id.KindNavigate: 0.3,
	id.KindReflect:  0.6,
	id.KindPractice: 0.8,
	id.KindAnswer:   1.0,
}

// Comprehension level cut points.
const (
	mediumFloor = 40.0
	highFloor   = 75.0
)

// Scorer computes mastery scores. Stateless; safe for concurrent use.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Score blends three factors into a [0,100] mastery score:
//   - time engagement, saturating at timeSaturation,
//   - interaction quality, the depth-weighted mean of interaction kinds,
//   - demonstrated evidence, assessment correctness scaled by coverage.
//
// Output is clamped even for pathological inputs (huge times, zero counts).
func (s *Scorer) Score(input Input) Result {
	score := 100 * (timeWeight*timeFactor(input) +
		qualityWeight*qualityFactor(input) +
		evidenceWeight*evidenceFactor(input))
	score = clamp(score, 0, 100)

	return Result{
		MasteryScore:  score,
		Comprehension: levelFor(score),
	}
}

func levelFor(score float64) Level {
	switch {
	case score < mediumFloor:
		return LevelLow
	case score < highFloor:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// timeFactor grows linearly with time on task and saturates at
// timeSaturation. Negative inputs count as zero.
func timeFactor(input Input) float64 {
	if input.TimeSpentMs <= 0 {
		return 0
	}
	return clamp(float64(input.TimeSpentMs)/float64(timeSaturation.Milliseconds()), 0, 1)
}

// qualityFactor is the depth-weighted mean over all interactions. A history
// of passive views scores near the bottom of the scale regardless of volume.
func qualityFactor(input Input) float64 {
	total := 0
	weighted := 0.0
	for kind, count := range input.KindCounts {
		if count <= 0 {
			continue
		}
		depth, ok := kindDepth[kind]
		if !ok {
			// Resets and future kinds carry no quality signal.
			continue
		}
		total += count
		weighted += depth * float64(count)
	}
	if total == 0 {
		return 0
	}
	return clamp(weighted/float64(total), 0, 1)
}

// evidenceFactor is assessment correctness scaled by section coverage, so one
// lucky answer on the first of ten sections does not read as mastery.
func evidenceFactor(input Input) float64 {
	if input.TotalAnswers == 0 {
		return 0
	}
	correctness := float64(input.CorrectAnswers) / float64(input.TotalAnswers)

	coverage := 1.0
	if input.SectionsTotal > 0 {
		coverage = float64(input.SectionsCompleted) / float64(input.SectionsTotal)
		// Partial credit: having any assessment evidence at all is worth half
		// the coverage scale.
		coverage = 0.5 + 0.5*coverage
	}
	return clamp(correctness*coverage, 0, 1)
}

func clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}
