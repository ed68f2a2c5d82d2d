package ledger

import (
	"time"

	id "pathway/pkg/domain"
)

// SectionProgress accumulates evidence for one section of an objective.
type SectionProgress struct {
	TimeSpentMs      int64     `json:"timeSpentMs"`
	InteractionCount int       `json:"interactionCount"`
	AnswerAttempts   int       `json:"answerAttempts"`
	Completed        bool      `json:"completed"`
	CompletedAt      time.Time `json:"completedAt,omitzero"`
	// Mastery is a per-section high-water mark: it only decreases when an
	// explicit reset event is applied.
	Mastery float64 `json:"mastery"`
}

// ProgressState is the durable per-(student, objective) progress record.
// Created on the first consented event, updated on every subsequent one, and
// deleted only on consent withdrawal.
type ProgressState struct {
	StudentRef  id.StudentRef `json:"studentRef"`
	ObjectiveID id.ObjectiveID `json:"objectiveId"`

	Sections map[id.SectionID]*SectionProgress `json:"sections"`

	TimeSpentMs      int64     `json:"timeSpentMs"`
	InteractionCount int       `json:"interactionCount"`
	MasteryScore     float64   `json:"masteryScore"`
	LastUpdated      time.Time `json:"lastUpdated"`

	// KindCounts, TotalAnswers, and CorrectAnswers summarize the interaction
	// history for the scorer without retaining raw events.
	KindCounts     map[id.EventKind]int `json:"kindCounts"`
	TotalAnswers   int                  `json:"totalAnswers"`
	CorrectAnswers int                  `json:"correctAnswers"`

	// Applied records fingerprints of already-applied events so replays are
	// idempotent across restarts.
	Applied map[string]bool `json:"applied"`
}

// NewProgressState creates the empty state for a (student, objective) pair.
func NewProgressState(ref id.StudentRef, objectiveID id.ObjectiveID) *ProgressState {
	return &ProgressState{
		StudentRef:  ref,
		ObjectiveID: objectiveID,
		Sections:    make(map[id.SectionID]*SectionProgress),
		KindCounts:  make(map[id.EventKind]int),
		Applied:     make(map[string]bool),
	}
}

// CompletedSections lists the sections currently marked complete.
func (s *ProgressState) CompletedSections() []id.SectionID {
	var out []id.SectionID
	for sectionID, section := range s.Sections {
		if section.Completed {
			out = append(out, sectionID)
		}
	}
	return out
}

// section returns the tracked section, creating it on first touch.
func (s *ProgressState) section(sectionID id.SectionID) *SectionProgress {
	sp, ok := s.Sections[sectionID]
	if !ok {
		sp = &SectionProgress{}
		s.Sections[sectionID] = sp
	}
	return sp
}

// recomputeTotals rebuilds the objective-level tallies from the per-section
// ones. Called after resets so totals always equal the sum of sections.
func (s *ProgressState) recomputeTotals() {
	s.TimeSpentMs = 0
	s.InteractionCount = 0
	for _, section := range s.Sections {
		s.TimeSpentMs += section.TimeSpentMs
		s.InteractionCount += section.InteractionCount
	}
}

// Clone deep-copies the state so stores can hand out snapshots without
// aliasing the authoritative copy.
func (s *ProgressState) Clone() *ProgressState {
	if s == nil {
		return nil
	}
	out := *s
	out.Sections = make(map[id.SectionID]*SectionProgress, len(s.Sections))
	for sectionID, section := range s.Sections {
		copied := *section
		out.Sections[sectionID] = &copied
	}
	out.KindCounts = make(map[id.EventKind]int, len(s.KindCounts))
	for kind, count := range s.KindCounts {
		out.KindCounts[kind] = count
	}
	out.Applied = make(map[string]bool, len(s.Applied))
	for fp := range s.Applied {
		out.Applied[fp] = true
	}
	return &out
}

// Criterion names a completion requirement a section has not met yet.
type Criterion string

const (
	CriterionMinTimeOnTask     Criterion = "min_time_on_task"
	CriterionMinInteractions   Criterion = "min_interaction_count"
)

// CompletionCheck reports whether a section completed and, if not, exactly
// which criteria remain unmet so the caller can surface them.
type CompletionCheck struct {
	SectionID id.SectionID
	Completed bool
	Unmet     []Criterion
}

// Outcome classifies what Apply did with an event.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
)

// ApplyResult is the ledger's answer to one event.
type ApplyResult struct {
	Outcome Outcome
	State   *ProgressState
	// Check is set for events that touched completion-eligible sections.
	Check CompletionCheck
}
