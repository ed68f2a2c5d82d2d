// Package course defines the read-only course-definition collaborator. The
// engine never authors content; it only checks that objectives and sections it
// is told about actually exist.
package course

import (
	"context"
	"sync"

	id "pathway/pkg/domain"
	"pathway/pkg/platform/sentinel"
)

// Difficulty labels an objective's difficulty level.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// ObjectiveDefinition describes one learning objective as the course catalog
// publishes it.
type ObjectiveDefinition struct {
	ObjectiveID id.ObjectiveID
	Sections    []id.SectionID
	Difficulty  Difficulty
	// CohortKey buckets this objective's students for aggregate analytics.
	CohortKey id.CohortKey
}

// HasSection reports whether the section belongs to the objective.
func (d ObjectiveDefinition) HasSection(section id.SectionID) bool {
	for _, s := range d.Sections {
		if s == section {
			return true
		}
	}
	return false
}

// Definitions is the collaborator interface. Implementations may call out
// over the network; the ledger treats lookups as fallible.
type Definitions interface {
	GetObjectiveDefinition(ctx context.Context, objectiveID id.ObjectiveID) (ObjectiveDefinition, error)
}

// InMemoryDefinitions serves definitions from a map. Used by tests and by
// deployments that load the catalog at startup.
type InMemoryDefinitions struct {
	mu         sync.RWMutex
	objectives map[id.ObjectiveID]ObjectiveDefinition
}

func NewInMemoryDefinitions() *InMemoryDefinitions {
	return &InMemoryDefinitions{objectives: make(map[id.ObjectiveID]ObjectiveDefinition)}
}

// Put registers or replaces an objective definition.
func (d *InMemoryDefinitions) Put(def ObjectiveDefinition) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.objectives[def.ObjectiveID] = def
}

func (d *InMemoryDefinitions) GetObjectiveDefinition(_ context.Context, objectiveID id.ObjectiveID) (ObjectiveDefinition, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	def, ok := d.objectives[objectiveID]
	if !ok {
		return ObjectiveDefinition{}, sentinel.ErrNotFound
	}
	return def, nil
}
