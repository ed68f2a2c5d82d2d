package ledger

import (
	"context"
	"sync"

	id "pathway/pkg/domain"
	"pathway/pkg/platform/sentinel"
)

// InMemoryStore keeps progress states in a two-level map. The authoritative
// implementation for unit tests and single-process deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	states map[id.StudentRef]map[id.ObjectiveID]*ProgressState
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{states: make(map[id.StudentRef]map[id.ObjectiveID]*ProgressState)}
}

func (s *InMemoryStore) Get(_ context.Context, ref id.StudentRef, objectiveID id.ObjectiveID) (*ProgressState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[ref][objectiveID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return state.Clone(), nil
}

func (s *InMemoryStore) Save(_ context.Context, state *ProgressState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byObjective, ok := s.states[state.StudentRef]
	if !ok {
		byObjective = make(map[id.ObjectiveID]*ProgressState)
		s.states[state.StudentRef] = byObjective
	}
	byObjective[state.ObjectiveID] = state.Clone()
	return nil
}

func (s *InMemoryStore) ListByStudent(_ context.Context, ref id.StudentRef) ([]*ProgressState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ProgressState
	for _, state := range s.states[ref] {
		out = append(out, state.Clone())
	}
	return out, nil
}

// PurgeStudent drops the whole per-student map under one lock, so the purge
// is atomic: no reader can observe a partial removal.
func (s *InMemoryStore) PurgeStudent(_ context.Context, ref id.StudentRef) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := len(s.states[ref])
	delete(s.states, ref)
	return removed, nil
}
