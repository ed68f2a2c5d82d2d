package aggregate

import (
	"context"
	"sync"

	id "pathway/pkg/domain"
)

// InMemoryStore keeps accumulators in maps, with a reverse index from student
// to cohorts so purges do not scan every accumulator.
type InMemoryStore struct {
	mu      sync.RWMutex
	cohorts map[cohortID]map[id.StudentRef]StudentStat
	byRef   map[id.StudentRef]map[cohortID]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		cohorts: make(map[cohortID]map[id.StudentRef]StudentStat),
		byRef:   make(map[id.StudentRef]map[cohortID]struct{}),
	}
}

func (s *InMemoryStore) Upsert(_ context.Context, cohort cohortID, ref id.StudentRef, stat StudentStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	students, ok := s.cohorts[cohort]
	if !ok {
		students = make(map[id.StudentRef]StudentStat)
		s.cohorts[cohort] = students
	}
	students[ref] = stat

	cohortSet, ok := s.byRef[ref]
	if !ok {
		cohortSet = make(map[cohortID]struct{})
		s.byRef[ref] = cohortSet
	}
	cohortSet[cohort] = struct{}{}
	return nil
}

func (s *InMemoryStore) Accumulate(_ context.Context, cohort cohortID, ref id.StudentRef, delta StudentStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	students, ok := s.cohorts[cohort]
	if !ok {
		students = make(map[id.StudentRef]StudentStat)
		s.cohorts[cohort] = students
	}
	students[ref] = students[ref].merge(delta)

	cohortSet, ok := s.byRef[ref]
	if !ok {
		cohortSet = make(map[cohortID]struct{})
		s.byRef[ref] = cohortSet
	}
	cohortSet[cohort] = struct{}{}
	return nil
}

func (s *InMemoryStore) Snapshot(_ context.Context, cohort cohortID) (map[id.StudentRef]StudentStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.StudentRef]StudentStat, len(s.cohorts[cohort]))
	for ref, stat := range s.cohorts[cohort] {
		out[ref] = stat
	}
	return out, nil
}

func (s *InMemoryStore) PurgeStudent(_ context.Context, ref id.StudentRef) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for cohort := range s.byRef[ref] {
		if _, ok := s.cohorts[cohort][ref]; ok {
			delete(s.cohorts[cohort], ref)
			removed++
		}
	}
	delete(s.byRef, ref)
	return removed, nil
}
