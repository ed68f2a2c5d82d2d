package memory

import (
	"context"
	"sync"

	id "pathway/pkg/domain"
	audit "pathway/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.StudentRef][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.StudentRef][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.StudentRef][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.StudentRef] = append(s.events[event.StudentRef], event)
	return nil
}

func (s *InMemoryStore) ListByStudent(_ context.Context, ref id.StudentRef) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[ref]...), nil
}
