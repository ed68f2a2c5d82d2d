package consent

import (
	"context"
	"sync"
	"time"

	id "pathway/pkg/domain"
	"pathway/pkg/platform/sentinel"
)

// InMemoryStore keeps consent records in a map. The authoritative store for
// unit tests and single-process deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.StudentRef]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.StudentRef]Record)}
}

func (s *InMemoryStore) Save(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.StudentRef] = record
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, ref id.StudentRef) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[ref]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return record, nil
}

func (s *InMemoryStore) Revoke(_ context.Context, ref id.StudentRef, revokedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[ref]
	if !ok {
		return sentinel.ErrNotFound
	}
	record.RevokedAt = &revokedAt
	s.records[ref] = record
	return nil
}
