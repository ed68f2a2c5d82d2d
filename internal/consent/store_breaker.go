package consent

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	id "pathway/pkg/domain"
	"pathway/pkg/platform/circuit"
	"pathway/pkg/platform/sentinel"
)

// probeInterval is how many short-circuited reads pass between probes of an
// open circuit.
const probeInterval = 10

// BreakerStore wraps a Store with a circuit breaker. When the backend flaps,
// reads short-circuit to ErrUnavailable instead of piling timeouts onto a dead
// dependency; the gate then fails closed. Writes always hit the backend - a
// grant or revocation is never silently dropped by an open circuit.
type BreakerStore struct {
	inner   Store
	breaker *circuit.Breaker
	logger  *slog.Logger
	reads   atomic.Uint64
}

func NewBreakerStore(inner Store, breaker *circuit.Breaker, logger *slog.Logger) *BreakerStore {
	return &BreakerStore{inner: inner, breaker: breaker, logger: logger}
}

func (s *BreakerStore) Get(ctx context.Context, ref id.StudentRef) (Record, error) {
	if s.breaker.IsOpen() && s.reads.Add(1)%probeInterval != 0 {
		return Record{}, sentinel.ErrUnavailable
	}

	record, err := s.inner.Get(ctx, ref)
	s.observe(ctx, err)
	return record, err
}

func (s *BreakerStore) Save(ctx context.Context, record Record) error {
	err := s.inner.Save(ctx, record)
	s.observe(ctx, err)
	return err
}

func (s *BreakerStore) Revoke(ctx context.Context, ref id.StudentRef, revokedAt time.Time) error {
	err := s.inner.Revoke(ctx, ref, revokedAt)
	s.observe(ctx, err)
	return err
}

// observe feeds the outcome to the breaker. Not-found is a healthy answer.
func (s *BreakerStore) observe(ctx context.Context, err error) {
	if err == nil || errors.Is(err, sentinel.ErrNotFound) {
		_, change := s.breaker.RecordSuccess()
		if change.Closed {
			s.logger.InfoContext(ctx, "consent store circuit closed", "breaker", s.breaker.Name())
		}
		return
	}
	_, change := s.breaker.RecordFailure()
	if change.Opened {
		s.logger.ErrorContext(ctx, "consent store circuit opened", "breaker", s.breaker.Name())
	}
}
