package consent

import (
	"context"
	"time"

	id "pathway/pkg/domain"
)

// Store persists consent records, one per student. Implementations return
// sentinel.ErrNotFound when no record exists.
type Store interface {
	Save(ctx context.Context, record Record) error
	Get(ctx context.Context, ref id.StudentRef) (Record, error)
	Revoke(ctx context.Context, ref id.StudentRef, revokedAt time.Time) error
}
