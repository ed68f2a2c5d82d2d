package ledger

import (
	"context"

	id "pathway/pkg/domain"
)

// Store persists progress states. Implementations return sentinel.ErrNotFound
// for missing states and must make PurgeStudent atomic: after it returns, no
// state for the student is observable.
type Store interface {
	Get(ctx context.Context, ref id.StudentRef, objectiveID id.ObjectiveID) (*ProgressState, error)
	Save(ctx context.Context, state *ProgressState) error
	ListByStudent(ctx context.Context, ref id.StudentRef) ([]*ProgressState, error)
	// PurgeStudent removes every state for the student and reports how many
	// it removed.
	PurgeStudent(ctx context.Context, ref id.StudentRef) (int, error)
}
