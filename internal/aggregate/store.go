package aggregate

import (
	"context"

	id "pathway/pkg/domain"
)

// cohortID keys an accumulator.
type cohortID struct {
	ObjectiveID id.ObjectiveID
	CohortKey   id.CohortKey
}

// Store holds per-cohort accumulators. Upsert replaces the student's stat
// in-place so repeated contributions never inflate the sample size.
// PurgeStudent removes the student from every accumulator; implementations
// must be able to find all of a student's contributions without scanning.
type Store interface {
	Upsert(ctx context.Context, cohort cohortID, ref id.StudentRef, stat StudentStat) error
	// Accumulate merges a delta stat onto the student's stored stat. Used for
	// aggregate-only students, whose standing is never tracked anywhere else.
	Accumulate(ctx context.Context, cohort cohortID, ref id.StudentRef, delta StudentStat) error
	// Snapshot returns every student stat in the cohort. An unknown cohort
	// yields an empty map, not an error.
	Snapshot(ctx context.Context, cohort cohortID) (map[id.StudentRef]StudentStat, error)
	PurgeStudent(ctx context.Context, ref id.StudentRef) (int, error)
}
