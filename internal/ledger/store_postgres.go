package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	id "pathway/pkg/domain"
	"pathway/pkg/platform/sentinel"
)

// PostgresStore persists progress states as one row per (student, objective)
// with the state serialized to a jsonb column. Progress is always read and
// written whole, so a document column beats a wide schema here.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the backing table. Callers run it at startup.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS progress_states (
			student_ref  TEXT NOT NULL,
			objective_id TEXT NOT NULL,
			state        JSONB NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (student_ref, objective_id)
		)`)
	if err != nil {
		return fmt.Errorf("migrate progress_states: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, ref id.StudentRef, objectiveID id.ObjectiveID) (*ProgressState, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM progress_states WHERE student_ref = $1 AND objective_id = $2`,
		ref.String(), objectiveID.String(),
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get progress state: %w", err)
	}
	return unmarshalState(raw)
}

func (s *PostgresStore) Save(ctx context.Context, state *ProgressState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal progress state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO progress_states (student_ref, objective_id, state, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (student_ref, objective_id)
		DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		state.StudentRef.String(), state.ObjectiveID.String(), raw)
	if err != nil {
		return fmt.Errorf("save progress state: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByStudent(ctx context.Context, ref id.StudentRef) ([]*ProgressState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT state FROM progress_states WHERE student_ref = $1`, ref.String())
	if err != nil {
		return nil, fmt.Errorf("list progress states: %w", err)
	}
	defer rows.Close()

	var out []*ProgressState
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan progress state: %w", err)
		}
		state, err := unmarshalState(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, state)
	}
	return out, rows.Err()
}

// PurgeStudent deletes all of the student's rows in a single statement, so
// there is no window where a partial purge is visible.
func (s *PostgresStore) PurgeStudent(ctx context.Context, ref id.StudentRef) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM progress_states WHERE student_ref = $1`, ref.String())
	if err != nil {
		return 0, fmt.Errorf("purge progress states: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge progress states: %w", err)
	}
	return int(affected), nil
}

func unmarshalState(raw []byte) (*ProgressState, error) {
	var state ProgressState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("unmarshal progress state: %w", err)
	}
	if state.Sections == nil {
		state.Sections = make(map[id.SectionID]*SectionProgress)
	}
	if state.KindCounts == nil {
		state.KindCounts = make(map[id.EventKind]int)
	}
	if state.Applied == nil {
		state.Applied = make(map[string]bool)
	}
	return &state, nil
}
