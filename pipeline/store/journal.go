package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// sqlJournal holds the database/sql logic shared by the SQLite and
// MySQL stores. Only the DDL and the upsert statement differ per dialect.
type sqlJournal[S any] struct {
	db         *sql.DB
	upsertStep string

	mu     sync.RWMutex
	closed bool
}

func (j *sqlJournal[S]) checkOpen() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return ErrClosed
	}
	return nil
}

// SaveStep persists a step. Saving the same runID and step twice
// replaces the earlier row.
func (j *sqlJournal[S]) SaveStep(ctx context.Context, runID string, step int, stepID string, state S) error {
	if err := j.checkOpen(); err != nil {
		return err
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if _, err := j.db.ExecContext(ctx, j.upsertStep, runID, step, stepID, stateJSON); err != nil {
		return fmt.Errorf("failed to save step: %w", err)
	}
	return nil
}

// LoadLatest returns the step with the highest step number for runID.
func (j *sqlJournal[S]) LoadLatest(ctx context.Context, runID string) (state S, step int, err error) {
	var zero S
	if err := j.checkOpen(); err != nil {
		return zero, 0, err
	}

	query := `
		SELECT step, state
		FROM pipeline_steps
		WHERE run_id = ?
		ORDER BY step DESC
		LIMIT 1
	`

	var stateJSON []byte
	err = j.db.QueryRowContext(ctx, query, runID).Scan(&step, &stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, 0, ErrNotFound
	}
	if err != nil {
		return zero, 0, fmt.Errorf("failed to load latest step: %w", err)
	}

	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return zero, 0, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return state, step, nil
}

// Steps returns the run's history ordered by step number.
func (j *sqlJournal[S]) Steps(ctx context.Context, runID string) ([]StepRecord[S], error) {
	if err := j.checkOpen(); err != nil {
		return nil, err
	}

	query := `
		SELECT step, step_id, state
		FROM pipeline_steps
		WHERE run_id = ?
		ORDER BY step ASC
	`

	rows, err := j.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	var records []StepRecord[S]
	for rows.Next() {
		var (
			record    StepRecord[S]
			stateJSON []byte
		)
		if err := rows.Scan(&record.Step, &record.StepID, &stateJSON); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		if err := json.Unmarshal(stateJSON, &record.State); err != nil {
			return nil, fmt.Errorf("failed to unmarshal state for step %d: %w", record.Step, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate steps: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

// Close closes the database. Calling Close more than once is a no-op.
func (j *sqlJournal[S]) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}

// Ping verifies the database connection is alive.
func (j *sqlJournal[S]) Ping(ctx context.Context) error {
	if err := j.checkOpen(); err != nil {
		return err
	}
	return j.db.PingContext(ctx)
}
