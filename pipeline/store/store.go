// Package store persists the per-step state journal of a pipeline run.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a requested run ID has no recorded steps.
var ErrNotFound = errors.New("not found")

// ErrClosed is returned by SQL-backed stores after Close.
var ErrClosed = errors.New("store is closed")

// Store records the state produced by each pipeline step.
//
// The journal is write-mostly: the pipeline never resumes from it, but
// operators and tests read it back to inspect how a run progressed.
//
// Implementations:
//   - MemStore: in-process, used by tests and when no journal is configured
//   - SQLiteStore: single-file database via modernc.org/sqlite
//   - MySQLStore: shared database via go-sql-driver/mysql
//
// Type parameter S is the state type to persist (must be JSON-serializable
// for the SQL stores).
type Store[S any] interface {
	// SaveStep persists the state after step number step (1-based)
	// produced by the step named stepID.
	SaveStep(ctx context.Context, runID string, step int, stepID string, state S) error

	// LoadLatest returns the state with the highest step number for runID.
	// Returns ErrNotFound if the run has no steps.
	LoadLatest(ctx context.Context, runID string) (state S, step int, err error)

	// Steps returns every recorded step of runID ordered by step number.
	// Returns ErrNotFound if the run has no steps.
	Steps(ctx context.Context, runID string) ([]StepRecord[S], error)
}

// StepRecord is one journal entry.
type StepRecord[S any] struct {
	Step   int    `json:"step"`
	StepID string `json:"step_id"`
	State  S      `json:"state"`
}

// ClosableStore is a Store holding external resources.
type ClosableStore[S any] interface {
	Store[S]
	Close() error
}

// Open builds a SQL-backed store from a DSN of the form
// "sqlite:<path>" or "mysql:<driver dsn>".
//
// Example:
//
//	st, err := store.Open[analysis.State]("sqlite:./journal.db")
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
func Open[S any](dsn string) (ClosableStore[S], error) {
	scheme, rest, ok := strings.Cut(dsn, ":")
	if !ok || rest == "" {
		return nil, fmt.Errorf("invalid journal DSN %q: expected sqlite:<path> or mysql:<dsn>", dsn)
	}

	switch scheme {
	case "sqlite":
		st, err := NewSQLiteStore[S](rest)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "mysql":
		st, err := NewMySQLStore[S](rest)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("invalid journal DSN %q: unsupported scheme %q", dsn, scheme)
	}
}
