package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite implementation of Store[S] backed by the pure-Go
// modernc.org/sqlite driver.
//
// Suited to single-process deployments and local runs. The path may be a
// file ("./journal.db") or ":memory:".
//
// Schema:
//   - pipeline_steps: one row per (run_id, step)
type SQLiteStore[S any] struct {
	sqlJournal[S]
	path string
}

// NewSQLiteStore opens (creating if needed) a SQLite journal at path.
//
// Example:
//
//	st, err := store.NewSQLiteStore[analysis.State]("./journal.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
func NewSQLiteStore[S any](path string) (*SQLiteStore[S], error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps a
	// ":memory:" database alive for the lifetime of the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	stepsTable := `
		CREATE TABLE IF NOT EXISTS pipeline_steps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			step_id TEXT NOT NULL,
			state BLOB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(run_id, step)
		)
	`
	if _, err := db.ExecContext(ctx, stepsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create pipeline_steps table: %w", err)
	}

	return &SQLiteStore[S]{
		sqlJournal: sqlJournal[S]{
			db: db,
			upsertStep: `
				INSERT INTO pipeline_steps (run_id, step, step_id, state)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(run_id, step) DO UPDATE SET
					step_id = excluded.step_id,
					state = excluded.state
			`,
		},
		path: path,
	}, nil
}

// Path returns the database path the store was opened with.
func (s *SQLiteStore[S]) Path() string {
	return s.path
}
