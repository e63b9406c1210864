package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLStore journals steps to MySQL or MariaDB, for deployments where
// several server instances share one journal.
//
// State snapshots go in a LONGTEXT column rather than JSON: MySQL
// normalizes JSON documents, which would reorder the keys of stored
// model replies.
type MySQLStore[S any] struct {
	sqlJournal[S]
}

const mysqlConnectTimeout = 10 * time.Second

// NewMySQLStore connects with a go-sql-driver DSN such as
//
//	analyzer:secret@tcp(localhost:3306)/analyzer
//
// and creates the pipeline_steps table if needed.
func NewMySQLStore[S any](dsn string) (*MySQLStore[S], error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Timeout == 0 {
		cfg.Timeout = mysqlConnectTimeout
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL config: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), mysqlConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL at %s: %w", cfg.Addr, err)
	}

	const ddl = `
		CREATE TABLE IF NOT EXISTS pipeline_steps (
			run_id VARCHAR(64) NOT NULL,
			step INT NOT NULL,
			step_id VARCHAR(64) NOT NULL,
			state LONGTEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (run_id, step)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create pipeline_steps table: %w", err)
	}

	return &MySQLStore[S]{
		sqlJournal: sqlJournal[S]{
			db: db,
			upsertStep: `INSERT INTO pipeline_steps (run_id, step, step_id, state)
				VALUES (?, ?, ?, ?)
				ON DUPLICATE KEY UPDATE step_id = VALUES(step_id), state = VALUES(state)`,
		},
	}, nil
}

// Stats returns connection pool statistics.
func (m *MySQLStore[S]) Stats() sql.DBStats {
	return m.db.Stats()
}
