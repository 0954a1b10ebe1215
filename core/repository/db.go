package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DB wraps the database connection pool
type DB struct {
	*sql.DB
}

// NewDB opens a Postgres connection pool and verifies it.
func NewDB(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &DB{DB: db}, nil
}

// EnsureSchema creates the tables the dashboard needs if they do not
// exist yet.
func (db *DB) EnsureSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			model_type TEXT NOT NULL DEFAULT '',
			task_type TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			progress INT NOT NULL DEFAULT 0,
			total_epochs INT NOT NULL DEFAULT 0,
			metrics_json JSONB NOT NULL DEFAULT '{}',
			history_json JSONB NOT NULL DEFAULT '[]',
			start_time TIMESTAMPTZ,
			elapsed_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
			message TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS job_transitions (
			id BIGSERIAL PRIMARY KEY,
			job_id TEXT NOT NULL,
			at TIMESTAMPTZ NOT NULL,
			from_status TEXT,
			to_status TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_job_transitions_job_id ON job_transitions (job_id, at);

		CREATE TABLE IF NOT EXISTS job_checkpoints (
			job_id TEXT NOT NULL,
			epoch INT NOT NULL,
			loss DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (job_id, epoch)
		);
	`
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
