package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// migration is one numbered schema change
type migration struct {
	Version     int
	Description string
	Up          func(*sql.Tx) error
}

// migrations is the ordered list of all schema migrations
var migrations = []migration{
	{
		Version:     1,
		Description: "Create schema_version table",
		Up:          migration001Up,
	},
	{
		Version:     2,
		Description: "Create runs table",
		Up:          migration002Up,
	},
	{
		Version:     3,
		Description: "Create run_steps table",
		Up:          migration003Up,
	},
}

// migrate applies every migration newer than the stored version
func (j *Journal) migrate() error {
	current, err := j.Version()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		err := j.execTx(func(tx *sql.Tx) error {
			if err := m.Up(tx); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.Version, err)
			}
			_, err := tx.Exec(`
				INSERT INTO schema_version (version, description, applied_at)
				VALUES (?, ?, ?)
			`, m.Version, m.Description, time.Now().UTC())
			return err
		})
		if err != nil {
			return err
		}

		j.logger.InfoWithContext("journal migrated", map[string]interface{}{
			"version":     m.Version,
			"description": m.Description,
		})
	}
	return nil
}

// Version returns the current schema version, 0 for a new database
func (j *Journal) Version() (int, error) {
	var tableExists bool
	err := j.conn.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableExists)
	if err != nil {
		return 0, err
	}
	if !tableExists {
		return 0, nil
	}

	var version int
	err = j.conn.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// Migration 001: schema version tracking
func migration001Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version INTEGER NOT NULL UNIQUE,
			description TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	return err
}

// Migration 002: one row per script run
func migration002Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			script TEXT NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('started', 'completed', 'failed', 'canceled')),
			started_at DATETIME NOT NULL,
			finished_at DATETIME,
			error_message TEXT
		)
	`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_script ON runs(script, started_at)`)
	return err
}

// Migration 003: per-step outcomes
func migration003Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS run_steps (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			step_index INTEGER NOT NULL,
			action TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			error_message TEXT,
			PRIMARY KEY (run_id, step_index)
		)
	`)
	return err
}
