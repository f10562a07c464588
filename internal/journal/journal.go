package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"jordanella.com/desktop-pilot/internal/logging"
)

// Journal records script runs in a SQLite database
type Journal struct {
	conn   *sql.DB
	path   string
	logger *logging.Logger
}

// Open opens or creates the journal at path and applies pending migrations
func Open(path string, logger *logging.Logger) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}

	// SQLite allows one writer
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	j := &Journal{conn: conn, path: path, logger: logger}
	if err := j.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	if j.conn != nil {
		return j.conn.Close()
	}
	return nil
}

// Path returns the database file path
func (j *Journal) Path() string {
	return j.path
}

// execTx runs fn within a transaction
func (j *Journal) execTx(fn func(*sql.Tx) error) error {
	tx, err := j.conn.Begin()
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
