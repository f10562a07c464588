package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jordanella.com/desktop-pilot/internal/apperr"
)

// Status is the outcome of a run
type Status string

const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// StatusOf maps a run result to its status. Cancellation is not a failure.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusCompleted
	case apperr.IsCanceled(err):
		return StatusCanceled
	default:
		return StatusFailed
	}
}

// Run is one recorded script execution
type Run struct {
	ID           string
	Script       string
	Status       Status
	StartedAt    time.Time
	FinishedAt   *time.Time
	ErrorMessage string
}

// Duration returns how long a finished run took, 0 while it is running
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// StepRecord is the outcome of one routine step
type StepRecord struct {
	Index        int
	Action       string
	Duration     time.Duration
	ErrorMessage string
}

// Start records the start of a run and returns its ID
func (j *Journal) Start(script string) (string, error) {
	id := uuid.NewString()
	_, err := j.conn.Exec(`
		INSERT INTO runs (id, script, status, started_at)
		VALUES (?, ?, ?, ?)
	`, id, script, StatusStarted, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

// Finish records the outcome of run id from its result
func (j *Journal) Finish(id string, runErr error) error {
	var message sql.NullString
	if runErr != nil {
		message = sql.NullString{String: runErr.Error(), Valid: true}
	}

	result, err := j.conn.Exec(`
		UPDATE runs
		SET status = ?,
		    finished_at = ?,
		    error_message = ?
		WHERE id = ? AND status = ?
	`, StatusOf(runErr), time.Now().UTC(), message, id, StatusStarted)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperr.MissingResource("Journal.Finish", "running run "+id, nil)
	}
	return nil
}

// RecordStep stores the outcome of one step of run id
func (j *Journal) RecordStep(id string, step StepRecord) error {
	var message sql.NullString
	if step.ErrorMessage != "" {
		message = sql.NullString{String: step.ErrorMessage, Valid: true}
	}

	_, err := j.conn.Exec(`
		INSERT INTO run_steps (run_id, step_index, action, duration_ms, error_message)
		VALUES (?, ?, ?, ?, ?)
	`, id, step.Index, step.Action, step.Duration.Milliseconds(), message)
	if err != nil {
		return fmt.Errorf("failed to record step %d of run %s: %w", step.Index, id, err)
	}
	return nil
}

// Get retrieves a run by ID
func (j *Journal) Get(id string) (*Run, error) {
	row := j.conn.QueryRow(`
		SELECT id, script, status, started_at, finished_at, error_message
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.MissingResource("Journal.Get", "run "+id, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// Recent returns the latest runs, newest first. An empty script matches all.
func (j *Journal) Recent(script string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.conn.Query(`
		SELECT id, script, status, started_at, finished_at, error_message
		FROM runs
		WHERE ? = '' OR script = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, script, script, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Steps returns the recorded steps of run id in order
func (j *Journal) Steps(id string) ([]StepRecord, error) {
	rows, err := j.conn.Query(`
		SELECT step_index, action, duration_ms, error_message
		FROM run_steps
		WHERE run_id = ?
		ORDER BY step_index
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var (
			step    StepRecord
			ms      int64
			message sql.NullString
		)
		if err := rows.Scan(&step.Index, &step.Action, &ms, &message); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		step.Duration = time.Duration(ms) * time.Millisecond
		step.ErrorMessage = message.String
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// CountByStatus returns the number of runs of script per status
func (j *Journal) CountByStatus(script string) (map[Status]int, error) {
	rows, err := j.conn.Query(`
		SELECT status, COUNT(*)
		FROM runs
		WHERE script = ?
		GROUP BY status
	`, script)
	if err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run      Run
		finished sql.NullTime
		message  sql.NullString
	)
	if err := s.Scan(&run.ID, &run.Script, &run.Status, &run.StartedAt, &finished, &message); err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	run.ErrorMessage = message.String
	return &run, nil
}
