package index

import (
	"fmt"
	"time"
)

// Run statuses.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// RunRow is one recorded analysis run.
type RunRow struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Output     string    `json:"output,omitempty"`
	Status     string    `json:"status"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RecordRun stores the outcome of an analysis run.
func (db *DB) RecordRun(r RunRow) error {
	_, err := db.conn.Exec(`
		INSERT INTO analysis_runs (id, source, output, status, error_kind, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Source, r.Output, r.Status, r.ErrorKind, r.Error, r.StartedAt.UTC(), r.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: record run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A non-empty source limits
// the result to runs of that note.
func (db *DB) ListRuns(source string, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, source, output, status, error_kind, error, started_at, finished_at FROM analysis_runs`
	args := []any{}
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.Source, &r.Output, &r.Status, &r.ErrorKind, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
