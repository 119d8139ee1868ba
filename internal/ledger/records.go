package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the recorded outcome of a run.
type Status string

const (
	// StatusRunning marks a run that started and has not finished. A row
	// stuck in this state means the process died mid-run.
	StatusRunning Status = "running"
	// StatusCompleted marks a run that persisted its batch (possibly empty
	// of sync additions).
	StatusCompleted Status = "completed"
	// StatusFailed marks a run that aborted on a fatal stage error.
	StatusFailed Status = "failed"
	// StatusNoop marks a run whose queue was empty or fully deduplicated.
	StatusNoop Status = "noop"
)

// RunRecord captures the outcome of a single pipeline run.
type RunRecord struct {
	ID           int64
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time // zero until the run finishes
	Status       Status
	Processed    int
	Skipped      int
	Failed       int
	Persisted    int
	Synced       int
	ErrorMessage string
}

// Totals aggregates lifetime counters for the status report.
type Totals struct {
	Runs      int
	Persisted int
	Synced    int
}

// Timestamps are stored second-precision RFC3339 in UTC so lexicographic
// comparison in SQL matches chronological order.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// RecordStart inserts a running row for the run.
func (s *Store) RecordStart(ctx context.Context, runID string, startedAt time.Time) error {
	if strings.TrimSpace(runID) == "" {
		return errors.New("ledger: run id required")
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO runs (run_id, started_at, status) VALUES (?, ?, ?)`,
		runID, formatTime(startedAt), string(StatusRunning),
	); err != nil {
		return fmt.Errorf("record run start: %w", err)
	}
	return nil
}

// RecordFinish updates the run row with its final status and counters. When
// the start was never recorded the full row is inserted instead, so a finish
// is never lost.
func (s *Store) RecordFinish(ctx context.Context, rec RunRecord) error {
	if strings.TrimSpace(rec.RunID) == "" {
		return errors.New("ledger: run id required")
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now()
	}

	res, err := s.execWithRetry(ctx,
		`UPDATE runs
         SET finished_at = ?, status = ?, processed = ?, skipped = ?, failed = ?,
             persisted = ?, synced = ?, error_message = ?
         WHERE run_id = ?`,
		formatTime(rec.FinishedAt), string(rec.Status),
		rec.Processed, rec.Skipped, rec.Failed, rec.Persisted, rec.Synced,
		nullableString(rec.ErrorMessage), rec.RunID,
	)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	if affected > 0 {
		return nil
	}

	startedAt := rec.StartedAt
	if startedAt.IsZero() {
		startedAt = rec.FinishedAt
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, status, processed, skipped, failed, persisted, synced, error_message)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, formatTime(startedAt), formatTime(rec.FinishedAt), string(rec.Status),
		rec.Processed, rec.Skipped, rec.Failed, rec.Persisted, rec.Synced,
		nullableString(rec.ErrorMessage),
	); err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

const runColumns = `id, run_id, started_at, finished_at, status, processed, skipped, failed, persisted, synced, error_message`

func scanRun(row interface{ Scan(dest ...any) error }) (RunRecord, error) {
	var (
		rec          RunRecord
		startedAt    string
		finishedAt   sql.NullString
		status       string
		errorMessage sql.NullString
	)
	if err := row.Scan(
		&rec.ID, &rec.RunID, &startedAt, &finishedAt, &status,
		&rec.Processed, &rec.Skipped, &rec.Failed, &rec.Persisted, &rec.Synced,
		&errorMessage,
	); err != nil {
		return RunRecord{}, err
	}

	rec.Status = Status(status)
	rec.ErrorMessage = errorMessage.String

	parsed, err := time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return RunRecord{}, fmt.Errorf("parse started_at: %w", err)
	}
	rec.StartedAt = parsed
	if finishedAt.Valid {
		parsed, err := time.Parse(time.RFC3339, finishedAt.String)
		if err != nil {
			return RunRecord{}, fmt.Errorf("parse finished_at: %w", err)
		}
		rec.FinishedAt = parsed
	}
	return rec, nil
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return records, nil
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryRuns(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
}

// RunsOn returns runs started on the given calendar day, interpreted in the
// day's own location, newest first.
func (s *Store) RunsOn(ctx context.Context, day time.Time) ([]RunRecord, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	return s.queryRuns(ctx,
		`SELECT `+runColumns+` FROM runs WHERE started_at >= ? AND started_at < ? ORDER BY started_at DESC, id DESC`,
		formatTime(start), formatTime(end))
}

// Totals returns lifetime aggregates across all recorded runs.
func (s *Store) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1), COALESCE(SUM(persisted), 0), COALESCE(SUM(synced), 0) FROM runs`,
	).Scan(&t.Runs, &t.Persisted, &t.Synced)
	if err != nil {
		return Totals{}, fmt.Errorf("ledger totals: %w", err)
	}
	return t, nil
}
