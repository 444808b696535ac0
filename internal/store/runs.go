package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RunStatus is the outcome of a lesson build.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunCached    RunStatus = "cached"
	RunFailed    RunStatus = "failed"
)

// Run is one recorded lesson build attempt.
type Run struct {
	ID             string
	LessonID       string
	Status         RunStatus
	StartedAt      time.Time
	FinishedAt     *time.Time
	SegmentsTotal  int
	SegmentsReused int
	FailedSegment  string
	ErrorKind      string
	ErrorMessage   string
	TimelinePath   string
}

const runColumns = "run_id, lesson_id, status, started_at, finished_at, segments_total, segments_reused, failed_segment, error_kind, error_message, timeline_path"

// BeginRun inserts a running build record.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.ID == "" || run.LessonID == "" {
		return errors.New("run id and lesson id are required")
	}
	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO lesson_runs (run_id, lesson_id, status, started_at, segments_total) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.LessonID, RunRunning, nullableTime(&started), run.SegmentsTotal,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a build.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	finished := time.Now()
	if run.FinishedAt != nil {
		finished = *run.FinishedAt
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE lesson_runs SET status = ?, finished_at = ?, segments_total = ?, segments_reused = ?,
            failed_segment = ?, error_kind = ?, error_message = ?, timeline_path = ?
        WHERE run_id = ?`,
		run.Status,
		nullableTime(&finished),
		run.SegmentsTotal,
		run.SegmentsReused,
		nullableString(run.FailedSegment),
		nullableString(run.ErrorKind),
		nullableString(run.ErrorMessage),
		nullableString(run.TimelinePath),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: run %s not found", run.ID)
	}
	return nil
}

// Runs lists recent builds, newest first. An empty lessonID lists all lessons.
func (s *Store) Runs(ctx context.Context, lessonID string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + runColumns + ` FROM lesson_runs`
	args := []any{}
	if lessonID != "" {
		query += ` WHERE lesson_id = ?`
		args = append(args, lessonID)
	}
	query += ` ORDER BY started_at DESC, run_id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run           Run
		status        string
		startedRaw    string
		finishedRaw   sql.NullString
		failedSegment sql.NullString
		errorKind     sql.NullString
		errorMessage  sql.NullString
		timelinePath  sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.LessonID,
		&status,
		&startedRaw,
		&finishedRaw,
		&run.SegmentsTotal,
		&run.SegmentsReused,
		&failedSegment,
		&errorKind,
		&errorMessage,
		&timelinePath,
	); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	run.FailedSegment = failedSegment.String
	run.ErrorKind = errorKind.String
	run.ErrorMessage = errorMessage.String
	run.TimelinePath = timelinePath.String
	return &run, nil
}
