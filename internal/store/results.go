package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cadence/internal/lesson"
)

// SegmentRecord is a stored segment result.
type SegmentRecord struct {
	LessonID  string
	SegmentID string
	Position  int
	Provider  string
	CreatedAt time.Time
	Result    lesson.SegmentAudioResult
}

const segmentColumns = "lesson_id, segment_id, position, audio_path, duration, fragment_timings_json, provider, created_at"

// SaveSegment records the result of assembling a segment. A segment that is
// re-assembled after its audio went missing replaces the earlier row.
func (s *Store) SaveSegment(ctx context.Context, rec SegmentRecord) error {
	if rec.LessonID == "" || rec.SegmentID == "" {
		return errors.New("lesson id and segment id are required")
	}
	timings, err := json.Marshal(rec.Result.FragmentTimings)
	if err != nil {
		return fmt.Errorf("marshal fragment timings: %w", err)
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = s.execWithRetry(ctx,
		`INSERT OR REPLACE INTO segment_results (`+segmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.LessonID,
		rec.SegmentID,
		rec.Position,
		rec.Result.AudioPath,
		rec.Result.Duration,
		string(timings),
		nullableString(rec.Provider),
		nullableTime(&created),
	)
	if err != nil {
		return fmt.Errorf("save segment %s/%s: %w", rec.LessonID, rec.SegmentID, err)
	}
	return nil
}

// Segment returns the stored result for a segment, or nil when none exists.
func (s *Store) Segment(ctx context.Context, lessonID, segmentID string) (*SegmentRecord, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+segmentColumns+` FROM segment_results WHERE lesson_id = ? AND segment_id = ?`,
		lessonID, segmentID,
	)
	rec, err := scanSegment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load segment %s/%s: %w", lessonID, segmentID, err)
	}
	return rec, nil
}

// Segments lists a lesson's stored results in script order.
func (s *Store) Segments(ctx context.Context, lessonID string) ([]*SegmentRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+segmentColumns+` FROM segment_results WHERE lesson_id = ? ORDER BY position, segment_id`,
		lessonID,
	)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var out []*SegmentRecord
	for rows.Next() {
		rec, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ClearLesson deletes every stored result for a lesson.
func (s *Store) ClearLesson(ctx context.Context, lessonID string) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM segment_results WHERE lesson_id = ?`, lessonID)
	if err != nil {
		return 0, fmt.Errorf("clear lesson %s: %w", lessonID, err)
	}
	return res.RowsAffected()
}

// Lessons lists lesson ids with at least one stored result.
func (s *Store) Lessons(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT DISTINCT lesson_id FROM segment_results ORDER BY lesson_id`)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanSegment(scanner interface{ Scan(dest ...any) error }) (*SegmentRecord, error) {
	var (
		rec        SegmentRecord
		timings    sql.NullString
		provider   sql.NullString
		createdRaw sql.NullString
	)
	if err := scanner.Scan(
		&rec.LessonID,
		&rec.SegmentID,
		&rec.Position,
		&rec.Result.AudioPath,
		&rec.Result.Duration,
		&timings,
		&provider,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	rec.Provider = provider.String
	if timings.Valid && timings.String != "" && timings.String != "null" {
		if err := json.Unmarshal([]byte(timings.String), &rec.Result.FragmentTimings); err != nil {
			return nil, fmt.Errorf("decode fragment timings: %w", err)
		}
	}
	if createdRaw.Valid {
		if created, err := parseTimeString(createdRaw.String); err == nil {
			rec.CreatedAt = created
		}
	}
	return &rec, nil
}
