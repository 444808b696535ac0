package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cadence/internal/lesson"
	"cadence/internal/store"
	"cadence/internal/testsupport"
)

func TestSaveAndLoadSegment(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec := store.SegmentRecord{
		LessonID:  "lesson-1",
		SegmentID: "intro",
		Position:  0,
		Provider:  "tone",
		Result: lesson.SegmentAudioResult{
			AudioPath: "/tmp/intro.wav",
			Duration:  3.5,
			FragmentTimings: []lesson.FragmentTiming{
				{Content: "Hola", LanguageTag: lesson.L2, Duration: 3.5, StartOffset: 0, EndOffset: 3.5, AuxiliaryTranslation: "Hello"},
			},
		},
	}
	if err := s.SaveSegment(ctx, rec); err != nil {
		t.Fatalf("SaveSegment: %v", err)
	}

	got, err := s.Segment(ctx, "lesson-1", "intro")
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if got == nil || got.Result.Duration != 3.5 || got.Provider != "tone" {
		t.Fatalf("unexpected record %#v", got)
	}
	if len(got.Result.FragmentTimings) != 1 || got.Result.FragmentTimings[0].AuxiliaryTranslation != "Hello" {
		t.Fatalf("fragment timings not round-tripped: %#v", got.Result.FragmentTimings)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected created timestamp")
	}

	missing, err := s.Segment(ctx, "lesson-1", "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing segment, got %#v err=%v", missing, err)
	}
}

func TestSegmentsOrderedByPositionAndReplaced(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i, id := range []string{"b", "a", "c"} {
		if err := s.SaveSegment(ctx, store.SegmentRecord{LessonID: "l", SegmentID: id, Position: i, Result: lesson.SegmentAudioResult{AudioPath: id + ".wav", Duration: 1}}); err != nil {
			t.Fatalf("SaveSegment: %v", err)
		}
	}
	if err := s.SaveSegment(ctx, store.SegmentRecord{LessonID: "l", SegmentID: "a", Position: 1, Result: lesson.SegmentAudioResult{AudioPath: "a.wav", Duration: 2}}); err != nil {
		t.Fatalf("SaveSegment replace: %v", err)
	}

	recs, err := s.Segments(ctx, "l")
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}
	if len(recs) != 3 || recs[0].SegmentID != "b" || recs[1].SegmentID != "a" || recs[2].SegmentID != "c" {
		t.Fatalf("unexpected order %#v", recs)
	}
	if recs[1].Result.Duration != 2 {
		t.Fatalf("expected replaced duration, got %v", recs[1].Result.Duration)
	}

	lessons, err := s.Lessons(ctx)
	if err != nil || len(lessons) != 1 || lessons[0] != "l" {
		t.Fatalf("unexpected lessons %v err=%v", lessons, err)
	}

	n, err := s.ClearLesson(ctx, "l")
	if err != nil || n != 3 {
		t.Fatalf("ClearLesson = %d, %v", n, err)
	}
}

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.BeginRun(ctx, store.Run{ID: "run-1", LessonID: "l", StartedAt: start, SegmentsTotal: 4}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := s.BeginRun(ctx, store.Run{ID: "run-2", LessonID: "l", StartedAt: start.Add(time.Minute)}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := s.FinishRun(ctx, store.Run{ID: "run-1", Status: store.RunFailed, SegmentsTotal: 4, FailedSegment: "vocab_2", ErrorKind: "synthesis", ErrorMessage: "boom"}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := s.Runs(ctx, "l", 10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-2" {
		t.Fatalf("expected newest first, got %#v", runs)
	}
	failed := runs[1]
	if failed.Status != store.RunFailed || failed.FailedSegment != "vocab_2" || failed.ErrorKind != "synthesis" || failed.FinishedAt == nil {
		t.Fatalf("unexpected failed run %#v", failed)
	}
	if !failed.StartedAt.Equal(start) {
		t.Fatalf("started_at not round-tripped: %v", failed.StartedAt)
	}
	if runs[0].Status != store.RunRunning {
		t.Fatalf("expected running status, got %s", runs[0].Status)
	}

	if err := s.FinishRun(ctx, store.Run{ID: "missing", Status: store.RunCompleted}); err == nil {
		t.Fatal("expected error finishing unknown run")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	if filepath.Base(s.Path()) != "cadence.db" {
		t.Fatalf("unexpected db path %q", s.Path())
	}

	reopened, err := store.OpenPath(s.Path())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = reopened.Close()

	db, err := sql.Open("sqlite", s.Path())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := store.OpenPath(s.Path()); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
