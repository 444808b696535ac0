package timeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cadence/internal/lesson"
	"cadence/internal/services"
	"cadence/internal/testsupport"
)

func result(cfgDir, name string, duration float64, timings ...lesson.FragmentTiming) *lesson.SegmentAudioResult {
	return &lesson.SegmentAudioResult{
		AudioPath:       filepath.Join(cfgDir, "audio", name),
		Duration:        duration,
		FragmentTimings: timings,
	}
}

func TestResolveRole(t *testing.T) {
	cases := []struct {
		name    string
		segment lesson.SegmentScript
		want    string
	}{
		{"objective prefix", lesson.SegmentScript{ID: "objective_1"}, RoleObjective},
		{"vocab prefix any case", lesson.SegmentScript{ID: "VOCAB-3"}, RoleVocabulary},
		{"grammar prefix", lesson.SegmentScript{ID: "grammar_intro"}, RoleGrammar},
		{"practice prefix", lesson.SegmentScript{ID: "practice2"}, RolePractice},
		{"fallback", lesson.SegmentScript{ID: "welcome"}, RoleContent},
		{"explicit role wins over prefix", lesson.SegmentScript{ID: "practice_1", ScreenRole: "Summary"}, "summary"},
		{"vocab anchor overrides everything", lesson.SegmentScript{ID: "grammar_1", ScreenRole: "grammar", VocabAnchor: "perro"}, RoleVocabulary},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveRole(tc.segment); got != tc.want {
				t.Fatalf("ResolveRole = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCompileIsContiguous(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	c := NewCompiler(cfg, nil)
	dir := cfg.LessonDir("l1")
	pairs := []Pair{
		{Segment: lesson.SegmentScript{ID: "objective"}, Result: result(dir, "objective.wav", 3.2)},
		{Segment: lesson.SegmentScript{ID: "vocab_1", VocabAnchor: "gato"}, Result: result(dir, "vocab_1.wav", 1.7)},
		{Segment: lesson.SegmentScript{ID: "practice_1"}, Result: result(dir, "practice_1.wav", 4.1)},
	}

	tl, err := c.Compile("l1", pairs)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(tl.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(tl.Entries))
	}
	if tl.Entries[0].StartTime != 0 {
		t.Fatalf("first entry must start at 0")
	}
	for i := 0; i+1 < len(tl.Entries); i++ {
		if tl.Entries[i].EndTime != tl.Entries[i+1].StartTime {
			t.Fatalf("gap between %d and %d: %v != %v", i, i+1, tl.Entries[i].EndTime, tl.Entries[i+1].StartTime)
		}
	}
	if tl.TotalDuration != tl.Entries[2].EndTime {
		t.Fatalf("total %v != last end %v", tl.TotalDuration, tl.Entries[2].EndTime)
	}
	if tl.Entries[1].ScreenRole != RoleVocabulary || tl.Entries[2].ScreenRole != RolePractice {
		t.Fatalf("unexpected roles %q %q", tl.Entries[1].ScreenRole, tl.Entries[2].ScreenRole)
	}
	if tl.Entries[0].AudioRef != "audio/objective.wav" {
		t.Fatalf("unexpected audio ref %q", tl.Entries[0].AudioRef)
	}
}

func TestCompileMissingResultIsFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	c := NewCompiler(cfg, nil)
	dir := cfg.LessonDir("l1")
	pairs := []Pair{
		{Segment: lesson.SegmentScript{ID: "a"}, Result: result(dir, "a.wav", 1)},
		{Segment: lesson.SegmentScript{ID: "b"}},
	}
	_, err := c.CompileLesson(context.Background(), "l1", pairs, "")
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected missing input, got %v", err)
	}
	if c.Exists("l1") {
		t.Fatalf("no timeline may be written after a missing result")
	}
	if _, statErr := os.Stat(c.ManifestPath("l1")); !os.IsNotExist(statErr) {
		t.Fatalf("no manifest may be written, stat err=%v", statErr)
	}
}

func TestVisualRefPrefersCompressedThenUncompressed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	c := NewCompiler(cfg, nil)
	dir := cfg.LessonDir("l1")

	if got := c.visualRef(dir, "dog"); got != "images/dog.webp" {
		t.Fatalf("expected compressed default, got %q", got)
	}
	testsupport.WriteFile(t, filepath.Join(dir, "images", "dog.png"), 10)
	if got := c.visualRef(dir, "dog"); got != "images/dog.png" {
		t.Fatalf("expected uncompressed fallback, got %q", got)
	}
	testsupport.WriteFile(t, filepath.Join(dir, "images", "dog.webp"), 10)
	if got := c.visualRef(dir, "dog"); got != "images/dog.webp" {
		t.Fatalf("expected compressed variant, got %q", got)
	}
	if got := c.visualRef(dir, " "); got != "" {
		t.Fatalf("expected no ref without key, got %q", got)
	}
}

func TestCompileLessonWritesArtifactsThenSkips(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	c := NewCompiler(cfg, nil)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.WithClock(func() time.Time { return fixed })
	dir := cfg.LessonDir("l1")

	timings := []lesson.FragmentTiming{
		{Content: "Hello", LanguageTag: lesson.L1, Duration: 1, StartOffset: 0, EndOffset: 1},
		{Content: "Hola", LanguageTag: lesson.L2, Duration: 1.5, StartOffset: 1, EndOffset: 2.5},
	}
	pairs := []Pair{
		{Segment: lesson.SegmentScript{ID: "intro", Fragments: []lesson.TextFragment{{Content: "Hello", LanguageTag: lesson.L1}, {Content: "Hola", LanguageTag: lesson.L2}}}, Result: result(dir, "intro.wav", 2.5, timings...)},
		{Segment: lesson.SegmentScript{ID: "practice_1", VisualResourceKey: "cafe"}, Result: result(dir, "practice_1.wav", 2)},
	}

	first, err := c.CompileLesson(context.Background(), "l1", pairs, "audio/lesson.wav")
	if err != nil {
		t.Fatalf("CompileLesson: %v", err)
	}
	if first.Skipped {
		t.Fatalf("first compile must not be skipped")
	}

	var manifest Manifest
	data, err := os.ReadFile(c.ManifestPath("l1"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if len(manifest.Segments) != 2 || manifest.TotalDuration != 4.5 || !manifest.GeneratedAt.Equal(fixed) {
		t.Fatalf("unexpected manifest %+v", manifest)
	}
	if manifest.Segments[0].FileName != "intro.wav" || manifest.Segments[0].Text != "Hello Hola" || len(manifest.Segments[0].FragmentTimings) != 2 {
		t.Fatalf("unexpected manifest segment %+v", manifest.Segments[0])
	}
	if manifest.Segments[1].StartTime != 2.5 || manifest.Segments[1].FragmentTimings != nil {
		t.Fatalf("unexpected second manifest segment %+v", manifest.Segments[1])
	}

	raw, err := os.ReadFile(c.TimelinePath("l1"))
	if err != nil {
		t.Fatalf("read timeline: %v", err)
	}
	var shape map[string]any
	if err := json.Unmarshal(raw, &shape); err != nil {
		t.Fatalf("decode timeline: %v", err)
	}
	lessonObj, ok := shape["lesson"].(map[string]any)
	if !ok || shape["audioUrl"] != "audio/lesson.wav" {
		t.Fatalf("unexpected timeline shape %v", shape)
	}
	if _, ok := lessonObj["segmentBasedTiming"].([]any); !ok {
		t.Fatalf("missing segmentBasedTiming in %v", lessonObj)
	}

	doc, err := Load(c.TimelinePath("l1"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Lesson.Entries[1].VisualRef != "images/cafe.webp" {
		t.Fatalf("unexpected visual ref %q", doc.Lesson.Entries[1].VisualRef)
	}

	info, err := os.Stat(c.TimelinePath("l1"))
	if err != nil {
		t.Fatalf("stat timeline: %v", err)
	}
	second, err := c.CompileLesson(context.Background(), "l1", nil, "")
	if err != nil {
		t.Fatalf("second CompileLesson: %v", err)
	}
	if !second.Skipped {
		t.Fatalf("second compile should be skipped")
	}
	if second.Document.Lesson.TotalDuration != 4.5 {
		t.Fatalf("expected cached document, got %+v", second.Document.Lesson)
	}
	after, err := os.Stat(c.TimelinePath("l1"))
	if err != nil {
		t.Fatalf("stat timeline: %v", err)
	}
	if !after.ModTime().Equal(info.ModTime()) {
		t.Fatalf("cached compile must not rewrite the timeline")
	}
}

func TestCompileLessonWritesEmptyAudioURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	c := NewCompiler(cfg, nil)
	dir := cfg.LessonDir("l2")
	pairs := []Pair{
		{Segment: lesson.SegmentScript{ID: "intro"}, Result: result(dir, "intro.wav", 2)},
	}
	if _, err := c.CompileLesson(context.Background(), "l2", pairs, ""); err != nil {
		t.Fatalf("CompileLesson: %v", err)
	}
	raw, err := os.ReadFile(c.TimelinePath("l2"))
	if err != nil {
		t.Fatalf("read timeline: %v", err)
	}
	var shape map[string]any
	if err := json.Unmarshal(raw, &shape); err != nil {
		t.Fatalf("decode timeline: %v", err)
	}
	url, ok := shape["audioUrl"]
	if !ok || url != "" {
		t.Fatalf("expected empty audioUrl key, got %v", shape)
	}
}

func TestValidateRejectsGaps(t *testing.T) {
	tl := Timeline{
		Entries: []Entry{
			{SegmentID: "a", StartTime: 0, EndTime: 1, Duration: 1},
			{SegmentID: "b", StartTime: 1.5, EndTime: 2.5, Duration: 1},
		},
		TotalDuration: 2.5,
	}
	if err := Validate(tl); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	tl.Entries[1].StartTime = 1
	tl.Entries[1].EndTime = 2
	tl.TotalDuration = 2
	if err := Validate(tl); err != nil {
		t.Fatalf("expected valid timeline, got %v", err)
	}
	if err := Validate(Timeline{}); err != nil {
		t.Fatalf("empty timeline should be valid: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "timeline.json"))
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected missing input, got %v", err)
	}
}
