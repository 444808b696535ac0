package lesson_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cadence/internal/lesson"
	"cadence/internal/services"
)

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestLoadScriptJSONArray(t *testing.T) {
	path := writeScript(t, "script.json", `[
  {"id": "objective_1", "fragments": [{"content": "Today we learn greetings.", "languageTag": "l1"}]},
  {"id": "vocab_1", "vocabAnchor": "hola", "visualResourceKey": "hola-card", "fragments": [
    {"content": "Hola", "languageTag": "L2", "synthesisRate": 0.7, "auxiliaryTranslation": "Hello"},
    {"content": "means hello.", "languageTag": "L1"}
  ]}
]`)

	script, err := lesson.LoadScript(path, "lesson-1")
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	if script.LessonID != "lesson-1" {
		t.Fatalf("expected fallback lesson id, got %q", script.LessonID)
	}
	if len(script.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(script.Segments))
	}
	if script.Segments[0].Fragments[0].LanguageTag != lesson.L1 {
		t.Fatalf("expected normalized L1 tag, got %q", script.Segments[0].Fragments[0].LanguageTag)
	}
	vocab, ok := script.SegmentByID("vocab_1")
	if !ok {
		t.Fatal("expected vocab_1 segment")
	}
	if got := vocab.Fragments[0].Rate(1.0); got != 0.7 {
		t.Fatalf("expected explicit rate 0.7, got %v", got)
	}
	if got := vocab.Fragments[1].Rate(0.9); got != 0.9 {
		t.Fatalf("expected fallback rate, got %v", got)
	}
	if vocab.Text() != "Hola means hello." {
		t.Fatalf("unexpected text %q", vocab.Text())
	}
}

func TestLoadScriptYAMLObject(t *testing.T) {
	path := writeScript(t, "script.yaml", `
lessonId: spanish-101
segments:
  - id: practice_1
    screenRole: practice
    fragments:
      - content: "Repeat after me:"
        languageTag: L1
      - content: "¿Cómo estás?"
        languageTag: L2
        auxiliaryTranslation: How are you?
`)
	script, err := lesson.LoadScript(path, "ignored")
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	if script.LessonID != "spanish-101" {
		t.Fatalf("unexpected lesson id %q", script.LessonID)
	}
	segment := script.Segments[0]
	if segment.ScreenRole != "practice" || len(segment.Fragments) != 2 {
		t.Fatalf("unexpected segment %+v", segment)
	}
	if segment.Fragments[1].AuxiliaryTranslation != "How are you?" {
		t.Fatalf("unexpected translation %q", segment.Fragments[1].AuxiliaryTranslation)
	}
}

func TestLoadScriptMissingFile(t *testing.T) {
	_, err := lesson.LoadScript(filepath.Join(t.TempDir(), "script.json"), "x")
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected missing input, got %v", err)
	}
}

func TestLoadScriptValidation(t *testing.T) {
	cases := map[string]string{
		"empty content": `[{"id": "a", "fragments": [{"content": "  ", "languageTag": "L1"}]}]`,
		"bad tag":       `[{"id": "a", "fragments": [{"content": "hi", "languageTag": "L3"}]}]`,
		"duplicate id":  `[{"id": "a", "fragments": []}, {"id": "a", "fragments": []}]`,
		"missing id":    `[{"fragments": []}]`,
		"bad rate":      `[{"id": "a", "fragments": [{"content": "hi", "languageTag": "L1", "synthesisRate": 0}]}]`,
		"malformed":     `{"segments": [`,
		"stem clash":    `[{"id": "intro 1", "fragments": []}, {"id": "intro_1", "fragments": []}]`,
		"case clash":    `[{"id": "Intro", "fragments": []}, {"id": "intro", "fragments": []}]`,
		"unsafe clash":  `[{"id": "a?", "fragments": []}, {"id": "a", "fragments": []}]`,
		"reserved stem": `[{"id": "lesson", "fragments": []}]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := lesson.LoadScript(writeScript(t, "script.json", body), "x")
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestParseLanguageTag(t *testing.T) {
	if tag, err := lesson.ParseLanguageTag(" l2 "); err != nil || tag != lesson.L2 {
		t.Fatalf("unexpected parse result %q %v", tag, err)
	}
	if _, err := lesson.ParseLanguageTag("en"); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestNormalizeAcceptsDistinctStems(t *testing.T) {
	script := lesson.Script{Segments: []lesson.SegmentScript{
		{ID: "greet_part_0"},
		{ID: "greet"},
		{ID: "lesson_intro"},
	}}
	if err := script.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := lesson.FileStem("intro 1"); got != "intro_1" {
		t.Fatalf("FileStem = %q, want intro_1", got)
	}
}
