package command

import (
	"context"
	"errors"
	"slices"
	"testing"

	"cadence/internal/lesson"
	"cadence/internal/synth"
)

var voices = synth.Voices{
	lesson.L1: {Name: "en_US-amy-medium", Locale: "en-US", Language: "en"},
	lesson.L2: {Name: "es_ES-davefx-medium", Locale: "es-ES", Language: "es"},
}

func TestSynthesizeExpandsPlaceholders(t *testing.T) {
	s, err := New(`piper --model "{voice}.onnx" --length_scale {length_scale} --lang {lang} --output_file -`, voices, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var gotName string
	var gotArgs []string
	var gotStdin string
	s.WithRunner(func(_ context.Context, name string, args []string, stdin []byte) ([]byte, error) {
		gotName, gotArgs, gotStdin = name, args, string(stdin)
		return []byte("RIFF"), nil
	})

	audio, err := s.Synthesize(context.Background(), synth.Request{Text: "Buenos días", Language: lesson.L2, Rate: 0.8})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "RIFF" {
		t.Fatalf("unexpected audio %q", audio)
	}
	if gotName != "piper" || gotStdin != "Buenos días" {
		t.Fatalf("unexpected invocation %q stdin=%q", gotName, gotStdin)
	}
	want := []string{"--model", "es_ES-davefx-medium.onnx", "--length_scale", "1.250", "--lang", "es", "--output_file", "-"}
	if !slices.Equal(gotArgs, want) {
		t.Fatalf("unexpected args %v", gotArgs)
	}
}

func TestSynthesizeRejectsEmptyOutput(t *testing.T) {
	s, err := New("espeak-ng --stdout -v {lang}", voices, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.WithRunner(func(context.Context, string, []string, []byte) ([]byte, error) { return nil, nil })
	if _, err := s.Synthesize(context.Background(), synth.Request{Text: "Hi", Language: lesson.L1}); err == nil {
		t.Fatal("expected error for empty audio")
	}

	s.WithRunner(func(context.Context, string, []string, []byte) ([]byte, error) { return nil, errors.New("boom") })
	if _, err := s.Synthesize(context.Background(), synth.Request{Text: "Hi", Language: lesson.L1}); err == nil {
		t.Fatal("expected runner error to propagate")
	}
}

func TestNewRejectsEmptyCommand(t *testing.T) {
	if _, err := New("   ", voices, nil); err == nil {
		t.Fatal("expected error")
	}
}
