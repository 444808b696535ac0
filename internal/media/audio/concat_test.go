package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"cadence/internal/logging"
	"cadence/internal/services"
)

type recordedCall struct {
	name string
	args []string
	list string
}

// fakeFFmpeg writes the output path (last arg) unless the attempt index is in failOn.
func fakeFFmpeg(calls *[]recordedCall, failOn ...int) commandRunner {
	return func(_ context.Context, name string, args ...string) error {
		idx := len(*calls)
		listPath := args[slices.Index(args, "-i")+1]
		list, _ := os.ReadFile(listPath)
		*calls = append(*calls, recordedCall{name: name, args: args, list: string(list)})
		dest := args[len(args)-1]
		if slices.Contains(failOn, idx) {
			_ = os.WriteFile(dest, []byte("partial"), 0o644)
			return errors.New("exit status 1")
		}
		return os.WriteFile(dest, []byte("joined"), 0o644)
	}
}

func makeParts(t *testing.T, dir string, n int) []string {
	t.Helper()
	parts := make([]string, n)
	for i := range parts {
		parts[i] = filepath.Join(dir, "seg_part_"+string(rune('0'+i))+".mp3")
		if err := os.WriteFile(parts[i], []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return parts
}

func TestConcatenateStreamCopy(t *testing.T) {
	dir := t.TempDir()
	parts := makeParts(t, dir, 2)
	dest := filepath.Join(dir, "seg.mp3")

	var calls []recordedCall
	c := NewConcatenator("ffmpeg", 24000, 1, logging.NewNop())
	c.WithCommandRunner(fakeFFmpeg(&calls))

	if err := c.Concatenate(context.Background(), parts, dest); err != nil {
		t.Fatalf("Concatenate: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected one ffmpeg call, got %d", len(calls))
	}
	if !slices.Contains(calls[0].args, "copy") {
		t.Fatalf("expected stream copy args, got %v", calls[0].args)
	}
	if !strings.Contains(calls[0].list, "seg_part_0.mp3") || strings.Index(calls[0].list, "seg_part_0") > strings.Index(calls[0].list, "seg_part_1") {
		t.Fatalf("unexpected concat list %q", calls[0].list)
	}
	if _, err := os.Stat(dest + ".concat.txt"); !os.IsNotExist(err) {
		t.Fatal("expected concat list removed")
	}
}

func TestConcatenateRetriesOnceWithReencode(t *testing.T) {
	dir := t.TempDir()
	parts := makeParts(t, dir, 3)
	dest := filepath.Join(dir, "seg.mp3")

	var calls []recordedCall
	c := NewConcatenator("ffmpeg", 24000, 1, logging.NewNop())
	c.WithCommandRunner(fakeFFmpeg(&calls, 0))

	if err := c.Concatenate(context.Background(), parts, dest); err != nil {
		t.Fatalf("Concatenate: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected copy + re-encode, got %d calls", len(calls))
	}
	args := strings.Join(calls[1].args, " ")
	for _, want := range []string{"-ar 24000", "-ac 1", "-c:a libmp3lame", "-sample_fmt s16p"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in re-encode args %q", want, args)
		}
	}
}

func TestConcatenateFailsAfterSingleRetry(t *testing.T) {
	dir := t.TempDir()
	parts := makeParts(t, dir, 2)
	dest := filepath.Join(dir, "seg.wav")

	var calls []recordedCall
	c := NewConcatenator("ffmpeg", 24000, 1, logging.NewNop())
	c.WithCommandRunner(fakeFFmpeg(&calls, 0, 1, 2))

	err := c.Concatenate(context.Background(), parts, dest)
	if !errors.Is(err, services.ErrConcatenation) {
		t.Fatalf("expected concatenation error, got %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected exactly two attempts, got %d", len(calls))
	}
	if !strings.Contains(strings.Join(calls[1].args, " "), "-c:a pcm_s16le") {
		t.Fatalf("expected wav encoder, got %v", calls[1].args)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatal("expected partial output removed")
	}
}

func TestConcatenateRejectsEmptyInput(t *testing.T) {
	c := NewConcatenator("", 0, 0, nil)
	err := c.Concatenate(context.Background(), nil, filepath.Join(t.TempDir(), "x.mp3"))
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected missing input, got %v", err)
	}
}

func TestWriteConcatListEscapesQuotes(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "list.txt")
	if err := writeConcatList(list, []string{filepath.Join(dir, "it's.mp3")}); err != nil {
		t.Fatalf("writeConcatList: %v", err)
	}
	data, _ := os.ReadFile(list)
	if !strings.Contains(string(data), `it'\''s.mp3'`) {
		t.Fatalf("expected escaped quote, got %q", data)
	}
}
