package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cadence/internal/logging"
	"cadence/internal/media/ffprobe"
	"cadence/internal/services"
)

func writeSized(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func failingInspector(context.Context, string, string) (ffprobe.Result, error) {
	return ffprobe.Result{}, errors.New("exit status 1")
}

func TestDurationUsesProbeResult(t *testing.T) {
	prober := NewProber("ffprobe", logging.NewNop())
	var gotBinary string
	prober.WithInspector(func(_ context.Context, binary, _ string) (ffprobe.Result, error) {
		gotBinary = binary
		return ffprobe.Result{Format: ffprobe.Format{Duration: "3.25"}}, nil
	})

	got, err := prober.Duration(context.Background(), writeSized(t, 10))
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if got != 3.25 {
		t.Fatalf("expected probed duration, got %v", got)
	}
	if gotBinary != "ffprobe" {
		t.Fatalf("unexpected binary %q", gotBinary)
	}
}

func TestDurationFallbackIsDeterministic(t *testing.T) {
	prober := NewProber("ffprobe", logging.NewNop())
	prober.WithInspector(failingInspector)

	cases := []struct {
		size int
		want float64
	}{
		{96000, 2.0},
		{24000, 1.0},
		{0, 1.0},
		{120000, 2.5},
	}
	for _, tc := range cases {
		got, err := prober.Duration(context.Background(), writeSized(t, tc.size))
		if err != nil {
			t.Fatalf("size %d: unexpected error %v", tc.size, err)
		}
		if got != tc.want {
			t.Fatalf("size %d: got %v want %v", tc.size, got, tc.want)
		}
	}
}

func TestDurationFallbackOnUnusableValue(t *testing.T) {
	prober := NewProber("ffprobe", logging.NewNop())
	prober.WithInspector(func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{Format: ffprobe.Format{Duration: "0"}}, nil
	})
	got, err := prober.Duration(context.Background(), writeSized(t, 96000))
	if err != nil || got != 2.0 {
		t.Fatalf("expected fallback 2.0, got %v (%v)", got, err)
	}
}

func TestDurationMissingFileIsIOError(t *testing.T) {
	prober := NewProber("ffprobe", logging.NewNop())
	prober.WithInspector(failingInspector)
	_, err := prober.Duration(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io error, got %v", err)
	}
}
