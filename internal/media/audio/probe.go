package audio

import (
	"context"
	"log/slog"
	"math"
	"os"

	"cadence/internal/logging"
	"cadence/internal/media/ffprobe"
	"cadence/internal/services"
)

const (
	// FallbackBytesPerSecond approximates 24 kHz mono 16-bit PCM.
	FallbackBytesPerSecond = 48000
	// FallbackMinimumSeconds clamps the size estimate for tiny files.
	FallbackMinimumSeconds = 1.0
)

// InspectFunc runs ffprobe against a path.
type InspectFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Prober measures audio durations.
type Prober struct {
	binary  string
	inspect InspectFunc
	logger  *slog.Logger
}

// NewProber constructs a prober that shells out to the given ffprobe binary.
func NewProber(binary string, logger *slog.Logger) *Prober {
	return &Prober{
		binary:  binary,
		inspect: ffprobe.Inspect,
		logger:  logging.NewComponentLogger(logger, "probe"),
	}
}

// WithInspector allows injecting a custom ffprobe implementation for tests.
func (p *Prober) WithInspector(fn InspectFunc) {
	if p != nil && fn != nil {
		p.inspect = fn
	}
}

// Duration returns the audio duration of path in seconds. Probe failures are
// recovered with FallbackDuration; only a file that cannot be stat'ed is an error.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, services.Wrap(services.ErrIO, "probe", "stat", path, err)
	}

	result, err := p.inspect(ctx, p.binary, path)
	if err == nil {
		if duration := result.DurationSeconds(); validDuration(duration) {
			return duration, nil
		}
		err = services.Wrap(services.ErrProbe, "probe", "duration", "ffprobe reported no usable duration", nil)
	} else {
		err = services.Wrap(services.ErrProbe, "probe", "inspect", path, err)
	}

	fallback := FallbackDuration(info.Size())
	logging.WarnWithContext(logging.WithContext(ctx, p.logger), "duration probe failed; using size estimate", "probe_fallback",
		logging.String("path", path),
		logging.Int64("size_bytes", info.Size()),
		logging.Seconds("estimated_seconds", fallback),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "verify ffprobe is installed and the synthesized file is valid audio"),
		logging.String(logging.FieldImpact, "segment timing uses an approximate duration"),
	)
	return fallback, nil
}

// FallbackDuration estimates seconds from file size: max(size/48000, 1.0).
func FallbackDuration(sizeBytes int64) float64 {
	return math.Max(float64(sizeBytes)/FallbackBytesPerSecond, FallbackMinimumSeconds)
}

func validDuration(value float64) bool {
	return value > 0 && !math.IsNaN(value) && !math.IsInf(value, 0)
}
