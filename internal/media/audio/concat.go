package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"cadence/internal/fileutil"
	"cadence/internal/logging"
	"cadence/internal/services"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// encoderSpec is the re-encode target for a container extension.
type encoderSpec struct {
	codec     string
	sampleFmt string
}

var encoders = map[string]encoderSpec{
	"mp3": {codec: "libmp3lame", sampleFmt: "s16p"},
	"wav": {codec: "pcm_s16le", sampleFmt: "s16"},
	"m4a": {codec: "aac", sampleFmt: "fltp"},
	"ogg": {codec: "libvorbis", sampleFmt: "fltp"},
}

// Concatenator joins ordered audio files with ffmpeg's concat demuxer.
type Concatenator struct {
	binary     string
	sampleRate int
	channels   int
	logger     *slog.Logger
	run        commandRunner
}

// NewConcatenator constructs a concatenator. sampleRate and channels define
// the fixed format used by the re-encode retry.
func NewConcatenator(binary string, sampleRate, channels int, logger *slog.Logger) *Concatenator {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = 24000
	}
	if channels <= 0 {
		channels = 1
	}
	return &Concatenator{
		binary:     binary,
		sampleRate: sampleRate,
		channels:   channels,
		logger:     logging.NewComponentLogger(logger, "concat"),
		run:        defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (c *Concatenator) WithCommandRunner(r commandRunner) {
	if c != nil && r != nil {
		c.run = r
	}
}

// Concatenate joins parts, in order, into dest. It first tries a lossless
// stream copy; when that fails it retries exactly once with a re-encode to
// the fixed sample format. A failed attempt never leaves dest behind.
func (c *Concatenator) Concatenate(ctx context.Context, parts []string, dest string) error {
	if len(parts) == 0 {
		return services.Wrap(services.ErrMissingInput, "concat", "prepare", "no input files", nil)
	}
	logger := logging.WithContext(ctx, c.logger)

	listPath := dest + ".concat.txt"
	if err := writeConcatList(listPath, parts); err != nil {
		return services.Wrap(services.ErrIO, "concat", "write list", listPath, err)
	}
	defer func() { _ = os.Remove(listPath) }()

	copyErr := c.attempt(ctx, dest, c.copyArgs(listPath, dest))
	if copyErr == nil {
		logger.Debug("audio concatenated",
			logging.String(logging.FieldEventType, "concat_complete"),
			logging.String("mode", "copy"),
			logging.Int("parts", len(parts)),
			logging.String("output", dest),
		)
		return nil
	}

	logging.WarnWithContext(logger, "stream copy concat failed; retrying with re-encode", "concat_retry",
		logging.Error(copyErr),
		logging.Int("parts", len(parts)),
		logging.String(logging.FieldErrorHint, "inputs likely differ in codec parameters"),
		logging.String(logging.FieldImpact, "segment audio is re-encoded at a fixed sample format"),
	)

	reencodeErr := c.attempt(ctx, dest, c.reencodeArgs(listPath, dest))
	if reencodeErr != nil {
		return services.Wrap(services.ErrConcatenation, "concat", "join", fmt.Sprintf("%d parts into %s", len(parts), filepath.Base(dest)), errors.Join(copyErr, reencodeErr))
	}
	logger.Debug("audio concatenated",
		logging.String(logging.FieldEventType, "concat_complete"),
		logging.String("mode", "reencode"),
		logging.Int("parts", len(parts)),
		logging.String("output", dest),
	)
	return nil
}

func (c *Concatenator) attempt(ctx context.Context, dest string, args []string) error {
	err := c.run(ctx, c.binary, args...)
	if err == nil && !fileutil.NonEmpty(dest) {
		err = errors.New("ffmpeg produced no output")
	}
	if err != nil {
		_ = fileutil.RemoveFiles(dest)
	}
	return err
}

func (c *Concatenator) copyArgs(listPath, dest string) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		dest,
	}
}

func (c *Concatenator) reencodeArgs(listPath, dest string) []string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(dest), "."))
	spec, ok := encoders[ext]
	if !ok {
		spec = encoders["wav"]
	}
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-vn",
		"-ar", strconv.Itoa(c.sampleRate),
		"-ac", strconv.Itoa(c.channels),
		"-c:a", spec.codec,
		"-sample_fmt", spec.sampleFmt,
		dest,
	}
}

func writeConcatList(path string, parts []string) error {
	var b strings.Builder
	for _, part := range parts {
		abs, err := filepath.Abs(part)
		if err != nil {
			return err
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		b.WriteString("'\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
