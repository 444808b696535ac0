package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"

	"cadence/internal/logging"
	"cadence/internal/synth"
)

type runner func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)

// Synth runs an external TTS program once per fragment. The text is written
// to stdin and the encoded audio is read from stdout.
type Synth struct {
	argv   []string
	voices synth.Voices
	logger *slog.Logger
	run    runner
}

// New parses the command template. Arguments may reference {voice}, {lang},
// {locale}, {rate}, and {length_scale} (the reciprocal of rate, as used by piper).
func New(command string, voices synth.Voices, logger *slog.Logger) (*Synth, error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = true
	argv, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse tts command: %w", err)
	}
	if len(argv) == 0 {
		return nil, errors.New("tts command empty")
	}
	return &Synth{
		argv:   argv,
		voices: voices,
		logger: logging.NewComponentLogger(logger, "command_tts"),
		run:    defaultRunner,
	}, nil
}

// WithRunner allows injecting a custom process runner for tests.
func (s *Synth) WithRunner(r runner) {
	if s != nil && r != nil {
		s.run = r
	}
}

// Name identifies the provider.
func (s *Synth) Name() string { return "command" }

// Synthesize executes the command for one fragment.
func (s *Synth) Synthesize(ctx context.Context, req synth.Request) ([]byte, error) {
	args := s.expand(req)
	s.logger.Debug("running tts command",
		logging.String("command", args[0]),
		logging.Int("chars", len([]rune(req.Text))),
	)
	out, err := s.run(ctx, args[0], args[1:], []byte(req.Text))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("tts command produced no audio")
	}
	return out, nil
}

func (s *Synth) expand(req synth.Request) []string {
	voice := s.voices.For(req.Language)
	rate := req.Rate
	if rate <= 0 {
		rate = 1
	}
	replacer := strings.NewReplacer(
		"{voice}", voice.Name,
		"{lang}", voice.Language,
		"{locale}", voice.Locale,
		"{rate}", strconv.FormatFloat(rate, 'f', 2, 64),
		"{length_scale}", strconv.FormatFloat(1/rate, 'f', 3, 64),
	)
	args := make([]string, len(s.argv))
	for i, arg := range s.argv {
		args[i] = replacer.Replace(arg)
	}
	return args
}

func defaultRunner(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tts command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
