package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LessonsDir string `toml:"lessons_dir"`
	LogDir     string `toml:"log_dir"`
	StateDir   string `toml:"state_dir"`
}

// Synthesis selects the speech provider and per-language voice settings.
type Synthesis struct {
	Provider   string  `toml:"provider"`
	L1Language string  `toml:"l1_language"`
	L2Language string  `toml:"l2_language"`
	L1Voice    string  `toml:"l1_voice"`
	L2Voice    string  `toml:"l2_voice"`
	L1Rate     float64 `toml:"l1_rate"`
	L2Rate     float64 `toml:"l2_rate"`

	Azure   AzureSynthesis   `toml:"azure"`
	Command CommandSynthesis `toml:"command"`
	Tone    ToneSynthesis    `toml:"tone"`
}

// AzureSynthesis configures the Azure Cognitive Services speech REST endpoint.
type AzureSynthesis struct {
	Region       string `toml:"region"`
	APIKey       string `toml:"api_key"`
	Endpoint     string `toml:"endpoint"`
	OutputFormat string `toml:"output_format"`
	UserAgent    string `toml:"user_agent"`
}

// CommandSynthesis configures an external TTS command. The command line may
// reference {voice}, {lang}, {rate}, and {length_scale}; text is piped on stdin
// and audio is read from stdout.
type CommandSynthesis struct {
	Command string `toml:"command"`
}

// ToneSynthesis configures the offline synthesizer used for dry runs.
type ToneSynthesis struct {
	CharsPerSecond float64 `toml:"chars_per_second"`
	SampleRate     int     `toml:"sample_rate"`
	L1FrequencyHz  float64 `toml:"l1_frequency_hz"`
	L2FrequencyHz  float64 `toml:"l2_frequency_hz"`
}

// Audio contains ffmpeg tooling and output format settings.
type Audio struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	Extension     string `toml:"extension"`
	SampleRate    int    `toml:"sample_rate"`
	Channels      int    `toml:"channels"`
}

// Fragments controls fragment merging.
type Fragments struct {
	MinLength int `toml:"min_length"`
}

// Timeline controls timeline compilation and renderer placement.
type Timeline struct {
	FPS                  int    `toml:"fps"`
	MergeLessonAudio     bool   `toml:"merge_lesson_audio"`
	ImagesDir            string `toml:"images_dir"`
	CompressedImageExt   string `toml:"compressed_image_ext"`
	UncompressedImageExt string `toml:"uncompressed_image_ext"`
}

// Playback controls the pause-point monitor.
type Playback struct {
	PollIntervalMS  int     `toml:"poll_interval_ms"`
	BoundaryEpsilon float64 `toml:"boundary_epsilon"`
	CooldownMS      int     `toml:"cooldown_ms"`
}

// Events configures lesson event publishing.
type Events struct {
	NATSURL       string `toml:"nats_url"`
	SubjectPrefix string `toml:"subject_prefix"`
}

// Pipeline contains lesson orchestration settings.
type Pipeline struct {
	LockLessons bool `toml:"lock_lessons"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format             string            `toml:"format"`
	Level              string            `toml:"level"`
	RetentionDays      int               `toml:"retention_days"`
	ComponentOverrides map[string]string `toml:"component_overrides"`
}

// Config encapsulates all configuration values for cadence.
//
// Configuration sections by subsystem:
//   - Paths: lesson workspace, logs, and state database
//   - Synthesis: provider selection plus L1/L2 voices and rates
//   - Audio: ffmpeg/ffprobe binaries and output format
//   - Fragments: short fragment merge threshold
//   - Timeline: frame rate, lesson audio merge, visual asset lookup
//   - Playback: pause monitor polling and cooldown
//   - Events: optional NATS publishing of lesson events
//   - Pipeline: lesson-level locking
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Synthesis Synthesis `toml:"synthesis"`
	Audio     Audio     `toml:"audio"`
	Fragments Fragments `toml:"fragments"`
	Timeline  Timeline  `toml:"timeline"`
	Playback  Playback  `toml:"playback"`
	Events    Events    `toml:"events"`
	Pipeline  Pipeline  `toml:"pipeline"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cadence/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cadence.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the lesson workspace, log, and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LessonsDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LessonDir returns the workspace directory for a lesson.
func (c *Config) LessonDir(lessonID string) string {
	return filepath.Join(c.Paths.LessonsDir, lessonID)
}

// DatabasePath returns the location of the segment result store.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "cadence.db")
}

// PollInterval returns the playback monitor polling period.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Playback.PollIntervalMS) * time.Millisecond
}

// Cooldown returns the playback monitor re-trigger suppression window.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Playback.CooldownMS) * time.Millisecond
}

// RateFor returns the default synthesis rate for a language tag ("L1" or "L2").
func (c *Config) RateFor(tag string) float64 {
	if strings.EqualFold(tag, "L2") {
		return c.Synthesis.L2Rate
	}
	return c.Synthesis.L1Rate
}

// VoiceFor returns the configured voice for a language tag.
func (c *Config) VoiceFor(tag string) string {
	if strings.EqualFold(tag, "L2") {
		return c.Synthesis.L2Voice
	}
	return c.Synthesis.L1Voice
}

// LanguageFor returns the ISO language code mapped to a language tag.
func (c *Config) LanguageFor(tag string) string {
	if strings.EqualFold(tag, "L2") {
		return c.Synthesis.L2Language
	}
	return c.Synthesis.L1Language
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
