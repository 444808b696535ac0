package config

import (
	"errors"
	"fmt"
	"strings"

	"cadence/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSynthesis(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateFragments(); err != nil {
		return err
	}
	if err := c.validateTimeline(); err != nil {
		return err
	}
	if err := c.validatePlayback(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LessonsDir) == "" {
		return errors.New("paths.lessons_dir must be set")
	}
	return nil
}

func (c *Config) validateSynthesis() error {
	for key, code := range map[string]string{
		"synthesis.l1_language": c.Synthesis.L1Language,
		"synthesis.l2_language": c.Synthesis.L2Language,
	} {
		if !language.Known(code) {
			return fmt.Errorf("%s: unsupported language %q", key, code)
		}
	}
	if c.Synthesis.L1Rate <= 0 || c.Synthesis.L1Rate > 3 {
		return errors.New("synthesis.l1_rate must be between 0 and 3")
	}
	if c.Synthesis.L2Rate <= 0 || c.Synthesis.L2Rate > 3 {
		return errors.New("synthesis.l2_rate must be between 0 and 3")
	}

	switch c.Synthesis.Provider {
	case "azure":
		if c.Synthesis.Azure.APIKey == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/cadence/config.toml"
			}
			return fmt.Errorf("synthesis.azure.api_key is required. Set AZURE_SPEECH_KEY env var or edit %s (create with 'cadence config init')", defaultPath)
		}
		if c.Synthesis.Azure.Region == "" && c.Synthesis.Azure.Endpoint == "" {
			return errors.New("synthesis.azure.region or synthesis.azure.endpoint must be set")
		}
		if c.Synthesis.L1Voice == "" || c.Synthesis.L2Voice == "" {
			return errors.New("synthesis.l1_voice and synthesis.l2_voice must be set for the azure provider")
		}
	case "command":
		if c.Synthesis.Command.Command == "" {
			return errors.New("synthesis.command.command must be set when synthesis.provider is command")
		}
	case "tone":
		if c.Audio.Extension != "wav" {
			return errors.New("audio.extension must be wav when synthesis.provider is tone")
		}
	default:
		return fmt.Errorf("synthesis.provider: unsupported value %q (expected azure, command, or tone)", c.Synthesis.Provider)
	}
	return nil
}

func (c *Config) validateAudio() error {
	switch c.Audio.Extension {
	case "mp3", "wav", "m4a", "ogg":
	default:
		return fmt.Errorf("audio.extension: unsupported value %q", c.Audio.Extension)
	}
	if c.Audio.Channels > 2 {
		return errors.New("audio.channels must be 1 or 2")
	}
	return nil
}

func (c *Config) validateFragments() error {
	if c.Fragments.MinLength < 0 {
		return errors.New("fragments.min_length must be >= 0")
	}
	return nil
}

func (c *Config) validateTimeline() error {
	if c.Timeline.FPS <= 0 {
		return errors.New("timeline.fps must be positive")
	}
	if strings.ContainsAny(c.Timeline.ImagesDir, `\`) || strings.HasPrefix(c.Timeline.ImagesDir, "/") {
		return errors.New("timeline.images_dir must be a relative path")
	}
	return nil
}

func (c *Config) validatePlayback() error {
	if c.Playback.PollIntervalMS <= 0 {
		return errors.New("playback.poll_interval_ms must be positive")
	}
	if c.Playback.BoundaryEpsilon < 0 {
		return errors.New("playback.boundary_epsilon must be >= 0")
	}
	if c.Playback.CooldownMS < 0 {
		return errors.New("playback.cooldown_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	for component, level := range c.Logging.ComponentOverrides {
		switch level {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("logging.component_overrides.%s: unsupported level %q", component, level)
		}
	}
	return nil
}
