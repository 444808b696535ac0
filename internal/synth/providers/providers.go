package providers

import (
	"fmt"
	"log/slog"
	"strings"

	"cadence/internal/config"
	"cadence/internal/language"
	"cadence/internal/lesson"
	"cadence/internal/services"
	"cadence/internal/synth"
	"cadence/internal/synth/azure"
	"cadence/internal/synth/command"
	"cadence/internal/synth/tone"
)

// Voices builds the per-tag voice table from configuration.
func Voices(cfg *config.Config) synth.Voices {
	voices := synth.Voices{}
	for _, tag := range []lesson.LanguageTag{lesson.L1, lesson.L2} {
		code := cfg.LanguageFor(string(tag))
		voices[tag] = synth.Voice{
			Name:     cfg.VoiceFor(string(tag)),
			Locale:   language.Locale(code),
			Language: language.ToISO2(code),
		}
	}
	return voices
}

// New selects the configured speech provider. The choice is made once; the
// returned synthesizer is shared by every segment of a run.
func New(cfg *config.Config, logger *slog.Logger) (synth.Synthesizer, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "synthesis", "select provider", "Configuration unavailable", nil)
	}
	voices := Voices(cfg)
	provider := strings.ToLower(strings.TrimSpace(cfg.Synthesis.Provider))
	switch provider {
	case "azure":
		az := cfg.Synthesis.Azure
		opts := []azure.Option{}
		if az.Endpoint != "" {
			opts = append(opts, azure.WithEndpoint(az.Endpoint))
		}
		if az.OutputFormat != "" {
			opts = append(opts, azure.WithOutputFormat(az.OutputFormat))
		}
		if az.UserAgent != "" {
			opts = append(opts, azure.WithUserAgent(az.UserAgent))
		}
		return azure.New(az.APIKey, az.Region, voices, logger, opts...), nil
	case "command":
		s, err := command.New(cfg.Synthesis.Command.Command, voices, logger)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "synthesis", "select provider", "Invalid synthesis command", err)
		}
		return s, nil
	case "tone":
		t := cfg.Synthesis.Tone
		return tone.New(tone.Options{
			CharsPerSecond: t.CharsPerSecond,
			SampleRate:     t.SampleRate,
			L1FrequencyHz:  t.L1FrequencyHz,
			L2FrequencyHz:  t.L2FrequencyHz,
		}), nil
	default:
		return nil, services.Wrap(
			services.ErrConfiguration,
			"synthesis",
			"select provider",
			fmt.Sprintf("Unsupported synthesis provider %q", cfg.Synthesis.Provider),
			nil,
		)
	}
}
