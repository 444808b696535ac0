package providers

import (
	"errors"
	"testing"

	"cadence/internal/config"
	"cadence/internal/lesson"
	"cadence/internal/services"
)

func TestNewSelectsConfiguredProvider(t *testing.T) {
	cases := map[string]func(cfg *config.Config){
		"azure": func(cfg *config.Config) {
			cfg.Synthesis.Azure.APIKey = "key"
		},
		"command": func(cfg *config.Config) {
			cfg.Synthesis.Command.Command = "piper --model {voice}.onnx"
		},
		"tone": func(cfg *config.Config) {},
	}
	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Synthesis.Provider = name
			setup(&cfg)
			s, err := New(&cfg, nil)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if s.Name() != name {
				t.Fatalf("expected provider %q, got %q", name, s.Name())
			}
		})
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Synthesis.Provider = "polly"
	_, err := New(&cfg, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestVoicesCarryLocales(t *testing.T) {
	cfg := config.Default()
	voices := Voices(&cfg)
	l2 := voices.For(lesson.L2)
	if l2.Name != cfg.Synthesis.L2Voice {
		t.Fatalf("unexpected L2 voice %q", l2.Name)
	}
	if l2.Language != "es" || l2.Locale != "es-ES" {
		t.Fatalf("unexpected L2 language/locale %q/%q", l2.Language, l2.Locale)
	}
}
