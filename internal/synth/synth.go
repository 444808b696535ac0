package synth

import (
	"context"

	"cadence/internal/lesson"
)

// Request describes one fragment to synthesize.
type Request struct {
	Text     string
	Language lesson.LanguageTag
	Rate     float64
}

// Synthesizer converts one fragment of text into encoded audio bytes. The
// byte format must match the configured audio extension. Implementations do
// not retry; a returned error is terminal for the fragment.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// Voice describes how a provider speaks one language tag.
type Voice struct {
	Name     string // provider voice identifier
	Locale   string // BCP 47 locale, e.g. "es-ES"
	Language string // ISO 639-1 code
}

// Voices maps both language tags to provider voices.
type Voices map[lesson.LanguageTag]Voice

// For returns the voice for tag, falling back to the L1 voice.
func (v Voices) For(tag lesson.LanguageTag) Voice {
	if voice, ok := v[tag]; ok {
		return voice
	}
	return v[lesson.L1]
}
