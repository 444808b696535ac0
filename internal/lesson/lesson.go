package lesson

import (
	"fmt"
	"strings"
)

// LanguageTag classifies a fragment as the learner's native language (L1) or
// the language being learned (L2).
type LanguageTag string

const (
	L1 LanguageTag = "L1"
	L2 LanguageTag = "L2"
)

// ParseLanguageTag accepts "L1"/"L2" in any case.
func ParseLanguageTag(value string) (LanguageTag, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case string(L1):
		return L1, nil
	case string(L2):
		return L2, nil
	default:
		return "", fmt.Errorf("unknown language tag %q", value)
	}
}

// TextFragment is one contiguous run of single-language text within a segment.
type TextFragment struct {
	Content              string      `json:"content" yaml:"content"`
	LanguageTag          LanguageTag `json:"languageTag" yaml:"languageTag"`
	SynthesisRate        *float64    `json:"synthesisRate,omitempty" yaml:"synthesisRate,omitempty"`
	AuxiliaryTranslation string      `json:"auxiliaryTranslation,omitempty" yaml:"auxiliaryTranslation,omitempty"`
}

// Rate returns the explicit synthesis rate or fallback when none was set.
func (f TextFragment) Rate(fallback float64) float64 {
	if f.SynthesisRate != nil && *f.SynthesisRate > 0 {
		return *f.SynthesisRate
	}
	return fallback
}

// SegmentScript is the declarative input for one lesson segment.
type SegmentScript struct {
	ID                string         `json:"id" yaml:"id"`
	ScreenRole        string         `json:"screenRole,omitempty" yaml:"screenRole,omitempty"`
	Fragments         []TextFragment `json:"fragments" yaml:"fragments"`
	VocabAnchor       string         `json:"vocabAnchor,omitempty" yaml:"vocabAnchor,omitempty"`
	VisualResourceKey string         `json:"visualResourceKey,omitempty" yaml:"visualResourceKey,omitempty"`
}

// Text joins the fragment contents for manifests and logs.
func (s SegmentScript) Text() string {
	parts := make([]string, 0, len(s.Fragments))
	for _, fragment := range s.Fragments {
		if trimmed := strings.TrimSpace(fragment.Content); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}

// Script is an ordered lesson script.
type Script struct {
	LessonID string          `json:"lessonId,omitempty" yaml:"lessonId,omitempty"`
	Segments []SegmentScript `json:"segments" yaml:"segments"`
}

// SegmentByID returns the segment with the given identifier.
func (s Script) SegmentByID(id string) (SegmentScript, bool) {
	for _, segment := range s.Segments {
		if segment.ID == id {
			return segment, true
		}
	}
	return SegmentScript{}, false
}

// FragmentTiming is the measured placement of one fragment within its segment
// audio, in seconds relative to the segment start.
type FragmentTiming struct {
	Content              string      `json:"content"`
	LanguageTag          LanguageTag `json:"languageTag"`
	Duration             float64     `json:"duration"`
	StartOffset          float64     `json:"startOffset"`
	EndOffset            float64     `json:"endOffset"`
	AuxiliaryTranslation string      `json:"auxiliaryTranslation,omitempty"`
}

// SegmentAudioResult is the measured output of assembling one segment. It is
// never mutated after creation.
type SegmentAudioResult struct {
	AudioPath       string           `json:"audioPath"`
	Duration        float64          `json:"duration"`
	FragmentTimings []FragmentTiming `json:"fragmentTimings,omitempty"`
}
