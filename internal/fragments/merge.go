package fragments

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"cadence/internal/lesson"
	"cadence/internal/textutil"
)

// DefaultMinLength is the trimmed character count below which a fragment is
// too short to synthesize on its own.
const DefaultMinLength = 3

// Merger collapses short fragments into same-language neighbours.
type Merger struct {
	MinLength int
}

// Merge applies the default threshold.
func Merge(in []lesson.TextFragment) []lesson.TextFragment {
	return Merger{MinLength: DefaultMinLength}.Merge(in)
}

// Merge scans left to right. A short fragment joins the previously emitted
// fragment when both share a language tag; otherwise it absorbs the next
// fragment when that one shares the tag, consuming both. A short fragment
// whose neighbours are both in the other language stays as-is.
//
// Passes repeat until nothing changes, so Merge(Merge(x)) == Merge(x). Every
// merge shortens the list, which bounds the loop.
func (m Merger) Merge(in []lesson.TextFragment) []lesson.TextFragment {
	out := clone(in)
	for {
		next := m.pass(out)
		if len(next) == len(out) {
			return next
		}
		out = next
	}
}

func (m Merger) pass(in []lesson.TextFragment) []lesson.TextFragment {
	out := make([]lesson.TextFragment, 0, len(in))
	for i := 0; i < len(in); i++ {
		current := in[i]
		if !m.short(current) {
			out = append(out, current)
			continue
		}
		if last := len(out) - 1; last >= 0 && out[last].LanguageTag == current.LanguageTag {
			out[last].Content = joinContent(out[last].Content, current.Content)
			out[last].AuxiliaryTranslation = textutil.JoinNonEmpty(" ", out[last].AuxiliaryTranslation, current.AuxiliaryTranslation)
			continue
		}
		if i+1 < len(in) && in[i+1].LanguageTag == current.LanguageTag {
			following := in[i+1]
			merged := current
			merged.Content = joinContent(current.Content, following.Content)
			merged.AuxiliaryTranslation = textutil.JoinNonEmpty(" ", current.AuxiliaryTranslation, following.AuxiliaryTranslation)
			if merged.SynthesisRate == nil {
				merged.SynthesisRate = following.SynthesisRate
			}
			out = append(out, merged)
			i++
			continue
		}
		out = append(out, current)
	}
	return out
}

func (m Merger) short(f lesson.TextFragment) bool {
	return textutil.TrimmedLength(f.Content) < m.MinLength
}

// joinContent concatenates two pieces of same-language text. A space is
// inserted only between two word characters that are not already separated,
// so punctuation attaches directly ("Hola" + "!" -> "Hola!", "¿" + "Qué" -> "¿Qué").
func joinContent(left, right string) string {
	if left == "" || right == "" {
		return left + right
	}
	last, _ := utf8.DecodeLastRuneInString(left)
	first, _ := utf8.DecodeRuneInString(right)
	if unicode.IsSpace(last) || unicode.IsSpace(first) {
		return left + right
	}
	if isWordRune(last) && isWordRune(first) {
		return left + " " + right
	}
	return left + right
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func clone(in []lesson.TextFragment) []lesson.TextFragment {
	out := make([]lesson.TextFragment, len(in))
	copy(out, in)
	return out
}

// Contents lists fragment contents, trimmed, for logging.
func Contents(in []lesson.TextFragment) []string {
	out := make([]string, len(in))
	for i, f := range in {
		out[i] = strings.TrimSpace(f.Content)
	}
	return out
}
