package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// TrimmedLength returns the number of characters in s after trimming
// surrounding whitespace. Text is NFC-normalised first so a base letter plus
// combining accent counts once.
func TrimmedLength(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(norm.NFC.String(s)))
}

// JoinNonEmpty joins the non-blank parts with sep.
func JoinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}

var titleCaser = cases.Title(language.English)

// Title converts an identifier such as "practice" or "screen_role" into a
// display label ("Practice", "Screen Role").
func Title(value string) string {
	return titleCaser.String(strings.ReplaceAll(strings.TrimSpace(value), "_", " "))
}
