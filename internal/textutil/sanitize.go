package textutil

import "strings"

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	" ", "_",
)

// SanitizeFileName replaces filesystem-unsafe characters in a segment or
// lesson identifier so it can be used as a file stem. Spaces become
// underscores; the case of the identifier is preserved. Returns "unknown"
// for empty input.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	out := strings.Trim(fileNameReplacer.Replace(name), ".")
	if out == "" {
		return "unknown"
	}
	return out
}
