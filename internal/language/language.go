package language

import "strings"

type entry struct {
	code2   string   // ISO 639-1
	locale  string   // default BCP 47 locale for speech voices
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "en-US", "English", []string{"english", "eng"}},
	{"es", "es-ES", "Spanish", []string{"spanish", "spa", "español"}},
	{"fr", "fr-FR", "French", []string{"french", "fra", "français"}},
	{"de", "de-DE", "German", []string{"german", "deu"}},
	{"it", "it-IT", "Italian", []string{"italian", "ita"}},
	{"pt", "pt-BR", "Portuguese", []string{"portuguese", "por"}},
	{"ja", "ja-JP", "Japanese", []string{"japanese", "jpn"}},
	{"ko", "ko-KR", "Korean", []string{"korean", "kor"}},
	{"zh", "zh-CN", "Chinese", []string{"chinese", "zho", "mandarin"}},
	{"ru", "ru-RU", "Russian", []string{"russian", "rus"}},
	{"ar", "ar-SA", "Arabic", []string{"arabic", "ara"}},
	{"hi", "hi-IN", "Hindi", []string{"hindi", "hin"}},
	{"nl", "nl-NL", "Dutch", []string{"dutch", "nld"}},
	{"pl", "pl-PL", "Polish", []string{"polish", "pol"}},
	{"sv", "sv-SE", "Swedish", []string{"swedish", "swe"}},
	{"tr", "tr-TR", "Turkish", []string{"turkish", "tur"}},
	{"vi", "vi-VN", "Vietnamese", []string{"vietnamese", "vie"}},
	{"el", "el-GR", "Greek", []string{"greek", "ell"}},
}

var (
	byCode2 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byWord = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if base, _, ok := strings.Cut(code, "-"); ok {
		code = base
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// Known reports whether the code, locale, or word form maps to a supported language.
func Known(code string) bool {
	return lookup(code) != nil
}

// ToISO2 converts any recognized language code, locale, or word to ISO 639-1.
// Returns empty string for unrecognized input.
func ToISO2(code string) string {
	if e := lookup(code); e != nil {
		return e.code2
	}
	return ""
}

// Locale returns the default speech locale for a language. Inputs that already
// carry a region (e.g. "es-MX") are returned in canonical casing.
func Locale(code string) string {
	trimmed := strings.TrimSpace(code)
	if base, region, ok := strings.Cut(trimmed, "-"); ok && base != "" && region != "" {
		return strings.ToLower(base) + "-" + strings.ToUpper(region)
	}
	if e := lookup(trimmed); e != nil {
		return e.locale
	}
	return ""
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}
