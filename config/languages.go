package config

import "strings"

// SupportedLanguages maps human-readable language names to the ISO codes
// accepted by the transcription service and the alignment model.
var SupportedLanguages = map[string]string{
	"English":    "en",
	"Sinhala":    "si",
	"Tamil":      "ta",
	"Hindi":      "hi",
	"Spanish":    "es",
	"French":     "fr",
	"German":     "de",
	"Japanese":   "ja",
	"Korean":     "ko",
	"Chinese":    "zh",
	"Russian":    "ru",
	"Arabic":     "ar",
	"Portuguese": "pt",
	"Italian":    "it",
	"Dutch":      "nl",
	"Turkish":    "tr",
	"Vietnamese": "vi",
	"Thai":       "th",
	"Indonesian": "id",
	"Malay":      "ms",
}

// ValidateLanguage resolves a language name or ISO code to a supported ISO
// code, case-insensitively. Unknown values fall back to English.
func ValidateLanguage(language string) (code string, ok bool) {
	for name, c := range SupportedLanguages {
		if strings.EqualFold(name, language) || strings.EqualFold(c, language) {
			return c, true
		}
	}
	return "en", false
}
