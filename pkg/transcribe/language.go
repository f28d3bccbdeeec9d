package transcribe

import "strings"

// Language is a BCP-47 style language tag, e.g. "en-US" or "uk-UA".
// The empty value means "let the backend auto-detect".
type Language string

const (
	LanguageAuto      Language = ""
	LanguageEnglishUS Language = "en-US"
	LanguageUkrainian Language = "uk-UA"
	LanguageRussian   Language = "ru-RU"
)

type LanguageFamily string

// Family returns the primary subtag: "en-US" -> "en".
func (l Language) Family() LanguageFamily {
	words := strings.SplitN(string(l), "-", 2)
	return LanguageFamily(words[0])
}
