package entity

import "strings"

// Language represents supported language codes using ISO-style abbreviations.
type Language string

const (
	LanguageUnspecified Language = ""
	LanguageEnglish     Language = "en"
	LanguageGerman      Language = "de"
	LanguageFrench      Language = "fr"
	LanguageSpanish     Language = "es"
	LanguageItalian     Language = "it"
	LanguageDutch       Language = "nl"
)

// Code returns the lowercase language code (without defaulting).
func (l Language) Code() string {
	return strings.TrimSpace(string(l))
}

// CodeOrDefault returns the language code, falling back to English when unspecified.
func (l Language) CodeOrDefault() string {
	if l.Code() == "" {
		return string(LanguageEnglish)
	}
	return l.Code()
}

// NormalizeLanguage ensures the language falls back to a supported value (defaults to English).
func NormalizeLanguage(lang Language) Language {
	switch lang {
	case LanguageEnglish, LanguageGerman, LanguageFrench, LanguageSpanish, LanguageItalian, LanguageDutch:
		return lang
	default:
		return LanguageEnglish
	}
}

// ParseLanguage converts an arbitrary string into a supported Language value.
func ParseLanguage(code string) Language {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "en":
		return LanguageEnglish
	case "de":
		return LanguageGerman
	case "fr":
		return LanguageFrench
	case "es":
		return LanguageSpanish
	case "it":
		return LanguageItalian
	case "nl":
		return LanguageDutch
	default:
		return LanguageUnspecified
	}
}

// NormalizeTerm lowercases and trims a vocabulary term for lookup keys.
func NormalizeTerm(term string) string {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		return ""
	}
	return strings.ToLower(trimmed)
}
