// Package localization picks the display text of a riddle for a language.
package localization

import "strings"

// Supported language codes.
const (
	English      = "en"
	Tamil        = "ta"
	Tanglish     = "ta_en"
	fallbackLang = English
)

// placeholders are keyed by the requested language, not by what was found.
var placeholders = map[string]string{
	English:  "No question available",
	Tamil:    "கேள்வி இல்லை",
	Tanglish: "Question illai",
}

// Resolve returns texts[lang], then the English variant, then a placeholder
// worded for lang. Blank variants count as missing. Never returns "".
func Resolve(texts map[string]string, lang string) string {
	lang = Normalize(lang)
	if s := strings.TrimSpace(texts[lang]); s != "" {
		return s
	}
	if s := strings.TrimSpace(texts[fallbackLang]); s != "" {
		return s
	}
	return Placeholder(lang)
}

// Placeholder is the "no question" text for lang; unknown languages get English.
func Placeholder(lang string) string {
	if p, ok := placeholders[Normalize(lang)]; ok {
		return p
	}
	return placeholders[English]
}

// Normalize lower-cases a language code and accepts "ta-en" for "ta_en".
func Normalize(lang string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(lang)), "-", "_")
}

// Supported reports whether lang is one of the known codes.
func Supported(lang string) bool {
	_, ok := placeholders[Normalize(lang)]
	return ok
}
