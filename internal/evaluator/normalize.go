package evaluator

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes answer text: full case folding, NFC, trimmed,
// internal whitespace runs collapsed to one space.
func Normalize(s string) string {
	// a Caser keeps state, so each call gets its own
	folded := cases.Fold().String(s)
	return strings.Join(strings.Fields(norm.NFC.String(folded)), " ")
}

// Matches reports whether raw equals canonical after normalization.
func Matches(raw, canonical string) bool {
	return Normalize(raw) == Normalize(canonical)
}
