// Package scoring implements the answer-grading core: accent-insensitive
// text comparison, the semantic match cascade, and the formulation check.
// Everything in this package is pure and side-effect-free.
package scoring

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lower-cases text and strips combining diacritical marks so
// that strings differing only in accents compare equal
// (e.g. "République" -> "republique").
func Normalize(s string) string {
	result, _, _ := transform.String(stripAccents, strings.ToLower(s))
	return result
}
