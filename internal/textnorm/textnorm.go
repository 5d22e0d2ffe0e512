// Package textnorm implements the case and diacritic insensitive comparison
// used by catalog search.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s, decomposes accented characters, strips the
// combining marks and trims surrounding whitespace. Normalize is idempotent.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	// Transformers carry state, so a fresh chain is built per call.
	t := transform.Chain(
		cases.Lower(language.Und),
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		// Invalid UTF-8 still gets a usable comparison key.
		out = strings.ToLower(s)
	}
	return strings.TrimSpace(out)
}

// Contains reports whether the normalized haystack contains the normalized
// needle. An empty normalized needle matches everything.
func Contains(haystack, needle string) bool {
	return strings.Contains(Normalize(haystack), Normalize(needle))
}
