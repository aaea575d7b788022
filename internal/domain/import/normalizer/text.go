// Package normalizer cleans spreadsheet cell text and maps Portuguese/English spellings
// onto the canonical LAIA enum values.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var spacePattern = regexp.MustCompile(`\s+`)

// CleanText trims a cell, drops non-breaking spaces and collapses internal whitespace
func CleanText(raw string) string {
	s := strings.ReplaceAll(raw, "\u00a0", " ")
	s = strings.TrimPrefix(s, "\ufeff")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Fold returns the comparison form of a string: accents removed, lower-cased,
// punctuation turned into spaces and whitespace collapsed.
// "Significância " and "SIGNIFICANCIA" fold to the same key.
func Fold(raw string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, raw)
	if err != nil {
		stripped = raw
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range strings.ToLower(stripped) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return CleanText(b.String())
}
