// Package normalizer provides the text, date and merchant normalization shared
// by every statement extractor.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	spacePattern      = regexp.MustCompile(`\s+`)
	longNumberPattern = regexp.MustCompile(`\b\d{5,}\b`)
)

// StripDiacritics removes combining marks after canonical decomposition
// ("Crédito" -> "Credito").
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// CollapseSpaces replaces every whitespace run with one space and trims.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// NormalizeText strips diacritics, collapses whitespace and upper-cases.
func NormalizeText(s string) string {
	return strings.ToUpper(CollapseSpaces(StripDiacritics(s)))
}

// NormalizeStrict is NormalizeText minus standalone numeric tokens of five or
// more digits, so card and account numbers do not defeat fuzzy comparison.
// Use it for statement-level matching only.
func NormalizeStrict(s string) string {
	normalized := NormalizeText(s)
	return CollapseSpaces(longNumberPattern.ReplaceAllString(normalized, " "))
}

// FoldKey lower-cases and strips diacritics; used for header and keyword
// lookups where the table is written in lower case.
func FoldKey(s string) string {
	return strings.ToLower(CollapseSpaces(StripDiacritics(s)))
}
