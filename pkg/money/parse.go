package money

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Locale selects the separator convention of an amount string
type Locale int

const (
	// LocaleBR reads 1.234,56: dot groups thousands, comma separates decimals
	LocaleBR Locale = iota
	// LocaleUS reads 1,234.56
	LocaleUS
)

var hundred = decimal.NewFromInt(100)

// ParseCents parses a Brazilian-locale amount into cents.
//
// Everything except digits, comma, dot and a leading minus is dropped. A dot
// followed by exactly three digits is a thousands separator; a comma is the
// decimal separator. The result is rounded to the nearest cent and any input
// that cannot be read yields 0.
func ParseCents(raw string) int64 {
	return ParseCentsLocale(raw, LocaleBR)
}

// ParseCentsLocale parses an amount with the given separator convention.
func ParseCentsLocale(raw string, locale Locale) int64 {
	cleaned, negative := cleanAmount(raw)
	if cleaned == "" {
		return 0
	}

	switch locale {
	case LocaleUS:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	default:
		cleaned = stripThousandsDots(cleaned)
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}

	cents := d.Mul(hundred).Round(0).IntPart()
	if negative {
		cents = -cents
	}
	return cents
}

// cleanAmount keeps digits, comma and dot, and reports a leading minus.
func cleanAmount(raw string) (string, bool) {
	kept := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == ',' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, raw)

	negative := strings.HasPrefix(kept, "-")
	kept = strings.ReplaceAll(kept, "-", "")
	return kept, negative
}

// stripThousandsDots removes every dot that is followed by exactly three
// digits and then a non-digit or the end of the string.
func stripThousandsDots(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] == '.' && groupsThousands(s, i) {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func groupsThousands(s string, dot int) bool {
	if dot+3 >= len(s) {
		return false
	}
	for j := dot + 1; j <= dot+3; j++ {
		if s[j] < '0' || s[j] > '9' {
			return false
		}
	}
	if dot+4 < len(s) && s[dot+4] >= '0' && s[dot+4] <= '9' {
		return false
	}
	return true
}
