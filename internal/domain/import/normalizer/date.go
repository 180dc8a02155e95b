package normalizer

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	isoDate       = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	dayMonthYear  = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	dayMonthShort = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})$`)
)

// Clock returns the current time; replaced in tests.
type Clock func() time.Time

// DateNormalizer turns statement dates into YYYY-MM-DD.
type DateNormalizer struct {
	now Clock
}

// NewDateNormalizer creates a normalizer; a nil clock means time.Now.
func NewDateNormalizer(now Clock) *DateNormalizer {
	if now == nil {
		now = time.Now
	}
	return &DateNormalizer{now: now}
}

var defaultDates = NewDateNormalizer(nil)

// NormalizeDate normalizes with the wall clock as reference for DD/MM dates.
func NormalizeDate(raw string) string {
	return defaultDates.Normalize(raw)
}

// Normalize accepts YYYY-MM-DD (returned as is), DD/MM/YYYY and DD-MM-YYYY
// (reordered), and DD/MM or DD-MM (current year assumed). Anything else comes
// back unchanged and callers treat a non-ISO result as unparsed.
//
// Reordering is positional: "31/02/2024" becomes "2024-02-31" without any
// calendar validation.
func (n *DateNormalizer) Normalize(raw string) string {
	s := strings.TrimSpace(raw)

	if isoDate.MatchString(s) {
		return s
	}
	if m := dayMonthYear.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[3], pad2(m[2]), pad2(m[1]))
	}
	if m := dayMonthShort.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%04d-%s-%s", n.now().Year(), pad2(m[2]), pad2(m[1]))
	}
	return s
}

// ParseISO parses a normalized date; ok is false for anything not YYYY-MM-DD
// or not on the calendar.
func ParseISO(s string) (time.Time, bool) {
	if !isoDate.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
