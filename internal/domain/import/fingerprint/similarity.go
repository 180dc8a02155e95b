package fingerprint

import (
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Similarity scores two strict-normalized descriptions from 0 to 100.
// Containment is common for the same merchant across banks ("UBER TRIP" vs
// "UBER TRIP SAO PAULO") and scores at least 75.
func Similarity(a, b string) int {
	if a == b {
		if a == "" {
			return 0
		}
		return 100
	}
	if a == "" || b == "" {
		return 0
	}

	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if strings.Contains(a, b) {
		return 75 + 25*lb/la
	}
	if strings.Contains(b, a) {
		return 75 + 25*la/lb
	}

	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	distance := fuzzy.LevenshteinDistance(a, b)
	levenshteinScore := 100 * (maxLen - distance) / maxLen

	// RankMatch is the edit distance when b is a subsequence of a, else -1
	subsequenceScore := 0
	if rank := fuzzy.RankMatch(b, a); rank >= 0 && rank < la {
		subsequenceScore = 60 - rank*40/la
	}

	if levenshteinScore > subsequenceScore {
		return levenshteinScore
	}
	return subsequenceScore
}
