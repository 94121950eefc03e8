package matcher

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// EditDistance returns the classic edit distance between two strings:
// the minimum number of single-character insertions, deletions, and
// substitutions needed to turn a into b.
func EditDistance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Similarity returns a [0,1] score describing how alike two strings are.
// Comparison is case-insensitive and whitespace-trimmed; identical strings
// after normalization score 1 and an empty string scores 0 against anything.
//
// The score is a Jaro similarity with a short-prefix bonus: matching
// characters are found within a sliding window of floor(maxLen/2)-1
// positions, transpositions among the matched characters are counted, and
// a bonus of prefixLen * 0.1 * (1 - jaro) is added, with the common prefix
// capped at four characters. The prefix bonus makes the metric tolerant of
// phonetically-close names that diverge in their tails ("Wanjiku" vs
// "Wanjiko").
func Similarity(a, b string) float64 {
	s1 := strings.ToLower(strings.TrimSpace(a))
	s2 := strings.ToLower(strings.TrimSpace(b))

	if s1 == "" || s2 == "" {
		return 0
	}

	if s1 == s2 {
		return 1
	}

	return jaroWithPrefixBonus(s1, s2)
}

// jaroWithPrefixBonus computes the Jaro score of two non-empty strings and
// adds the Winkler-style prefix bonus. Inputs are assumed normalized.
func jaroWithPrefixBonus(s1, s2 string) float64 {
	len1 := len(s1)
	len2 := len(s2)

	maxLen := len1
	if len2 > maxLen {
		maxLen = len2
	}

	window := maxLen/2 - 1
	if window < 0 {
		window = 0
	}

	matched1 := make([]bool, len1)
	matched2 := make([]bool, len2)

	matches := 0
	for i := 0; i < len1; i++ {
		start := i - window
		if start < 0 {
			start = 0
		}
		end := i + window + 1
		if end > len2 {
			end = len2
		}

		for j := start; j < end; j++ {
			if matched2[j] || s1[i] != s2[j] {
				continue
			}
			matched1[i] = true
			matched2[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0
	}

	// Count transpositions among the matched characters
	transpositions := 0
	k := 0
	for i := 0; i < len1; i++ {
		if !matched1[i] {
			continue
		}
		for !matched2[k] {
			k++
		}
		if s1[i] != s2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	jaro := (m/float64(len1) + m/float64(len2) + (m-float64(transpositions)/2)/m) / 3

	prefix := 0
	for prefix < len1 && prefix < len2 && prefix < 4 && s1[prefix] == s2[prefix] {
		prefix++
	}

	return jaro + float64(prefix)*0.1*(1-jaro)
}
