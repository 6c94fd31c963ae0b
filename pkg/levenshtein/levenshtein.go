// Package levenshtein computes edit distances between short strings and
// picks the closest candidate for "did you mean" hints.
package levenshtein

import (
	"strings"
	"unicode/utf8"
)

// Distance returns the number of single-rune insertions, deletions or
// substitutions that turn a into b. It keeps one row of the matrix.
func Distance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}

	if len(rb) == 0 {
		return len(ra)
	}

	row := make([]int, len(rb)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		diag := row[0]
		row[0] = i

		for j := 1; j <= len(rb); j++ {
			above := row[j]

			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			row[j] = min(row[j]+1, row[j-1]+1, diag+cost)
			diag = above
		}
	}

	return row[len(rb)]
}

// Closest returns the candidate nearest to target, comparing trimmed,
// lower-cased strings. Candidates further than maxDistance are ignored;
// a negative maxDistance allows a third of the target's length, at least 1.
// Ties go to the earlier candidate.
func Closest(target string, candidates []string, maxDistance int) (string, bool) {
	norm := normalize(target)
	if norm == "" {
		return "", false
	}

	if maxDistance < 0 {
		maxDistance = max(1, utf8.RuneCountInString(norm)/3)
	}

	best, bestDist := "", maxDistance+1

	for _, c := range candidates {
		d := Distance(norm, normalize(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}

	return best, bestDist <= maxDistance
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
