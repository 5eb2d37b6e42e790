// Package fuzzy implements the string similarity measures used to grade free-text answers.
// Scores are on a 0-100 scale and operate on runes, so Tamil and other multi-byte
// scripts are compared character by character.
package fuzzy

import (
	"sort"
	"strings"
)

// Ratio returns the normalized InDel similarity of a and b:
// 200 * LCS(a, b) / (len(a) + len(b)). Two empty strings are identical (100).
func Ratio(a, b string) float64 {
	return ratio([]rune(a), []rune(b))
}

// PartialRatio finds the best alignment of the shorter string inside the longer one.
// Every window of the longer string with the shorter string's length is compared, plus
// the partial windows hanging off either end, and the best Ratio wins. Surrounding text
// in the longer string therefore costs nothing.
func PartialRatio(a, b string) float64 {
	needle, hay := []rune(a), []rune(b)
	if len(needle) > len(hay) {
		needle, hay = hay, needle
	}
	if len(needle) == 0 {
		if len(hay) == 0 {
			return 100
		}
		return 0
	}

	m, n := len(needle), len(hay)
	best := 0.0
	try := func(window []rune) bool {
		if s := ratio(needle, window); s > best {
			best = s
		}
		return best >= 100
	}

	for k := 1; k < m; k++ {
		if try(hay[:k]) {
			return 100
		}
	}
	for i := 0; i+m <= n; i++ {
		if try(hay[i : i+m]) {
			return 100
		}
	}
	for k := m - 1; k >= 1; k-- {
		if try(hay[n-k:]) {
			return 100
		}
	}
	return best
}

// TokenSortRatio compares a and b after sorting their whitespace-separated tokens,
// so the same words in a different order score 100.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 200 * float64(lcsLength(a, b)) / float64(total)
}

// lcsLength is the classic two-row dynamic program for the longest common subsequence.
func lcsLength(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
