package ocr

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeLine applies NFKC, strips control characters and trims the result.
func NormalizeLine(line string) string {
	normed := norm.NFKC.String(line)
	normed = strings.Map(func(r rune) rune {
		if r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
	return strings.TrimSpace(normed)
}

// NormalizeLines normalizes every line and drops the ones left blank.
func NormalizeLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = NormalizeLine(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
