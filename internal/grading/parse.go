package grading

import (
	"math"
	"strconv"
	"strings"

	"exam-grader/internal/domain"
)

// DefaultMark is allocated to a question whose marks line is missing or unparsable.
const DefaultMark = 1.0

// SplitLines returns the trimmed, non-blank lines of text. Blank lines are dropped, so
// question i is the i-th non-blank line of each block, not the i-th physical line.
func SplitLines(text string) []string {
	raw := strings.FieldsFunc(text, isLineBreak)
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// ParseAnswerKey builds one entry per non-blank answer line. The marks and keyword blocks
// are aligned to it by rank and padded with defaults when shorter.
func ParseAnswerKey(answerText, marksText, keywordsText string) []domain.AnswerKeyEntry {
	answers := SplitLines(answerText)
	marks := SplitLines(marksText)
	keywords := SplitLines(keywordsText)

	entries := make([]domain.AnswerKeyEntry, len(answers))
	for i, reference := range answers {
		mark := DefaultMark
		if i < len(marks) {
			mark = parseMark(marks[i])
		}
		var kws []string
		if i < len(keywords) {
			kws = splitKeywords(keywords[i])
		}
		if len(kws) == 0 {
			kws = strings.Fields(reference)
		}
		entries[i] = domain.AnswerKeyEntry{
			Index:          i + 1,
			ReferenceText:  reference,
			AllocatedMarks: mark,
			Keywords:       kws,
		}
	}
	return entries
}

// AlignAnswers pairs the student's non-blank lines with n questions. Missing lines
// become empty answers.
func AlignAnswers(studentText string, n int) []domain.StudentAnswer {
	lines := SplitLines(studentText)
	answers := make([]domain.StudentAnswer, n)
	for i := range answers {
		answers[i].Index = i + 1
		if i < len(lines) {
			answers[i].Text = lines[i]
		}
	}
	return answers
}

func parseMark(line string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return DefaultMark
	}
	return v
}

func splitKeywords(line string) []string {
	parts := strings.Split(line, ",")
	kws := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kws = append(kws, p)
		}
	}
	return kws
}
