// Package grading scores free-text exam answers against an answer key.
//
// A question earns credit per keyword: each keyword is fuzzily located in the student's
// answer and counts as found when its score reaches the threshold. Marks are the found
// fraction of the question's allocation. An order-insensitive similarity between the
// reference and the answer is reported alongside but never affects marks.
package grading

import (
	"math"
	"strconv"

	"exam-grader/internal/domain"
	"exam-grader/internal/fuzzy"
)

// DefaultKeywordThreshold is the partial match score at which a keyword counts as found.
const DefaultKeywordThreshold = 60

// Scorer rates the similarity of two strings on a 0-100 scale.
type Scorer func(a, b string) float64

// Engine is stateless once built and safe for concurrent use.
type Engine struct {
	threshold  int
	partial    Scorer
	similarity Scorer
}

// Option configures an Engine.
type Option func(*Engine)

// WithKeywordThreshold overrides the score a keyword needs to count as found.
func WithKeywordThreshold(threshold int) Option {
	return func(e *Engine) {
		if threshold > 0 {
			e.threshold = threshold
		}
	}
}

// WithScorers swaps the keyword and overall similarity measures. Nil keeps the default.
func WithScorers(partial, similarity Scorer) Option {
	return func(e *Engine) {
		if partial != nil {
			e.partial = partial
		}
		if similarity != nil {
			e.similarity = similarity
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		threshold:  DefaultKeywordThreshold,
		partial:    fuzzy.PartialRatio,
		similarity: fuzzy.TokenSortRatio,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Threshold reports the keyword threshold in use.
func (e *Engine) Threshold() int {
	return e.threshold
}

// Evaluate grades a submission. It never fails: degenerate input yields low or empty scores.
func (e *Engine) Evaluate(sub domain.Submission) domain.EvaluationReport {
	return e.EvaluateFunc(sub, nil)
}

// EvaluateFunc is Evaluate with a callback invoked after each question is scored, in order.
func (e *Engine) EvaluateFunc(sub domain.Submission, onResult func(domain.QuestionResult)) domain.EvaluationReport {
	entries := ParseAnswerKey(sub.AnswerKey, sub.MarksKey, sub.KeywordsKey)
	answers := AlignAnswers(sub.StudentText, len(entries))

	report := domain.EvaluationReport{
		QuestionResults: make([]domain.QuestionResult, 0, len(entries)),
	}
	var obtained float64
	for i, entry := range entries {
		result, raw := e.scoreQuestion(entry, answers[i])
		obtained += raw
		report.MaxScore += entry.AllocatedMarks
		report.QuestionResults = append(report.QuestionResults, result)
		if onResult != nil {
			onResult(result)
		}
	}
	// Summed before rounding so per-question rounding does not compound.
	report.TotalScore = round(obtained, 2)
	return report
}

// ScoreQuestion grades a single aligned question.
func (e *Engine) ScoreQuestion(entry domain.AnswerKeyEntry, answer domain.StudentAnswer) domain.QuestionResult {
	result, _ := e.scoreQuestion(entry, answer)
	return result
}

func (e *Engine) scoreQuestion(entry domain.AnswerKeyEntry, answer domain.StudentAnswer) (domain.QuestionResult, float64) {
	matches := make([]domain.KeywordMatch, 0, len(entry.Keywords))
	matched := 0
	for _, kw := range entry.Keywords {
		if kw == "" {
			continue
		}
		score := clamp(e.partial(kw, answer.Text))
		matches = append(matches, domain.KeywordMatch{Keyword: kw, Score: clampScore(score)})
		// The unrounded score decides, so 59.6 is reported as 60 but not found.
		if score >= float64(e.threshold) {
			matched++
		}
	}

	total := len(entry.Keywords)
	if total < 1 {
		total = 1
	}
	raw := float64(matched) / float64(total) * entry.AllocatedMarks

	keywords := make([]string, len(entry.Keywords))
	copy(keywords, entry.Keywords)

	return domain.QuestionResult{
		Index:             entry.Index,
		ReferenceText:     entry.ReferenceText,
		StudentText:       answer.Text,
		Keywords:          keywords,
		KeywordMatches:    matches,
		MatchedCount:      matched,
		TotalKeywords:     total,
		MarksAwarded:      round(raw, 2),
		TotalMarks:        entry.AllocatedMarks,
		OverallSimilarity: round(clamp(e.similarity(entry.ReferenceText, answer.Text)), 1),
	}, raw
}

func clamp(score float64) float64 {
	switch {
	case math.IsNaN(score), score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}

func clampScore(score float64) int {
	return int(math.Round(clamp(score)))
}

// round formats v with the given decimals and parses it back. strconv rounds the exact
// binary value and settles true halves to the even digit, so 3.125 becomes 3.12.
func round(v float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}
