package domain

import "time"

// Submission carries the four newline-delimited text blocks graded together.
// When AnswerKeyID is set the answer, marks and keywords blocks come from the stored key.
type Submission struct {
	StudentText string `json:"studentText"`
	AnswerKey   string `json:"answerKey"`
	MarksKey    string `json:"marksKey"`
	KeywordsKey string `json:"keywordsKey"`
	AnswerKeyID string `json:"answerKeyId,omitempty"`
}

// AnswerKey is a reusable answer key stored by teachers ahead of grading.
type AnswerKey struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	AnswerText   string    `json:"answerKey"`
	MarksText    string    `json:"marksKey"`
	KeywordsText string    `json:"keywordsKey"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AnswerKeyEntry is one parsed question of an answer key.
type AnswerKeyEntry struct {
	Index          int
	ReferenceText  string
	AllocatedMarks float64
	Keywords       []string // never empty unless the reference text is blank
}

// StudentAnswer is the student line aligned to an AnswerKeyEntry by rank.
type StudentAnswer struct {
	Index int
	Text  string
}

// KeywordMatch is the partial fuzzy score of one keyword against a student answer.
type KeywordMatch struct {
	Keyword string `json:"keyword"`
	Score   int    `json:"score"`
}

// QuestionResult explains how a single question was scored.
type QuestionResult struct {
	Index             int            `json:"question_index"`
	ReferenceText     string         `json:"correct_answer"`
	StudentText       string         `json:"student_answer"`
	Keywords          []string       `json:"keywords"`
	KeywordMatches    []KeywordMatch `json:"keyword_matches"`
	MatchedCount      int            `json:"matched_keyword_count"`
	TotalKeywords     int            `json:"total_keywords"`
	MarksAwarded      float64        `json:"marksAwarded"`
	TotalMarks        float64        `json:"totalMarks"`
	OverallSimilarity float64        `json:"overall_similarity"`
}

// EvaluationReport is the graded outcome of a submission.
// ID, AnswerKeyID and EvaluatedAt are only set once the service has stored the report.
type EvaluationReport struct {
	ID              string           `json:"id,omitempty"`
	AnswerKeyID     string           `json:"answerKeyId,omitempty"`
	EvaluatedAt     *time.Time       `json:"evaluatedAt,omitempty"`
	QuestionResults []QuestionResult `json:"questionResults"`
	TotalScore      float64          `json:"totalScore"`
	MaxScore        float64          `json:"maxScore"`
}

// ImageText lists the lines recognized in one image or PDF page.
type ImageText struct {
	Source string   `json:"source"`
	Lines  []string `json:"lines"`
}

// OCRResult is the ingestion output handed to the grader as StudentText.
type OCRResult struct {
	PerImage []ImageText `json:"perImage"`
	Text     string      `json:"text"`
}

// PageImage is a rendered PDF page encoded as a PNG data URL.
type PageImage struct {
	Page        int    `json:"page"`
	ImageBase64 string `json:"imageBase64"`
}
