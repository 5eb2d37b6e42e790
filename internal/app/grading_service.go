package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"exam-grader/internal/domain"
	"exam-grader/internal/grading"
)

// AnswerKeyRepository loads and stores reusable answer keys (cache in front of a backing store).
type AnswerKeyRepository interface {
	GetAnswerKey(ctx context.Context, id string) (domain.AnswerKey, error)
	SaveAnswerKey(ctx context.Context, key domain.AnswerKey) error
}

// ReportRepository keeps evaluation reports so clients can fetch them again by ID.
type ReportRepository interface {
	SaveReport(ctx context.Context, report domain.EvaluationReport) error
	GetReport(ctx context.Context, id string) (domain.EvaluationReport, error)
}

// EvaluationObserver is notified after every graded submission (metrics).
type EvaluationObserver interface {
	ObserveEvaluation(questions int, total, max float64)
}

// GradingService resolves stored answer keys, runs the grading engine and persists reports.
type GradingService struct {
	engine   *grading.Engine
	keys     AnswerKeyRepository
	reports  ReportRepository
	logger   *zap.Logger
	observer EvaluationObserver
	now      func() time.Time
	newID    func() string
}

type GradingOption func(*GradingService)

func WithLogger(logger *zap.Logger) GradingOption {
	return func(s *GradingService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithEvaluationObserver(o EvaluationObserver) GradingOption {
	return func(s *GradingService) { s.observer = o }
}

// WithClock is test-only for deterministic timestamps and IDs.
func WithClock(now func() time.Time, newID func() string) GradingOption {
	return func(s *GradingService) {
		if now != nil {
			s.now = now
		}
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewGradingService wires the engine to its stores. keys and reports may be nil,
// in which case stored answer keys are unavailable and reports are not kept.
func NewGradingService(engine *grading.Engine, keys AnswerKeyRepository, reports ReportRepository, opts ...GradingOption) *GradingService {
	if engine == nil {
		engine = grading.NewEngine()
	}
	s := &GradingService{
		engine:  engine,
		keys:    keys,
		reports: reports,
		logger:  zap.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate grades a submission and stores the report.
func (s *GradingService) Evaluate(ctx context.Context, sub domain.Submission) (domain.EvaluationReport, error) {
	return s.EvaluateStream(ctx, sub, nil)
}

// EvaluateStream behaves like Evaluate and additionally hands each question result
// to onQuestion in question order before the report is returned.
func (s *GradingService) EvaluateStream(ctx context.Context, sub domain.Submission, onQuestion func(domain.QuestionResult)) (domain.EvaluationReport, error) {
	resolved, err := s.resolve(ctx, sub)
	if err != nil {
		return domain.EvaluationReport{}, err
	}

	report := s.engine.EvaluateFunc(resolved, onQuestion)

	evaluatedAt := s.now().UTC()
	report.ID = s.newID()
	report.AnswerKeyID = sub.AnswerKeyID
	report.EvaluatedAt = &evaluatedAt

	if s.reports != nil {
		if err := s.reports.SaveReport(ctx, report); err != nil {
			return domain.EvaluationReport{}, fmt.Errorf("save report: %w", err)
		}
	}
	if s.observer != nil {
		s.observer.ObserveEvaluation(len(report.QuestionResults), report.TotalScore, report.MaxScore)
	}
	s.logger.Info("submission graded",
		zap.String("report_id", report.ID),
		zap.String("answer_key_id", report.AnswerKeyID),
		zap.Int("questions", len(report.QuestionResults)),
		zap.Float64("total_score", report.TotalScore),
		zap.Float64("max_score", report.MaxScore),
	)
	return report, nil
}

// Report returns a previously stored report.
func (s *GradingService) Report(ctx context.Context, id string) (domain.EvaluationReport, error) {
	if s.reports == nil {
		return domain.EvaluationReport{}, domain.ErrReportNotFound
	}
	return s.reports.GetReport(ctx, id)
}

// SaveAnswerKey stores key, assigning an ID and creation time when missing.
func (s *GradingService) SaveAnswerKey(ctx context.Context, key domain.AnswerKey) (domain.AnswerKey, error) {
	if s.keys == nil {
		return domain.AnswerKey{}, fmt.Errorf("answer key storage is not configured")
	}
	if key.ID == "" {
		key.ID = s.newID()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = s.now().UTC()
	}
	if err := s.keys.SaveAnswerKey(ctx, key); err != nil {
		return domain.AnswerKey{}, fmt.Errorf("save answer key %s: %w", key.ID, err)
	}
	s.logger.Info("answer key stored", zap.String("answer_key_id", key.ID), zap.String("title", key.Title))
	return key, nil
}

func (s *GradingService) AnswerKey(ctx context.Context, id string) (domain.AnswerKey, error) {
	if s.keys == nil {
		return domain.AnswerKey{}, domain.ErrAnswerKeyNotFound
	}
	return s.keys.GetAnswerKey(ctx, id)
}

// resolve replaces the inline key blocks with the stored answer key when one is referenced.
func (s *GradingService) resolve(ctx context.Context, sub domain.Submission) (domain.Submission, error) {
	if sub.AnswerKeyID == "" {
		return sub, nil
	}
	key, err := s.AnswerKey(ctx, sub.AnswerKeyID)
	if err != nil {
		return domain.Submission{}, err
	}
	sub.AnswerKey = key.AnswerText
	sub.MarksKey = key.MarksText
	sub.KeywordsKey = key.KeywordsText
	return sub, nil
}
