package memory

import (
	"context"
	"sync"
	"time"

	"exam-grader/internal/domain"
)

// ReportStore is an in-memory implementation of app.ReportRepository.
// Reports older than ttl are dropped lazily on access; ttl <= 0 keeps them forever.
type ReportStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu      sync.RWMutex
	reports map[string]storedReport
}

type storedReport struct {
	report    domain.EvaluationReport
	expiresAt time.Time
}

func NewReportStore(ttl time.Duration) *ReportStore {
	return &ReportStore{
		ttl:     ttl,
		clock:   time.Now,
		reports: make(map[string]storedReport),
	}
}

func (s *ReportStore) SaveReport(_ context.Context, report domain.EvaluationReport) error {
	entry := storedReport{report: report}
	if s.ttl > 0 {
		entry.expiresAt = s.clock().Add(s.ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = entry
	return nil
}

func (s *ReportStore) GetReport(_ context.Context, id string) (domain.EvaluationReport, error) {
	s.mu.RLock()
	entry, ok := s.reports[id]
	s.mu.RUnlock()
	if !ok {
		return domain.EvaluationReport{}, domain.ErrReportNotFound
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(s.clock()) {
		s.mu.Lock()
		delete(s.reports, id)
		s.mu.Unlock()
		return domain.EvaluationReport{}, domain.ErrReportNotFound
	}
	return entry.report, nil
}
