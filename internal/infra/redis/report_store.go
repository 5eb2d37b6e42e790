package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"exam-grader/internal/domain"
)

// ReportStore keeps evaluation reports as JSON strings under report:{id}.
// Redis expiry replaces the in-process TTL bookkeeping of memory.ReportStore.
type ReportStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportStore(client *redis.Client, ttl time.Duration) *ReportStore {
	return &ReportStore{client: client, ttl: ttl}
}

func (s *ReportStore) SaveReport(ctx context.Context, report domain.EvaluationReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return s.client.Set(ctx, s.key(report.ID), payload, s.ttl).Err()
}

func (s *ReportStore) GetReport(ctx context.Context, id string) (domain.EvaluationReport, error) {
	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.EvaluationReport{}, domain.ErrReportNotFound
	}
	if err != nil {
		return domain.EvaluationReport{}, err
	}
	var report domain.EvaluationReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return domain.EvaluationReport{}, fmt.Errorf("decode report %s: %w", id, err)
	}
	return report, nil
}

func (s *ReportStore) key(id string) string {
	return "report:" + id
}
