package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"exam-grader/internal/domain"
)

// ReportStore keeps evaluation reports as JSONB rows. Reports are never expired here.
type ReportStore struct {
	pool *pgxpool.Pool
}

func NewReportStore(pool *pgxpool.Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

func (s *ReportStore) SaveReport(ctx context.Context, report domain.EvaluationReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	evaluatedAt := time.Now().UTC()
	if report.EvaluatedAt != nil {
		evaluatedAt = *report.EvaluatedAt
	}
	var answerKeyID *string
	if report.AnswerKeyID != "" {
		answerKeyID = &report.AnswerKeyID
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO reports (id, answer_key_id, total_score, max_score, data, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		report.ID, answerKeyID, report.TotalScore, report.MaxScore, data, evaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (s *ReportStore) GetReport(ctx context.Context, id string) (domain.EvaluationReport, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM reports WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.EvaluationReport{}, domain.ErrReportNotFound
	}
	if err != nil {
		return domain.EvaluationReport{}, fmt.Errorf("load report: %w", err)
	}
	var report domain.EvaluationReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return domain.EvaluationReport{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return report, nil
}
