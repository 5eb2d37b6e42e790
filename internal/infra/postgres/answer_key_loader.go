package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"exam-grader/internal/domain"
)

// AnswerKeyLoader reads and upserts rows of the answer_keys table.
type AnswerKeyLoader struct {
	pool *pgxpool.Pool
}

func NewAnswerKeyLoader(pool *pgxpool.Pool) *AnswerKeyLoader {
	return &AnswerKeyLoader{pool: pool}
}

func (l *AnswerKeyLoader) LoadAnswerKey(ctx context.Context, id string) (domain.AnswerKey, error) {
	key := domain.AnswerKey{ID: id}
	err := l.pool.QueryRow(ctx,
		`SELECT title, answers, marks, keywords, created_at FROM answer_keys WHERE id=$1`, id,
	).Scan(&key.Title, &key.AnswerText, &key.MarksText, &key.KeywordsText, &key.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AnswerKey{}, domain.ErrAnswerKeyNotFound
	}
	if err != nil {
		return domain.AnswerKey{}, fmt.Errorf("load answer key: %w", err)
	}
	return key, nil
}

func (l *AnswerKeyLoader) SaveAnswerKey(ctx context.Context, key domain.AnswerKey) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO answer_keys (id, title, answers, marks, keywords, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			answers = EXCLUDED.answers,
			marks = EXCLUDED.marks,
			keywords = EXCLUDED.keywords,
			updated_at = now()`,
		key.ID, key.Title, key.AnswerText, key.MarksText, key.KeywordsText, key.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save answer key: %w", err)
	}
	return nil
}
