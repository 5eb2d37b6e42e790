package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"exam-grader/internal/domain"
)

func TestAnswerKeyRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		AnswerKeyLoader: NewStaticAnswerKeyLoader(map[string]domain.AnswerKey{
			"key-1": sampleAnswerKey(),
		}),
	}
	repo := NewAnswerKeyRepository(loader, time.Minute)

	if _, err := repo.GetAnswerKey(context.Background(), "key-1"); err != nil {
		t.Fatalf("get answer key: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	key, err := repo.GetAnswerKey(context.Background(), "key-1")
	if err != nil {
		t.Fatalf("get answer key 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if key.MarksText != "5" {
		t.Fatalf("unexpected cached key %+v", key)
	}
}

func TestAnswerKeyRepositoryExpires(t *testing.T) {
	loader := &countingLoader{
		AnswerKeyLoader: NewStaticAnswerKeyLoader(map[string]domain.AnswerKey{
			"key-1": sampleAnswerKey(),
		}),
	}
	repo := NewAnswerKeyRepository(loader, time.Minute)
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetAnswerKey(context.Background(), "key-1")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetAnswerKey(context.Background(), "key-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestAnswerKeyRepositoryMissing(t *testing.T) {
	repo := NewAnswerKeyRepository(NewStaticAnswerKeyLoader(nil), time.Minute)
	_, err := repo.GetAnswerKey(context.Background(), "nope")
	if !errors.Is(err, domain.ErrAnswerKeyNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAnswerKeyRepositorySaveWritesThrough(t *testing.T) {
	static := NewStaticAnswerKeyLoader(nil)
	loader := &countingLoader{AnswerKeyLoader: static}
	repo := NewAnswerKeyRepository(loader, time.Minute)

	if err := repo.SaveAnswerKey(context.Background(), sampleAnswerKey()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := static.LoadAnswerKey(context.Background(), "key-1"); err != nil {
		t.Fatalf("expected key in backing store: %v", err)
	}
	if _, err := repo.GetAnswerKey(context.Background(), "key-1"); err != nil {
		t.Fatalf("get after save: %v", err)
	}
	if loader.calls != 0 {
		t.Fatalf("expected saved key to be served from cache, loader calls %d", loader.calls)
	}
}

type countingLoader struct {
	AnswerKeyLoader
	calls int
}

func (l *countingLoader) LoadAnswerKey(ctx context.Context, id string) (domain.AnswerKey, error) {
	l.calls++
	return l.AnswerKeyLoader.LoadAnswerKey(ctx, id)
}

func sampleAnswerKey() domain.AnswerKey {
	return domain.AnswerKey{
		ID:           "key-1",
		Title:        "Biology unit 1",
		AnswerText:   "The mitochondria is the powerhouse of the cell",
		MarksText:    "5",
		KeywordsText: "mitochondria, powerhouse",
	}
}
