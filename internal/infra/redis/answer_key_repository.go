package redis

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"exam-grader/internal/domain"
	"exam-grader/internal/infra/memory"
)

// AnswerKeyRepository caches answer keys in Redis (hash per key) and falls back to a loader on cache miss.
// Keys are stored as: HSET answerkey:{id} title .. answers .. marks .. keywords .. created_at ..
type AnswerKeyRepository struct {
	client *redis.Client
	loader memory.AnswerKeyLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewAnswerKeyRepository(client *redis.Client, loader memory.AnswerKeyLoader, ttl time.Duration) *AnswerKeyRepository {
	return &AnswerKeyRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *AnswerKeyRepository) GetAnswerKey(ctx context.Context, id string) (domain.AnswerKey, error) {
	if key, ok := r.cached(ctx, id); ok {
		return key, nil
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if key, ok := r.cached(ctx, id); ok {
			return key, nil
		}
		key, err := r.loader.LoadAnswerKey(ctx, id)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		r.fill(ctx, key)
		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

// SaveAnswerKey writes through to the loader, then refreshes the Redis copy.
func (r *AnswerKeyRepository) SaveAnswerKey(ctx context.Context, key domain.AnswerKey) error {
	if err := r.loader.SaveAnswerKey(ctx, key); err != nil {
		return err
	}
	r.fill(ctx, key)
	return nil
}

func (r *AnswerKeyRepository) cached(ctx context.Context, id string) (domain.AnswerKey, bool) {
	fields, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil || len(fields) == 0 {
		return domain.AnswerKey{}, false
	}
	key := domain.AnswerKey{
		ID:           id,
		Title:        fields["title"],
		AnswerText:   fields["answers"],
		MarksText:    fields["marks"],
		KeywordsText: fields["keywords"],
	}
	if raw, ok := fields["created_at"]; ok {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			key.CreatedAt = ts
		}
	}
	return key, true
}

// fill is best effort: a failed cache write only costs a reload.
func (r *AnswerKeyRepository) fill(ctx context.Context, key domain.AnswerKey) {
	hashKey := r.key(key.ID)
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, hashKey)
	pipe.HSet(ctx, hashKey,
		"title", key.Title,
		"answers", key.AnswerText,
		"marks", key.MarksText,
		"keywords", key.KeywordsText,
		"created_at", key.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if ttl := r.ttlWithJitter(); ttl > 0 {
		pipe.Expire(ctx, hashKey, ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (r *AnswerKeyRepository) key(id string) string {
	return "answerkey:" + id
}

func (r *AnswerKeyRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
