package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"exam-grader/internal/domain"
)

// AnswerKeyLoader reads and writes answer keys in a backing store (e.g. Postgres).
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, id string) (domain.AnswerKey, error)
	SaveAnswerKey(ctx context.Context, key domain.AnswerKey) error
}

// AnswerKeyRepository caches answer keys with TTL to avoid repeated DB hits.
type AnswerKeyRepository struct {
	loader AnswerKeyLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedAnswerKey
}

type cachedAnswerKey struct {
	key       domain.AnswerKey
	expiresAt time.Time
}

func NewAnswerKeyRepository(loader AnswerKeyLoader, ttl time.Duration) *AnswerKeyRepository {
	return &AnswerKeyRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedAnswerKey),
	}
}

func (r *AnswerKeyRepository) GetAnswerKey(ctx context.Context, id string) (domain.AnswerKey, error) {
	if key, ok := r.cached(id); ok {
		return key, nil
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		if key, ok := r.cached(id); ok {
			return key, nil
		}
		key, err := r.loader.LoadAnswerKey(ctx, id)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		r.store(key)
		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

// SaveAnswerKey writes through to the loader and refreshes the cached copy.
func (r *AnswerKeyRepository) SaveAnswerKey(ctx context.Context, key domain.AnswerKey) error {
	if err := r.loader.SaveAnswerKey(ctx, key); err != nil {
		return err
	}
	r.store(key)
	return nil
}

func (r *AnswerKeyRepository) cached(id string) (domain.AnswerKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[id]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.AnswerKey{}, false
	}
	return entry.key, true
}

func (r *AnswerKeyRepository) store(key domain.AnswerKey) {
	expiresAt := r.clock().Add(r.ttlWithJitter())
	r.mu.Lock()
	r.cache[key.ID] = cachedAnswerKey{key: key, expiresAt: expiresAt}
	r.mu.Unlock()
}

func (r *AnswerKeyRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticAnswerKeyLoader keeps answer keys in a map (used when no database is configured).
type StaticAnswerKeyLoader struct {
	mu   sync.RWMutex
	keys map[string]domain.AnswerKey
}

func NewStaticAnswerKeyLoader(keys map[string]domain.AnswerKey) *StaticAnswerKeyLoader {
	copied := make(map[string]domain.AnswerKey, len(keys))
	for id, k := range keys {
		copied[id] = k
	}
	return &StaticAnswerKeyLoader{keys: copied}
}

func (l *StaticAnswerKeyLoader) LoadAnswerKey(_ context.Context, id string) (domain.AnswerKey, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if key, ok := l.keys[id]; ok {
		return key, nil
	}
	return domain.AnswerKey{}, domain.ErrAnswerKeyNotFound
}

func (l *StaticAnswerKeyLoader) SaveAnswerKey(_ context.Context, key domain.AnswerKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys[key.ID] = key
	return nil
}
