package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jcmexdev/food-delivery/internal/pkg/cache"
)

// Store persists session data by id. Load reports a missing or expired
// session as (nil, nil).
type Store interface {
	Load(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, id string, d *Data, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// CacheStore keeps sessions in Redis under <service>:session:<id>.
type CacheStore struct {
	cache cache.Cache
}

func NewCacheStore(c cache.Cache) *CacheStore {
	return &CacheStore{cache: c}
}

func (s *CacheStore) Load(ctx context.Context, id string) (*Data, error) {
	raw, err := s.cache.Get(ctx, s.cache.GenerateKey("session", id))
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	var d Data
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", id, err)
	}
	return &d, nil
}

func (s *CacheStore) Save(ctx context.Context, id string, d *Data, ttl time.Duration) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	return s.cache.Set(ctx, s.cache.GenerateKey("session", id), string(raw), ttl)
}

func (s *CacheStore) Delete(ctx context.Context, id string) error {
	return s.cache.Del(ctx, s.cache.GenerateKey("session", id))
}

type memEntry struct {
	data    Data
	expires time.Time
}

// MemoryStore is a process-local Store for single-instance deployments.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memEntry), now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	if s.now().After(e.expires) {
		delete(s.entries, id)
		return nil, nil
	}
	d := e.data
	return &d, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, d *Data, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.entries[id] = memEntry{data: *d, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// sweep drops expired entries; callers hold mu.
func (s *MemoryStore) sweep() {
	now := s.now()
	for id, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, id)
		}
	}
}
