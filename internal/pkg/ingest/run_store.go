package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunStore persists runs between steps. Load returns nil, nil for unknown IDs.
type RunStore interface {
	Load(ctx context.Context, id string) (*Run, error)
	Save(ctx context.Context, run *Run) error
	Delete(ctx context.Context, id string) error
}

const (
	RunKeyPrefix  = "qbsync:run:"
	DefaultRunTTL = 24 * time.Hour
)

// RedisRunStore keeps each run as a JSON value with a TTL.
type RedisRunStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRunStore(client *redis.Client, ttl time.Duration) *RedisRunStore {
	if ttl <= 0 {
		ttl = DefaultRunTTL
	}
	return &RedisRunStore{client: client, ttl: ttl}
}

func (s *RedisRunStore) Load(ctx context.Context, id string) (*Run, error) {
	data, err := s.client.Get(ctx, RunKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *RedisRunStore) Save(ctx context.Context, run *Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, RunKeyPrefix+run.ID, data, s.ttl).Err()
}

func (s *RedisRunStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, RunKeyPrefix+id).Err()
}

// MemoryRunStore keeps runs in process.
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs map[string]Run
}

func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{runs: make(map[string]Run)}
}

func (s *MemoryRunStore) Load(_ context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, nil
	}
	return &run, nil
}

func (s *MemoryRunStore) Save(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	return nil
}

func (s *MemoryRunStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, id)
	return nil
}
