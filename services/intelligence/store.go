package ai

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/n2digital-pt/lead-lens-n2/models"

	"github.com/go-redis/redis/v8"
)

const (
	busyPrefix     = "lead:busy:"
	analysisPrefix = "lead:analysis:"
)

// Store holds the per-session busy flag and recently produced analyses.
type Store interface {
	AcquireSession(ctx context.Context, sessionID string, ttl time.Duration) (bool, error)
	ReleaseSession(ctx context.Context, sessionID string) error
	SaveAnalysis(ctx context.Context, a *models.Analysis) error
	GetAnalysis(ctx context.Context, id string) (*models.Analysis, error)
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) AcquireSession(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, busyPrefix+sessionID, time.Now().Unix(), ttl).Result()
}

func (s *RedisStore) ReleaseSession(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, busyPrefix+sessionID).Err()
}

func (s *RedisStore) SaveAnalysis(ctx context.Context, a *models.Analysis) error {
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, analysisPrefix+a.ID, b, s.ttl).Err()
}

func (s *RedisStore) GetAnalysis(ctx context.Context, id string) (*models.Analysis, error) {
	data, err := s.client.Get(ctx, analysisPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var a models.Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// MemoryStore is the Store used without Redis. Entries expire lazily.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	busy     map[string]time.Time
	analyses map[string]memoryEntry
}

type memoryEntry struct {
	analysis  models.Analysis
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		busy:     make(map[string]time.Time),
		analyses: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) AcquireSession(_ context.Context, sessionID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if until, ok := s.busy[sessionID]; ok && now.Before(until) {
		return false, nil
	}
	s.busy[sessionID] = now.Add(ttl)
	return true, nil
}

func (s *MemoryStore) ReleaseSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.busy, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) SaveAnalysis(_ context.Context, a *models.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, e := range s.analyses {
		if !now.Before(e.expiresAt) {
			delete(s.analyses, id)
		}
	}
	s.analyses[a.ID] = memoryEntry{analysis: *a, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) GetAnalysis(_ context.Context, id string) (*models.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.analyses[id]
	if !ok || !s.now().Before(e.expiresAt) {
		delete(s.analyses, id)
		return nil, ErrNotFound
	}
	a := e.analysis
	return &a, nil
}
