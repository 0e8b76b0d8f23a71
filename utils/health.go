package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Redis     string    `json:"redis"`
	Gemini    bool      `json:"geminiConfigured"`
	Dictation bool      `json:"dictationConfigured"`
	CheckedAt time.Time `json:"checkedAt"`
}

// HealthMonitor keeps the latest health snapshot in memory.
type HealthMonitor struct {
	redis     *redis.Client
	gemini    bool
	dictation bool

	mu      sync.RWMutex
	current HealthStatus
}

func NewHealthMonitor(redisClient *redis.Client, geminiConfigured, dictationConfigured bool) *HealthMonitor {
	m := &HealthMonitor{redis: redisClient, gemini: geminiConfigured, dictation: dictationConfigured}
	m.Check(context.Background())
	return m
}

// Status returns latest stored health snapshot.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Healthy reports whether every configured dependency answered the last check.
func (m *HealthMonitor) Healthy() bool {
	return m.Status().Redis != "down"
}

// Check refreshes the snapshot.
func (m *HealthMonitor) Check(ctx context.Context) {
	redisState := "disabled"
	if m.redis != nil {
		redisState = "up"
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := m.redis.Ping(pingCtx).Err(); err != nil {
			redisState = "down"
		}
		cancel()
	}

	m.mu.Lock()
	m.current = HealthStatus{
		Redis:     redisState,
		Gemini:    m.gemini,
		Dictation: m.dictation,
		CheckedAt: time.Now(),
	}
	m.mu.Unlock()
}

// Start performs periodic health checks until ctx is done.
func (m *HealthMonitor) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}
