package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/n2digital-pt/lead-lens-n2/config"

	"github.com/go-redis/redis/v8"
)

// CacheClient holds busy flags and cached analyses.
var CacheClient *redis.Client

// InitCache connects the cache client. It returns nil, nil when no Redis
// address is configured so callers can fall back to memory.
func InitCache() (*redis.Client, error) {
	if config.AppConfig.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis (Cache): %w", err)
	}
	CacheClient = client
	return client, nil
}
