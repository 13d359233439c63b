// README: Redis client initialization for the extraction cache.
package infra

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"flybot/internal/config"
)

// NewRedis connects and pings Redis.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}
