package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/daily-riddle/internal/config"
)

const achievementRetryKey = "achievements:retry"

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForWeeklyBoard generates the Redis key for a week's ranking.
func (c *RedisCache) KeyForWeeklyBoard(weekStart string) string {
	return fmt.Sprintf("leaderboard:week:%s", weekStart)
}

// GetJSON decodes the value at key into dst. A miss reports (false, nil).
func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	val, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil // cache miss
	} else if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dst); err != nil {
		// corrupt entry, drop it and report a miss
		_ = c.Client.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

// SetJSON stores v as JSON with the given TTL.
func (c *RedisCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	return c.Client.Set(ctx, key, b, ttl).Err()
}

// EnqueueAchievementRetry appends an encoded evaluation request to the retry list.
func (c *RedisCache) EnqueueAchievementRetry(ctx context.Context, payload []byte) error {
	return c.Client.RPush(ctx, achievementRetryKey, payload).Err()
}

// PopAchievementRetry takes the oldest queued payload. Empty queue reports (nil, false, nil).
func (c *RedisCache) PopAchievementRetry(ctx context.Context) ([]byte, bool, error) {
	payload, err := c.Client.LPop(ctx, achievementRetryKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// PendingAchievementRetries reports the retry queue length.
func (c *RedisCache) PendingAchievementRetries(ctx context.Context) (int64, error) {
	return c.Client.LLen(ctx, achievementRetryKey).Result()
}
