package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/daily-riddle/internal/cache"
	"github.com/oggyb/daily-riddle/internal/config"
)

func newCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	return cache.NewRedisCache(cfg), mr
}

func TestJSONRoundTripAndTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)
	key := c.KeyForWeeklyBoard("2026-10-12")
	assert.Equal(t, "leaderboard:week:2026-10-12", key)

	var out []string
	hit, err := c.GetJSON(ctx, key, &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.SetJSON(ctx, key, []string{"a", "b"}, time.Minute))
	hit, err = c.GetJSON(ctx, key, &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, out)

	mr.FastForward(2 * time.Minute)
	hit, err = c.GetJSON(ctx, key, &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestGetJSON_CorruptEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)
	require.NoError(t, mr.Set("k", "{not json"))

	var out map[string]int
	hit, err := c.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, mr.Exists("k"))
}

func TestAchievementRetryQueue(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	require.NoError(t, c.EnqueueAchievementRetry(ctx, []byte(`{"userId":"u1"}`)))
	require.NoError(t, c.EnqueueAchievementRetry(ctx, []byte(`{"userId":"u2"}`)))

	n, err := c.PendingAchievementRetries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	payload, ok, err := c.PopAchievementRetry(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"userId":"u1"}`, string(payload))

	_, _, _ = c.PopAchievementRetry(ctx)
	_, ok, err = c.PopAchievementRetry(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
