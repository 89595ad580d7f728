package httpapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserLimiter(t *testing.T) {
	clock := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	l := NewUserLimiter(2)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "buckets are per user")

	clock = clock.Add(30 * time.Second)
	assert.True(t, l.Allow("a"))
}

func TestUserLimiter_SweepsIdleUsers(t *testing.T) {
	clock := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	l := NewUserLimiter(5)
	l.now = func() time.Time { return clock }

	l.Allow("a")
	clock = clock.Add(idleAfter + time.Minute)
	l.Allow("b")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.visitors, "a")
	assert.Contains(t, l.visitors, "b")
}

func TestUserLimiter_Disabled(t *testing.T) {
	l := NewUserLimiter(0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("a"))
	}
}
