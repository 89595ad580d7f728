package httpapi

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleAfter is how long an unused per-user limiter is kept.
const idleAfter = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserLimiter hands out one token bucket per user id.
type UserLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	every     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// NewUserLimiter allows perMinute requests per user per minute.
// perMinute <= 0 disables limiting.
func NewUserLimiter(perMinute int) *UserLimiter {
	l := &UserLimiter{visitors: map[string]*visitor{}, now: time.Now}
	if perMinute > 0 {
		l.every = rate.Every(time.Minute / time.Duration(perMinute))
		l.burst = perMinute
	}
	return l
}

// Allow reports whether userID may make another request now.
func (l *UserLimiter) Allow(userID string) bool {
	if l.burst == 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > idleAfter {
		for id, v := range l.visitors {
			if now.Sub(v.lastSeen) > idleAfter {
				delete(l.visitors, id)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[userID]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.visitors[userID] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}
