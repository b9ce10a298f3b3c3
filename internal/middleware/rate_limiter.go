package middleware

import (
	"sync"
	"time"
)

// RateLimiter is a fixed-window per-user limiter used for relay flood control
type RateLimiter struct {
	userLimits map[int64]*userLimit
	mu         sync.Mutex

	maxRequests int
	window      time.Duration
	now         func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type userLimit struct {
	requests  int
	resetTime time.Time
}

// NewRateLimiter creates a limiter allowing maxRequests per window per user
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		userLimits:  make(map[int64]*userLimit),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		stop:        make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// CheckUserLimit records one request and reports whether it is allowed
func (rl *RateLimiter) CheckUserLimit(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	limit, exists := rl.userLimits[userID]
	if !exists || !now.Before(limit.resetTime) {
		rl.userLimits[userID] = &userLimit{
			requests:  1,
			resetTime: now.Add(rl.window),
		}
		return true
	}

	if limit.requests >= rl.maxRequests {
		return false
	}

	limit.requests++
	return true
}

// Forget drops the user's counter. Called when their session ends so the
// next partner starts from a fresh window.
func (rl *RateLimiter) Forget(userID int64) {
	rl.mu.Lock()
	delete(rl.userLimits, userID)
	rl.mu.Unlock()
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// cleanup removes expired entries
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
		}

		rl.mu.Lock()
		now := rl.now()
		for userID, limit := range rl.userLimits {
			if !now.Before(limit.resetTime) {
				delete(rl.userLimits, userID)
			}
		}
		rl.mu.Unlock()
	}
}
