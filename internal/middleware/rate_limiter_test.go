package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_CheckUserLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Stop()

	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return current }

	assert.True(t, rl.CheckUserLimit(1))
	assert.True(t, rl.CheckUserLimit(1))
	assert.True(t, rl.CheckUserLimit(1))
	assert.False(t, rl.CheckUserLimit(1), "fourth request in the window is rejected")

	// Other users are independent
	assert.True(t, rl.CheckUserLimit(2))

	// Window rolls over
	current = current.Add(time.Minute)
	assert.True(t, rl.CheckUserLimit(1))
	assert.True(t, rl.CheckUserLimit(1))
	assert.True(t, rl.CheckUserLimit(1))
	assert.False(t, rl.CheckUserLimit(1))
}

func TestRateLimiter_Forget(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	defer rl.Stop()

	assert.True(t, rl.CheckUserLimit(7))
	assert.False(t, rl.CheckUserLimit(7))

	rl.Forget(7)
	assert.True(t, rl.CheckUserLimit(7))

	rl.Stop()
	rl.Stop()
}
