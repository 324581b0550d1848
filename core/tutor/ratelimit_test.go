package tutor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemorySessionStore()
	rl := NewRateLimiter(5, time.Minute, store)
	rl.nowFunc = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("u1"), "request %d should be admitted", i+1)
		now = now.Add(time.Second)
	}
	assert.False(t, rl.Allow("u1"), "6th request within the window should be rejected")

	// rejection must not be recorded against the window
	assert.Len(t, store.session("u1").requests, 5)

	// another user has an independent window
	assert.True(t, rl.Allow("u2"))
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemorySessionStore()
	rl := NewRateLimiter(5, time.Minute, store)
	rl.nowFunc = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("u1"))
	}
	assert.False(t, rl.Allow("u1"))

	// once the oldest stamp leaves the window the user is admitted again
	now = now.Add(time.Minute + time.Second)
	assert.True(t, rl.Allow("u1"))
}

func TestRateLimiterWaitTime(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemorySessionStore()
	rl := NewRateLimiter(2, time.Minute, store)
	rl.nowFunc = func() time.Time { return now }

	assert.Zero(t, rl.WaitTime("u1"), "no retained stamps means no wait")

	assert.True(t, rl.Allow("u1"))
	now = now.Add(10 * time.Second)
	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))

	// the oldest stamp is 10s old, so it exits the window in 50s
	assert.Equal(t, 50*time.Second, rl.WaitTime("u1"))

	// after 50s the oldest stamp is gone; the next-oldest exits in 10s
	now = now.Add(50 * time.Second)
	assert.Equal(t, 10*time.Second, rl.WaitTime("u1"))
	assert.True(t, rl.Allow("u1"))
}
