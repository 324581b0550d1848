package tutor

import (
	"sync"
	"time"
)

// RateLimiter caps requests per user to at most `max` within a trailing
// window, tracked as a pruned list of timestamps. This is deliberately
// approximate (not a token bucket): callers key UI messaging off the wait
// time returned by WaitTime, so the pruned-list behavior is part of the
// contract.
type RateLimiter struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	sessions sessionAccessor

	nowFunc func() time.Time // mockable
}

// sessionAccessor lets the limiter reach the per-user timestamp list without
// owning session lifecycle.
type sessionAccessor interface {
	session(userID string) *Session
}

func NewRateLimiter(max int, window time.Duration, sessions sessionAccessor) *RateLimiter {
	return &RateLimiter{
		max:      max,
		window:   window,
		sessions: sessions,
		nowFunc:  time.Now,
	}
}

// Allow prunes timestamps older than the window, then admits and records the
// request if the user is under the cap. A rejected request is not recorded.
func (rl *RateLimiter) Allow(userID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	sess := rl.sessions.session(userID)
	now := rl.nowFunc()
	sess.requests = prune(sess.requests, now.Add(-rl.window))
	if len(sess.requests) >= rl.max {
		return false
	}
	sess.requests = append(sess.requests, now)
	return true
}

// WaitTime returns the remaining time until the oldest retained timestamp
// exits the window, or zero if none is retained.
func (rl *RateLimiter) WaitTime(userID string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	sess := rl.sessions.session(userID)
	now := rl.nowFunc()
	sess.requests = prune(sess.requests, now.Add(-rl.window))
	if len(sess.requests) == 0 {
		return 0
	}
	wait := sess.requests[0].Add(rl.window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
