// Package ratelimit throttles repeated events per key, such as the same
// class of fault being logged on every frame of a misbehaving stream.
package ratelimit

import (
	"sync"
	"time"

	"grimm.is/swarmctl/internal/clock"
)

// Limiter manages fixed-window limits for multiple keys.
type Limiter struct {
	clock    clock.Clock
	limit    int
	interval time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens     int
	windowFrom time.Time
	suppressed int
}

// NewLimiter allows up to limit events per key in each interval.
// A nil clock uses the real clock.
func NewLimiter(c clock.Clock, limit int, interval time.Duration) *Limiter {
	if c == nil {
		c = clock.Default()
	}
	if limit < 1 {
		limit = 1
	}
	return &Limiter{
		clock:    c,
		limit:    limit,
		interval: interval,
		buckets:  make(map[string]*bucket),
	}
}

// Allow reports whether an event for key may proceed. When the window rolls
// over, it also returns how many events were suppressed in the previous
// window so callers can emit one summary line.
func (l *Limiter) Allow(key string) (ok bool, suppressed int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{tokens: l.limit, windowFrom: now}
		l.buckets[key] = b
	}

	if now.Sub(b.windowFrom) >= l.interval {
		suppressed = b.suppressed
		b.tokens = l.limit
		b.windowFrom = now
		b.suppressed = 0
	}

	if b.tokens <= 0 {
		b.suppressed++
		return false, 0
	}
	b.tokens--
	return true, suppressed
}

// Suppressed returns the number of events dropped for key in the current window.
func (l *Limiter) Suppressed(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b.suppressed
	}
	return 0
}

// Reset clears the state for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// CleanupExpired removes buckets whose window started more than maxAge ago.
func (l *Limiter) CleanupExpired(maxAge time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	for key, b := range l.buckets {
		if now.Sub(b.windowFrom) > maxAge {
			delete(l.buckets, key)
		}
	}
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
