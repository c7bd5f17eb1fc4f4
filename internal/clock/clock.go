// Package clock provides a mockable time source for testing.
// In production, it simply wraps the time package. For tests, use MockClock,
// whose timers only fire when the test advances the clock.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock is the interface for time operations.
// Use package-level functions for convenience, or inject a Clock for testing.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	Until(t time.Time) time.Duration
	// AfterFunc schedules fn to run once after d. The returned Timer cancels it.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancelable scheduled task.
type Timer interface {
	// Stop prevents the task from firing. It reports whether the call
	// stopped the task (false if it already fired or was stopped).
	Stop() bool
}

// --- Real Clock (simple wrapper) ---

// RealClock provides the actual system time.
type RealClock struct{}

// Now returns the current system time.
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t.
func (c *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// Until returns the duration until t.
func (c *RealClock) Until(t time.Time) time.Duration {
	return time.Until(t)
}

// AfterFunc wraps time.AfterFunc.
func (c *RealClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// --- Mock Clock (for testing) ---

// MockClock is a test clock with controllable time.
type MockClock struct {
	mu      sync.RWMutex
	current time.Time
	timers  []*mockTimer
	seq     uint64
}

type mockTimer struct {
	clock    *MockClock
	deadline time.Time
	seq      uint64
	fn       func()
	stopped  bool
	fired    bool
}

// NewMockClock creates a mock clock set to the given time.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

// Now returns the mock time.
func (c *MockClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Since returns the duration since t.
func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Until returns the duration until t.
func (c *MockClock) Until(t time.Time) time.Duration {
	return t.Sub(c.Now())
}

// AfterFunc registers fn to fire once the mock time reaches now+d.
func (c *MockClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &mockTimer{
		clock:    c,
		deadline: c.current.Add(d),
		seq:      c.seq,
		fn:       fn,
	}
	c.timers = append(c.timers, t)
	return t
}

// Pending returns the number of timers that have not fired or been stopped.
func (c *MockClock) Pending() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.timers)
}

// Set sets the mock time. Timers are not fired; use Advance for that.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// Advance advances the mock time by d, firing due timers in deadline order.
// Each timer runs with the clock set to its deadline, outside the lock, so
// callbacks may schedule further timers; those fire too if they fall due.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.current.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.current = target
			c.mu.Unlock()
			return
		}
		c.current = next.deadline
		next.fired = true
		c.removeLocked(next)
		c.mu.Unlock()

		next.fn()
	}
}

func (c *MockClock) nextDueLocked(target time.Time) *mockTimer {
	if len(c.timers) == 0 {
		return nil
	}
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].deadline.Equal(c.timers[j].deadline) {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].deadline.Before(c.timers[j].deadline)
	})
	if c.timers[0].deadline.After(target) {
		return nil
	}
	return c.timers[0]
}

func (c *MockClock) removeLocked(t *mockTimer) {
	for i, other := range c.timers {
		if other == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return
		}
	}
}

// Stop cancels the timer.
func (t *mockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	t.clock.removeLocked(t)
	return true
}

// --- Package-level convenience functions ---

// Now returns the current system time.
func Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t.
func Since(t time.Time) time.Duration {
	return time.Since(t)
}

// Until returns the duration until t.
func Until(t time.Time) time.Duration {
	return time.Until(t)
}

// Default returns the real clock.
func Default() Clock {
	return &RealClock{}
}
