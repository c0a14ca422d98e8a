// Package timeutil provides a testable abstraction over time operations.
package timeutil

import (
	"sync"
	"time"
)

// Clock provides the subset of time operations the alarm needs.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTimer creates a Timer that fires once after at least duration d.
	NewTimer(d time.Duration) Timer
}

// Timer represents a single event timer.
type Timer interface {
	// C returns the channel on which the time is delivered.
	C() <-chan time.Time

	// Stop prevents the Timer from firing.
	Stop() bool
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// NewTimer creates a new Timer.
func (RealClock) NewTimer(d time.Duration) Timer {
	return &realTimer{timer: time.NewTimer(d)}
}

type realTimer struct {
	timer *time.Timer
}

func (t *realTimer) C() <-chan time.Time { return t.timer.C }
func (t *realTimer) Stop() bool          { return t.timer.Stop() }

// MockClock is a manually controlled clock for testing.
type MockClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*MockTimer
}

// NewMockClock creates a new MockClock set to the given time.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now returns the mocked current time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the mock clock forward by d and fires any expired timers.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	timers := make([]*MockTimer, len(c.timers))
	copy(timers, c.timers)
	c.mu.Unlock()

	for _, t := range timers {
		t.checkAndFire(now)
	}
}

// NewTimer creates a new MockTimer that fires when the clock passes now+d.
func (c *MockClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &MockTimer{
		c:        make(chan time.Time, 1),
		deadline: c.now.Add(d),
		active:   true,
	}
	c.timers = append(c.timers, t)
	return t
}

// PendingTimers returns how many timers are armed and not yet fired.
func (c *MockClock) PendingTimers() int {
	c.mu.Lock()
	timers := make([]*MockTimer, len(c.timers))
	copy(timers, c.timers)
	c.mu.Unlock()

	n := 0
	for _, t := range timers {
		t.mu.Lock()
		if t.active {
			n++
		}
		t.mu.Unlock()
	}
	return n
}

// MockTimer is a timer driven by MockClock.Advance.
type MockTimer struct {
	mu       sync.Mutex
	c        chan time.Time
	deadline time.Time
	active   bool
}

// C returns the channel on which the time is delivered.
func (t *MockTimer) C() <-chan time.Time { return t.c }

// Stop prevents the timer from firing. It reports whether the timer was active.
func (t *MockTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := t.active
	t.active = false
	return was
}

func (t *MockTimer) checkAndFire(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active || now.Before(t.deadline) {
		return
	}
	t.active = false
	select {
	case t.c <- now:
	default:
	}
}
