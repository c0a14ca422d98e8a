package timeutil

import (
	"testing"
	"time"
)

func TestMockTimerFiresOnAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	timer := c.NewTimer(time.Hour)

	c.Advance(59 * time.Minute)
	select {
	case <-timer.C():
		t.Fatal("timer fired early")
	default:
	}
	if c.PendingTimers() != 1 {
		t.Fatalf("expected 1 pending timer, got %d", c.PendingTimers())
	}

	c.Advance(time.Minute)
	select {
	case got := <-timer.C():
		if !got.Equal(start.Add(time.Hour)) {
			t.Fatalf("expected fire time %v, got %v", start.Add(time.Hour), got)
		}
	default:
		t.Fatal("timer did not fire")
	}
	if c.PendingTimers() != 0 {
		t.Fatalf("expected no pending timers, got %d", c.PendingTimers())
	}
}

func TestMockTimerStop(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	timer := c.NewTimer(time.Second)
	if !timer.Stop() {
		t.Fatal("expected Stop to report active timer")
	}
	c.Advance(time.Minute)
	select {
	case <-timer.C():
		t.Fatal("stopped timer fired")
	default:
	}
	if timer.Stop() {
		t.Fatal("second Stop should report inactive")
	}
}

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	timer := c.NewTimer(time.Millisecond)
	select {
	case <-timer.C():
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
	if c.Now().IsZero() {
		t.Fatal("expected non-zero time")
	}
}
