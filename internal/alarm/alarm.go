// Package alarm implements the wake-up alarm the exercise session silences.
package alarm

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/danielpatrickdp/pose-alarm/internal/timeutil"
)

// #region time-of-day

// TimeOfDay is a wall-clock trigger time in the clock's location.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24-hour).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("time of day %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("time of day %q: bad hour", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q: bad minute", s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// String formats as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Next returns the first occurrence strictly after now.
func (t TimeOfDay) Next(now time.Time) time.Time {
	at := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

// #endregion time-of-day

// #region alarm

// Options configures an Alarm. All fields are optional.
type Options struct {
	OnRing func()
	OnStop func()
	Logger *slog.Logger
}

// Alarm is a single one-shot alarm. Scheduling again replaces the pending
// trigger. Ringing continues until Stop.
type Alarm struct {
	mu      sync.Mutex
	clock   timeutil.Clock
	opts    Options
	timer   timeutil.Timer
	done    chan struct{}
	at      time.Time
	ringing bool
}

// New creates an idle alarm.
func New(clock timeutil.Clock, opts Options) *Alarm {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Alarm{clock: clock, opts: opts}
}

// #endregion alarm

// #region schedule

// Schedule arms the alarm for the next occurrence of tod and returns that time.
func (a *Alarm) Schedule(tod TimeOfDay) time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cancelLocked()
	now := a.clock.Now()
	at := tod.Next(now)
	timer := a.clock.NewTimer(at.Sub(now))
	done := make(chan struct{})
	a.timer, a.done, a.at = timer, done, at

	go a.wait(timer, done)
	a.opts.Logger.Info("alarm scheduled", "at", at.Format(time.RFC3339), "in", at.Sub(now).Round(time.Second).String())
	return at
}

// Cancel disarms a pending trigger. It does not silence a ringing alarm.
func (a *Alarm) Cancel() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancelLocked()
}

// ScheduledAt returns the pending trigger time, if any.
func (a *Alarm) ScheduledAt() (time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.at, a.done != nil
}

func (a *Alarm) cancelLocked() bool {
	if a.done == nil {
		return false
	}
	a.timer.Stop()
	close(a.done)
	a.timer, a.done, a.at = nil, nil, time.Time{}
	return true
}

func (a *Alarm) wait(timer timeutil.Timer, done chan struct{}) {
	select {
	case <-timer.C():
		a.fire(done)
	case <-done:
	}
}

func (a *Alarm) fire(done chan struct{}) {
	a.mu.Lock()
	if a.done != done {
		// replaced or cancelled while the timer was in flight
		a.mu.Unlock()
		return
	}
	a.timer, a.done, a.at = nil, nil, time.Time{}
	a.mu.Unlock()
	a.Ring()
}

// #endregion schedule

// #region ring-stop

// Ring starts the alarm immediately.
func (a *Alarm) Ring() {
	a.mu.Lock()
	if a.ringing {
		a.mu.Unlock()
		return
	}
	a.ringing = true
	a.mu.Unlock()

	a.opts.Logger.Info("alarm ringing")
	if a.opts.OnRing != nil {
		a.opts.OnRing()
	}
}

// Stop silences a ringing alarm and reports whether it was ringing.
func (a *Alarm) Stop() bool {
	a.mu.Lock()
	was := a.ringing
	a.ringing = false
	a.mu.Unlock()

	if !was {
		return false
	}
	a.opts.Logger.Info("alarm stopped")
	if a.opts.OnStop != nil {
		a.opts.OnStop()
	}
	return true
}

// Active reports whether the alarm is ringing.
func (a *Alarm) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ringing
}

// #endregion ring-stop
