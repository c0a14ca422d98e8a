package counter

import (
	"fmt"

	"github.com/danielpatrickdp/pose-alarm/internal/classifier"
)

// #region counter
// Counter is the two-state up/down repetition machine for one exercise.
// It is not safe for concurrent use; the pipeline owns it.
type Counter struct {
	exercise  Exercise
	threshold float64
	state     State
	count     int
}

// New creates a Counter in the resting state. A threshold <= 0 or NaN selects DefaultThreshold.
func New(ex Exercise, threshold float64) *Counter {
	return NewWithState(ex, threshold, StateResting)
}

// NewWithState creates a Counter starting from an explicit state. Passing
// StateUnset defers the initial state to the first high-confidence observation.
func NewWithState(ex Exercise, threshold float64, initial State) *Counter {
	if !(threshold > 0) {
		threshold = DefaultThreshold
	}
	return &Counter{exercise: ex, threshold: threshold, state: initial}
}

// Restore rebuilds a Counter from a persisted snapshot.
func Restore(s Snapshot) *Counter {
	c := NewWithState(s.Exercise, s.Threshold, s.State)
	if s.Count > 0 {
		c.count = s.Count
	}
	return c
}

// #endregion counter

// #region accessors
func (c *Counter) Exercise() Exercise { return c.exercise }
func (c *Counter) State() State       { return c.state }
func (c *Counter) Count() int         { return c.count }
func (c *Counter) Threshold() float64 { return c.threshold }

// Snapshot returns the persisted form of the counter.
func (c *Counter) Snapshot() Snapshot {
	return Snapshot{
		Exercise:  c.exercise,
		State:     c.state,
		Count:     c.count,
		Threshold: c.threshold,
	}
}

// ResetCount zeroes the count and leaves the state alone.
func (c *Counter) ResetCount() {
	c.count = 0
}

// #endregion accessors

// #region observe
// Observe applies one classification result.
//
// A move into the active state needs the active label at or above threshold.
// A move back to resting needs the resting label at or above threshold while
// active, and counts one repetition. An unset counter adopts whichever of its
// labels is reported above threshold without counting. Anything else, including
// results with a missing confidence entry, leaves the counter untouched.
func (c *Counter) Observe(result classifier.Result) Observation {
	obs := Observation{
		Exercise: c.exercise.Name,
		Previous: c.state,
		State:    c.state,
		Count:    c.count,
	}

	var tracked bool
	switch result.Label {
	case c.exercise.ActiveLabel, c.exercise.RestingLabel:
		tracked = true
	}
	if !tracked {
		obs.Reason = fmt.Sprintf("label %q not tracked", result.Label)
		return obs
	}

	conf, ok := result.Confidence(result.Label)
	if !ok {
		obs.Reason = fmt.Sprintf("no confidence for %q", result.Label)
		return obs
	}
	if !(conf >= c.threshold) {
		obs.Reason = fmt.Sprintf("%s confidence %.4f below %.4f", result.Label, conf, c.threshold)
		return obs
	}

	switch {
	case result.Label == c.exercise.ActiveLabel && c.state != StateActive:
		c.state = StateActive
		obs.Reason = fmt.Sprintf("%s at %.4f", result.Label, conf)
	case result.Label == c.exercise.RestingLabel && c.state == StateActive:
		c.state = StateResting
		c.count++
		obs.Incremented = true
		obs.Reason = fmt.Sprintf("repetition %d: %s at %.4f", c.count, result.Label, conf)
	case c.state == StateUnset:
		c.state = StateResting
		obs.Reason = fmt.Sprintf("initial state from %s at %.4f", result.Label, conf)
	default:
		obs.Reason = "already " + c.state.String()
	}

	obs.State = c.state
	obs.Count = c.count
	return obs
}

// #endregion observe
