package session

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/pose-alarm/internal/counter"
	"github.com/danielpatrickdp/pose-alarm/internal/logging"
)

// #region stopper
// Stopper silences whatever the session is guarding. alarm.Alarm satisfies it.
type Stopper interface {
	Stop() bool
}

// #endregion stopper

// #region config
// Config describes one exercise session.
type Config struct {
	ID           string
	Exercises    []counter.Exercise
	Target       string  // exercise name whose count completes the session
	RequiredReps int     // 0 disables the completion check
	Threshold    float64 // <= 0 uses counter.DefaultThreshold
	InitialState counter.State
}

// Validate checks exercises and that Target names one of them.
func (c Config) Validate() error {
	if len(c.Exercises) == 0 {
		return fmt.Errorf("at least one exercise is required")
	}
	seen := make(map[string]bool, len(c.Exercises))
	for _, ex := range c.Exercises {
		if err := ex.Validate(); err != nil {
			return err
		}
		if seen[ex.Name] {
			return fmt.Errorf("duplicate exercise %q", ex.Name)
		}
		seen[ex.Name] = true
	}
	if !seen[c.Target] {
		return fmt.Errorf("target exercise %q is not configured", c.Target)
	}
	if c.RequiredReps < 0 {
		return fmt.Errorf("required reps must be >= 0, got %d", c.RequiredReps)
	}
	if math.IsNaN(c.Threshold) || c.Threshold > 1 {
		return fmt.Errorf("threshold must be <= 1, got %g", c.Threshold)
	}
	return nil
}

// #endregion config

// #region outcome
// Outcome is what one classification result did to the session. Counters
// holds every counter after the completion check, in configured order.
type Outcome struct {
	Seq          int
	Observations []counter.Observation
	Counters     []counter.Snapshot
	Target       counter.Snapshot
	Completed    bool
	AlarmStopped bool
}

// Transitioned reports whether any counter changed state.
func (o Outcome) Transitioned() bool {
	for _, obs := range o.Observations {
		if obs.Transitioned() {
			return true
		}
	}
	return false
}

// Incremented reports whether any counter counted a repetition.
func (o Outcome) Incremented() bool {
	for _, obs := range o.Observations {
		if obs.Incremented {
			return true
		}
	}
	return false
}

// Decision classifies the outcome with the strongest event that happened:
// complete, increment, transition or no_op.
func (o Outcome) Decision() string {
	switch {
	case o.Completed:
		return logging.DecisionComplete
	case o.Incremented():
		return logging.DecisionIncrement
	case o.Transitioned():
		return logging.DecisionTransition
	}
	return logging.DecisionNoOp
}

// #endregion outcome
