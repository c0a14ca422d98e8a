package session

import (
	"fmt"

	"github.com/danielpatrickdp/pose-alarm/internal/classifier"
	"github.com/danielpatrickdp/pose-alarm/internal/counter"
	"github.com/danielpatrickdp/pose-alarm/internal/logging"
)

// #region session
// Session owns one counter per configured exercise and stops the alarm when
// the target exercise reaches its required repetitions. It is not safe for
// concurrent use; the pipeline goroutine is its only caller.
type Session struct {
	cfg         Config
	counters    []*counter.Counter
	target      *counter.Counter
	stopper     Stopper
	seq         int
	completions int
}

// New builds a session. stopper may be nil when nothing needs silencing.
func New(cfg Config, stopper Stopper) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = counter.DefaultThreshold
	}

	s := &Session{cfg: cfg, stopper: stopper}
	for _, ex := range cfg.Exercises {
		c := counter.NewWithState(ex, cfg.Threshold, cfg.InitialState)
		s.counters = append(s.counters, c)
		if ex.Name == cfg.Target {
			s.target = c
		}
	}
	return s, nil
}

// SetStopper replaces the stopper used by the completion check.
func (s *Session) SetStopper(stopper Stopper) {
	s.stopper = stopper
}

// #endregion session

// #region accessors
func (s *Session) ID() string       { return s.cfg.ID }
func (s *Session) Config() Config   { return s.cfg }
func (s *Session) Seq() int         { return s.seq }
func (s *Session) Completions() int { return s.completions }

// Target returns the counter the completion check watches.
func (s *Session) Target() *counter.Counter { return s.target }

// Counter looks up a counter by exercise name.
func (s *Session) Counter(name string) (*counter.Counter, bool) {
	for _, c := range s.counters {
		if c.Exercise().Name == name {
			return c, true
		}
	}
	return nil, false
}

// Snapshots returns every counter in configured order.
func (s *Session) Snapshots() []counter.Snapshot {
	out := make([]counter.Snapshot, len(s.counters))
	for i, c := range s.counters {
		out[i] = c.Snapshot()
	}
	return out
}

// #endregion accessors

// #region restore
// Restore carries state and count over from persisted counters, keyed by
// exercise name. The session's own exercise labels and threshold win over
// whatever the persisted counters were built with. Counters for exercises
// that are not configured are ignored.
func (s *Session) Restore(restored map[string]*counter.Counter, seq, completions int) {
	for i, c := range s.counters {
		r, ok := restored[c.Exercise().Name]
		if !ok {
			continue
		}
		next := counter.Restore(counter.Snapshot{
			Exercise:  c.Exercise(),
			State:     r.State(),
			Count:     r.Count(),
			Threshold: s.cfg.Threshold,
		})
		s.counters[i] = next
		if c == s.target {
			s.target = next
		}
	}
	s.seq = seq
	s.completions = completions
}

// #endregion restore

// #region observe
// Observe feeds result to every counter, then runs the completion check on
// the target. The returned Outcome reflects state after both steps, so
// anything displayed from it never runs ahead of the counters.
func (s *Session) Observe(result classifier.Result) Outcome {
	s.seq++
	out := Outcome{Seq: s.seq}
	for _, c := range s.counters {
		out.Observations = append(out.Observations, c.Observe(result))
	}

	if s.cfg.RequiredReps > 0 && s.target.Count() >= s.cfg.RequiredReps {
		if s.stopper != nil {
			out.AlarmStopped = s.stopper.Stop()
		}
		s.target.ResetCount()
		s.completions++
		out.Completed = true
	}

	out.Counters = s.Snapshots()
	out.Target = s.target.Snapshot()
	return out
}

// #endregion observe

// #region record
// Record converts an outcome into the event-log form used for replay.
func (s *Session) Record(result classifier.Result, out Outcome) logging.CycleRecord {
	rec := logging.CycleRecord{
		Seq:          out.Seq,
		Label:        result.Label,
		Confidences:  result.ConfidencesByLabel,
		Threshold:    s.cfg.Threshold,
		Target:       s.cfg.Target,
		RequiredReps: s.cfg.RequiredReps,
		Completed:    out.Completed,
		AlarmStopped: out.AlarmStopped,
	}
	for i, snap := range out.Counters {
		cs := logging.CounterState{
			Exercise: snap.Exercise.Name,
			State:    snap.State.String(),
			Count:    snap.Count,
		}
		if i < len(out.Observations) {
			cs.Incremented = out.Observations[i].Incremented
		}
		rec.Counters = append(rec.Counters, cs)
	}
	return rec
}

// #endregion record
