package replay

import (
	"fmt"

	"github.com/danielpatrickdp/pose-alarm/internal/classifier"
	"github.com/danielpatrickdp/pose-alarm/internal/counter"
	"github.com/danielpatrickdp/pose-alarm/internal/logging"
	"github.com/danielpatrickdp/pose-alarm/internal/session"
)

// #region types
// ReplayResult captures the outcome of replaying one classification.
type ReplayResult struct {
	Seq         int
	Label       string
	Action      string // logging.Decision* value
	Reason      string
	TargetCount int
	Outcome     session.Outcome
	Record      logging.CycleRecord
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalCycles int
	Transitions int
	Increments  int
	Completions int
	NoOps       int
	AlarmStops  int
	Final       []counter.Snapshot
}

// Mismatch is one cycle whose replayed result differs from the expectation.
type Mismatch struct {
	Seq      int
	Expected FixtureExpectedResult
	Actual   FixtureExpectedResult
}

func (m Mismatch) String() string {
	return fmt.Sprintf("seq %d: expected %s/%d, got %s/%d",
		m.Seq, m.Expected.Action, m.Expected.TargetCount, m.Actual.Action, m.Actual.TargetCount)
}

// #endregion types

// #region replay

// countingStopper stands in for the alarm: it is always ringing.
type countingStopper struct{ stops int }

func (c *countingStopper) Stop() bool {
	c.stops++
	return true
}

// Replay feeds results through a fresh session in memory and returns one
// ReplayResult per classification plus the final counters.
func Replay(cfg session.Config, results []classifier.Result) ([]ReplayResult, []counter.Snapshot, error) {
	sess, err := session.New(cfg, &countingStopper{})
	if err != nil {
		return nil, nil, err
	}

	out := make([]ReplayResult, 0, len(results))
	for _, res := range results {
		o := sess.Observe(res)
		out = append(out, ReplayResult{
			Seq:         o.Seq,
			Label:       res.Label,
			Action:      o.Decision(),
			Reason:      targetReason(o),
			TargetCount: o.Target.Count,
			Outcome:     o,
			Record:      sess.Record(res, o),
		})
	}
	return out, sess.Snapshots(), nil
}

// ReplayFixture runs a loaded fixture.
func ReplayFixture(f *Fixture) ([]ReplayResult, []counter.Snapshot, error) {
	cfg, err := f.Config.ToSessionConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("fixture config: %w", err)
	}
	return Replay(cfg, f.Classifications())
}

func targetReason(o session.Outcome) string {
	for _, obs := range o.Observations {
		if obs.Exercise == o.Target.Exercise.Name {
			return obs.Reason
		}
	}
	return ""
}

// Check compares replayed results against a fixture's expectations.
func Check(f *Fixture, results []ReplayResult) []Mismatch {
	var out []Mismatch
	for i, exp := range f.ExpectedResults {
		actual := FixtureExpectedResult{Seq: exp.Seq}
		if i < len(results) {
			actual.Action = results[i].Action
			actual.TargetCount = results[i].TargetCount
		}
		if actual != exp {
			out = append(out, Mismatch{Seq: exp.Seq, Expected: exp, Actual: actual})
		}
	}
	return out
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult, final []counter.Snapshot) ReplaySummary {
	s := ReplaySummary{
		TotalCycles: len(results),
		Final:       final,
	}
	for _, r := range results {
		switch r.Action {
		case logging.DecisionComplete:
			s.Completions++
		case logging.DecisionIncrement:
			s.Increments++
		case logging.DecisionTransition:
			s.Transitions++
		case logging.DecisionNoOp:
			s.NoOps++
		}
		if r.Outcome.AlarmStopped {
			s.AlarmStops++
		}
	}
	return s
}

// #endregion replay
