package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/pose-alarm/internal/classifier"
	"github.com/danielpatrickdp/pose-alarm/internal/counter"
	"github.com/danielpatrickdp/pose-alarm/internal/logging"
	"github.com/danielpatrickdp/pose-alarm/internal/session"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	Config          FixtureConfig           `json:"config"`
	Results         []FixtureResult         `json:"results"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureConfig mirrors session.Config with JSON tags.
type FixtureConfig struct {
	Exercises    []counter.Exercise `json:"exercises"`
	Target       string             `json:"target"`
	RequiredReps int                `json:"required_reps"`
	Threshold    float64            `json:"threshold"`
	InitialState string             `json:"initial_state,omitempty"` // "" means resting
}

// FixtureResult is one recorded classification.
type FixtureResult struct {
	Label       string             `json:"label"`
	Confidences map[string]float64 `json:"confidences"`
}

// FixtureExpectedResult captures the expected decision and target count per cycle.
type FixtureExpectedResult struct {
	Seq         int    `json:"seq"`
	Action      string `json:"action"`
	TargetCount int    `json:"target_count"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ToSessionConfig converts a FixtureConfig to a session.Config.
func (fc *FixtureConfig) ToSessionConfig() (session.Config, error) {
	initial := counter.StateResting
	if fc.InitialState != "" {
		s, err := counter.ParseState(fc.InitialState)
		if err != nil {
			return session.Config{}, err
		}
		initial = s
	}
	return session.Config{
		ID:           "replay",
		Exercises:    fc.Exercises,
		Target:       fc.Target,
		RequiredReps: fc.RequiredReps,
		Threshold:    fc.Threshold,
		InitialState: initial,
	}, nil
}

// ToResult converts a FixtureResult to a classifier.Result.
func (fr *FixtureResult) ToResult() classifier.Result {
	return classifier.Result{Label: fr.Label, ConfidencesByLabel: fr.Confidences}
}

// Classifications converts every fixture result.
func (f *Fixture) Classifications() []classifier.Result {
	out := make([]classifier.Result, len(f.Results))
	for i := range f.Results {
		out[i] = f.Results[i].ToResult()
	}
	return out
}

// #endregion fixture-loader

// #region fixture-export

// FixtureFromEvents rebuilds a fixture from a session's classification event
// rows. Event rows only name exercises, so base supplies Exercises and
// InitialState; the rest of the config comes from the first record.
func FixtureFromEvents(description string, base FixtureConfig, events []logging.EventEntry) (*Fixture, error) {
	f := &Fixture{Description: description, Config: base}
	for i, e := range events {
		if e.TriggerType != "classification" || e.RecordJSON == "" {
			continue
		}
		var rec logging.CycleRecord
		if err := json.Unmarshal([]byte(e.RecordJSON), &rec); err != nil {
			return nil, fmt.Errorf("event %d: unmarshal cycle record: %w", i, err)
		}
		if len(f.Results) == 0 {
			f.Config.Target = rec.Target
			f.Config.RequiredReps = rec.RequiredReps
			f.Config.Threshold = rec.Threshold
		}
		f.Results = append(f.Results, FixtureResult{Label: rec.Label, Confidences: rec.Confidences})
		f.ExpectedResults = append(f.ExpectedResults, FixtureExpectedResult{
			Seq:         len(f.Results),
			Action:      e.Decision,
			TargetCount: targetCount(rec),
		})
	}
	if len(f.Results) == 0 {
		return nil, fmt.Errorf("no classification events")
	}
	return f, nil
}

func targetCount(rec logging.CycleRecord) int {
	for _, c := range rec.Counters {
		if c.Exercise == rec.Target {
			return c.Count
		}
	}
	return 0
}

// #endregion fixture-export
