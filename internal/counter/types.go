package counter

import "fmt"

// #region threshold
// DefaultThreshold is the minimum classifier confidence required to accept a
// label transition.
const DefaultThreshold = 0.95

// #endregion threshold

// #region state
// State is the binary exercise state tracked by a Counter.
type State string

const (
	StateUnset   State = ""        // not yet resolved by a high-confidence observation
	StateResting State = "resting" // e.g. standing, on the ground
	StateActive  State = "active"  // e.g. squatting, jumping
)

// ParseState maps a config/DB string to a State.
func ParseState(s string) (State, error) {
	switch State(s) {
	case StateUnset, StateResting, StateActive:
		return State(s), nil
	case "unset":
		return StateUnset, nil
	}
	return StateUnset, fmt.Errorf("unknown counter state %q", s)
}

// String returns "unset" for the zero state so log lines never print an empty value.
func (s State) String() string {
	if s == StateUnset {
		return "unset"
	}
	return string(s)
}

// #endregion state

// #region exercise
// Exercise names the pair of classifier labels that make up one repetition.
type Exercise struct {
	Name         string `json:"name" toml:"name"`
	ActiveLabel  string `json:"active_label" toml:"active_label"`
	RestingLabel string `json:"resting_label" toml:"resting_label"`
}

// DefaultExercises returns squats and jumps with the labels the training UI uses.
func DefaultExercises() []Exercise {
	return []Exercise{
		{Name: "squats", ActiveLabel: "squatting", RestingLabel: "standing"},
		{Name: "jumps", ActiveLabel: "jumping", RestingLabel: "onGround"},
	}
}

// Label returns the classifier label for a state, or "" for StateUnset.
func (e Exercise) Label(s State) string {
	switch s {
	case StateActive:
		return e.ActiveLabel
	case StateResting:
		return e.RestingLabel
	}
	return ""
}

// Validate checks that the exercise has a name and two distinct labels.
func (e Exercise) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("exercise name is required")
	}
	if e.ActiveLabel == "" || e.RestingLabel == "" {
		return fmt.Errorf("exercise %s: active and resting labels are required", e.Name)
	}
	if e.ActiveLabel == e.RestingLabel {
		return fmt.Errorf("exercise %s: active and resting labels must differ", e.Name)
	}
	return nil
}

// #endregion exercise

// #region observation
// Observation records what one classification result did to a Counter.
type Observation struct {
	Exercise    string
	Previous    State
	State       State
	Incremented bool
	Count       int
	Reason      string
}

// Transitioned reports whether the state changed.
func (o Observation) Transitioned() bool {
	return o.Previous != o.State
}

// #endregion observation

// #region snapshot
// Snapshot is the persisted form of a Counter.
type Snapshot struct {
	Exercise  Exercise `json:"exercise"`
	State     State    `json:"state"`
	Count     int      `json:"count"`
	Threshold float64  `json:"threshold"`
}

// #endregion snapshot
