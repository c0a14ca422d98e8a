package logging

import "time"

// #region event-entry
// EventEntry is a single row in the event_log table.
type EventEntry struct {
	SessionID   string
	Seq         int
	TriggerType string // "classification" | "gate" | "alarm"
	RecordJSON  string
	Decision    string // see Decision* constants
	Reason      string
	CreatedAt   time.Time
}

// Decision values written to event_log.decision.
const (
	DecisionNoOp       = "no_op"
	DecisionTransition = "transition"
	DecisionIncrement  = "increment"
	DecisionComplete   = "complete"
	DecisionRefused    = "refused"
	DecisionRing       = "ring"
	DecisionReady      = "ready"
)

// #endregion event-entry

// #region cycle-record
// CycleRecord captures everything one classification cycle fed into the
// session and what came out. Serialized into event_log.record_json so a
// session can be replayed deterministically.
type CycleRecord struct {
	Seq         int                `json:"seq"`
	Label       string             `json:"label"`
	Confidences map[string]float64 `json:"confidences"`
	Threshold   float64            `json:"threshold"`

	// Counter state after the cycle, one entry per exercise.
	Counters []CounterState `json:"counters"`

	Target       string `json:"target"`
	RequiredReps int    `json:"required_reps"`
	Completed    bool   `json:"completed"`
	AlarmStopped bool   `json:"alarm_stopped"`
}

// CounterState is one exercise counter as observed at the end of a cycle.
type CounterState struct {
	Exercise    string `json:"exercise"`
	State       string `json:"state"`
	Count       int    `json:"count"`
	Incremented bool   `json:"incremented,omitempty"`
}

// #endregion cycle-record
