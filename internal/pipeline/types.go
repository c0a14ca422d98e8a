package pipeline

import (
	"context"
	"errors"

	"github.com/danielpatrickdp/pose-alarm/internal/classifier"
	"github.com/danielpatrickdp/pose-alarm/internal/gate"
	"github.com/danielpatrickdp/pose-alarm/internal/logging"
	"github.com/danielpatrickdp/pose-alarm/internal/pose"
	"github.com/danielpatrickdp/pose-alarm/internal/session"
)

// ErrNotReady is returned by Step while the readiness gate refuses
// classification.
var ErrNotReady = errors.New("classifier not ready")

// #region cycle
// Cycle is one fully processed frame.
type Cycle struct {
	Frame    pose.Frame
	Features []float64
	Result   classifier.Result
	Outcome  session.Outcome
	Record   logging.CycleRecord
}

// #endregion cycle

// #region recorder
// Recorder persists what the pipeline did. Errors are logged by the pipeline
// and never undo a cycle.
type Recorder interface {
	RecordCycle(ctx context.Context, c Cycle) error
	RecordGate(ctx context.Context, seq int, d gate.GateDecision) error
}

// Handler receives each cycle after the session has been updated and the
// cycle recorded. Typically the presentation layer.
type Handler func(Cycle)

// #endregion recorder
