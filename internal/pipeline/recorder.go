package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danielpatrickdp/pose-alarm/internal/gate"
	"github.com/danielpatrickdp/pose-alarm/internal/logging"
	"github.com/danielpatrickdp/pose-alarm/internal/session"
	"github.com/danielpatrickdp/pose-alarm/internal/store"
)

// #region store-recorder
// StoreRecorder writes counter versions and event rows to SQLite. A new
// counter version is committed only when a counter changed; every cycle gets
// an event row.
type StoreRecorder struct {
	store     *store.Store
	sessionID string
	parents   map[string]string // exercise -> active version ID
}

// NewStoreRecorder picks up the active counter versions of sessionID so new
// versions chain onto them.
func NewStoreRecorder(ctx context.Context, st *store.Store, sessionID string) (*StoreRecorder, error) {
	current, err := st.CurrentCounters(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load counters: %w", err)
	}
	parents := make(map[string]string, len(current))
	for _, rec := range current {
		parents[rec.Snapshot.Exercise.Name] = rec.VersionID
	}
	return &StoreRecorder{store: st, sessionID: sessionID, parents: parents}, nil
}

// #endregion store-recorder

// #region record-cycle
// RecordCycle commits changed counters, bumps the completion count and logs
// the cycle.
func (r *StoreRecorder) RecordCycle(ctx context.Context, c Cycle) error {
	out := c.Outcome
	for i, obs := range out.Observations {
		changed := obs.Transitioned() || obs.Incremented
		snap := out.Counters[i]
		if out.Completed && snap.Exercise.Name == out.Target.Exercise.Name {
			changed = true
		}
		if !changed {
			continue
		}
		rec, err := r.store.CommitCounter(ctx, store.CounterRecord{
			ParentID:  r.parents[snap.Exercise.Name],
			SessionID: r.sessionID,
			Snapshot:  snap,
		})
		if err != nil {
			return err
		}
		r.parents[snap.Exercise.Name] = rec.VersionID
	}

	if out.Completed {
		if err := r.store.RecordCompletion(ctx, r.sessionID); err != nil {
			return err
		}
	}

	recordJSON, err := json.Marshal(c.Record)
	if err != nil {
		return fmt.Errorf("marshal cycle record: %w", err)
	}
	decision, reason := cycleDecision(out)
	return logging.LogEvent(ctx, r.store.DB(), logging.EventEntry{
		SessionID:   r.sessionID,
		Seq:         out.Seq,
		TriggerType: "classification",
		RecordJSON:  string(recordJSON),
		Decision:    decision,
		Reason:      reason,
	})
}

func cycleDecision(out session.Outcome) (string, string) {
	var reasons []string
	for _, obs := range out.Observations {
		if obs.Transitioned() {
			reasons = append(reasons, obs.Exercise+": "+obs.Reason)
		}
	}
	return out.Decision(), strings.Join(reasons, "; ")
}

// #endregion record-cycle

// #region record-gate
// RecordGate logs a readiness change.
func (r *StoreRecorder) RecordGate(ctx context.Context, seq int, d gate.GateDecision) error {
	decision := logging.DecisionRefused
	if d.Ready {
		decision = logging.DecisionReady
	}
	return logging.LogEvent(ctx, r.store.DB(), logging.EventEntry{
		SessionID:   r.sessionID,
		Seq:         seq,
		TriggerType: "gate",
		Decision:    decision,
		Reason:      d.Reason,
	})
}

// RecordRing logs that the alarm started ringing.
func (r *StoreRecorder) RecordRing(ctx context.Context, seq int) error {
	return logging.LogEvent(ctx, r.store.DB(), logging.EventEntry{
		SessionID:   r.sessionID,
		Seq:         seq,
		TriggerType: "alarm",
		Decision:    logging.DecisionRing,
	})
}

// #endregion record-gate
