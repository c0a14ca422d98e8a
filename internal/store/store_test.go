package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/pose-alarm/internal/classifier"
	"github.com/danielpatrickdp/pose-alarm/internal/counter"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newSession(t *testing.T, s *Store) SessionRecord {
	t.Helper()
	rec, err := s.CreateSession(context.Background(), SessionRecord{
		TargetExercise: "squats",
		RequiredReps:   10,
		Threshold:      counter.DefaultThreshold,
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return rec
}

// #region session-tests
func TestCreateAndGetActiveSession(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	first := newSession(t, s)
	if first.SessionID == "" {
		t.Fatal("expected generated session ID")
	}
	second := newSession(t, s)

	active, err := s.GetActiveSession(ctx)
	if err != nil {
		t.Fatalf("GetActiveSession: %v", err)
	}
	if active.SessionID != second.SessionID {
		t.Fatalf("expected active %s, got %s", second.SessionID, active.SessionID)
	}
	if active.TargetExercise != "squats" || active.RequiredReps != 10 {
		t.Errorf("unexpected session: %+v", active)
	}
	if !active.AlarmAt.IsZero() || !active.EndedAt.IsZero() {
		t.Errorf("expected zero alarm/end times, got %v / %v", active.AlarmAt, active.EndedAt)
	}

	all, err := s.ListSessions(ctx, 10)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(all))
	}
}

func TestGetActiveSession_Empty(t *testing.T) {
	s := tempDB(t)
	if _, err := s.GetActiveSession(context.Background()); err == nil {
		t.Fatal("expected error with no sessions")
	}
}

func TestRecordCompletionAndEnd(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()
	rec := newSession(t, s)

	for i := 0; i < 2; i++ {
		if err := s.RecordCompletion(ctx, rec.SessionID); err != nil {
			t.Fatalf("RecordCompletion: %v", err)
		}
	}
	alarmAt := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	if err := s.SetAlarmAt(ctx, rec.SessionID, alarmAt); err != nil {
		t.Fatalf("SetAlarmAt: %v", err)
	}
	end := time.Date(2026, 3, 1, 7, 5, 0, 0, time.UTC)
	if err := s.EndSession(ctx, rec.SessionID, end); err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	got, err := s.GetSession(ctx, rec.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Completions != 2 {
		t.Errorf("expected 2 completions, got %d", got.Completions)
	}
	if !got.AlarmAt.Equal(alarmAt) {
		t.Errorf("expected alarm_at %v, got %v", alarmAt, got.AlarmAt)
	}
	if !got.EndedAt.Equal(end) {
		t.Errorf("expected ended_at %v, got %v", end, got.EndedAt)
	}

	if err := s.RecordCompletion(ctx, "missing"); err == nil {
		t.Error("expected error for unknown session")
	}
}

// #endregion session-tests

// #region counter-tests
func TestCommitCounterVersions(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()
	sess := newSession(t, s)
	squats := counter.DefaultExercises()[0]

	c := counter.New(squats, counter.DefaultThreshold)
	v1, err := s.CommitCounter(ctx, CounterRecord{SessionID: sess.SessionID, Snapshot: c.Snapshot()})
	if err != nil {
		t.Fatalf("CommitCounter v1: %v", err)
	}

	c.Observe(classifier.Result{Label: "squatting", ConfidencesByLabel: map[string]float64{"squatting": 0.99}})
	c.Observe(classifier.Result{Label: "standing", ConfidencesByLabel: map[string]float64{"standing": 0.99}})
	v2, err := s.CommitCounter(ctx, CounterRecord{
		ParentID:  v1.VersionID,
		SessionID: sess.SessionID,
		Snapshot:  c.Snapshot(),
		CreatedAt: v1.CreatedAt.Add(time.Second),
	})
	if err != nil {
		t.Fatalf("CommitCounter v2: %v", err)
	}

	current, err := s.CurrentCounters(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("CurrentCounters: %v", err)
	}
	if len(current) != 1 {
		t.Fatalf("expected 1 active counter, got %d", len(current))
	}
	if current[0].VersionID != v2.VersionID || current[0].ParentID != v1.VersionID {
		t.Errorf("unexpected active version: %+v", current[0])
	}
	if diff := cmp.Diff(c.Snapshot(), current[0].Snapshot); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	history, err := s.ListCounterVersions(ctx, sess.SessionID, 10)
	if err != nil {
		t.Fatalf("ListCounterVersions: %v", err)
	}
	if len(history) != 2 || history[0].VersionID != v2.VersionID {
		t.Fatalf("expected newest-first history of 2, got %+v", history)
	}
}

func TestRestoreCounters(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()
	sess := newSession(t, s)

	for _, ex := range counter.DefaultExercises() {
		snap := counter.Snapshot{Exercise: ex, State: counter.StateActive, Count: 4, Threshold: 0.9}
		if _, err := s.CommitCounter(ctx, CounterRecord{SessionID: sess.SessionID, Snapshot: snap}); err != nil {
			t.Fatalf("CommitCounter: %v", err)
		}
	}

	restored, err := s.RestoreCounters(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("RestoreCounters: %v", err)
	}
	if len(restored) != 2 {
		t.Fatalf("expected 2 counters, got %d", len(restored))
	}
	jumps := restored["jumps"]
	if jumps == nil || jumps.Count() != 4 || jumps.State() != counter.StateActive {
		t.Errorf("unexpected jumps counter: %+v", jumps)
	}
}

// #endregion counter-tests

// #region example-tests
func TestExamplesRoundTrip(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	examples := []classifier.Example{
		{Label: "standing", Features: []float64{0.1, -2.5, 3}},
		{Label: "standing", Features: []float64{0.2, -2.4, 3.1}},
		{Label: "squatting", Features: []float64{1e-9, 7, -0}},
	}
	for _, ex := range examples {
		if err := s.SaveExample(ctx, ex); err != nil {
			t.Fatalf("SaveExample: %v", err)
		}
	}

	got, err := s.ListExamples(ctx)
	if err != nil {
		t.Fatalf("ListExamples: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 examples, got %d", len(got))
	}
	for i := range examples {
		if got[i].Label != examples[i].Label {
			t.Errorf("example %d: label %q, want %q", i, got[i].Label, examples[i].Label)
		}
		if diff := cmp.Diff(examples[i].Features, got[i].Features); diff != "" {
			t.Errorf("example %d features (-want +got):\n%s", i, diff)
		}
	}

	counts, err := s.CountExamples(ctx)
	if err != nil {
		t.Fatalf("CountExamples: %v", err)
	}
	if diff := cmp.Diff(map[string]int{"standing": 2, "squatting": 1}, counts); diff != "" {
		t.Errorf("counts (-want +got):\n%s", diff)
	}

	n, err := s.DeleteExamples(ctx, "standing")
	if err != nil {
		t.Fatalf("DeleteExamples: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
	got, _ = s.ListExamples(ctx)
	if len(got) != 1 || got[0].Label != "squatting" {
		t.Errorf("unexpected remaining examples: %+v", got)
	}
}

func TestFeatureEncoding(t *testing.T) {
	original := []float64{0, 1.5, -3.25, 1e300}
	decoded := decodeFeatures(encodeFeatures(original), len(original))
	if diff := cmp.Diff(original, decoded); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

// #endregion example-tests

func TestStoreSatisfiesExampleStore(t *testing.T) {
	var _ classifier.ExampleStore = tempDB(t)
}
