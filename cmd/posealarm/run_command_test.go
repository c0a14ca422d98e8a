package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielpatrickdp/pose-alarm/internal/config"
	"github.com/danielpatrickdp/pose-alarm/internal/counter"
	"github.com/danielpatrickdp/pose-alarm/internal/store"
)

func TestStartSession_ResumeKeepsSessionSettings(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewStore(filepath.Join(t.TempDir(), "posealarm.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	rec, err := st.CreateSession(ctx, store.SessionRecord{
		TargetExercise: "squats",
		RequiredReps:   2,
		Threshold:      0.9,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	squats := counter.DefaultExercises()[0]
	if _, err := st.CommitCounter(ctx, store.CounterRecord{
		SessionID: rec.SessionID,
		Snapshot:  counter.Snapshot{Exercise: squats, State: counter.StateActive, Count: 1, Threshold: 0.9},
	}); err != nil {
		t.Fatalf("commit counter: %v", err)
	}

	// The config changed after the session started.
	cfg := config.Default()
	cfg.Session.RequiredReps = 5
	cfg.Session.Threshold = 0.7

	sess, got, err := startSession(ctx, st, &cfg, true)
	if err != nil {
		t.Fatalf("startSession: %v", err)
	}
	if got.SessionID != rec.SessionID {
		t.Fatalf("resumed %s, want %s", got.SessionID, rec.SessionID)
	}
	sc := sess.Config()
	if sc.RequiredReps != 2 || sc.Threshold != 0.9 || sc.Target != "squats" {
		t.Fatalf("session config = %s x%d @ %v, want squats x2 @ 0.9", sc.Target, sc.RequiredReps, sc.Threshold)
	}
	var found bool
	for _, s := range sess.Snapshots() {
		if s.Exercise.Name != "squats" {
			continue
		}
		found = true
		if s.Count != 1 || s.State != counter.StateActive || s.Threshold != 0.9 {
			t.Fatalf("squats = %+v, want count 1 active at 0.9", s)
		}
	}
	if !found {
		t.Fatal("squats counter missing after resume")
	}
}

func TestStartSession_ResumeWithoutActiveStartsFresh(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewStore(filepath.Join(t.TempDir(), "posealarm.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	cfg := config.Default()
	sess, rec, err := startSession(ctx, st, &cfg, true)
	if err != nil {
		t.Fatalf("startSession: %v", err)
	}
	if rec.RequiredReps != cfg.Session.RequiredReps || sess.Seq() != 0 {
		t.Fatalf("fresh session = %+v seq %d", rec, sess.Seq())
	}
}

// cancelOnWrite cancels once match is written.
type cancelOnWrite struct {
	buf    bytes.Buffer
	match  string
	cancel context.CancelFunc
}

func (w *cancelOnWrite) Write(p []byte) (int, error) {
	if strings.Contains(string(p), w.match) {
		w.cancel()
	}
	return w.buf.Write(p)
}

func TestRunSession_InterruptIsCleanExit(t *testing.T) {
	env := setupCLITestEnv(t)
	input := writeFrames(t, env.base, "session.jsonl", "standing", "squatting", "standing")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &cancelOnWrite{match: "ALARM", cancel: cancel}

	cli := newCommandContext(&env.configPath)
	if err := cli.runSession(ctx, runOptions{input: input, ringNow: true}, out); err != nil {
		t.Fatalf("interrupted run returned %v, want nil", err)
	}
	requireContains(t, out.buf.String(), "ALARM")

	st, err := store.NewStore(env.dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	rec, err := st.GetActiveSession(context.Background())
	if err != nil {
		t.Fatalf("active session: %v", err)
	}
	if rec.EndedAt.IsZero() {
		t.Fatal("expected interrupted session to be ended")
	}
}
