package counter

import (
	"math"
	"testing"

	"github.com/danielpatrickdp/pose-alarm/internal/classifier"
)

var abExercise = Exercise{Name: "ab", ActiveLabel: "B", RestingLabel: "A"}

func result(label string, conf float64) classifier.Result {
	return classifier.Result{
		Label:              label,
		ConfidencesByLabel: map[string]float64{label: conf},
	}
}

// #region transitions
func TestObserve_RestingToActiveToResting(t *testing.T) {
	c := New(abExercise, DefaultThreshold)

	obs := c.Observe(result("B", 0.97))
	if obs.State != StateActive || obs.Incremented || obs.Count != 0 {
		t.Fatalf("expected active without increment, got %+v", obs)
	}
	if !obs.Transitioned() {
		t.Fatal("expected transition")
	}

	obs = c.Observe(result("A", 0.96))
	if obs.State != StateResting || !obs.Incremented || obs.Count != 1 {
		t.Fatalf("expected resting with count 1, got %+v", obs)
	}
}

func TestObserve_FullCyclesCountOnce(t *testing.T) {
	c := New(abExercise, DefaultThreshold)
	for i := 0; i < 5; i++ {
		c.Observe(result("B", 0.99))
		c.Observe(result("B", 0.99)) // repeated active is not a new rep
		c.Observe(result("A", 0.99))
		c.Observe(result("A", 0.99)) // repeated resting does not count again
	}
	if c.Count() != 5 {
		t.Fatalf("expected 5 reps, got %d", c.Count())
	}
}

func TestObserve_BelowThresholdNeverTransitions(t *testing.T) {
	c := New(abExercise, DefaultThreshold)
	for _, conf := range []float64{0.0, 0.5, 0.94, 0.9499} {
		obs := c.Observe(result("B", conf))
		if obs.Transitioned() {
			t.Fatalf("conf %.4f: unexpected transition %+v", conf, obs)
		}
	}

	c.Observe(result("B", 0.95)) // threshold is inclusive
	if c.State() != StateActive {
		t.Fatalf("expected active at exactly the threshold, got %s", c.State())
	}
	obs := c.Observe(result("A", 0.94))
	if obs.Transitioned() || c.Count() != 0 {
		t.Fatalf("low-confidence resting must not count: %+v", obs)
	}
}

func TestObserve_NaNConfidenceNeverTransitions(t *testing.T) {
	c := New(abExercise, DefaultThreshold)
	if obs := c.Observe(result("B", math.NaN())); obs.Transitioned() {
		t.Fatalf("NaN active confidence must not transition: %+v", obs)
	}

	c.Observe(result("B", 0.99))
	obs := c.Observe(result("A", math.NaN()))
	if obs.Transitioned() || obs.Incremented || c.Count() != 0 {
		t.Fatalf("NaN resting confidence must not count: %+v", obs)
	}

	u := NewWithState(abExercise, DefaultThreshold, StateUnset)
	if u.Observe(result("A", math.NaN())); u.State() != StateUnset {
		t.Fatalf("NaN must not resolve an unset counter, got %s", u.State())
	}
}

func TestNew_NaNThresholdUsesDefault(t *testing.T) {
	c := New(abExercise, math.NaN())
	if c.Threshold() != DefaultThreshold {
		t.Fatalf("expected default threshold, got %v", c.Threshold())
	}
}

func TestObserve_UnsetResolvesWithoutIncrement(t *testing.T) {
	c := NewWithState(abExercise, DefaultThreshold, StateUnset)
	c.Observe(result("A", 0.5))
	if c.State() != StateUnset {
		t.Fatalf("low confidence must not resolve state, got %s", c.State())
	}

	obs := c.Observe(result("A", 0.99))
	if obs.State != StateResting || obs.Incremented {
		t.Fatalf("expected resting without increment, got %+v", obs)
	}

	c2 := NewWithState(abExercise, DefaultThreshold, StateUnset)
	obs = c2.Observe(result("B", 0.99))
	if obs.State != StateActive || obs.Incremented || obs.Count != 0 {
		t.Fatalf("expected active without increment, got %+v", obs)
	}
}

// #endregion transitions

// #region malformed
func TestObserve_MissingConfidenceIgnored(t *testing.T) {
	c := New(abExercise, DefaultThreshold)
	c.Observe(result("B", 0.99))

	obs := c.Observe(classifier.Result{Label: "A", ConfidencesByLabel: map[string]float64{"B": 0.99}})
	if obs.Transitioned() || c.Count() != 0 {
		t.Fatalf("expected no change, got %+v", obs)
	}

	obs = c.Observe(classifier.Result{Label: "A"})
	if obs.Transitioned() {
		t.Fatalf("nil confidences must be ignored, got %+v", obs)
	}
}

func TestObserve_UntrackedLabelIgnored(t *testing.T) {
	c := New(abExercise, DefaultThreshold)
	obs := c.Observe(result("jumping", 1.0))
	if obs.Transitioned() || obs.Reason == "" {
		t.Fatalf("expected ignored with reason, got %+v", obs)
	}
}

// #endregion malformed

// #region snapshot
func TestSnapshotRestore(t *testing.T) {
	c := New(abExercise, 0.9)
	c.Observe(result("B", 0.91))
	c.Observe(result("A", 0.91))
	c.Observe(result("B", 0.91))

	r := Restore(c.Snapshot())
	if r.State() != StateActive || r.Count() != 1 || r.Threshold() != 0.9 {
		t.Fatalf("restore mismatch: %+v", r.Snapshot())
	}

	r.ResetCount()
	if r.Count() != 0 || r.State() != StateActive {
		t.Fatal("ResetCount must zero the count and keep the state")
	}
}

func TestNew_DefaultThreshold(t *testing.T) {
	if got := New(abExercise, 0).Threshold(); got != DefaultThreshold {
		t.Fatalf("expected %v, got %v", DefaultThreshold, got)
	}
}

func TestExerciseValidate(t *testing.T) {
	for _, ex := range DefaultExercises() {
		if err := ex.Validate(); err != nil {
			t.Errorf("default exercise %s invalid: %v", ex.Name, err)
		}
	}
	if err := (Exercise{Name: "x", ActiveLabel: "a", RestingLabel: "a"}).Validate(); err == nil {
		t.Error("expected error for identical labels")
	}
}

func TestParseState(t *testing.T) {
	for in, want := range map[string]State{"": StateUnset, "unset": StateUnset, "active": StateActive, "resting": StateResting} {
		got, err := ParseState(in)
		if err != nil || got != want {
			t.Errorf("ParseState(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseState("sleeping"); err == nil {
		t.Error("expected error for unknown state")
	}
}

// #endregion snapshot
