package gate

import (
	"testing"

	"github.com/danielpatrickdp/pose-alarm/internal/counter"
)

func defaultGate() *Gate {
	return ForExercises(counter.DefaultExercises())
}

func TestGateRequiredLabelsFromExercises(t *testing.T) {
	got := defaultGate().RequiredLabels()
	want := []string{"squatting", "standing", "jumping", "onGround"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("label %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestGateRefusesWithNoExamples(t *testing.T) {
	decision := defaultGate().Evaluate(nil)

	if decision.Ready {
		t.Fatal("expected refusal")
	}
	if len(decision.Missing) != 4 {
		t.Fatalf("expected 4 missing labels, got %v", decision.Missing)
	}
	if decision.VetoSignals[0].Type != VetoMissingExamples {
		t.Fatalf("expected VetoMissingExamples, got %s", decision.VetoSignals[0].Type)
	}
}

func TestGateRefusesWithOneLabelMissing(t *testing.T) {
	decision := defaultGate().Evaluate(map[string]int{
		"squatting": 3, "standing": 2, "jumping": 1, "onGround": 0,
	})

	if decision.Ready {
		t.Fatal("expected refusal")
	}
	if len(decision.Missing) != 1 || decision.Missing[0] != "onGround" {
		t.Fatalf("expected onGround missing, got %v", decision.Missing)
	}
}

func TestGateReadyWhenAllLabelsTrained(t *testing.T) {
	decision := defaultGate().Evaluate(map[string]int{
		"squatting": 1, "standing": 1, "jumping": 1, "onGround": 1, "extra": 5,
	})

	if !decision.Ready {
		t.Fatalf("expected ready, got %s", decision.Reason)
	}
	if len(decision.VetoSignals) != 0 {
		t.Fatal("expected no veto signals")
	}
}

func TestGateMinExamples(t *testing.T) {
	g := NewGate(GateConfig{RequiredLabels: []string{"A", "B"}, MinExamples: 2})
	if g.Evaluate(map[string]int{"A": 2, "B": 1}).Ready {
		t.Fatal("expected refusal below MinExamples")
	}
	if !g.Evaluate(map[string]int{"A": 2, "B": 2}).Ready {
		t.Fatal("expected ready at MinExamples")
	}
}

func TestValidateLabel(t *testing.T) {
	g := defaultGate()
	if v := g.ValidateLabel("standing"); v != nil {
		t.Fatalf("expected standing to be valid, got %+v", v)
	}
	v := g.ValidateLabel("pushups")
	if v == nil {
		t.Fatal("expected veto for unknown label")
	}
	if v.Type != VetoUnknownLabel {
		t.Fatalf("expected VetoUnknownLabel, got %s", v.Type)
	}
}
