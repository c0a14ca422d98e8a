package gate

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/pose-alarm/internal/counter"
)

// #region gate
// Gate refuses classification until every required label has training data.
type Gate struct {
	config GateConfig
	known  map[string]struct{}
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	if config.MinExamples < 1 {
		config.MinExamples = 1
	}
	known := make(map[string]struct{}, len(config.RequiredLabels))
	for _, l := range config.RequiredLabels {
		known[l] = struct{}{}
	}
	return &Gate{config: config, known: known}
}

// ForExercises builds a gate requiring both labels of every exercise.
func ForExercises(exercises []counter.Exercise) *Gate {
	var labels []string
	seen := make(map[string]bool)
	for _, ex := range exercises {
		for _, l := range []string{ex.ActiveLabel, ex.RestingLabel} {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	return NewGate(GateConfig{RequiredLabels: labels})
}

// RequiredLabels returns the labels the gate checks, in order.
func (g *Gate) RequiredLabels() []string {
	out := make([]string, len(g.config.RequiredLabels))
	copy(out, g.config.RequiredLabels)
	return out
}

// Evaluate checks per-label example counts against the required label set.
func (g *Gate) Evaluate(countsByLabel map[string]int) GateDecision {
	var vetoes []VetoSignal
	var missing []string

	for _, label := range g.config.RequiredLabels {
		n := countsByLabel[label]
		if n >= g.config.MinExamples {
			continue
		}
		missing = append(missing, label)
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoMissingExamples,
			Label:  label,
			Reason: fmt.Sprintf("%s has %d examples, need %d", label, n, g.config.MinExamples),
		})
	}

	if len(vetoes) > 0 {
		return GateDecision{
			Ready:       false,
			Reason:      "provide samples for all classes before classifying: missing " + strings.Join(missing, ", "),
			Missing:     missing,
			VetoSignals: vetoes,
		}
	}
	return GateDecision{
		Ready:  true,
		Reason: fmt.Sprintf("all %d labels trained", len(g.config.RequiredLabels)),
	}
}

// #endregion gate

// #region validate-label
// ValidateLabel refuses training labels outside the required set.
func (g *Gate) ValidateLabel(label string) *VetoSignal {
	if _, ok := g.known[label]; ok {
		return nil
	}
	return &VetoSignal{
		Type:   VetoUnknownLabel,
		Label:  label,
		Reason: fmt.Sprintf("invalid label %q, expected one of: %s", label, strings.Join(g.config.RequiredLabels, ", ")),
	}
}

// #endregion validate-label
