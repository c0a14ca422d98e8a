package gate

// #region veto-type
// VetoType enumerates why a classification or training request was refused.
type VetoType string

const (
	VetoMissingExamples VetoType = "missing_examples"
	VetoUnknownLabel    VetoType = "unknown_label"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected refusal condition.
type VetoSignal struct {
	Type   VetoType
	Label  string
	Reason string
}

// #endregion veto-signal

// #region gate-config
// GateConfig lists the labels that must be trained before classification runs.
type GateConfig struct {
	RequiredLabels []string
	MinExamples    int // per label, values < 1 are treated as 1
}

// #endregion gate-config

// #region gate-decision
// GateDecision is the output of a readiness evaluation.
type GateDecision struct {
	Ready       bool
	Reason      string
	Missing     []string     // labels below MinExamples, in RequiredLabels order
	VetoSignals []VetoSignal // one per missing label
}

// #endregion gate-decision
