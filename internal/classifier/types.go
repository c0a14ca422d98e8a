package classifier

import (
	"context"
	"errors"
	"time"
)

// #region errors
var (
	// ErrNoExamples is returned by Classify when the model holds no examples.
	ErrNoExamples = errors.New("classifier has no examples")

	// ErrDimensionMismatch is returned when a feature vector does not match the model.
	ErrDimensionMismatch = errors.New("feature dimension mismatch")

	// ErrEmptyFeatures is returned for a nil or zero-length feature vector.
	ErrEmptyFeatures = errors.New("empty feature vector")

	// ErrMissingLabel is returned when a training example has no label.
	ErrMissingLabel = errors.New("label is required")
)

// #endregion errors

// #region result
// Result is one classification: the winning label plus a confidence in [0,1]
// for every label the model knows.
type Result struct {
	Label              string             `json:"label"`
	ConfidencesByLabel map[string]float64 `json:"confidences_by_label"`
}

// Confidence returns the confidence for label and whether it was reported.
func (r Result) Confidence(label string) (float64, bool) {
	c, ok := r.ConfidencesByLabel[label]
	return c, ok
}

// #endregion result

// #region example
// Example is a single labelled training sample.
type Example struct {
	Label     string
	Features  []float64
	CreatedAt time.Time
}

// #endregion example

// #region interfaces
// Classifier is the nearest-neighbour collaborator the pipeline talks to.
// Implementations: KNN (in-process), Persistent (write-through), Client (gRPC).
type Classifier interface {
	AddExample(ctx context.Context, features []float64, label string) error
	Classify(ctx context.Context, features []float64) (Result, error)
	CountByLabel(ctx context.Context) (map[string]int, error)
	ClearLabel(ctx context.Context, label string) (int, error)
}

// ExampleStore persists training examples. Implemented by store.Store.
type ExampleStore interface {
	SaveExample(ctx context.Context, ex Example) error
	ListExamples(ctx context.Context) ([]Example, error)
	DeleteExamples(ctx context.Context, label string) (int, error)
}

// #endregion interfaces
