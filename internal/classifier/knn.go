package classifier

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
)

// #region knn
// DefaultK is the neighbour count used when NewKNN is given k <= 0.
const DefaultK = 3

// KNN is an in-memory k-nearest-neighbour classifier over Euclidean distance.
type KNN struct {
	mu       sync.RWMutex
	k        int
	dim      int
	examples []Example
}

// NewKNN creates an empty classifier.
func NewKNN(k int) *KNN {
	if k <= 0 {
		k = DefaultK
	}
	return &KNN{k: k}
}

// #endregion knn

// #region add-example
// AddExample appends a labelled sample. The first example fixes the feature dimension.
func (m *KNN) AddExample(_ context.Context, features []float64, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLocked(features, label); err != nil {
		return err
	}
	m.dim = len(features)

	cp := make([]float64, len(features))
	copy(cp, features)
	m.examples = append(m.examples, Example{Label: label, Features: cp, CreatedAt: time.Now().UTC()})
	return nil
}

// Check reports whether AddExample would accept the sample, without adding it.
func (m *KNN) Check(features []float64, label string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checkLocked(features, label)
}

func (m *KNN) checkLocked(features []float64, label string) error {
	if label == "" {
		return fmt.Errorf("add example: %w", ErrMissingLabel)
	}
	if len(features) == 0 {
		return fmt.Errorf("add example: %w", ErrEmptyFeatures)
	}
	if m.dim != 0 && len(features) != m.dim {
		return fmt.Errorf("add example: got %d features, model has %d: %w", len(features), m.dim, ErrDimensionMismatch)
	}
	return nil
}

// Load replaces the model contents. Examples whose dimension disagrees with the
// first one are rejected.
func (m *KNN) Load(examples []Example) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.examples = m.examples[:0]
	m.dim = 0
	for i, ex := range examples {
		if len(ex.Features) == 0 || ex.Label == "" {
			return fmt.Errorf("load example %d: %w", i, ErrEmptyFeatures)
		}
		if m.dim != 0 && len(ex.Features) != m.dim {
			return fmt.Errorf("load example %d: %w", i, ErrDimensionMismatch)
		}
		m.dim = len(ex.Features)
		m.examples = append(m.examples, ex)
	}
	return nil
}

// #endregion add-example

// #region classify
type neighbour struct {
	label string
	dist  float64
}

// Classify votes among the k nearest examples. Each label's confidence is its
// share of the votes; labels with no neighbour in range report 0. Ties go to the
// label whose nearest neighbour is closest.
func (m *KNN) Classify(_ context.Context, features []float64) (Result, error) {
	if len(features) == 0 {
		return Result{}, fmt.Errorf("classify: %w", ErrEmptyFeatures)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.examples) == 0 {
		return Result{}, fmt.Errorf("classify: %w", ErrNoExamples)
	}
	if len(features) != m.dim {
		return Result{}, fmt.Errorf("classify: got %d features, model has %d: %w", len(features), m.dim, ErrDimensionMismatch)
	}

	neighbours := make([]neighbour, len(m.examples))
	for i, ex := range m.examples {
		neighbours[i] = neighbour{label: ex.Label, dist: floats.Distance(features, ex.Features, 2)}
	}
	sort.SliceStable(neighbours, func(i, j int) bool { return neighbours[i].dist < neighbours[j].dist })

	k := m.k
	if k > len(neighbours) {
		k = len(neighbours)
	}

	confidences := make(map[string]float64)
	for _, ex := range m.examples {
		confidences[ex.Label] = 0
	}
	votes := make(map[string]int)
	for _, n := range neighbours[:k] {
		votes[n.label]++
	}

	// neighbours is sorted, so the first label to reach the max is the closest one.
	var best string
	bestVotes := 0
	for _, n := range neighbours[:k] {
		if v := votes[n.label]; v > bestVotes {
			best, bestVotes = n.label, v
		}
	}
	for label, v := range votes {
		confidences[label] = float64(v) / float64(k)
	}

	return Result{Label: best, ConfidencesByLabel: confidences}, nil
}

// #endregion classify

// #region counts
// CountByLabel returns the number of examples held for each label.
func (m *KNN) CountByLabel(_ context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, ex := range m.examples {
		counts[ex.Label]++
	}
	return counts, nil
}

// ClearLabel drops every example for label and returns how many were removed.
func (m *KNN) ClearLabel(_ context.Context, label string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.examples[:0]
	removed := 0
	for _, ex := range m.examples {
		if ex.Label == label {
			removed++
			continue
		}
		kept = append(kept, ex)
	}
	m.examples = kept
	if len(m.examples) == 0 {
		m.dim = 0
	}
	return removed, nil
}

// #endregion counts
