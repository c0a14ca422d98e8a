package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// #region fake-store
type memStore struct {
	examples []Example
	saveErr  error
}

func (s *memStore) SaveExample(_ context.Context, ex Example) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.examples = append(s.examples, ex)
	return nil
}

func (s *memStore) ListExamples(_ context.Context) ([]Example, error) {
	return s.examples, nil
}

func (s *memStore) DeleteExamples(_ context.Context, label string) (int, error) {
	kept := s.examples[:0]
	n := 0
	for _, ex := range s.examples {
		if ex.Label == label {
			n++
			continue
		}
		kept = append(kept, ex)
	}
	s.examples = kept
	return n, nil
}

// #endregion fake-store

func TestPersistent_LoadsStoredExamples(t *testing.T) {
	store := &memStore{examples: []Example{
		{Label: "standing", Features: []float64{0, 0}},
		{Label: "squatting", Features: []float64{5, 5}},
	}}
	p, err := NewPersistent(context.Background(), NewKNN(1), store)
	require.NoError(t, err)

	r, err := p.Classify(context.Background(), []float64{4, 4})
	require.NoError(t, err)
	assert.Equal(t, "squatting", r.Label)
}

func TestPersistent_WritesThrough(t *testing.T) {
	store := &memStore{}
	ctx := context.Background()
	p, err := NewPersistent(ctx, NewKNN(3), store)
	require.NoError(t, err)

	require.NoError(t, p.AddExample(ctx, []float64{1, 2}, "jumping"))
	require.Len(t, store.examples, 1)
	assert.Equal(t, "jumping", store.examples[0].Label)

	// Rejected by the model, never stored.
	assert.Error(t, p.AddExample(ctx, []float64{1}, "jumping"))
	assert.Len(t, store.examples, 1)

	n, err := p.ClearLabel(ctx, "jumping")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, store.examples)
}

func TestPersistent_SaveError(t *testing.T) {
	store := &memStore{saveErr: errors.New("disk full")}
	ctx := context.Background()
	p, err := NewPersistent(ctx, NewKNN(3), store)
	require.NoError(t, err)

	err = p.AddExample(ctx, []float64{1}, "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist example")

	counts, err := p.CountByLabel(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)

	// The failed sample must not have fixed the model's dimension either.
	store.saveErr = nil
	require.NoError(t, p.AddExample(ctx, []float64{1, 2}, "a"))
	counts, err = p.CountByLabel(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, counts)
}
