package classifier

import (
	"context"
	"fmt"
	"time"
)

// #region persistent
// Persistent wraps an in-process KNN and writes every training change through
// to an ExampleStore, so a restarted service classifies with the same model.
type Persistent struct {
	model *KNN
	store ExampleStore
}

// NewPersistent loads all stored examples into model and returns the wrapper.
func NewPersistent(ctx context.Context, model *KNN, store ExampleStore) (*Persistent, error) {
	examples, err := store.ListExamples(ctx)
	if err != nil {
		return nil, fmt.Errorf("load examples: %w", err)
	}
	if err := model.Load(examples); err != nil {
		return nil, err
	}
	return &Persistent{model: model, store: store}, nil
}

// #endregion persistent

// #region methods
// AddExample checks the sample against the model, persists it, and only then
// adds it to the model. A failed save leaves both unchanged.
func (p *Persistent) AddExample(ctx context.Context, features []float64, label string) error {
	if err := p.model.Check(features, label); err != nil {
		return err
	}
	ex := Example{Label: label, Features: features, CreatedAt: time.Now().UTC()}
	if err := p.store.SaveExample(ctx, ex); err != nil {
		return fmt.Errorf("persist example: %w", err)
	}
	return p.model.AddExample(ctx, features, label)
}

// Classify delegates to the in-memory model.
func (p *Persistent) Classify(ctx context.Context, features []float64) (Result, error) {
	return p.model.Classify(ctx, features)
}

// CountByLabel delegates to the in-memory model.
func (p *Persistent) CountByLabel(ctx context.Context) (map[string]int, error) {
	return p.model.CountByLabel(ctx)
}

// ClearLabel removes label from the store and then from the model.
func (p *Persistent) ClearLabel(ctx context.Context, label string) (int, error) {
	if _, err := p.store.DeleteExamples(ctx, label); err != nil {
		return 0, fmt.Errorf("delete examples: %w", err)
	}
	return p.model.ClearLabel(ctx, label)
}

// #endregion methods
