package testutil

import (
	"context"
	"sync"
)

// StubClassifier is a scripted classifier. Probs is returned for each call,
// repeating its last value when the batch is longer; Fn, when set, wins.
type StubClassifier struct {
	Features []string
	Probs    []float64
	Err      error
	Fn       func(vectors [][]float64) ([]float64, error)

	mu    sync.Mutex
	Calls [][][]float64
}

// FeatureNames implements the classifier contract.
func (c *StubClassifier) FeatureNames() []string {
	if c.Features == nil {
		return SampleFeatureNames
	}
	return c.Features
}

// PredictProba implements the classifier contract.
func (c *StubClassifier) PredictProba(_ context.Context, vectors [][]float64) ([]float64, error) {
	c.mu.Lock()
	c.Calls = append(c.Calls, vectors)
	c.mu.Unlock()

	if c.Fn != nil {
		return c.Fn(vectors)
	}
	if c.Err != nil {
		return nil, c.Err
	}
	out := make([]float64, len(vectors))
	for i := range out {
		switch {
		case i < len(c.Probs):
			out[i] = c.Probs[i]
		case len(c.Probs) > 0:
			out[i] = c.Probs[len(c.Probs)-1]
		}
	}
	return out, nil
}
