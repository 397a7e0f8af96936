package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/bibbank/creditrisk/internal/domain/port"
)

var (
	// ErrFeatureWidthMismatch means a vector does not have the classifier's width.
	ErrFeatureWidthMismatch = errors.New("feature width mismatch")
	// ErrInvalidProbability means the classifier returned an unusable output.
	ErrInvalidProbability = errors.New("invalid classifier output")
)

// Scorer validates input and output around a Classifier.
type Scorer struct {
	classifier port.Classifier
	features   []string
}

// NewScorer returns a scorer for classifier.
func NewScorer(classifier port.Classifier) (*Scorer, error) {
	features := classifier.FeatureNames()
	if len(features) == 0 {
		return nil, errors.New("classifier declares no features")
	}
	return &Scorer{classifier: classifier, features: features}, nil
}

// FeatureNames returns the classifier's feature order.
func (s *Scorer) FeatureNames() []string {
	out := make([]string, len(s.features))
	copy(out, s.features)
	return out
}

// Width is the number of features per vector.
func (s *Scorer) Width() int { return len(s.features) }

// Score returns one default probability per vector. Any width mismatch,
// classifier error, or output outside [0,1] fails the whole call. The input
// vectors are never modified.
func (s *Scorer) Score(ctx context.Context, vectors [][]float64) ([]float64, error) {
	if len(vectors) == 0 {
		return nil, nil
	}
	in := make([][]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != len(s.features) {
			return nil, fmt.Errorf("%w: row %d has %d features, classifier expects %d",
				ErrFeatureWidthMismatch, i, len(v), len(s.features))
		}
		in[i] = append([]float64(nil), v...)
	}

	probs, err := s.classifier.PredictProba(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	if len(probs) != len(vectors) {
		return nil, fmt.Errorf("%w: %d outputs for %d inputs", ErrInvalidProbability, len(probs), len(vectors))
	}
	for i, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, fmt.Errorf("%w: row %d probability %v", ErrInvalidProbability, i, p)
		}
	}
	return probs, nil
}
