package model

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/bibbank/creditrisk/internal/domain/valueobject"
)

// PredictionResult is the outcome of scoring one applicant.
type PredictionResult struct {
	DefaultProbability float64
	RiskBand           valueobject.RiskBand
	PredictedClass     int
	EstimatedProfit    decimal.Decimal
}

// NewPredictionResult validates the probability and derives the predicted class.
func NewPredictionResult(p float64, band valueobject.RiskBand, profit decimal.Decimal) (PredictionResult, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return PredictionResult{}, fmt.Errorf("default probability %v outside [0,1]", p)
	}
	if band.IsZero() {
		return PredictionResult{}, fmt.Errorf("risk band is required")
	}
	return PredictionResult{
		DefaultProbability: p,
		RiskBand:           band,
		PredictedClass:     PredictedClassFor(p),
		EstimatedProfit:    profit,
	}, nil
}

// PredictedClassFor mirrors the classifier's argmax decision over two
// classes: default (1) only when it is strictly more likely than not.
func PredictedClassFor(p float64) int {
	if p > 0.5 {
		return 1
	}
	return 0
}
