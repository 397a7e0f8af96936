package service

import (
	"github.com/shopspring/decimal"

	"github.com/bibbank/creditrisk/internal/domain/valueobject"
)

// RiskBander maps default probabilities to risk bands.
type RiskBander struct {
	thresholds valueobject.RiskThresholds
}

// NewRiskBander returns a bander; zero thresholds mean the canonical pair.
func NewRiskBander(t valueobject.RiskThresholds) *RiskBander {
	if t.IsZero() {
		t = valueobject.CanonicalRiskThresholds
	}
	return &RiskBander{thresholds: t}
}

// Thresholds returns the active threshold pair.
func (b *RiskBander) Thresholds() valueobject.RiskThresholds { return b.thresholds }

// Band classifies a single probability.
func (b *RiskBander) Band(p float64) valueobject.RiskBand { return b.thresholds.Band(p) }

// BandAll classifies every probability.
func (b *RiskBander) BandAll(ps []float64) []valueobject.RiskBand {
	out := make([]valueobject.RiskBand, len(ps))
	for i, p := range ps {
		out[i] = b.thresholds.Band(p)
	}
	return out
}

// ---------------------------------------------------------------------------
// ProfitEstimator
// ---------------------------------------------------------------------------

// ProfitEstimator computes expected profit from a default probability.
//
// Two formulas are in use:
//
//	SubmissionProfit = amount × (rate / 100) × (1 − p)
//	BatchRowProfit   = (1 − p) × amount
type ProfitEstimator struct{}

// NewProfitEstimator returns a new estimator.
func NewProfitEstimator() *ProfitEstimator { return &ProfitEstimator{} }

func survival(p float64) decimal.Decimal {
	return decimal.NewFromInt(1).Sub(decimal.NewFromFloat(p))
}

// SubmissionProfit is the expected interest income of a loan with a known
// annual rate, given as a percentage.
func (e *ProfitEstimator) SubmissionProfit(amount, ratePercent decimal.Decimal, p float64) decimal.Decimal {
	return amount.Mul(ratePercent.Div(hundred)).Mul(survival(p))
}

// BatchRowProfit is the expected recovered principal of an uploaded row.
func (e *ProfitEstimator) BatchRowProfit(amount decimal.Decimal, p float64) decimal.Decimal {
	return survival(p).Mul(amount)
}

var hundred = decimal.NewFromInt(100)
