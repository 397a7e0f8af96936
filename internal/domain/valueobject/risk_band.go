package valueobject

import (
	"errors"
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// RiskBand – immutable value object
// ---------------------------------------------------------------------------

// RiskBand is the discretized risk category derived from a default probability.
type RiskBand struct {
	value string
}

const (
	riskBandLow    = "Low"
	riskBandMedium = "Medium"
	riskBandHigh   = "High"
)

var (
	RiskBandLow    = RiskBand{value: riskBandLow}
	RiskBandMedium = RiskBand{value: riskBandMedium}
	RiskBandHigh   = RiskBand{value: riskBandHigh}
)

// AllRiskBands lists the bands in ascending severity.
var AllRiskBands = []RiskBand{RiskBandLow, RiskBandMedium, RiskBandHigh}

var validRiskBands = map[string]RiskBand{
	riskBandLow:    RiskBandLow,
	riskBandMedium: RiskBandMedium,
	riskBandHigh:   RiskBandHigh,
}

// NewRiskBand parses a band name as persisted ("Low", "Medium", "High").
func NewRiskBand(s string) (RiskBand, error) {
	v, ok := validRiskBands[s]
	if !ok {
		return RiskBand{}, fmt.Errorf("invalid risk band: %q", s)
	}
	return v, nil
}

// String returns the string representation of the band.
func (b RiskBand) String() string { return b.value }

// IsZero returns true if the band has not been initialised.
func (b RiskBand) IsZero() bool { return b.value == "" }

// Equal returns true when both bands carry the same value.
func (b RiskBand) Equal(other RiskBand) bool { return b.value == other.value }

// Severity orders bands: Low=1, Medium=2, High=3, zero value=0.
func (b RiskBand) Severity() int {
	switch b.value {
	case riskBandLow:
		return 1
	case riskBandMedium:
		return 2
	case riskBandHigh:
		return 3
	default:
		return 0
	}
}

// ---------------------------------------------------------------------------
// RiskThresholds – immutable value object
// ---------------------------------------------------------------------------

// RiskThresholds splits [0,1] into three bands: p < Low is Low,
// Low <= p < High is Medium, p >= High is High.
type RiskThresholds struct {
	low  float64
	high float64
}

// CanonicalRiskThresholds is the single threshold pair used by both the
// submission and the bulk upload paths.
var CanonicalRiskThresholds = RiskThresholds{low: 0.33, high: 0.66}

// ErrInvalidThresholds is returned when a threshold pair does not partition [0,1].
var ErrInvalidThresholds = errors.New("risk thresholds must satisfy 0 < low < high <= 1")

// NewRiskThresholds validates and builds a threshold pair.
func NewRiskThresholds(low, high float64) (RiskThresholds, error) {
	if math.IsNaN(low) || math.IsNaN(high) || low <= 0 || high > 1 || low >= high {
		return RiskThresholds{}, fmt.Errorf("%w: got low=%v high=%v", ErrInvalidThresholds, low, high)
	}
	return RiskThresholds{low: low, high: high}, nil
}

func (t RiskThresholds) Low() float64  { return t.low }
func (t RiskThresholds) High() float64 { return t.high }

// IsZero returns true if the thresholds have not been initialised.
func (t RiskThresholds) IsZero() bool { return t.low == 0 && t.high == 0 }

// Band maps a probability to its band. It is total over the reals: values
// below zero land in Low and values above one land in High.
func (t RiskThresholds) Band(p float64) RiskBand {
	switch {
	case p < t.low:
		return RiskBandLow
	case p < t.high:
		return RiskBandMedium
	default:
		return RiskBandHigh
	}
}
