package model

import "github.com/shopspring/decimal"

// PortfolioSummary aggregates scored submissions for bank staff.
type PortfolioSummary struct {
	TotalSubmissions          int
	BandCounts                BandCounts
	AverageDefaultProbability float64
	AverageLoanAmount         decimal.Decimal
	TotalLoanAmount           decimal.Decimal
	TotalEstimatedProfit      decimal.Decimal
}

// HighRiskCount returns the number of submissions in the High band.
func (p PortfolioSummary) HighRiskCount() int { return p.BandCounts.High }
