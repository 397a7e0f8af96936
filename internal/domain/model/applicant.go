package model

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Canonical feature names, exactly as the classifier was trained on them.
const (
	FieldIncome         = "Income"
	FieldAge            = "Age"
	FieldExperience     = "Experience"
	FieldMaritalStatus  = "marital_status"
	FieldHouseOwnership = "House_Ownership"
	FieldCarOwnership   = "Car_Ownership"
	FieldProfession     = "Profession"
	FieldCity           = "CITY"
	FieldState          = "STATE"
	FieldJobYears       = "job_years"
	FieldHouseYears     = "house_years"
)

// RawRow maps a column header to its cell text.
type RawRow map[string]string

// ApplicantRecord is the typed view of one applicant's attributes.
type ApplicantRecord struct {
	Income         float64 `json:"income"`
	Age            float64 `json:"age"`
	Experience     float64 `json:"experience"`
	MaritalStatus  string  `json:"marital_status"`
	HouseOwnership string  `json:"house_ownership"`
	CarOwnership   string  `json:"car_ownership"`
	Profession     string  `json:"profession"`
	City           string  `json:"city"`
	State          string  `json:"state"`
	JobYears       float64 `json:"job_years"`
	HouseYears     float64 `json:"house_years"`
}

// Row renders the record keyed by canonical field names.
func (r ApplicantRecord) Row() RawRow {
	return RawRow{
		FieldIncome:         formatNumber(r.Income),
		FieldAge:            formatNumber(r.Age),
		FieldExperience:     formatNumber(r.Experience),
		FieldMaritalStatus:  r.MaritalStatus,
		FieldHouseOwnership: r.HouseOwnership,
		FieldCarOwnership:   r.CarOwnership,
		FieldProfession:     r.Profession,
		FieldCity:           r.City,
		FieldState:          r.State,
		FieldJobYears:       formatNumber(r.JobYears),
		FieldHouseYears:     formatNumber(r.HouseYears),
	}
}

// Validate rejects values no applicant can have.
func (r ApplicantRecord) Validate() error {
	switch {
	case r.Income < 0:
		return errors.New("income must not be negative")
	case r.Age <= 0:
		return errors.New("age must be positive")
	case r.Experience < 0:
		return errors.New("experience must not be negative")
	case r.JobYears < 0:
		return errors.New("job years must not be negative")
	case r.HouseYears < 0:
		return errors.New("house years must not be negative")
	}
	return nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// LoanTerms are the requested loan parameters of a submission.
type LoanTerms struct {
	Amount         decimal.Decimal `json:"amount"`
	DurationMonths int             `json:"duration_months"`
	// InterestRate is an annual percentage, e.g. 12.0 for 12%.
	InterestRate decimal.Decimal `json:"interest_rate"`
}

var hundred = decimal.NewFromInt(100)

// Validate checks the terms of a single submission.
func (t LoanTerms) Validate() error {
	if !t.Amount.IsPositive() {
		return errors.New("loan amount must be positive")
	}
	if t.DurationMonths <= 0 {
		return errors.New("loan duration must be positive")
	}
	if t.InterestRate.IsNegative() || t.InterestRate.GreaterThan(hundred) {
		return fmt.Errorf("interest rate %s must be within [0, 100]", t.InterestRate)
	}
	return nil
}
