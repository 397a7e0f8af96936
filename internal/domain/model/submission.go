package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/creditrisk/internal/domain/event"
	"github.com/bibbank/creditrisk/internal/domain/valueobject"
	"github.com/bibbank/creditrisk/pkg/events"
)

// PredictionStatusSuccess marks a submission whose scoring completed.
const PredictionStatusSuccess = "success"

// ---------------------------------------------------------------------------
// ApplicantSubmission aggregate root
// ---------------------------------------------------------------------------

// ApplicantSubmission is one scored single-applicant form.
type ApplicantSubmission struct {
	events.EventCollector

	id                string
	userID            string
	record            ApplicantRecord
	terms             LoanTerms
	comments          string
	result            PredictionResult
	predictionStatus  string
	featureImportance map[string]float64
	notes             []string
	createdAt         time.Time
}

// NewApplicantSubmission builds a scored submission and records its events.
func NewApplicantSubmission(
	userID string,
	record ApplicantRecord,
	terms LoanTerms,
	comments string,
	result PredictionResult,
	notes []string,
	now time.Time,
) (ApplicantSubmission, error) {
	if userID == "" {
		return ApplicantSubmission{}, errors.New("user ID is required")
	}
	if err := record.Validate(); err != nil {
		return ApplicantSubmission{}, fmt.Errorf("invalid applicant: %w", err)
	}
	if err := terms.Validate(); err != nil {
		return ApplicantSubmission{}, fmt.Errorf("invalid loan terms: %w", err)
	}
	if result.RiskBand.IsZero() {
		return ApplicantSubmission{}, errors.New("prediction result is required")
	}

	s := ApplicantSubmission{
		id:                uuid.New().String(),
		userID:            userID,
		record:            record,
		terms:             terms,
		comments:          comments,
		result:            result,
		predictionStatus:  PredictionStatusSuccess,
		featureImportance: map[string]float64{},
		notes:             notes,
		createdAt:         now,
	}

	s.EventCollector.Record(event.NewApplicantScored(
		s.id, userID, result.DefaultProbability, result.RiskBand.String(), terms.Amount, result.EstimatedProfit,
	))
	if result.RiskBand.Equal(valueobject.RiskBandHigh) {
		s.EventCollector.Record(event.NewHighRiskApplicantDetected(s.id, userID, result.DefaultProbability, terms.Amount))
	}
	return s, nil
}

// ReconstructApplicantSubmission rebuilds an aggregate from persistence without side-effects.
func ReconstructApplicantSubmission(
	id, userID string,
	record ApplicantRecord,
	terms LoanTerms,
	comments string,
	result PredictionResult,
	predictionStatus string,
	featureImportance map[string]float64,
	createdAt time.Time,
) ApplicantSubmission {
	if featureImportance == nil {
		featureImportance = map[string]float64{}
	}
	return ApplicantSubmission{
		id:                id,
		userID:            userID,
		record:            record,
		terms:             terms,
		comments:          comments,
		result:            result,
		predictionStatus:  predictionStatus,
		featureImportance: featureImportance,
		createdAt:         createdAt,
	}
}

// AuditEntry describes the submission for the audit trail.
func (s ApplicantSubmission) AuditEntry() AuditEntry {
	return NewAuditEntry(s.userID, AuditActionSubmissionScored, s.predictionStatus, s.id,
		fmt.Sprintf("risk_band=%s default_probability=%.4f", s.result.RiskBand, s.result.DefaultProbability),
		s.createdAt)
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (s ApplicantSubmission) ID() string                        { return s.id }
func (s ApplicantSubmission) UserID() string                    { return s.userID }
func (s ApplicantSubmission) Applicant() ApplicantRecord        { return s.record }
func (s ApplicantSubmission) Terms() LoanTerms                  { return s.terms }
func (s ApplicantSubmission) Comments() string                  { return s.comments }
func (s ApplicantSubmission) Result() PredictionResult          { return s.result }
func (s ApplicantSubmission) PredictionStatus() string          { return s.predictionStatus }
func (s ApplicantSubmission) Notes() []string                   { return s.notes }
func (s ApplicantSubmission) CreatedAt() time.Time              { return s.createdAt }
func (s ApplicantSubmission) DomainEvents() []event.DomainEvent { return s.Events() }

// FeatureImportance returns a copy of the per-feature attribution map.
func (s ApplicantSubmission) FeatureImportance() map[string]float64 {
	out := make(map[string]float64, len(s.featureImportance))
	for k, v := range s.featureImportance {
		out[k] = v
	}
	return out
}
