package event

import (
	"github.com/shopspring/decimal"

	"github.com/bibbank/creditrisk/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

const (
	TypeApplicantScored           = "creditrisk.applicant.scored"
	TypeHighRiskApplicantDetected = "creditrisk.applicant.high_risk_detected"
	TypeBatchUploadCompleted      = "creditrisk.batch.completed"
	TypeBatchUploadFailed         = "creditrisk.batch.failed"
)

// ---------------------------------------------------------------------------
// Submission events
// ---------------------------------------------------------------------------

// ApplicantScored is raised for every scored single submission.
type ApplicantScored struct {
	events.BaseEvent
	UserID             string          `json:"user_id"`
	DefaultProbability float64         `json:"default_probability"`
	RiskBand           string          `json:"risk_band"`
	LoanAmount         decimal.Decimal `json:"loan_amount"`
	EstimatedProfit    decimal.Decimal `json:"estimated_profit"`
}

func NewApplicantScored(
	submissionID, userID string,
	probability float64, band string,
	loanAmount, profit decimal.Decimal,
) ApplicantScored {
	return ApplicantScored{
		BaseEvent:          events.NewBaseEvent(TypeApplicantScored, submissionID, "ApplicantSubmission"),
		UserID:             userID,
		DefaultProbability: probability,
		RiskBand:           band,
		LoanAmount:         loanAmount,
		EstimatedProfit:    profit,
	}
}

// HighRiskApplicantDetected is raised when a submission lands in the High band.
type HighRiskApplicantDetected struct {
	events.BaseEvent
	UserID             string          `json:"user_id"`
	DefaultProbability float64         `json:"default_probability"`
	LoanAmount         decimal.Decimal `json:"loan_amount"`
}

func NewHighRiskApplicantDetected(submissionID, userID string, probability float64, loanAmount decimal.Decimal) HighRiskApplicantDetected {
	return HighRiskApplicantDetected{
		BaseEvent:          events.NewBaseEvent(TypeHighRiskApplicantDetected, submissionID, "ApplicantSubmission"),
		UserID:             userID,
		DefaultProbability: probability,
		LoanAmount:         loanAmount,
	}
}

// ---------------------------------------------------------------------------
// Batch upload events
// ---------------------------------------------------------------------------

// BatchUploadCompleted is raised once every row of an upload has been attempted.
type BatchUploadCompleted struct {
	events.BaseEvent
	UploaderID    string `json:"uploader_id"`
	Filename      string `json:"filename"`
	TotalRows     int    `json:"total_rows"`
	LowCount      int    `json:"low_risk_count"`
	MediumCount   int    `json:"medium_risk_count"`
	HighCount     int    `json:"high_risk_count"`
	PersistedRows int    `json:"persisted_rows"`
	FailedRows    int    `json:"failed_rows"`
}

func NewBatchUploadCompleted(
	uploadID, uploaderID, filename string,
	total, low, medium, high, persisted, failed int,
) BatchUploadCompleted {
	return BatchUploadCompleted{
		BaseEvent:     events.NewBaseEvent(TypeBatchUploadCompleted, uploadID, "BatchUpload"),
		UploaderID:    uploaderID,
		Filename:      filename,
		TotalRows:     total,
		LowCount:      low,
		MediumCount:   medium,
		HighCount:     high,
		PersistedRows: persisted,
		FailedRows:    failed,
	}
}

// BatchUploadFailed is raised when an upload aborts.
type BatchUploadFailed struct {
	events.BaseEvent
	UploaderID string `json:"uploader_id"`
	Filename   string `json:"filename"`
	Reason     string `json:"reason"`
}

func NewBatchUploadFailed(uploadID, uploaderID, filename, reason string) BatchUploadFailed {
	return BatchUploadFailed{
		BaseEvent:  events.NewBaseEvent(TypeBatchUploadFailed, uploadID, "BatchUpload"),
		UploaderID: uploaderID,
		Filename:   filename,
		Reason:     reason,
	}
}
