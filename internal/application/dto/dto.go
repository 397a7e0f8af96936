package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Caller identifies the authenticated user on whose behalf a use case runs.
type Caller struct {
	UserID string
	Admin  bool
	Bank   bool
}

// CanActFor reports whether the caller may read ownerID's records.
func (c Caller) CanActFor(ownerID string) bool {
	return c.Admin || (c.UserID != "" && c.UserID == ownerID)
}

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// ScoreApplicantRequest carries a single applicant form.
type ScoreApplicantRequest struct {
	UserID             string          `json:"-"`
	Income             float64         `json:"income"`
	Age                float64         `json:"age"`
	Experience         float64         `json:"experience"`
	MaritalStatus      string          `json:"marital_status"`
	HouseOwnership     string          `json:"house_ownership"`
	CarOwnership       string          `json:"car_ownership"`
	Profession         string          `json:"profession"`
	City               string          `json:"city"`
	State              string          `json:"state"`
	JobYears           float64         `json:"job_years"`
	HouseYears         float64         `json:"house_years"`
	LoanAmount         decimal.Decimal `json:"loan_amount"`
	LoanDurationMonths int             `json:"loan_duration_months"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	Comments           string          `json:"comments,omitempty"`
}

// ProcessBatchUploadRequest carries an uploaded file.
type ProcessBatchUploadRequest struct {
	UploaderID string
	Filename   string
	Notes      string
	Content    []byte
}

// ExportRequest selects a rendered export.
type ExportRequest struct {
	Caller Caller
	// ID is the upload, submission or user the export is about.
	ID     string
	Format string
}

// AuditLogRequest filters the audit trail.
type AuditLogRequest struct {
	Action string    `json:"action"`
	Status string    `json:"status"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	Limit  int       `json:"limit"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// PredictionResponse is the scoring outcome of a single submission.
type PredictionResponse struct {
	SubmissionID       string          `json:"submission_id"`
	DefaultProbability float64         `json:"default_probability"`
	RiskBand           string          `json:"risk_band"`
	PredictedClass     int             `json:"predicted_class"`
	EstimatedProfit    decimal.Decimal `json:"estimated_profit"`
	Notes              []string        `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// SubmissionResponse is one entry of an applicant's history.
type SubmissionResponse struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	Income             float64         `json:"income"`
	Age                float64         `json:"age"`
	Experience         float64         `json:"experience"`
	MaritalStatus      string          `json:"marital_status"`
	HouseOwnership     string          `json:"house_ownership"`
	CarOwnership       string          `json:"car_ownership"`
	Profession         string          `json:"profession"`
	City               string          `json:"city"`
	State              string          `json:"state"`
	JobYears           float64         `json:"job_years"`
	HouseYears         float64         `json:"house_years"`
	LoanAmount         decimal.Decimal `json:"loan_amount"`
	LoanDurationMonths int             `json:"loan_duration_months"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	Comments           string          `json:"comments,omitempty"`
	DefaultProbability float64         `json:"default_probability"`
	RiskBand           string          `json:"risk_band"`
	PredictedClass     int             `json:"predicted_class"`
	EstimatedProfit    decimal.Decimal `json:"estimated_profit"`
	PredictionStatus   string          `json:"prediction_status"`
	CreatedAt          time.Time       `json:"created_at"`
}

// RowIssueResponse ties a reason to a zero-based row index.
type RowIssueResponse struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// BatchUploadResponse is the external representation of an upload.
type BatchUploadResponse struct {
	UploadID      string             `json:"upload_id"`
	UploaderID    string             `json:"uploader_id"`
	Filename      string             `json:"filename"`
	Notes         string             `json:"notes,omitempty"`
	Status        string             `json:"status"`
	TotalRows     int                `json:"total_rows"`
	LowCount      int                `json:"low_risk_count"`
	MediumCount   int                `json:"medium_risk_count"`
	HighCount     int                `json:"high_risk_count"`
	PersistedRows int                `json:"persisted_rows"`
	FailedRows    int                `json:"failed_rows"`
	Failures      []RowIssueResponse `json:"failures,omitempty"`
	Degraded      []RowIssueResponse `json:"degraded,omitempty"`
	DataNotes     []string           `json:"data_notes,omitempty"`
	FailureReason string             `json:"failure_reason,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	FinalizedAt   *time.Time         `json:"finalized_at,omitempty"`
}

// DatasetResponse is a decorated table.
type DatasetResponse struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// ProcessBatchUploadResponse is the outcome of a processed upload.
type ProcessBatchUploadResponse struct {
	Upload  BatchUploadResponse `json:"upload"`
	Dataset DatasetResponse     `json:"dataset"`
}

// ExportResponse is a rendered document.
type ExportResponse struct {
	Filename    string
	ContentType string
	Body        []byte
}

// PortfolioSummaryResponse aggregates submissions for bank staff.
type PortfolioSummaryResponse struct {
	TotalSubmissions          int             `json:"total_submissions"`
	LowCount                  int             `json:"low_risk_count"`
	MediumCount               int             `json:"medium_risk_count"`
	HighCount                 int             `json:"high_risk_count"`
	AverageDefaultProbability float64         `json:"average_default_probability"`
	AverageLoanAmount         decimal.Decimal `json:"average_loan_amount"`
	TotalLoanAmount           decimal.Decimal `json:"total_loan_amount"`
	TotalEstimatedProfit      decimal.Decimal `json:"total_estimated_profit"`
}

// AuditEntryResponse is one audit trail entry.
type AuditEntryResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Status    string    `json:"status"`
	EntityID  string    `json:"entity_id"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
