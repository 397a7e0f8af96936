package usecase

import (
	"context"
	"time"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/domain/model"
)

func toPredictionResponse(s model.ApplicantSubmission) dto.PredictionResponse {
	r := s.Result()
	return dto.PredictionResponse{
		SubmissionID:       s.ID(),
		DefaultProbability: r.DefaultProbability,
		RiskBand:           r.RiskBand.String(),
		PredictedClass:     r.PredictedClass,
		EstimatedProfit:    r.EstimatedProfit,
		Notes:              s.Notes(),
		CreatedAt:          s.CreatedAt(),
	}
}

func toSubmissionResponse(s model.ApplicantSubmission) dto.SubmissionResponse {
	a := s.Applicant()
	t := s.Terms()
	r := s.Result()
	return dto.SubmissionResponse{
		ID:                 s.ID(),
		UserID:             s.UserID(),
		Income:             a.Income,
		Age:                a.Age,
		Experience:         a.Experience,
		MaritalStatus:      a.MaritalStatus,
		HouseOwnership:     a.HouseOwnership,
		CarOwnership:       a.CarOwnership,
		Profession:         a.Profession,
		City:               a.City,
		State:              a.State,
		JobYears:           a.JobYears,
		HouseYears:         a.HouseYears,
		LoanAmount:         t.Amount,
		LoanDurationMonths: t.DurationMonths,
		InterestRate:       t.InterestRate,
		Comments:           s.Comments(),
		DefaultProbability: r.DefaultProbability,
		RiskBand:           r.RiskBand.String(),
		PredictedClass:     r.PredictedClass,
		EstimatedProfit:    r.EstimatedProfit,
		PredictionStatus:   s.PredictionStatus(),
		CreatedAt:          s.CreatedAt(),
	}
}

func toIssues(issues []model.RowIssue) []dto.RowIssueResponse {
	if len(issues) == 0 {
		return nil
	}
	out := make([]dto.RowIssueResponse, len(issues))
	for i, is := range issues {
		out[i] = dto.RowIssueResponse{Row: is.Row, Reason: is.Reason}
	}
	return out
}

func toUploadResponse(u model.BatchUpload) dto.BatchUploadResponse {
	s := u.Summary()
	resp := dto.BatchUploadResponse{
		UploadID:      u.ID(),
		UploaderID:    u.UploaderID(),
		Filename:      u.Filename(),
		Notes:         u.Notes(),
		Status:        u.Status().String(),
		TotalRows:     s.TotalRows,
		LowCount:      s.BandCounts.Low,
		MediumCount:   s.BandCounts.Medium,
		HighCount:     s.BandCounts.High,
		PersistedRows: s.PersistedRows,
		FailedRows:    s.FailedRows(),
		Failures:      toIssues(s.Failures),
		Degraded:      toIssues(s.Degraded),
		DataNotes:     s.Notes,
		FailureReason: u.FailureReason(),
		CreatedAt:     u.CreatedAt(),
	}
	if !u.FinalizedAt().IsZero() {
		at := u.FinalizedAt()
		resp.FinalizedAt = &at
	}
	return resp
}

func toPortfolioResponse(p model.PortfolioSummary) dto.PortfolioSummaryResponse {
	return dto.PortfolioSummaryResponse{
		TotalSubmissions:          p.TotalSubmissions,
		LowCount:                  p.BandCounts.Low,
		MediumCount:               p.BandCounts.Medium,
		HighCount:                 p.BandCounts.High,
		AverageDefaultProbability: p.AverageDefaultProbability,
		AverageLoanAmount:         p.AverageLoanAmount,
		TotalLoanAmount:           p.TotalLoanAmount,
		TotalEstimatedProfit:      p.TotalEstimatedProfit,
	}
}

func toAuditResponse(e model.AuditEntry) dto.AuditEntryResponse {
	return dto.AuditEntryResponse{
		ID:        e.ID,
		UserID:    e.UserID,
		Action:    e.Action,
		Status:    e.Status,
		EntityID:  e.EntityID,
		Details:   e.Details,
		CreatedAt: e.CreatedAt,
	}
}

// noopMetrics is used when no metrics port is wired.
type noopMetrics struct{}

func (noopMetrics) ApplicantScored(context.Context, string) {}
func (noopMetrics) BatchFinished(context.Context, string, int, int, int, time.Duration) {
}
func (noopMetrics) RowPersistFailed(context.Context) {}
