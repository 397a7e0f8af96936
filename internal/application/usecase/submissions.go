package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/domain/service"
)

// GetSubmissionHistoryUseCase lists an applicant's scored submissions.
type GetSubmissionHistoryUseCase struct {
	repo port.SubmissionRepository
}

func NewGetSubmissionHistoryUseCase(repo port.SubmissionRepository) *GetSubmissionHistoryUseCase {
	return &GetSubmissionHistoryUseCase{repo: repo}
}

// Execute returns userID's submissions, newest first.
func (uc *GetSubmissionHistoryUseCase) Execute(ctx context.Context, caller dto.Caller, userID string) ([]dto.SubmissionResponse, error) {
	if userID == "" {
		userID = caller.UserID
	}
	if !caller.CanActFor(userID) {
		return nil, ErrForbidden
	}
	subs, err := uc.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find submissions: %w", err)
	}
	out := make([]dto.SubmissionResponse, len(subs))
	for i, s := range subs {
		out[i] = toSubmissionResponse(s)
	}
	return out, nil
}

// ListAll returns every applicant's submissions, newest first. Bank staff
// and admins only.
func (uc *GetSubmissionHistoryUseCase) ListAll(ctx context.Context, caller dto.Caller) ([]dto.SubmissionResponse, error) {
	if !caller.Admin && !caller.Bank {
		return nil, ErrForbidden
	}
	subs, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	out := make([]dto.SubmissionResponse, len(subs))
	for i, s := range subs {
		out[i] = toSubmissionResponse(s)
	}
	return out, nil
}

// ExportSubmissionHistoryUseCase renders an applicant's history.
type ExportSubmissionHistoryUseCase struct {
	repo     port.SubmissionRepository
	renderer *ReportRenderer
}

func NewExportSubmissionHistoryUseCase(repo port.SubmissionRepository, renderer *ReportRenderer) *ExportSubmissionHistoryUseCase {
	return &ExportSubmissionHistoryUseCase{repo: repo, renderer: renderer}
}

// Execute renders the history of req.ID (the caller when empty). The
// default format is csv.
func (uc *ExportSubmissionHistoryUseCase) Execute(ctx context.Context, req dto.ExportRequest) (dto.ExportResponse, error) {
	userID := req.ID
	if userID == "" {
		userID = req.Caller.UserID
	}
	if !req.Caller.CanActFor(userID) {
		return dto.ExportResponse{}, ErrForbidden
	}
	subs, err := uc.repo.FindByUserID(ctx, userID)
	if err != nil {
		return dto.ExportResponse{}, fmt.Errorf("find submissions: %w", err)
	}
	format := req.Format
	if format == "" {
		format = "csv"
	}
	report := service.BuildHistoryReport(userID, subs, time.Now().UTC())
	return uc.renderer.Render(report, format, "submission_history")
}

// ExportSubmissionReportUseCase renders one submission's summary.
type ExportSubmissionReportUseCase struct {
	repo     port.SubmissionRepository
	renderer *ReportRenderer
}

func NewExportSubmissionReportUseCase(repo port.SubmissionRepository, renderer *ReportRenderer) *ExportSubmissionReportUseCase {
	return &ExportSubmissionReportUseCase{repo: repo, renderer: renderer}
}

// Execute renders submission req.ID. The default format is pdf.
func (uc *ExportSubmissionReportUseCase) Execute(ctx context.Context, req dto.ExportRequest) (dto.ExportResponse, error) {
	sub, err := uc.repo.FindByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return dto.ExportResponse{}, fmt.Errorf("%w: submission %s", ErrNotFound, req.ID)
		}
		return dto.ExportResponse{}, fmt.Errorf("find submission: %w", err)
	}
	if !req.Caller.CanActFor(sub.UserID()) {
		return dto.ExportResponse{}, ErrForbidden
	}
	format := req.Format
	if format == "" {
		format = "pdf"
	}
	report := service.BuildSubmissionReport(sub, time.Now().UTC())
	return uc.renderer.Render(report, format, "submission_"+sub.ID())
}

// ExportSubmissionListUseCase renders every submission for bank staff.
type ExportSubmissionListUseCase struct {
	repo     port.SubmissionRepository
	renderer *ReportRenderer
}

func NewExportSubmissionListUseCase(repo port.SubmissionRepository, renderer *ReportRenderer) *ExportSubmissionListUseCase {
	return &ExportSubmissionListUseCase{repo: repo, renderer: renderer}
}

// Execute renders all submissions, newest first. The default format is csv.
func (uc *ExportSubmissionListUseCase) Execute(ctx context.Context, req dto.ExportRequest) (dto.ExportResponse, error) {
	if !req.Caller.Admin && !req.Caller.Bank {
		return dto.ExportResponse{}, ErrForbidden
	}
	subs, err := uc.repo.List(ctx)
	if err != nil {
		return dto.ExportResponse{}, fmt.Errorf("list submissions: %w", err)
	}
	format := req.Format
	if format == "" {
		format = "csv"
	}
	report := service.BuildSubmissionListReport(subs, time.Now().UTC())
	return uc.renderer.Render(report, format, "applicant_submissions")
}

// GetPortfolioSummaryUseCase aggregates every submission for bank staff.
type GetPortfolioSummaryUseCase struct {
	repo port.SubmissionRepository
}

func NewGetPortfolioSummaryUseCase(repo port.SubmissionRepository) *GetPortfolioSummaryUseCase {
	return &GetPortfolioSummaryUseCase{repo: repo}
}

func (uc *GetPortfolioSummaryUseCase) Execute(ctx context.Context, caller dto.Caller) (dto.PortfolioSummaryResponse, error) {
	if !caller.Admin && !caller.Bank {
		return dto.PortfolioSummaryResponse{}, ErrForbidden
	}
	subs, err := uc.repo.List(ctx)
	if err != nil {
		return dto.PortfolioSummaryResponse{}, fmt.Errorf("list submissions: %w", err)
	}
	return toPortfolioResponse(service.SummarizePortfolio(subs)), nil
}
