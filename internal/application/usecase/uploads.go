package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/domain/service"
)

func findUpload(ctx context.Context, repo port.BatchUploadRepository, caller dto.Caller, id string) (model.BatchUpload, error) {
	u, err := repo.FindUploadByID(ctx, id)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return model.BatchUpload{}, fmt.Errorf("%w: upload %s", ErrNotFound, id)
		}
		return model.BatchUpload{}, fmt.Errorf("find upload: %w", err)
	}
	if !caller.CanActFor(u.UploaderID()) {
		return model.BatchUpload{}, ErrForbidden
	}
	return u, nil
}

// GetBatchUploadUseCase reads upload metadata.
type GetBatchUploadUseCase struct {
	repo port.BatchUploadRepository
}

func NewGetBatchUploadUseCase(repo port.BatchUploadRepository) *GetBatchUploadUseCase {
	return &GetBatchUploadUseCase{repo: repo}
}

// Get returns one upload owned by the caller, or any upload for admins.
func (uc *GetBatchUploadUseCase) Get(ctx context.Context, caller dto.Caller, id string) (dto.BatchUploadResponse, error) {
	u, err := findUpload(ctx, uc.repo, caller, id)
	if err != nil {
		return dto.BatchUploadResponse{}, err
	}
	return toUploadResponse(u), nil
}

// List returns uploaderID's uploads (the caller's when empty), newest first.
func (uc *GetBatchUploadUseCase) List(ctx context.Context, caller dto.Caller, uploaderID string) ([]dto.BatchUploadResponse, error) {
	if uploaderID == "" {
		uploaderID = caller.UserID
	}
	if !caller.CanActFor(uploaderID) {
		return nil, ErrForbidden
	}
	uploads, err := uc.repo.FindUploadsByUploader(ctx, uploaderID)
	if err != nil {
		return nil, fmt.Errorf("find uploads: %w", err)
	}
	out := make([]dto.BatchUploadResponse, len(uploads))
	for i, u := range uploads {
		out[i] = toUploadResponse(u)
	}
	return out, nil
}

// ListAll returns every upload across uploaders, newest first. Admins only.
func (uc *GetBatchUploadUseCase) ListAll(ctx context.Context, caller dto.Caller) ([]dto.BatchUploadResponse, error) {
	if !caller.Admin {
		return nil, ErrForbidden
	}
	uploads, err := uc.repo.ListUploads(ctx)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	out := make([]dto.BatchUploadResponse, len(uploads))
	for i, u := range uploads {
		out[i] = toUploadResponse(u)
	}
	return out, nil
}

// ExportUploadReportUseCase re-renders a stored upload from its persisted rows.
type ExportUploadReportUseCase struct {
	repo     port.BatchUploadRepository
	renderer *ReportRenderer
}

func NewExportUploadReportUseCase(repo port.BatchUploadRepository, renderer *ReportRenderer) *ExportUploadReportUseCase {
	return &ExportUploadReportUseCase{repo: repo, renderer: renderer}
}

// Execute renders upload req.ID in req.Format (default pdf).
func (uc *ExportUploadReportUseCase) Execute(ctx context.Context, req dto.ExportRequest) (dto.ExportResponse, error) {
	u, err := findUpload(ctx, uc.repo, req.Caller, req.ID)
	if err != nil {
		return dto.ExportResponse{}, err
	}
	clients, err := uc.repo.FindClientsByUpload(ctx, u.ID())
	if err != nil {
		return dto.ExportResponse{}, fmt.Errorf("find upload rows: %w", err)
	}
	format := req.Format
	if format == "" {
		format = "pdf"
	}
	ds, rows := service.ClientsDataset(clients)
	report := service.BuildUploadReport(u.Filename(), u.Summary(), ds, rows, time.Now().UTC())
	return uc.renderer.Render(report, format, "upload_"+u.ID())
}

// ExportUploadListUseCase renders the metadata of every upload for admins.
type ExportUploadListUseCase struct {
	repo     port.BatchUploadRepository
	renderer *ReportRenderer
}

func NewExportUploadListUseCase(repo port.BatchUploadRepository, renderer *ReportRenderer) *ExportUploadListUseCase {
	return &ExportUploadListUseCase{repo: repo, renderer: renderer}
}

// Execute renders all uploads, newest first. The default format is csv.
func (uc *ExportUploadListUseCase) Execute(ctx context.Context, req dto.ExportRequest) (dto.ExportResponse, error) {
	if !req.Caller.Admin {
		return dto.ExportResponse{}, ErrForbidden
	}
	uploads, err := uc.repo.ListUploads(ctx)
	if err != nil {
		return dto.ExportResponse{}, fmt.Errorf("list uploads: %w", err)
	}
	format := req.Format
	if format == "" {
		format = "csv"
	}
	report := service.BuildUploadListReport(uploads, time.Now().UTC())
	return uc.renderer.Render(report, format, "bank_uploads")
}
