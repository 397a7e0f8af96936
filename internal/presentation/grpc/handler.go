package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/application/usecase"
	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/pkg/auth"
)

// callerFromContext builds the use case caller from the JWT claims in ctx.
func callerFromContext(ctx context.Context) (dto.Caller, error) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return dto.Caller{}, status.Error(codes.Unauthenticated, "authentication required")
	}
	return dto.Caller{
		UserID: claims.UserID.String(),
		Admin:  claims.HasRole(auth.RoleAdmin),
		Bank:   claims.HasRole(auth.RoleBank),
	}, nil
}

// requireRole checks that the caller has at least one of the given roles.
func requireRole(ctx context.Context, roles ...string) (dto.Caller, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return dto.Caller{}, err
	}
	claims, _ := auth.ClaimsFromContext(ctx)
	if !claims.HasAnyRole(roles...) {
		return dto.Caller{}, status.Error(codes.PermissionDenied, "insufficient permissions")
	}
	return caller, nil
}

// Compile-time assertion that CreditRiskHandler implements CreditRiskServiceServer.
var _ CreditRiskServiceServer = (*CreditRiskHandler)(nil)

// CreditRiskHandler implements the gRPC CreditRiskServiceServer interface.
type CreditRiskHandler struct {
	UnimplementedCreditRiskServiceServer
	uc             *usecase.Set
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewCreditRiskHandler creates a handler. maxUploadBytes <= 0 disables the
// upload size check.
func NewCreditRiskHandler(uc *usecase.Set, maxUploadBytes int64, logger *slog.Logger) *CreditRiskHandler {
	return &CreditRiskHandler{uc: uc, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Proto-aligned request/response message types.

// ScoreApplicantRequest represents the proto ScoreApplicantRequest message.
type ScoreApplicantRequest struct {
	Applicant *dto.ScoreApplicantRequest `json:"applicant"`
}

// ScoreApplicantResponse represents the proto ScoreApplicantResponse message.
type ScoreApplicantResponse struct {
	Prediction dto.PredictionResponse `json:"prediction"`
}

// GetSubmissionHistoryRequest represents the proto GetSubmissionHistoryRequest message.
type GetSubmissionHistoryRequest struct {
	UserID string `json:"user_id"`
}

// GetSubmissionHistoryResponse represents the proto GetSubmissionHistoryResponse message.
type GetSubmissionHistoryResponse struct {
	Submissions []dto.SubmissionResponse `json:"submissions"`
}

// ProcessBatchUploadRequest represents the proto ProcessBatchUploadRequest message.
type ProcessBatchUploadRequest struct {
	Filename string `json:"filename"`
	Notes    string `json:"notes"`
	Content  []byte `json:"content"`
}

// ProcessBatchUploadResponse represents the proto ProcessBatchUploadResponse message.
type ProcessBatchUploadResponse struct {
	Upload  dto.BatchUploadResponse `json:"upload"`
	Dataset dto.DatasetResponse     `json:"dataset"`
}

// GetBatchUploadRequest represents the proto GetBatchUploadRequest message.
type GetBatchUploadRequest struct {
	UploadID string `json:"upload_id"`
}

// GetBatchUploadResponse represents the proto GetBatchUploadResponse message.
type GetBatchUploadResponse struct {
	Upload dto.BatchUploadResponse `json:"upload"`
}

// ListBatchUploadsRequest represents the proto ListBatchUploadsRequest message.
type ListBatchUploadsRequest struct {
	UploaderID string `json:"uploader_id"`
}

// ListBatchUploadsResponse represents the proto ListBatchUploadsResponse message.
type ListBatchUploadsResponse struct {
	Uploads []dto.BatchUploadResponse `json:"uploads"`
}

// ExportUploadReportRequest represents the proto ExportUploadReportRequest message.
type ExportUploadReportRequest struct {
	UploadID string `json:"upload_id"`
	Format   string `json:"format"`
}

// ExportUploadReportResponse represents the proto ExportUploadReportResponse message.
type ExportUploadReportResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// GetPortfolioSummaryRequest represents the proto GetPortfolioSummaryRequest message.
type GetPortfolioSummaryRequest struct{}

// GetPortfolioSummaryResponse represents the proto GetPortfolioSummaryResponse message.
type GetPortfolioSummaryResponse struct {
	Summary dto.PortfolioSummaryResponse `json:"summary"`
}

// ScoreApplicant scores one applicant form on behalf of the caller.
func (h *CreditRiskHandler) ScoreApplicant(ctx context.Context, req *ScoreApplicantRequest) (*ScoreApplicantResponse, error) {
	caller, err := requireRole(ctx, auth.RoleApplicant, auth.RoleAdmin, auth.RoleAPIClient)
	if err != nil {
		return nil, err
	}
	if req == nil || req.Applicant == nil {
		return nil, status.Error(codes.InvalidArgument, "applicant is required")
	}

	in := *req.Applicant
	in.UserID = caller.UserID
	out, err := h.uc.ScoreApplicant.Execute(ctx, in)
	if err != nil {
		return nil, h.toStatus(ctx, "ScoreApplicant", err)
	}
	return &ScoreApplicantResponse{Prediction: out}, nil
}

func (h *CreditRiskHandler) GetSubmissionHistory(ctx context.Context, req *GetSubmissionHistoryRequest) (*GetSubmissionHistoryResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		req = &GetSubmissionHistoryRequest{}
	}

	subs, err := h.uc.SubmissionHistory.Execute(ctx, caller, req.UserID)
	if err != nil {
		return nil, h.toStatus(ctx, "GetSubmissionHistory", err)
	}
	return &GetSubmissionHistoryResponse{Submissions: subs}, nil
}

// ProcessBatchUpload scores an uploaded CSV or Excel file end to end.
func (h *CreditRiskHandler) ProcessBatchUpload(ctx context.Context, req *ProcessBatchUploadRequest) (*ProcessBatchUploadResponse, error) {
	caller, err := requireRole(ctx, auth.RoleBank, auth.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if req == nil || req.Filename == "" {
		return nil, status.Error(codes.InvalidArgument, "filename is required")
	}
	if len(req.Content) == 0 {
		return nil, status.Error(codes.InvalidArgument, "content is required")
	}
	if h.maxUploadBytes > 0 && int64(len(req.Content)) > h.maxUploadBytes {
		return nil, status.Errorf(codes.ResourceExhausted, "upload exceeds %d bytes", h.maxUploadBytes)
	}

	out, err := h.uc.ProcessBatchUpload.Execute(ctx, dto.ProcessBatchUploadRequest{
		UploaderID: caller.UserID,
		Filename:   req.Filename,
		Notes:      req.Notes,
		Content:    req.Content,
	})
	if err != nil {
		return nil, h.toStatus(ctx, "ProcessBatchUpload", err)
	}
	return &ProcessBatchUploadResponse{Upload: out.Upload, Dataset: out.Dataset}, nil
}

func (h *CreditRiskHandler) GetBatchUpload(ctx context.Context, req *GetBatchUploadRequest) (*GetBatchUploadResponse, error) {
	caller, err := requireRole(ctx, auth.RoleBank, auth.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if req == nil || req.UploadID == "" {
		return nil, status.Error(codes.InvalidArgument, "upload_id is required")
	}

	out, err := h.uc.BatchUploads.Get(ctx, caller, req.UploadID)
	if err != nil {
		return nil, h.toStatus(ctx, "GetBatchUpload", err)
	}
	return &GetBatchUploadResponse{Upload: out}, nil
}

func (h *CreditRiskHandler) ListBatchUploads(ctx context.Context, req *ListBatchUploadsRequest) (*ListBatchUploadsResponse, error) {
	caller, err := requireRole(ctx, auth.RoleBank, auth.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if req == nil {
		req = &ListBatchUploadsRequest{}
	}

	out, err := h.uc.BatchUploads.List(ctx, caller, req.UploaderID)
	if err != nil {
		return nil, h.toStatus(ctx, "ListBatchUploads", err)
	}
	return &ListBatchUploadsResponse{Uploads: out}, nil
}

// ExportUploadReport renders a stored upload as csv, xlsx or pdf.
func (h *CreditRiskHandler) ExportUploadReport(ctx context.Context, req *ExportUploadReportRequest) (*ExportUploadReportResponse, error) {
	caller, err := requireRole(ctx, auth.RoleBank, auth.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if req == nil || req.UploadID == "" {
		return nil, status.Error(codes.InvalidArgument, "upload_id is required")
	}

	out, err := h.uc.ExportUploadReport.Execute(ctx, dto.ExportRequest{
		Caller: caller,
		ID:     req.UploadID,
		Format: req.Format,
	})
	if err != nil {
		return nil, h.toStatus(ctx, "ExportUploadReport", err)
	}
	return &ExportUploadReportResponse{
		Filename:    out.Filename,
		ContentType: out.ContentType,
		Content:     out.Body,
	}, nil
}

func (h *CreditRiskHandler) GetPortfolioSummary(ctx context.Context, _ *GetPortfolioSummaryRequest) (*GetPortfolioSummaryResponse, error) {
	caller, err := requireRole(ctx, auth.RoleBank, auth.RoleAdmin)
	if err != nil {
		return nil, err
	}

	out, err := h.uc.PortfolioSummary.Execute(ctx, caller)
	if err != nil {
		return nil, h.toStatus(ctx, "GetPortfolioSummary", err)
	}
	return &GetPortfolioSummaryResponse{Summary: out}, nil
}

// toStatus maps use case errors to gRPC status codes. Unexpected errors are
// logged and reported without detail.
func (h *CreditRiskHandler) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput), errors.Is(err, port.ErrMalformedUpload):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, usecase.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, usecase.ErrForbidden):
		return status.Error(codes.PermissionDenied, "insufficient permissions")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	h.logger.ErrorContext(ctx, "request failed", "method", method, "error", err)
	return status.Error(codes.Internal, "internal error")
}
