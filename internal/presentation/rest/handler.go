package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/application/usecase"
	"github.com/bibbank/creditrisk/internal/domain/port"
)

// uploadField is the multipart field carrying the uploaded file.
const uploadField = "file"

// Handler serves the credit risk API over HTTP.
type Handler struct {
	uc             *usecase.Set
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewHandler creates a Handler. maxUploadBytes <= 0 disables the upload
// size limit.
func NewHandler(uc *usecase.Set, maxUploadBytes int64, logger *slog.Logger) *Handler {
	return &Handler{uc: uc, maxUploadBytes: maxUploadBytes, logger: logger}
}

// ScoreApplicant handles POST /api/v1/submissions.
func (h *Handler) ScoreApplicant(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var req dto.ScoreApplicantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	req.UserID = caller.UserID

	out, err := h.uc.ScoreApplicant.Execute(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// SubmissionHistory handles GET /api/v1/submissions.
func (h *Handler) SubmissionHistory(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	out, err := h.uc.SubmissionHistory.Execute(c.Request.Context(), caller, c.Query("user_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": out})
}

// ExportSubmissionHistory handles GET /api/v1/submissions/export.
func (h *Handler) ExportSubmissionHistory(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	out, err := h.uc.ExportSubmissionHistory.Execute(c.Request.Context(), dto.ExportRequest{
		Caller: caller,
		ID:     c.Query("user_id"),
		Format: c.Query("format"),
	})
	h.attachment(c, out, err)
}

// SubmissionReport handles GET /api/v1/submissions/:id/report.
func (h *Handler) SubmissionReport(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	out, err := h.uc.ExportSubmissionReport.Execute(c.Request.Context(), dto.ExportRequest{
		Caller: caller,
		ID:     c.Param("id"),
		Format: c.Query("format"),
	})
	h.attachment(c, out, err)
}

// ProcessUpload handles POST /api/v1/uploads with a multipart file.
func (h *Handler) ProcessUpload(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	if h.maxUploadBytes > 0 {
		if c.Request.ContentLength > h.maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes)})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fh, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("multipart field %q is required", uploadField)})
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		h.fail(c, fmt.Errorf("read upload: %w", err))
		return
	}

	out, err := h.uc.ProcessBatchUpload.Execute(c.Request.Context(), dto.ProcessBatchUploadRequest{
		UploaderID: caller.UserID,
		Filename:   fh.Filename,
		Notes:      c.PostForm("notes"),
		Content:    content,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// ListUploads handles GET /api/v1/uploads.
func (h *Handler) ListUploads(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	out, err := h.uc.BatchUploads.List(c.Request.Context(), caller, c.Query("uploader_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploads": out})
}

// GetUpload handles GET /api/v1/uploads/:id.
func (h *Handler) GetUpload(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	out, err := h.uc.BatchUploads.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// UploadReport handles GET /api/v1/uploads/:id/report.
func (h *Handler) UploadReport(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	out, err := h.uc.ExportUploadReport.Execute(c.Request.Context(), dto.ExportRequest{
		Caller: caller,
		ID:     c.Param("id"),
		Format: c.Query("format"),
	})
	h.attachment(c, out, err)
}

// AllSubmissions handles GET /api/v1/portfolio/submissions.
func (h *Handler) AllSubmissions(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	out, err := h.uc.SubmissionHistory.ListAll(c.Request.Context(), caller)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": out})
}

// ExportAllSubmissions handles GET /api/v1/portfolio/submissions/export.
func (h *Handler) ExportAllSubmissions(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	out, err := h.uc.ExportSubmissionList.Execute(c.Request.Context(), dto.ExportRequest{
		Caller: caller,
		Format: c.Query("format"),
	})
	h.attachment(c, out, err)
}

// AllUploads handles GET /api/v1/admin/uploads.
func (h *Handler) AllUploads(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	out, err := h.uc.BatchUploads.ListAll(c.Request.Context(), caller)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploads": out})
}

// ExportAllUploads handles GET /api/v1/admin/uploads/export.
func (h *Handler) ExportAllUploads(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	out, err := h.uc.ExportUploadList.Execute(c.Request.Context(), dto.ExportRequest{
		Caller: caller,
		Format: c.Query("format"),
	})
	h.attachment(c, out, err)
}

// PortfolioSummary handles GET /api/v1/portfolio.
func (h *Handler) PortfolioSummary(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	out, err := h.uc.PortfolioSummary.Execute(c.Request.Context(), caller)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// AuditLogs handles GET /api/v1/audit-logs. from and to are RFC 3339.
func (h *Handler) AuditLogs(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	req := dto.AuditLogRequest{Action: c.Query("action"), Status: c.Query("status")}
	var err error
	if req.From, err = queryTime(c, "from"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.To, err = queryTime(c, "to"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if v := c.Query("limit"); v != "" {
		if req.Limit, err = strconv.Atoi(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
	}

	out, err := h.uc.AuditLogs.Execute(c.Request.Context(), caller, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}

// ReportFormats handles GET /api/v1/reports/formats.
func (h *Handler) ReportFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"formats": h.uc.Renderer.Formats()})
}

func queryTime(c *gin.Context, key string) (time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC 3339 timestamp", key)
	}
	return t, nil
}

func (h *Handler) caller(c *gin.Context) (dto.Caller, bool) {
	caller, ok := callerFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
	return caller, ok
}

func (h *Handler) attachment(c *gin.Context, out dto.ExportResponse, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.Filename}))
	c.Data(http.StatusOK, out.ContentType, out.Body)
}

// fail maps use case errors to HTTP statuses. Unexpected errors are logged
// and reported without detail.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput), errors.Is(err, port.ErrMalformedUpload):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled"})
	default:
		h.logger.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "route", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
