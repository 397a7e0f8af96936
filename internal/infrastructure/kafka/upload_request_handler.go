package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/bibbank/creditrisk/internal/application/dto"
	pkgkafka "github.com/bibbank/creditrisk/pkg/kafka"
)

// UploadRequest is the payload of an upload request message. Content is
// the raw file, base64 encoded by encoding/json.
type UploadRequest struct {
	UploaderID string `json:"uploader_id"`
	Filename   string `json:"filename"`
	Notes      string `json:"notes"`
	Content    []byte `json:"content"`
}

// BatchProcessor runs one upload through the pipeline.
type BatchProcessor interface {
	Execute(ctx context.Context, req dto.ProcessBatchUploadRequest) (dto.ProcessBatchUploadResponse, error)
}

// UploadRequestHandler feeds upload requests from Kafka into the batch
// pipeline.
type UploadRequestHandler struct {
	processor BatchProcessor
	logger    *slog.Logger
}

// NewUploadRequestHandler creates a handler bound to processor.
func NewUploadRequestHandler(processor BatchProcessor, logger *slog.Logger) *UploadRequestHandler {
	return &UploadRequestHandler{processor: processor, logger: logger}
}

// Handle processes one message. Undecodable payloads and rejected uploads
// are logged and acknowledged; the upload's FAILED record, when one was
// written, is the durable outcome. Only cancellation leaves the message
// uncommitted.
func (h *UploadRequestHandler) Handle(ctx context.Context, msg pkgkafka.Message) error {
	var req UploadRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		h.logger.ErrorContext(ctx, "discarding undecodable upload request",
			"key", string(msg.Key), "error", err)
		return nil
	}

	resp, err := h.processor.Execute(ctx, dto.ProcessBatchUploadRequest{
		UploaderID: req.UploaderID,
		Filename:   req.Filename,
		Notes:      req.Notes,
		Content:    req.Content,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		h.logger.ErrorContext(ctx, "upload request failed",
			"uploader_id", req.UploaderID,
			"filename", req.Filename,
			"error", err,
		)
		return nil
	}

	h.logger.InfoContext(ctx, "upload request processed",
		"upload_id", resp.Upload.UploadID,
		"status", resp.Upload.Status,
		"rows", resp.Upload.TotalRows,
	)
	return nil
}

// Handler adapts Handle to the consumer callback type.
func (h *UploadRequestHandler) Handler() pkgkafka.Handler {
	return h.Handle
}
