package port

import (
	"context"
	"errors"

	"github.com/bibbank/creditrisk/internal/domain/event"
	"github.com/bibbank/creditrisk/internal/domain/model"
)

var (
	// ErrNotFound is returned by repositories when no record matches.
	ErrNotFound = errors.New("not found")
	// ErrMalformedUpload is returned by upload parsers for unreadable files.
	ErrMalformedUpload = errors.New("malformed upload")
)

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

// SubmissionRepository persists and retrieves scored single submissions.
// Save also writes the submission's audit entry in the same transaction.
type SubmissionRepository interface {
	Save(ctx context.Context, s model.ApplicantSubmission) error
	FindByID(ctx context.Context, id string) (model.ApplicantSubmission, error)
	FindByUserID(ctx context.Context, userID string) ([]model.ApplicantSubmission, error)
	List(ctx context.Context) ([]model.ApplicantSubmission, error)
}

// BatchUploadRepository persists upload metadata and per-row client records.
type BatchUploadRepository interface {
	// SaveUpload upserts the metadata record. A terminal upload also gets
	// its audit entry, written in the same transaction.
	SaveUpload(ctx context.Context, u model.BatchUpload) error
	SaveClient(ctx context.Context, c model.BatchClient) error
	FindUploadByID(ctx context.Context, id string) (model.BatchUpload, error)
	FindUploadsByUploader(ctx context.Context, uploaderID string) ([]model.BatchUpload, error)
	ListUploads(ctx context.Context) ([]model.BatchUpload, error)
	FindClientsByUpload(ctx context.Context, uploadID string) ([]model.BatchClient, error)
}

// AuditLogRepository reads and appends to the audit trail. Record is for
// outcomes with no owning record to share a transaction with.
type AuditLogRepository interface {
	Record(ctx context.Context, e model.AuditEntry) error
	List(ctx context.Context, filter model.AuditFilter) ([]model.AuditEntry, error)
}

// ---------------------------------------------------------------------------
// Event publisher port
// ---------------------------------------------------------------------------

// EventPublisher publishes domain events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}
