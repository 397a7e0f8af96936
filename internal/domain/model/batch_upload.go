package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/creditrisk/internal/domain/event"
	"github.com/bibbank/creditrisk/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// BatchUpload aggregate root
// ---------------------------------------------------------------------------

// BatchUpload tracks one bulk upload through its processing lifecycle.
// It is immutable; every transition returns a new copy.
type BatchUpload struct {
	id            string
	uploaderID    string
	filename      string
	notes         string
	status        valueobject.BatchStatus
	summary       BatchUploadSummary
	failureReason string
	createdAt     time.Time
	updatedAt     time.Time
	finalizedAt   time.Time
	domainEvents  []event.DomainEvent
}

// NewBatchUpload starts a new upload and assigns its identifier.
func NewBatchUpload(uploaderID, filename, notes string, now time.Time) (BatchUpload, error) {
	if uploaderID == "" {
		return BatchUpload{}, errors.New("uploader ID is required")
	}
	if filename == "" {
		return BatchUpload{}, errors.New("filename is required")
	}
	id := uuid.New().String()
	return BatchUpload{
		id:         id,
		uploaderID: uploaderID,
		filename:   filename,
		notes:      notes,
		status:     valueobject.BatchStatusStarted,
		summary:    BatchUploadSummary{UploadID: id},
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructBatchUpload rebuilds an aggregate from persistence without side-effects.
func ReconstructBatchUpload(
	id, uploaderID, filename, notes string,
	status valueobject.BatchStatus,
	summary BatchUploadSummary,
	failureReason string,
	createdAt, updatedAt, finalizedAt time.Time,
) BatchUpload {
	summary.UploadID = id
	return BatchUpload{
		id:            id,
		uploaderID:    uploaderID,
		filename:      filename,
		notes:         notes,
		status:        status,
		summary:       summary,
		failureReason: failureReason,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		finalizedAt:   finalizedAt,
	}
}

// ---------------------------------------------------------------------------
// State transitions (each returns a new copy)
// ---------------------------------------------------------------------------

func (u BatchUpload) transition(next valueobject.BatchStatus, now time.Time) (BatchUpload, error) {
	if !u.status.CanTransitionTo(next) {
		return u, fmt.Errorf("%w: %s -> %s", valueobject.ErrInvalidStatusTransition, u.status, next)
	}
	n := u
	n.status = next
	n.updatedAt = now
	n.domainEvents = copyEvents(u.domainEvents)
	return n, nil
}

// BeginAligning transitions STARTED -> ALIGNING.
func (u BatchUpload) BeginAligning(now time.Time) (BatchUpload, error) {
	return u.transition(valueobject.BatchStatusAligning, now)
}

// BeginScoring transitions ALIGNING -> SCORING for a table of totalRows rows.
func (u BatchUpload) BeginScoring(totalRows int, now time.Time) (BatchUpload, error) {
	if totalRows < 0 {
		return u, fmt.Errorf("negative row count %d", totalRows)
	}
	n, err := u.transition(valueobject.BatchStatusScoring, now)
	if err != nil {
		return u, err
	}
	n.summary.TotalRows = totalRows
	return n, nil
}

// BeginPersisting transitions SCORING -> PER_ROW_PERSISTING and records the
// scoring outcome: band counts, degraded rows and upload-level notes.
func (u BatchUpload) BeginPersisting(counts BandCounts, degraded []RowIssue, notes []string, now time.Time) (BatchUpload, error) {
	if counts.Total() != u.summary.TotalRows {
		return u, fmt.Errorf("band counts cover %d rows, upload has %d", counts.Total(), u.summary.TotalRows)
	}
	n, err := u.transition(valueobject.BatchStatusPerRowPersisting, now)
	if err != nil {
		return u, err
	}
	n.summary.BandCounts = counts
	n.summary.Degraded = append([]RowIssue(nil), degraded...)
	sortIssues(n.summary.Degraded)
	n.summary.Notes = append([]string(nil), notes...)
	return n, nil
}

// Finalize transitions PER_ROW_PERSISTING -> FINALIZED once every row has
// been attempted, and emits BatchUploadCompleted.
func (u BatchUpload) Finalize(persisted int, failures []RowIssue, now time.Time) (BatchUpload, error) {
	if persisted+len(failures) != u.summary.TotalRows {
		return u, fmt.Errorf("%d persisted and %d failed rows do not cover %d rows",
			persisted, len(failures), u.summary.TotalRows)
	}
	n, err := u.transition(valueobject.BatchStatusFinalized, now)
	if err != nil {
		return u, err
	}
	n.summary.PersistedRows = persisted
	n.summary.Failures = append([]RowIssue(nil), failures...)
	sortIssues(n.summary.Failures)
	n.finalizedAt = now
	c := n.summary.BandCounts
	n.domainEvents = append(n.domainEvents, event.NewBatchUploadCompleted(
		u.id, u.uploaderID, u.filename,
		n.summary.TotalRows, c.Low, c.Medium, c.High, persisted, len(failures),
	))
	return n, nil
}

// Fail transitions to FAILED and emits BatchUploadFailed.
func (u BatchUpload) Fail(reason string, now time.Time) (BatchUpload, error) {
	n, err := u.transition(valueobject.BatchStatusFailed, now)
	if err != nil {
		return u, err
	}
	n.failureReason = reason
	n.finalizedAt = now
	n.domainEvents = append(n.domainEvents, event.NewBatchUploadFailed(u.id, u.uploaderID, u.filename, reason))
	return n, nil
}

// AuditEntry describes the upload outcome for the audit trail.
func (u BatchUpload) AuditEntry() AuditEntry {
	details := fmt.Sprintf("file=%s rows=%d persisted=%d failed=%d",
		u.filename, u.summary.TotalRows, u.summary.PersistedRows, u.summary.FailedRows())
	if u.failureReason != "" {
		details += " reason=" + u.failureReason
	}
	return NewAuditEntry(u.uploaderID, AuditActionBatchUploaded, u.status.String(), u.id, details, u.updatedAt)
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (u BatchUpload) ID() string                        { return u.id }
func (u BatchUpload) UploaderID() string                { return u.uploaderID }
func (u BatchUpload) Filename() string                  { return u.filename }
func (u BatchUpload) Notes() string                     { return u.notes }
func (u BatchUpload) Status() valueobject.BatchStatus   { return u.status }
func (u BatchUpload) Summary() BatchUploadSummary       { return u.summary }
func (u BatchUpload) FailureReason() string             { return u.failureReason }
func (u BatchUpload) CreatedAt() time.Time              { return u.createdAt }
func (u BatchUpload) UpdatedAt() time.Time              { return u.updatedAt }
func (u BatchUpload) FinalizedAt() time.Time            { return u.finalizedAt }
func (u BatchUpload) DomainEvents() []event.DomainEvent { return u.domainEvents }

// ClearEvents returns a copy with an empty event list (call after publishing).
func (u BatchUpload) ClearEvents() BatchUpload {
	n := u
	n.domainEvents = nil
	return n
}

func copyEvents(src []event.DomainEvent) []event.DomainEvent {
	if len(src) == 0 {
		return nil
	}
	dst := make([]event.DomainEvent, len(src))
	copy(dst, src)
	return dst
}

// ---------------------------------------------------------------------------
// BatchClient
// ---------------------------------------------------------------------------

// BatchClient is one persisted, scored row of an upload.
type BatchClient struct {
	ID          string
	UploadID    string
	ProcessedBy string
	RowIndex    int
	Applicant   ApplicantRecord
	// Attributes holds the row's original columns as uploaded.
	Attributes map[string]string
	LoanAmount decimal.Decimal
	Result     PredictionResult
	Notes      []string
	CreatedAt  time.Time
}

// NewBatchClient creates a client record for a scored row.
func NewBatchClient(
	uploadID, processedBy string,
	rowIndex int,
	applicant ApplicantRecord,
	attributes map[string]string,
	loanAmount decimal.Decimal,
	result PredictionResult,
	notes []string,
	now time.Time,
) BatchClient {
	return BatchClient{
		ID:          uuid.New().String(),
		UploadID:    uploadID,
		ProcessedBy: processedBy,
		RowIndex:    rowIndex,
		Applicant:   applicant,
		Attributes:  attributes,
		LoanAmount:  loanAmount,
		Result:      result,
		Notes:       notes,
		CreatedAt:   now,
	}
}
