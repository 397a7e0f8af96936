package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry records one user-visible action for the admin audit trail.
type AuditEntry struct {
	ID        string
	UserID    string
	Action    string
	Status    string
	EntityID  string
	Details   string
	CreatedAt time.Time
}

const (
	AuditActionSubmissionScored = "submission.scored"
	AuditActionBatchUploaded    = "batch.uploaded"
)

// NewAuditEntry creates an entry with a fresh ID.
func NewAuditEntry(userID, action, status, entityID, details string, at time.Time) AuditEntry {
	return AuditEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Status:    status,
		EntityID:  entityID,
		Details:   details,
		CreatedAt: at,
	}
}

// AuditFilter narrows an audit log listing. Zero fields do not filter.
type AuditFilter struct {
	Action string
	Status string
	From   time.Time
	To     time.Time
	Limit  int
}
