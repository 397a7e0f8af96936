package valueobject

import (
	"errors"
	"fmt"
)

// ErrInvalidStatusTransition is returned when a batch upload is asked to move
// to a state its lifecycle does not allow.
var ErrInvalidStatusTransition = errors.New("invalid status transition")

// BatchStatus is the lifecycle stage of a bulk upload.
type BatchStatus struct {
	value string
}

const (
	batchStatusStarted          = "STARTED"
	batchStatusAligning         = "ALIGNING"
	batchStatusScoring          = "SCORING"
	batchStatusPerRowPersisting = "PER_ROW_PERSISTING"
	batchStatusFinalized        = "FINALIZED"
	batchStatusFailed           = "FAILED"
)

var (
	BatchStatusStarted          = BatchStatus{value: batchStatusStarted}
	BatchStatusAligning         = BatchStatus{value: batchStatusAligning}
	BatchStatusScoring          = BatchStatus{value: batchStatusScoring}
	BatchStatusPerRowPersisting = BatchStatus{value: batchStatusPerRowPersisting}
	BatchStatusFinalized        = BatchStatus{value: batchStatusFinalized}
	BatchStatusFailed           = BatchStatus{value: batchStatusFailed}
)

var validBatchStatuses = map[string]BatchStatus{
	batchStatusStarted:          BatchStatusStarted,
	batchStatusAligning:         BatchStatusAligning,
	batchStatusScoring:          BatchStatusScoring,
	batchStatusPerRowPersisting: BatchStatusPerRowPersisting,
	batchStatusFinalized:        BatchStatusFinalized,
	batchStatusFailed:           BatchStatusFailed,
}

// Scoring may fail; persisting may fail only when the upload record itself
// cannot be written.
var batchTransitions = map[string][]string{
	batchStatusStarted:          {batchStatusAligning},
	batchStatusAligning:         {batchStatusScoring},
	batchStatusScoring:          {batchStatusPerRowPersisting, batchStatusFailed},
	batchStatusPerRowPersisting: {batchStatusFinalized, batchStatusFailed},
}

// NewBatchStatus creates a BatchStatus from a raw string.
func NewBatchStatus(s string) (BatchStatus, error) {
	v, ok := validBatchStatuses[s]
	if !ok {
		return BatchStatus{}, fmt.Errorf("invalid batch status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s BatchStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s BatchStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s BatchStatus) Equal(other BatchStatus) bool { return s.value == other.value }

// IsTerminal reports whether no further transitions are possible.
func (s BatchStatus) IsTerminal() bool {
	return s.value == batchStatusFinalized || s.value == batchStatusFailed
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s BatchStatus) CanTransitionTo(next BatchStatus) bool {
	for _, allowed := range batchTransitions[s.value] {
		if allowed == next.value {
			return true
		}
	}
	return false
}
