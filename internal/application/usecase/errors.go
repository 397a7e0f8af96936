package usecase

import "errors"

var (
	// ErrInvalidInput marks requests rejected before any work is done.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks lookups with no matching record.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks requests the caller may not make.
	ErrForbidden = errors.New("forbidden")
)
