package usecase

import (
	"context"
	"fmt"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// ListAuditLogsUseCase lists audit entries for admins.
type ListAuditLogsUseCase struct {
	repo port.AuditLogRepository
}

func NewListAuditLogsUseCase(repo port.AuditLogRepository) *ListAuditLogsUseCase {
	return &ListAuditLogsUseCase{repo: repo}
}

// Execute returns matching entries, newest first.
func (uc *ListAuditLogsUseCase) Execute(ctx context.Context, caller dto.Caller, req dto.AuditLogRequest) ([]dto.AuditEntryResponse, error) {
	if !caller.Admin {
		return nil, ErrForbidden
	}
	if !req.From.IsZero() && !req.To.IsZero() && req.To.Before(req.From) {
		return nil, fmt.Errorf("%w: window ends before it starts", ErrInvalidInput)
	}
	limit := req.Limit
	switch {
	case limit <= 0:
		limit = defaultAuditLimit
	case limit > maxAuditLimit:
		limit = maxAuditLimit
	}
	entries, err := uc.repo.List(ctx, model.AuditFilter{
		Action: req.Action,
		Status: req.Status,
		From:   req.From,
		To:     req.To,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	out := make([]dto.AuditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = toAuditResponse(e)
	}
	return out, nil
}
