package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bibbank/creditrisk/internal/domain/model"
)

// AuditLogRepo implements port.AuditLogRepository.
type AuditLogRepo struct {
	db *sql.DB
}

// Record appends one entry.
func (r *AuditLogRepo) Record(ctx context.Context, e model.AuditEntry) error {
	return insertAudit(ctx, r.db, e)
}

// List returns entries matching filter, newest first.
func (r *AuditLogRepo) List(ctx context.Context, filter model.AuditFilter) ([]model.AuditEntry, error) {
	var (
		where []string
		args  []any
	)
	if filter.Action != "" {
		where, args = append(where, "action = ?"), append(args, filter.Action)
	}
	if filter.Status != "" {
		where, args = append(where, "status = ?"), append(args, filter.Status)
	}
	if !filter.From.IsZero() {
		where, args = append(where, "created_at >= ?"), append(args, formatTime(filter.From))
	}
	if !filter.To.IsZero() {
		where, args = append(where, "created_at <= ?"), append(args, formatTime(filter.To))
	}

	query := `SELECT id, user_id, action, status, entity_id, details, created_at FROM audit_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var result []model.AuditEntry
	for rows.Next() {
		var (
			e       model.AuditEntry
			created string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Status, &e.EntityID, &e.Details, &created); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
