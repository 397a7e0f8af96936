package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
	pkgpostgres "github.com/bibbank/creditrisk/pkg/postgres"
)

type scannable interface {
	Scan(dest ...any) error
}

// notFound maps pgx.ErrNoRows onto the port sentinel.
func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, port.ErrNotFound)
	}
	return fmt.Errorf("scan %s: %w", what, err)
}

// recordArgs flattens an applicant record in column order:
// income, age, experience, marital_status, house_ownership, car_ownership,
// profession, city, state, job_years, house_years.
func recordArgs(r model.ApplicantRecord) []any {
	return []any{
		r.Income, r.Age, r.Experience,
		r.MaritalStatus, r.HouseOwnership, r.CarOwnership,
		r.Profession, r.City, r.State,
		r.JobYears, r.HouseYears,
	}
}

// recordDest returns scan destinations matching recordArgs.
func recordDest(r *model.ApplicantRecord) []any {
	return []any{
		&r.Income, &r.Age, &r.Experience,
		&r.MaritalStatus, &r.HouseOwnership, &r.CarOwnership,
		&r.Profession, &r.City, &r.State,
		&r.JobYears, &r.HouseYears,
	}
}

const recordColumns = `income, age, experience, marital_status, house_ownership, car_ownership,
		       profession, city, state, job_years, house_years`

func marshalJSON(v any, what string) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", what, err)
	}
	return b, nil
}

func unmarshalJSON(b []byte, v any, what string) error {
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", what, err)
	}
	return nil
}

func insertAudit(ctx context.Context, q pkgpostgres.Querier, e model.AuditEntry) error {
	_, err := q.Exec(ctx, `
		INSERT INTO audit_logs (id, user_id, action, status, entity_id, details, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, e.ID, e.UserID, e.Action, e.Status, e.EntityID, e.Details, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
