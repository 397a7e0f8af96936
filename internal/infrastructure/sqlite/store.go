// Package sqlite is the embedded single-file store used by the riskctl
// command line tool and by riskd when STORE_DRIVER=sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // register the "sqlite" driver

	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
)

const schema = `
CREATE TABLE IF NOT EXISTS applicant_submissions (
	id                   TEXT PRIMARY KEY,
	user_id              TEXT NOT NULL,
	income               REAL NOT NULL,
	age                  REAL NOT NULL,
	experience           REAL NOT NULL,
	marital_status       TEXT NOT NULL,
	house_ownership      TEXT NOT NULL,
	car_ownership        TEXT NOT NULL,
	profession           TEXT NOT NULL,
	city                 TEXT NOT NULL,
	state                TEXT NOT NULL,
	job_years            REAL NOT NULL,
	house_years          REAL NOT NULL,
	loan_amount          TEXT NOT NULL,
	loan_duration_months INTEGER NOT NULL,
	interest_rate        TEXT NOT NULL,
	comments             TEXT NOT NULL,
	default_probability  REAL NOT NULL,
	risk_band            TEXT NOT NULL,
	predicted_class      INTEGER NOT NULL,
	estimated_profit     TEXT NOT NULL,
	prediction_status    TEXT NOT NULL,
	feature_importance   TEXT NOT NULL,
	created_at           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_applicant_submissions_user ON applicant_submissions (user_id, created_at);

CREATE TABLE IF NOT EXISTS bank_uploads (
	id                TEXT PRIMARY KEY,
	uploader_id       TEXT NOT NULL,
	filename          TEXT NOT NULL,
	notes             TEXT NOT NULL,
	status            TEXT NOT NULL,
	total_rows        INTEGER NOT NULL,
	low_risk_count    INTEGER NOT NULL,
	medium_risk_count INTEGER NOT NULL,
	high_risk_count   INTEGER NOT NULL,
	persisted_rows    INTEGER NOT NULL,
	failed_rows       INTEGER NOT NULL,
	failures          TEXT NOT NULL,
	degraded          TEXT NOT NULL,
	data_notes        TEXT NOT NULL,
	failure_reason    TEXT NOT NULL,
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL,
	finalized_at      TEXT
);
CREATE INDEX IF NOT EXISTS idx_bank_uploads_uploader ON bank_uploads (uploader_id, created_at);

CREATE TABLE IF NOT EXISTS bank_clients (
	id                  TEXT PRIMARY KEY,
	upload_id           TEXT NOT NULL,
	processed_by        TEXT NOT NULL,
	row_index           INTEGER NOT NULL,
	income              REAL NOT NULL,
	age                 REAL NOT NULL,
	experience          REAL NOT NULL,
	marital_status      TEXT NOT NULL,
	house_ownership     TEXT NOT NULL,
	car_ownership       TEXT NOT NULL,
	profession          TEXT NOT NULL,
	city                TEXT NOT NULL,
	state               TEXT NOT NULL,
	job_years           REAL NOT NULL,
	house_years         REAL NOT NULL,
	attributes          TEXT NOT NULL,
	loan_amount         TEXT NOT NULL,
	default_probability REAL NOT NULL,
	risk_band           TEXT NOT NULL,
	predicted_class     INTEGER NOT NULL,
	estimated_profit    TEXT NOT NULL,
	notes               TEXT NOT NULL,
	created_at          TEXT NOT NULL,
	UNIQUE (upload_id, row_index),
	FOREIGN KEY (upload_id) REFERENCES bank_uploads(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	action     TEXT NOT NULL,
	status     TEXT NOT NULL,
	entity_id  TEXT NOT NULL,
	details    TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs (created_at);
`

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite database holding submissions, uploads and the audit log.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows a single writer; batch workers share one connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Submissions returns the submission repository view of the store.
func (s *Store) Submissions() *SubmissionRepo { return &SubmissionRepo{db: s.db} }

// Uploads returns the batch upload repository view of the store.
func (s *Store) Uploads() *BatchUploadRepo { return &BatchUploadRepo{db: s.db} }

// AuditLogs returns the audit log repository view of the store.
func (s *Store) AuditLogs() *AuditLogRepo { return &AuditLogRepo{db: s.db} }

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

type scannable interface {
	Scan(dest ...any) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, port.ErrNotFound)
	}
	return fmt.Errorf("scan %s: %w", what, err)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func parseDecimal(s, what string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %s %q: %w", what, s, err)
	}
	return d, nil
}

func toJSON(v any, what string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", what, err)
	}
	return string(b), nil
}

func fromJSON(s string, v any, what string) error {
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", what, err)
	}
	return nil
}

const recordColumns = `income, age, experience, marital_status, house_ownership, car_ownership,
	profession, city, state, job_years, house_years`

func recordArgs(r model.ApplicantRecord) []any {
	return []any{
		r.Income, r.Age, r.Experience,
		r.MaritalStatus, r.HouseOwnership, r.CarOwnership,
		r.Profession, r.City, r.State,
		r.JobYears, r.HouseYears,
	}
}

func recordDest(r *model.ApplicantRecord) []any {
	return []any{
		&r.Income, &r.Age, &r.Experience,
		&r.MaritalStatus, &r.HouseOwnership, &r.CarOwnership,
		&r.Profession, &r.City, &r.State,
		&r.JobYears, &r.HouseYears,
	}
}

func insertAudit(ctx context.Context, x execer, e model.AuditEntry) error {
	_, err := x.ExecContext(ctx,
		`INSERT INTO audit_logs (id, user_id, action, status, entity_id, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Action, e.Status, e.EntityID, e.Details, formatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
