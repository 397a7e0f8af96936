package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/valueobject"
)

// BatchUploadRepo implements port.BatchUploadRepository.
type BatchUploadRepo struct {
	db *sql.DB
}

const uploadColumns = `id, uploader_id, filename, notes, status,
	total_rows, low_risk_count, medium_risk_count, high_risk_count,
	persisted_rows, failed_rows, failures, degraded, data_notes,
	failure_reason, created_at, updated_at, finalized_at`

const clientColumns = `id, upload_id, processed_by, row_index, ` + recordColumns + `,
	attributes, loan_amount, default_probability, risk_band, predicted_class,
	estimated_profit, notes, created_at`

// SaveUpload upserts the upload metadata; terminal states are audited in
// the same transaction.
func (r *BatchUploadRepo) SaveUpload(ctx context.Context, u model.BatchUpload) error {
	summary := u.Summary()
	failures, err := toJSON(orEmpty(summary.Failures), "failures")
	if err != nil {
		return err
	}
	degraded, err := toJSON(orEmpty(summary.Degraded), "degraded rows")
	if err != nil {
		return err
	}
	notes, err := toJSON(orEmpty(summary.Notes), "data notes")
	if err != nil {
		return err
	}
	var finalizedAt sql.NullString
	if t := u.FinalizedAt(); !t.IsZero() {
		finalizedAt = sql.NullString{String: formatTime(t), Valid: true}
	}

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bank_uploads (`+uploadColumns+`)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT (id) DO UPDATE SET
				status            = excluded.status,
				total_rows        = excluded.total_rows,
				low_risk_count    = excluded.low_risk_count,
				medium_risk_count = excluded.medium_risk_count,
				high_risk_count   = excluded.high_risk_count,
				persisted_rows    = excluded.persisted_rows,
				failed_rows       = excluded.failed_rows,
				failures          = excluded.failures,
				degraded          = excluded.degraded,
				data_notes        = excluded.data_notes,
				failure_reason    = excluded.failure_reason,
				updated_at        = excluded.updated_at,
				finalized_at      = excluded.finalized_at`,
			u.ID(), u.UploaderID(), u.Filename(), u.Notes(), u.Status().String(),
			summary.TotalRows, summary.BandCounts.Low, summary.BandCounts.Medium, summary.BandCounts.High,
			summary.PersistedRows, summary.FailedRows(), failures, degraded, notes,
			u.FailureReason(), formatTime(u.CreatedAt()), formatTime(u.UpdatedAt()), finalizedAt,
		)
		if err != nil {
			return fmt.Errorf("save upload: %w", err)
		}
		if !u.Status().IsTerminal() {
			return nil
		}
		return insertAudit(ctx, tx, u.AuditEntry())
	})
}

// SaveClient inserts one scored row of an upload.
func (r *BatchUploadRepo) SaveClient(ctx context.Context, c model.BatchClient) error {
	attrs := c.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	attributes, err := toJSON(attrs, "attributes")
	if err != nil {
		return err
	}
	notes, err := toJSON(orEmpty(c.Notes), "client notes")
	if err != nil {
		return err
	}

	args := []any{c.ID, c.UploadID, c.ProcessedBy, c.RowIndex}
	args = append(args, recordArgs(c.Applicant)...)
	args = append(args,
		attributes, c.LoanAmount.String(),
		c.Result.DefaultProbability, c.Result.RiskBand.String(), c.Result.PredictedClass, c.Result.EstimatedProfit.String(),
		notes, formatTime(c.CreatedAt),
	)
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO bank_clients (`+clientColumns+`)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`, args...)
	if err != nil {
		return fmt.Errorf("save client row %d: %w", c.RowIndex, err)
	}
	return nil
}

// FindUploadByID retrieves a single upload.
func (r *BatchUploadRepo) FindUploadByID(ctx context.Context, id string) (model.BatchUpload, error) {
	return scanUpload(r.db.QueryRowContext(ctx, `SELECT `+uploadColumns+` FROM bank_uploads WHERE id = ?`, id))
}

// FindUploadsByUploader returns an uploader's uploads, newest first.
func (r *BatchUploadRepo) FindUploadsByUploader(ctx context.Context, uploaderID string) ([]model.BatchUpload, error) {
	return r.scanUploads(ctx,
		`SELECT `+uploadColumns+` FROM bank_uploads WHERE uploader_id = ? ORDER BY created_at DESC`, uploaderID)
}

// ListUploads returns every upload, newest first.
func (r *BatchUploadRepo) ListUploads(ctx context.Context) ([]model.BatchUpload, error) {
	return r.scanUploads(ctx, `SELECT `+uploadColumns+` FROM bank_uploads ORDER BY created_at DESC`)
}

func (r *BatchUploadRepo) scanUploads(ctx context.Context, query string, args ...any) ([]model.BatchUpload, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	var result []model.BatchUpload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// FindClientsByUpload returns the persisted rows of an upload in row order.
func (r *BatchUploadRepo) FindClientsByUpload(ctx context.Context, uploadID string) ([]model.BatchClient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM bank_clients WHERE upload_id = ? ORDER BY row_index`, uploadID)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	var result []model.BatchClient
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func scanUpload(s scannable) (model.BatchUpload, error) {
	var (
		id, uploaderID, filename, notes, statusStr, failureReason string
		summary                                                   model.BatchUploadSummary
		failedRows                                                int
		failures, degraded, dataNotes                             string
		createdStr, updatedStr                                    string
		finalizedStr                                              sql.NullString
	)
	err := s.Scan(
		&id, &uploaderID, &filename, &notes, &statusStr,
		&summary.TotalRows, &summary.BandCounts.Low, &summary.BandCounts.Medium, &summary.BandCounts.High,
		&summary.PersistedRows, &failedRows, &failures, &degraded, &dataNotes,
		&failureReason, &createdStr, &updatedStr, &finalizedStr,
	)
	if err != nil {
		return model.BatchUpload{}, notFound(err, "upload")
	}

	status, err := valueobject.NewBatchStatus(statusStr)
	if err != nil {
		return model.BatchUpload{}, fmt.Errorf("upload %s: %w", id, err)
	}
	if err := fromJSON(failures, &summary.Failures, "failures"); err != nil {
		return model.BatchUpload{}, err
	}
	if err := fromJSON(degraded, &summary.Degraded, "degraded rows"); err != nil {
		return model.BatchUpload{}, err
	}
	if err := fromJSON(dataNotes, &summary.Notes, "data notes"); err != nil {
		return model.BatchUpload{}, err
	}
	createdAt, err := parseTime(createdStr)
	if err != nil {
		return model.BatchUpload{}, err
	}
	updatedAt, err := parseTime(updatedStr)
	if err != nil {
		return model.BatchUpload{}, err
	}
	var finalizedAt time.Time
	if finalizedStr.Valid {
		if finalizedAt, err = parseTime(finalizedStr.String); err != nil {
			return model.BatchUpload{}, err
		}
	}

	return model.ReconstructBatchUpload(
		id, uploaderID, filename, notes, status, summary, failureReason,
		createdAt, updatedAt, finalizedAt,
	), nil
}

func scanClient(s scannable) (model.BatchClient, error) {
	var (
		c                                model.BatchClient
		attributes, notes, bandStr       string
		amountStr, profitStr, createdStr string
		probability                      float64
		predicted                        int
	)
	dest := []any{&c.ID, &c.UploadID, &c.ProcessedBy, &c.RowIndex}
	dest = append(dest, recordDest(&c.Applicant)...)
	dest = append(dest,
		&attributes, &amountStr, &probability, &bandStr, &predicted,
		&profitStr, &notes, &createdStr,
	)
	if err := s.Scan(dest...); err != nil {
		return model.BatchClient{}, notFound(err, "client")
	}

	band, err := valueobject.NewRiskBand(bandStr)
	if err != nil {
		return model.BatchClient{}, fmt.Errorf("client %s: %w", c.ID, err)
	}
	if c.LoanAmount, err = parseDecimal(amountStr, "loan amount"); err != nil {
		return model.BatchClient{}, err
	}
	profit, err := parseDecimal(profitStr, "estimated profit")
	if err != nil {
		return model.BatchClient{}, err
	}
	if c.CreatedAt, err = parseTime(createdStr); err != nil {
		return model.BatchClient{}, err
	}
	if err := fromJSON(attributes, &c.Attributes, "attributes"); err != nil {
		return model.BatchClient{}, err
	}
	if err := fromJSON(notes, &c.Notes, "client notes"); err != nil {
		return model.BatchClient{}, err
	}
	c.Result = model.PredictionResult{
		DefaultProbability: probability,
		RiskBand:           band,
		PredictedClass:     predicted,
		EstimatedProfit:    profit,
	}
	return c, nil
}

func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
