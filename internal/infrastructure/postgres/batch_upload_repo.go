package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/valueobject"
	pkgpostgres "github.com/bibbank/creditrisk/pkg/postgres"
)

// BatchUploadRepo implements port.BatchUploadRepository.
type BatchUploadRepo struct {
	pool *pgxpool.Pool
}

// NewBatchUploadRepo creates a new repository backed by PostgreSQL.
func NewBatchUploadRepo(pool *pgxpool.Pool) *BatchUploadRepo {
	return &BatchUploadRepo{pool: pool}
}

const uploadColumns = `id, uploader_id, filename, notes, status,
		       total_rows, low_risk_count, medium_risk_count, high_risk_count,
		       persisted_rows, failed_rows, failures, degraded, data_notes,
		       failure_reason, created_at, updated_at, finalized_at`

// SaveUpload upserts the upload metadata. Terminal states also write the
// upload's audit entry in the same transaction.
func (r *BatchUploadRepo) SaveUpload(ctx context.Context, u model.BatchUpload) error {
	summary := u.Summary()
	failures, err := marshalJSON(nonNilIssues(summary.Failures), "failures")
	if err != nil {
		return err
	}
	degraded, err := marshalJSON(nonNilIssues(summary.Degraded), "degraded rows")
	if err != nil {
		return err
	}
	notes, err := marshalJSON(nonNilStrings(summary.Notes), "data notes")
	if err != nil {
		return err
	}
	var finalizedAt *time.Time
	if t := u.FinalizedAt(); !t.IsZero() {
		finalizedAt = &t
	}

	query := `
		INSERT INTO bank_uploads (` + uploadColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (id) DO UPDATE SET
			status            = EXCLUDED.status,
			total_rows        = EXCLUDED.total_rows,
			low_risk_count    = EXCLUDED.low_risk_count,
			medium_risk_count = EXCLUDED.medium_risk_count,
			high_risk_count   = EXCLUDED.high_risk_count,
			persisted_rows    = EXCLUDED.persisted_rows,
			failed_rows       = EXCLUDED.failed_rows,
			failures          = EXCLUDED.failures,
			degraded          = EXCLUDED.degraded,
			data_notes        = EXCLUDED.data_notes,
			failure_reason    = EXCLUDED.failure_reason,
			updated_at        = EXCLUDED.updated_at,
			finalized_at      = EXCLUDED.finalized_at
	`
	return pkgpostgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			u.ID(), u.UploaderID(), u.Filename(), u.Notes(), u.Status().String(),
			summary.TotalRows, summary.BandCounts.Low, summary.BandCounts.Medium, summary.BandCounts.High,
			summary.PersistedRows, summary.FailedRows(), failures, degraded, notes,
			u.FailureReason(), u.CreatedAt(), u.UpdatedAt(), finalizedAt,
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
	attributes, err := marshalJSON(nonNilAttributes(c.Attributes), "attributes")
	if err != nil {
		return err
	}
	notes, err := marshalJSON(nonNilStrings(c.Notes), "client notes")
	if err != nil {
		return err
	}

	args := []any{c.ID, c.UploadID, c.ProcessedBy, c.RowIndex}
	args = append(args, recordArgs(c.Applicant)...)
	args = append(args,
		attributes, c.LoanAmount,
		c.Result.DefaultProbability, c.Result.RiskBand.String(), c.Result.PredictedClass, c.Result.EstimatedProfit,
		notes, c.CreatedAt,
	)
	query := `
		INSERT INTO bank_clients (` + clientColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
	`
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save client row %d: %w", c.RowIndex, err)
	}
	return nil
}

const clientColumns = `id, upload_id, processed_by, row_index, ` + recordColumns + `,
		       attributes, loan_amount, default_probability, risk_band, predicted_class,
		       estimated_profit, notes, created_at`

// FindUploadByID retrieves a single upload.
func (r *BatchUploadRepo) FindUploadByID(ctx context.Context, id string) (model.BatchUpload, error) {
	query := `SELECT ` + uploadColumns + ` FROM bank_uploads WHERE id = $1`
	return scanUpload(r.pool.QueryRow(ctx, query, id))
}

// FindUploadsByUploader returns an uploader's uploads, newest first.
func (r *BatchUploadRepo) FindUploadsByUploader(ctx context.Context, uploaderID string) ([]model.BatchUpload, error) {
	query := `
		SELECT ` + uploadColumns + `
		FROM bank_uploads
		WHERE uploader_id = $1
		ORDER BY created_at DESC
	`
	return r.scanUploads(ctx, query, uploaderID)
}

// ListUploads returns every upload, newest first.
func (r *BatchUploadRepo) ListUploads(ctx context.Context) ([]model.BatchUpload, error) {
	query := `SELECT ` + uploadColumns + ` FROM bank_uploads ORDER BY created_at DESC`
	return r.scanUploads(ctx, query)
}

func (r *BatchUploadRepo) scanUploads(ctx context.Context, query string, args ...any) ([]model.BatchUpload, error) {
	rows, err := r.pool.Query(ctx, query, args...)
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
	query := `
		SELECT ` + clientColumns + `
		FROM bank_clients
		WHERE upload_id = $1
		ORDER BY row_index
	`
	rows, err := r.pool.Query(ctx, query, uploadID)
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
		failures, degraded, dataNotes                             []byte
		createdAt, updatedAt                                      time.Time
		finalizedAt                                               *time.Time
	)
	err := s.Scan(
		&id, &uploaderID, &filename, &notes, &statusStr,
		&summary.TotalRows, &summary.BandCounts.Low, &summary.BandCounts.Medium, &summary.BandCounts.High,
		&summary.PersistedRows, &failedRows, &failures, &degraded, &dataNotes,
		&failureReason, &createdAt, &updatedAt, &finalizedAt,
	)
	if err != nil {
		return model.BatchUpload{}, notFound(err, "upload")
	}

	status, err := valueobject.NewBatchStatus(statusStr)
	if err != nil {
		return model.BatchUpload{}, fmt.Errorf("upload %s: %w", id, err)
	}
	if err := unmarshalJSON(failures, &summary.Failures, "failures"); err != nil {
		return model.BatchUpload{}, err
	}
	if err := unmarshalJSON(degraded, &summary.Degraded, "degraded rows"); err != nil {
		return model.BatchUpload{}, err
	}
	if err := unmarshalJSON(dataNotes, &summary.Notes, "data notes"); err != nil {
		return model.BatchUpload{}, err
	}
	var fin time.Time
	if finalizedAt != nil {
		fin = *finalizedAt
	}

	return model.ReconstructBatchUpload(
		id, uploaderID, filename, notes, status, summary, failureReason,
		createdAt, updatedAt, fin,
	), nil
}

func scanClient(s scannable) (model.BatchClient, error) {
	var (
		c                 model.BatchClient
		attributes, notes []byte
		bandStr           string
		amount, profit    decimal.Decimal
		probability       float64
		predicted         int
	)
	dest := []any{&c.ID, &c.UploadID, &c.ProcessedBy, &c.RowIndex}
	dest = append(dest, recordDest(&c.Applicant)...)
	dest = append(dest,
		&attributes, &amount, &probability, &bandStr, &predicted,
		&profit, &notes, &c.CreatedAt,
	)
	if err := s.Scan(dest...); err != nil {
		return model.BatchClient{}, notFound(err, "client")
	}

	band, err := valueobject.NewRiskBand(bandStr)
	if err != nil {
		return model.BatchClient{}, fmt.Errorf("client %s: %w", c.ID, err)
	}
	if err := unmarshalJSON(attributes, &c.Attributes, "attributes"); err != nil {
		return model.BatchClient{}, err
	}
	if err := unmarshalJSON(notes, &c.Notes, "client notes"); err != nil {
		return model.BatchClient{}, err
	}
	c.LoanAmount = amount
	c.Result = model.PredictionResult{
		DefaultProbability: probability,
		RiskBand:           band,
		PredictedClass:     predicted,
		EstimatedProfit:    profit,
	}
	return c, nil
}

func nonNilIssues(v []model.RowIssue) []model.RowIssue {
	if v == nil {
		return []model.RowIssue{}
	}
	return v
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilAttributes(v map[string]string) map[string]string {
	if v == nil {
		return map[string]string{}
	}
	return v
}
