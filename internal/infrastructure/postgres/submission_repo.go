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

// SubmissionRepo implements port.SubmissionRepository.
type SubmissionRepo struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepo creates a new repository backed by PostgreSQL.
func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

const submissionColumns = `id, user_id, ` + recordColumns + `,
		       loan_amount, loan_duration_months, interest_rate, comments,
		       default_probability, risk_band, predicted_class, estimated_profit,
		       prediction_status, feature_importance, created_at`

// Save inserts a scored submission together with its audit entry.
func (r *SubmissionRepo) Save(ctx context.Context, s model.ApplicantSubmission) error {
	importance, err := marshalJSON(s.FeatureImportance(), "feature importance")
	if err != nil {
		return err
	}

	args := []any{s.ID(), s.UserID()}
	args = append(args, recordArgs(s.Applicant())...)
	args = append(args,
		s.Terms().Amount, s.Terms().DurationMonths, s.Terms().InterestRate, s.Comments(),
		s.Result().DefaultProbability, s.Result().RiskBand.String(), s.Result().PredictedClass, s.Result().EstimatedProfit,
		s.PredictionStatus(), importance, s.CreatedAt(),
	)

	query := `
		INSERT INTO applicant_submissions (` + submissionColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
	`
	return pkgpostgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("save submission: %w", err)
		}
		return insertAudit(ctx, tx, s.AuditEntry())
	})
}

// FindByID retrieves a single submission.
func (r *SubmissionRepo) FindByID(ctx context.Context, id string) (model.ApplicantSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM applicant_submissions WHERE id = $1`
	return scanSubmission(r.pool.QueryRow(ctx, query, id))
}

// FindByUserID returns a user's submissions, newest first.
func (r *SubmissionRepo) FindByUserID(ctx context.Context, userID string) ([]model.ApplicantSubmission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM applicant_submissions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.scanMany(ctx, query, userID)
}

// List returns every submission, newest first.
func (r *SubmissionRepo) List(ctx context.Context) ([]model.ApplicantSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM applicant_submissions ORDER BY created_at DESC`
	return r.scanMany(ctx, query)
}

func (r *SubmissionRepo) scanMany(ctx context.Context, query string, args ...any) ([]model.ApplicantSubmission, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var result []model.ApplicantSubmission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func scanSubmission(s scannable) (model.ApplicantSubmission, error) {
	var (
		id, userID, comments     string
		record                   model.ApplicantRecord
		amount, rate, profit     decimal.Decimal
		duration, predicted      int
		probability              float64
		bandStr, predictionState string
		importance               []byte
		createdAt                time.Time
	)

	dest := []any{&id, &userID}
	dest = append(dest, recordDest(&record)...)
	dest = append(dest,
		&amount, &duration, &rate, &comments,
		&probability, &bandStr, &predicted, &profit,
		&predictionState, &importance, &createdAt,
	)
	if err := s.Scan(dest...); err != nil {
		return model.ApplicantSubmission{}, notFound(err, "submission")
	}

	band, err := valueobject.NewRiskBand(bandStr)
	if err != nil {
		return model.ApplicantSubmission{}, fmt.Errorf("submission %s: %w", id, err)
	}
	var fi map[string]float64
	if err := unmarshalJSON(importance, &fi, "feature importance"); err != nil {
		return model.ApplicantSubmission{}, err
	}

	return model.ReconstructApplicantSubmission(
		id, userID, record,
		model.LoanTerms{Amount: amount, DurationMonths: duration, InterestRate: rate},
		comments,
		model.PredictionResult{
			DefaultProbability: probability,
			RiskBand:           band,
			PredictedClass:     predicted,
			EstimatedProfit:    profit,
		},
		predictionState, fi, createdAt,
	), nil
}
