package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/valueobject"
)

// SubmissionRepo implements port.SubmissionRepository.
type SubmissionRepo struct {
	db *sql.DB
}

const submissionColumns = `id, user_id, ` + recordColumns + `,
	loan_amount, loan_duration_months, interest_rate, comments,
	default_probability, risk_band, predicted_class, estimated_profit,
	prediction_status, feature_importance, created_at`

// Save inserts a scored submission together with its audit entry.
func (r *SubmissionRepo) Save(ctx context.Context, s model.ApplicantSubmission) error {
	importance, err := toJSON(s.FeatureImportance(), "feature importance")
	if err != nil {
		return err
	}
	args := []any{s.ID(), s.UserID()}
	args = append(args, recordArgs(s.Applicant())...)
	args = append(args,
		s.Terms().Amount.String(), s.Terms().DurationMonths, s.Terms().InterestRate.String(), s.Comments(),
		s.Result().DefaultProbability, s.Result().RiskBand.String(), s.Result().PredictedClass, s.Result().EstimatedProfit.String(),
		s.PredictionStatus(), importance, formatTime(s.CreatedAt()),
	)

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO applicant_submissions (`+submissionColumns+`)
			 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`, args...)
		if err != nil {
			return fmt.Errorf("save submission: %w", err)
		}
		return insertAudit(ctx, tx, s.AuditEntry())
	})
}

// FindByID retrieves a single submission.
func (r *SubmissionRepo) FindByID(ctx context.Context, id string) (model.ApplicantSubmission, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM applicant_submissions WHERE id = ?`, id)
	return scanSubmission(row)
}

// FindByUserID returns a user's submissions, newest first.
func (r *SubmissionRepo) FindByUserID(ctx context.Context, userID string) ([]model.ApplicantSubmission, error) {
	return r.scanMany(ctx,
		`SELECT `+submissionColumns+` FROM applicant_submissions WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// List returns every submission, newest first.
func (r *SubmissionRepo) List(ctx context.Context) ([]model.ApplicantSubmission, error) {
	return r.scanMany(ctx, `SELECT `+submissionColumns+` FROM applicant_submissions ORDER BY created_at DESC`)
}

func (r *SubmissionRepo) scanMany(ctx context.Context, query string, args ...any) ([]model.ApplicantSubmission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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
		id, userID, comments         string
		record                       model.ApplicantRecord
		amountStr, rateStr, profitSt string
		duration, predicted          int
		probability                  float64
		bandStr, status, importance  string
		createdStr                   string
	)
	dest := []any{&id, &userID}
	dest = append(dest, recordDest(&record)...)
	dest = append(dest,
		&amountStr, &duration, &rateStr, &comments,
		&probability, &bandStr, &predicted, &profitSt,
		&status, &importance, &createdStr,
	)
	if err := s.Scan(dest...); err != nil {
		return model.ApplicantSubmission{}, notFound(err, "submission")
	}

	band, err := valueobject.NewRiskBand(bandStr)
	if err != nil {
		return model.ApplicantSubmission{}, fmt.Errorf("submission %s: %w", id, err)
	}
	amount, err := parseDecimal(amountStr, "loan amount")
	if err != nil {
		return model.ApplicantSubmission{}, err
	}
	rate, err := parseDecimal(rateStr, "interest rate")
	if err != nil {
		return model.ApplicantSubmission{}, err
	}
	profit, err := parseDecimal(profitSt, "estimated profit")
	if err != nil {
		return model.ApplicantSubmission{}, err
	}
	createdAt, err := parseTime(createdStr)
	if err != nil {
		return model.ApplicantSubmission{}, err
	}
	var fi map[string]float64
	if err := fromJSON(importance, &fi, "feature importance"); err != nil {
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
		status, fi, createdAt,
	), nil
}
