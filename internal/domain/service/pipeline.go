package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/domain/valueobject"
)

// LoanAmountHeaders are the upload headers that carry the requested loan
// amount, in order of preference. Matching ignores case and surrounding space.
var LoanAmountHeaders = []string{"Requested Loan Amount", "loan_amount", "Loan_Amount"}

// Columns appended to an upload's original columns in the decorated dataset.
const (
	ColumnLoanAmount         = "loan_amount"
	ColumnDefaultProbability = "default_probability"
	ColumnRiskBand           = "risk_band"
	ColumnPredictedClass     = "predicted_class"
	ColumnEstimatedProfit    = "estimated_profit"
)

// DecorationColumns lists the scoring output columns in export order.
var DecorationColumns = []string{
	ColumnLoanAmount, ColumnDefaultProbability, ColumnRiskBand, ColumnPredictedClass, ColumnEstimatedProfit,
}

// RiskPipeline composes alignment, scoring, banding and profit estimation.
// All collaborators are read-only after construction, so one pipeline is
// safe for concurrent use.
type RiskPipeline struct {
	schema  *FeatureSchema
	aligner *Aligner
	scorer  *Scorer
	bander  *RiskBander
	profit  *ProfitEstimator
}

// NewRiskPipeline wires a pipeline around a loaded classifier and vocabulary.
func NewRiskPipeline(
	classifier port.Classifier,
	vocab *LabelVocabulary,
	schema *FeatureSchema,
	thresholds valueobject.RiskThresholds,
) (*RiskPipeline, error) {
	scorer, err := NewScorer(classifier)
	if err != nil {
		return nil, err
	}
	if schema == nil {
		schema = DefaultFeatureSchema()
	}
	return &RiskPipeline{
		schema:  schema,
		aligner: NewAligner(schema, NewEncoder(vocab)),
		scorer:  scorer,
		bander:  NewRiskBander(thresholds),
		profit:  NewProfitEstimator(),
	}, nil
}

// Thresholds returns the active risk band thresholds.
func (p *RiskPipeline) Thresholds() valueobject.RiskThresholds { return p.bander.Thresholds() }

// FeatureNames returns the classifier's feature order.
func (p *RiskPipeline) FeatureNames() []string { return p.scorer.FeatureNames() }

// ScoreApplicant scores a single applicant with the submission profit formula.
// The returned notes describe defaulted or unknown values.
func (p *RiskPipeline) ScoreApplicant(
	ctx context.Context,
	record model.ApplicantRecord,
	terms model.LoanTerms,
) (model.PredictionResult, []string, error) {
	vec, notes := p.aligner.Align(record.Row(), p.scorer.FeatureNames())
	probs, err := p.scorer.Score(ctx, [][]float64{vec})
	if err != nil {
		return model.PredictionResult{}, notes, err
	}
	prob := probs[0]
	result, err := model.NewPredictionResult(
		prob,
		p.bander.Band(prob),
		p.profit.SubmissionProfit(terms.Amount, terms.InterestRate, prob),
	)
	if err != nil {
		return model.PredictionResult{}, notes, err
	}
	return result, notes, nil
}

// ScoredTable is the outcome of vectorized scoring over an upload.
type ScoredTable struct {
	Table       model.RawTable
	Records     []model.ApplicantRecord
	LoanAmounts []decimal.Decimal
	Results     []model.PredictionResult
	Counts      model.BandCounts
	// Degraded holds one issue per row that carried defaulted or unknown values.
	Degraded []model.RowIssue
	// Notes are table-level remarks such as absent columns.
	Notes []string

	rowNotes [][]string
}

// Len returns the number of scored rows.
func (s ScoredTable) Len() int { return len(s.Results) }

// Attributes returns row i's original columns keyed by header.
func (s ScoredTable) Attributes(i int) map[string]string {
	return s.Table.Row(i)
}

// RowNotes returns the degradation notes recorded for row i.
func (s ScoredTable) RowNotes(i int) []string {
	if i < 0 || i >= len(s.rowNotes) {
		return nil
	}
	return s.rowNotes[i]
}

// loanColumn finds the loan amount column in header, or -1.
func loanColumn(header []string) int {
	for _, want := range LoanAmountHeaders {
		fw := fold(want)
		for i, h := range header {
			if fold(NormalizeHeader(h)) == fw {
				return i
			}
		}
	}
	return -1
}

// ScoreTable aligns, scores, bands and prices every row of t in one pass.
// A scoring failure aborts the table; data-quality problems never do.
func (p *RiskPipeline) ScoreTable(ctx context.Context, t model.RawTable) (ScoredTable, error) {
	return p.ScoreAligned(ctx, t, p.AlignTable(t))
}

// AlignTable vectorizes t in the classifier's feature order.
func (p *RiskPipeline) AlignTable(t model.RawTable) AlignedTable {
	return p.aligner.AlignTable(t, p.scorer.FeatureNames())
}

// ScoreAligned scores an aligned table, then bands and prices each row with
// the batch profit formula.
func (p *RiskPipeline) ScoreAligned(ctx context.Context, t model.RawTable, aligned AlignedTable) (ScoredTable, error) {
	probs, err := p.scorer.Score(ctx, aligned.Vectors)
	if err != nil {
		return ScoredTable{}, err
	}

	out := ScoredTable{
		Table:       t,
		Records:     aligned.Records,
		LoanAmounts: make([]decimal.Decimal, t.Len()),
		Results:     make([]model.PredictionResult, t.Len()),
		rowNotes:    make([][]string, t.Len()),
	}
	for _, f := range aligned.Missing {
		out.Notes = append(out.Notes, fmt.Sprintf("column %s not found, set to 0", f))
	}

	loanCol := loanColumn(t.Header)
	if loanCol < 0 {
		out.Notes = append(out.Notes, "no loan amount column, loan_amount set to 0")
	}

	for i := range t.Rows {
		notes := aligned.RowNotes[i]
		amount := decimal.Zero
		if loanCol >= 0 {
			var note string
			amount, note = parseLoanAmount(t.Rows[i], loanCol)
			if note != "" {
				notes = append(notes, note)
			}
		}
		prob := probs[i]
		band := p.bander.Band(prob)
		res, err := model.NewPredictionResult(prob, band, p.profit.BatchRowProfit(amount, prob))
		if err != nil {
			return ScoredTable{}, fmt.Errorf("row %d: %w", i, err)
		}
		out.LoanAmounts[i] = amount
		out.Results[i] = res
		out.Counts.Add(band)
		out.rowNotes[i] = notes
		if len(notes) > 0 {
			out.Degraded = append(out.Degraded, model.RowIssue{Row: i, Reason: strings.Join(notes, "; ")})
		}
	}
	return out, nil
}

func parseLoanAmount(cells []string, col int) (decimal.Decimal, string) {
	if col >= len(cells) {
		return decimal.Zero, "loan_amount: empty value set to 0"
	}
	raw := strings.TrimSpace(cells[col])
	if raw == "" {
		return decimal.Zero, "loan_amount: empty value set to 0"
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Sprintf("loan_amount: non-numeric value %q set to 0", raw)
	}
	// Profit is only defined for a non-negative principal.
	if amount.IsNegative() {
		return decimal.Zero, fmt.Sprintf("loan_amount: negative value %s set to 0", raw)
	}
	return amount, ""
}

// Decorate returns the original columns followed by the scoring outputs.
// A decoration column already present in the upload is overwritten in place.
func (s ScoredTable) Decorate() model.DecoratedDataset {
	header := append([]string(nil), s.Table.Header...)
	pos := make(map[string]int, len(DecorationColumns))
	for _, c := range DecorationColumns {
		idx := -1
		for i, h := range header {
			if NormalizeHeader(h) == c {
				idx = i
				break
			}
		}
		if idx < 0 {
			header = append(header, c)
			idx = len(header) - 1
		}
		pos[c] = idx
	}

	rows := make([][]string, s.Len())
	for i := range rows {
		row := make([]string, len(header))
		copy(row, s.Table.Rows[i])
		values := DecorationValues(s.LoanAmounts[i], s.Results[i])
		for j, c := range DecorationColumns {
			row[pos[c]] = values[j]
		}
		rows[i] = row
	}
	return model.DecoratedDataset{Header: header, Rows: rows}
}

// DecorationValues renders the scoring outputs of one row in
// DecorationColumns order.
func DecorationValues(amount decimal.Decimal, r model.PredictionResult) []string {
	return []string{
		amount.String(),
		strconv.FormatFloat(r.DefaultProbability, 'f', -1, 64),
		r.RiskBand.String(),
		strconv.Itoa(r.PredictedClass),
		r.EstimatedProfit.StringFixed(2),
	}
}
