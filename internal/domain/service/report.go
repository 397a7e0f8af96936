package service

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/valueobject"
)

// HistogramBins is the number of equal-width default probability bins.
const HistogramBins = 10

// ScoredRow is the scoring output of one row, as reports need it.
type ScoredRow struct {
	LoanAmount decimal.Decimal
	Result     model.PredictionResult
}

// ProbabilityHistogram counts probabilities into equal-width bins over
// [0,1]. A probability of exactly 1 falls into the last bin.
func ProbabilityHistogram(ps []float64, bins int) []int {
	counts := make([]int, bins)
	for _, p := range ps {
		b := int(p * float64(bins))
		if b >= bins {
			b = bins - 1
		}
		if b < 0 {
			b = 0
		}
		counts[b]++
	}
	return counts
}

func histogramLabels(bins int) []string {
	labels := make([]string, bins)
	for i := range labels {
		labels[i] = fmt.Sprintf("%.1f-%.1f", float64(i)/float64(bins), float64(i+1)/float64(bins))
	}
	return labels
}

func bandLabels() []string {
	out := make([]string, len(valueobject.AllRiskBands))
	for i, b := range valueobject.AllRiskBands {
		out[i] = b.String()
	}
	return out
}

// BuildUploadReport assembles the summary facts, the three charts and the
// decorated table of an upload.
func BuildUploadReport(
	filename string,
	summary model.BatchUploadSummary,
	dataset model.DecoratedDataset,
	rows []ScoredRow,
	generatedAt time.Time,
) model.Report {
	probs := make([]float64, len(rows))
	loans := make(map[string]decimal.Decimal, 3)
	profits := make(map[string]decimal.Decimal, 3)
	for i, r := range rows {
		probs[i] = r.Result.DefaultProbability
		band := r.Result.RiskBand.String()
		loans[band] = loans[band].Add(r.LoanAmount)
		profits[band] = profits[band].Add(r.Result.EstimatedProfit)
	}

	c := summary.BandCounts
	perBand := series("Applicants", []float64{float64(c.Low), float64(c.Medium), float64(c.High)})

	loanSeries := make([]float64, 0, 3)
	profitSeries := make([]float64, 0, 3)
	for _, b := range valueobject.AllRiskBands {
		loanSeries = append(loanSeries, loans[b.String()].InexactFloat64())
		profitSeries = append(profitSeries, profits[b.String()].InexactFloat64())
	}

	hist := ProbabilityHistogram(probs, HistogramBins)
	histValues := make([]float64, len(hist))
	for i, n := range hist {
		histValues[i] = float64(n)
	}

	return model.Report{
		Title:       "Batch risk report",
		Subtitle:    filename,
		GeneratedAt: generatedAt,
		Facts: []model.ReportFact{
			{Label: "Upload ID", Value: summary.UploadID},
			{Label: "Total rows", Value: strconv.Itoa(summary.TotalRows)},
			{Label: "Low risk", Value: strconv.Itoa(c.Low)},
			{Label: "Medium risk", Value: strconv.Itoa(c.Medium)},
			{Label: "High risk", Value: strconv.Itoa(c.High)},
			{Label: "Persisted rows", Value: strconv.Itoa(summary.PersistedRows)},
			{Label: "Failed rows", Value: strconv.Itoa(summary.FailedRows())},
		},
		Charts: []model.Chart{
			{Title: "Applicants per risk band", Labels: bandLabels(), Series: []model.ChartSeries{perBand}},
			{Title: "Default probability distribution", Labels: histogramLabels(HistogramBins),
				Series: []model.ChartSeries{series("Applicants", histValues)}},
			{Title: "Loan amount vs estimated profit", Labels: bandLabels(), Series: []model.ChartSeries{
				series("Loan amount", loanSeries),
				series("Estimated profit", profitSeries),
			}},
		},
		Header: dataset.Header,
		Rows:   dataset.Rows,
	}
}

// series builds a named chart series.
func series(name string, values []float64) model.ChartSeries {
	return model.ChartSeries{Name: name, Values: values}
}

// ClientsDataset rebuilds the decorated dataset of a stored upload. The
// original column order is not stored, so attribute columns are sorted.
func ClientsDataset(clients []model.BatchClient) (model.DecoratedDataset, []ScoredRow) {
	sorted := append([]model.BatchClient(nil), clients...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RowIndex < sorted[j].RowIndex })

	decoration := make(map[string]bool, len(DecorationColumns))
	for _, c := range DecorationColumns {
		decoration[c] = true
	}
	seen := make(map[string]bool)
	var attrs []string
	for _, c := range sorted {
		for k := range c.Attributes {
			if !seen[k] && !decoration[NormalizeHeader(k)] {
				seen[k] = true
				attrs = append(attrs, k)
			}
		}
	}
	sort.Strings(attrs)

	header := append(append([]string(nil), attrs...), DecorationColumns...)
	rows := make([][]string, len(sorted))
	scored := make([]ScoredRow, len(sorted))
	for i, c := range sorted {
		row := make([]string, 0, len(header))
		for _, a := range attrs {
			row = append(row, c.Attributes[a])
		}
		rows[i] = append(row, DecorationValues(c.LoanAmount, c.Result)...)
		scored[i] = ScoredRow{LoanAmount: c.LoanAmount, Result: c.Result}
	}
	return model.DecoratedDataset{Header: header, Rows: rows}, scored
}

// HistoryColumns is the column order of a submission history export.
var HistoryColumns = []string{
	"submission_id", "created_at",
	model.FieldIncome, model.FieldAge, model.FieldExperience, model.FieldMaritalStatus,
	model.FieldHouseOwnership, model.FieldCarOwnership, model.FieldProfession,
	model.FieldCity, model.FieldState, model.FieldJobYears, model.FieldHouseYears,
	"loan_amount", "loan_duration_months", "interest_rate", "comments",
	ColumnDefaultProbability, ColumnRiskBand, ColumnPredictedClass, ColumnEstimatedProfit,
}

// BuildHistoryReport tabulates an applicant's submissions.
func BuildHistoryReport(userID string, subs []model.ApplicantSubmission, generatedAt time.Time) model.Report {
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		rec := s.Applicant().Row()
		row := []string{s.ID(), s.CreatedAt().UTC().Format(time.RFC3339)}
		for _, f := range HistoryColumns[2:13] {
			row = append(row, rec[f])
		}
		t := s.Terms()
		r := s.Result()
		row = append(row,
			t.Amount.String(), strconv.Itoa(t.DurationMonths), t.InterestRate.String(), s.Comments(),
			strconv.FormatFloat(r.DefaultProbability, 'f', -1, 64), r.RiskBand.String(),
			strconv.Itoa(r.PredictedClass), r.EstimatedProfit.StringFixed(2),
		)
		rows = append(rows, row)
	}
	return model.Report{
		Title:       "Submission history",
		Subtitle:    userID,
		GeneratedAt: generatedAt,
		Facts:       []model.ReportFact{{Label: "Submissions", Value: strconv.Itoa(len(subs))}},
		Header:      HistoryColumns,
		Rows:        rows,
	}
}

// SubmissionListColumns is the column order of an all-submissions export.
var SubmissionListColumns = append([]string{"user_id"}, HistoryColumns...)

// BuildSubmissionListReport tabulates every applicant's submissions in the
// given order, prefixing each row with its owner.
func BuildSubmissionListReport(subs []model.ApplicantSubmission, generatedAt time.Time) model.Report {
	history := BuildHistoryReport("", subs, generatedAt)
	rows := make([][]string, len(history.Rows))
	for i, row := range history.Rows {
		rows[i] = append([]string{subs[i].UserID()}, row...)
	}
	summary := SummarizePortfolio(subs)
	return model.Report{
		Title:       "Applicant submissions",
		GeneratedAt: generatedAt,
		Facts: []model.ReportFact{
			{Label: "Submissions", Value: strconv.Itoa(summary.TotalSubmissions)},
			{Label: "Average loan amount", Value: summary.AverageLoanAmount.StringFixed(2)},
			{Label: "Low risk", Value: strconv.Itoa(summary.BandCounts.Low)},
			{Label: "Medium risk", Value: strconv.Itoa(summary.BandCounts.Medium)},
			{Label: "High risk", Value: strconv.Itoa(summary.BandCounts.High)},
		},
		Header: SubmissionListColumns,
		Rows:   rows,
	}
}

// UploadListColumns is the column order of an all-uploads export.
var UploadListColumns = []string{
	"upload_id", "uploader_id", "filename", "notes", "status",
	"total_rows", "low_count", "medium_count", "high_count",
	"persisted_rows", "failed_rows", "failure_reason", "created_at", "finalized_at",
}

// BuildUploadListReport tabulates upload metadata in the given order.
func BuildUploadListReport(uploads []model.BatchUpload, generatedAt time.Time) model.Report {
	rows := make([][]string, 0, len(uploads))
	for _, u := range uploads {
		s := u.Summary()
		finalized := ""
		if !u.FinalizedAt().IsZero() {
			finalized = u.FinalizedAt().UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{
			u.ID(), u.UploaderID(), u.Filename(), u.Notes(), u.Status().String(),
			strconv.Itoa(s.TotalRows), strconv.Itoa(s.BandCounts.Low),
			strconv.Itoa(s.BandCounts.Medium), strconv.Itoa(s.BandCounts.High),
			strconv.Itoa(s.PersistedRows), strconv.Itoa(s.FailedRows()), u.FailureReason(),
			u.CreatedAt().UTC().Format(time.RFC3339), finalized,
		})
	}
	return model.Report{
		Title:       "Bank uploads",
		GeneratedAt: generatedAt,
		Facts:       []model.ReportFact{{Label: "Uploads", Value: strconv.Itoa(len(uploads))}},
		Header:      UploadListColumns,
		Rows:        rows,
	}
}

// BuildSubmissionReport summarizes one submission's inputs and prediction.
func BuildSubmissionReport(s model.ApplicantSubmission, generatedAt time.Time) model.Report {
	rec := s.Applicant().Row()
	t := s.Terms()
	r := s.Result()
	facts := []model.ReportFact{
		{Label: "Submission ID", Value: s.ID()},
		{Label: "Default probability", Value: strconv.FormatFloat(r.DefaultProbability, 'f', 4, 64)},
		{Label: "Risk band", Value: r.RiskBand.String()},
		{Label: "Predicted class", Value: strconv.Itoa(r.PredictedClass)},
		{Label: "Estimated profit", Value: r.EstimatedProfit.StringFixed(2)},
		{Label: "Loan amount", Value: t.Amount.String()},
		{Label: "Duration (months)", Value: strconv.Itoa(t.DurationMonths)},
		{Label: "Interest rate (%)", Value: t.InterestRate.String()},
	}
	rows := make([][]string, 0, len(rec))
	for _, f := range HistoryColumns[2:13] {
		rows = append(rows, []string{f, rec[f]})
	}
	return model.Report{
		Title:       "Applicant risk summary",
		Subtitle:    s.CreatedAt().UTC().Format("2006-01-02 15:04 MST"),
		GeneratedAt: generatedAt,
		Facts:       facts,
		Header:      []string{"Field", "Value"},
		Rows:        rows,
	}
}

// ---------------------------------------------------------------------------
// Portfolio
// ---------------------------------------------------------------------------

// SummarizePortfolio aggregates submissions for bank staff.
func SummarizePortfolio(subs []model.ApplicantSubmission) model.PortfolioSummary {
	out := model.PortfolioSummary{
		TotalSubmissions:     len(subs),
		AverageLoanAmount:    decimal.Zero,
		TotalLoanAmount:      decimal.Zero,
		TotalEstimatedProfit: decimal.Zero,
	}
	if len(subs) == 0 {
		return out
	}
	var sumP float64
	for _, s := range subs {
		r := s.Result()
		out.BandCounts.Add(r.RiskBand)
		sumP += r.DefaultProbability
		out.TotalLoanAmount = out.TotalLoanAmount.Add(s.Terms().Amount)
		out.TotalEstimatedProfit = out.TotalEstimatedProfit.Add(r.EstimatedProfit)
	}
	n := decimal.NewFromInt(int64(len(subs)))
	out.AverageDefaultProbability = sumP / float64(len(subs))
	out.AverageLoanAmount = out.TotalLoanAmount.DivRound(n, 2)
	return out
}
