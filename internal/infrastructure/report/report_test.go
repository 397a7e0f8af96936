package report_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/infrastructure/report"
)

var (
	_ port.ReportSink = report.CSVSink{}
	_ port.ReportSink = report.XLSXSink{}
	_ port.ReportSink = report.PDFSink{}
)

func sampleReport() model.Report {
	return model.Report{
		Title:       "Batch risk report",
		Subtitle:    "clients.csv",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Facts: []model.ReportFact{
			{Label: "Total rows", Value: "3"},
			{Label: "Persisted rows", Value: "3"},
		},
		Charts: []model.Chart{
			{
				Title:  "Applicants per risk band",
				Labels: []string{"Low", "Medium", "High"},
				Series: []model.ChartSeries{{Name: "Applicants", Values: []float64{1, 1, 1}}},
			},
			{
				Title:  "Loan amount and estimated profit",
				Labels: []string{"Low", "Medium", "High"},
				Series: []model.ChartSeries{
					{Name: "Loan amount", Values: []float64{250000, 500000, 0}},
					{Name: "Estimated profit", Values: []float64{225000.5, 250000, 0}},
				},
			},
		},
		Header: []string{"Income", "CITY", "risk_band", "estimated_profit"},
		Rows: [][]string{
			{"1303834", "Rewa", "Low", "225000.00"},
			{"7574516", "Atlantis", "Medium", "250000.00"},
			{"3991815", "Alappuzha, Kerala", "High", "0.00"},
		},
	}
}

func TestCSVSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.CSVSink{}.Render(&buf, sampleReport()))
	want := "Income,CITY,risk_band,estimated_profit\n" +
		"1303834,Rewa,Low,225000.00\n" +
		"7574516,Atlantis,Medium,250000.00\n" +
		"3991815,\"Alappuzha, Kerala\",High,0.00\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, "csv", report.CSVSink{}.Format())
}

func TestXLSXSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.XLSXSink{}.Render(&buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Data", "Summary", "Charts"}, f.GetSheetList())

	rows, err := f.GetRows("Data")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Income", "CITY", "risk_band", "estimated_profit"}, rows[0])
	assert.Equal(t, "Alappuzha, Kerala", rows[3][1])

	assert.Equal(t, "1303834", rows[1][0])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, "Batch risk report", summary[0][0])
	assert.Contains(t, summary, []string{"Total rows", "3"})
}

func TestXLSXSink_NoCharts(t *testing.T) {
	r := sampleReport()
	r.Charts = nil
	var buf bytes.Buffer
	require.NoError(t, report.XLSXSink{}.Render(&buf, r))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Data", "Summary"}, f.GetSheetList())
}

func TestPDFSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.PDFSink{}.Render(&buf, sampleReport()))
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF-"))
	assert.Equal(t, "application/pdf", report.PDFSink{}.ContentType())
}

func TestPDFSink_ManyRowsAndColumns(t *testing.T) {
	r := sampleReport()
	r.Header = make([]string, 16)
	for i := range r.Header {
		r.Header[i] = "a_rather_long_column_name"
	}
	r.Rows = make([][]string, 400)
	for i := range r.Rows {
		r.Rows[i] = []string{"Zürich", "1"}
	}

	var full, capped bytes.Buffer
	require.NoError(t, report.PDFSink{}.Render(&full, r))
	require.NoError(t, report.PDFSink{MaxRows: 10}.Render(&capped, r))
	assert.Greater(t, full.Len(), capped.Len())
}
