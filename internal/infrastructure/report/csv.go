// Package report renders model.Report values as CSV, XLSX and PDF.
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/bibbank/creditrisk/internal/domain/model"
)

// CSVSink writes the tabular body of a report.
type CSVSink struct{}

func (CSVSink) Format() string      { return "csv" }
func (CSVSink) ContentType() string { return "text/csv" }

// Render writes the header and rows. Facts and charts have no CSV form.
func (CSVSink) Render(w io.Writer, r model.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(r.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}
