package usecase

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
)

// ReportRenderer dispatches a report to the sink for the requested format.
type ReportRenderer struct {
	sinks map[string]port.ReportSink
}

// NewReportRenderer indexes sinks by their format name.
func NewReportRenderer(sinks ...port.ReportSink) *ReportRenderer {
	r := &ReportRenderer{sinks: make(map[string]port.ReportSink, len(sinks))}
	for _, s := range sinks {
		r.sinks[strings.ToLower(s.Format())] = s
	}
	return r
}

// Formats lists the supported format names, sorted.
func (r *ReportRenderer) Formats() []string {
	out := make([]string, 0, len(r.sinks))
	for f := range r.sinks {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Render renders report as format, naming the file base.format.
func (r *ReportRenderer) Render(report model.Report, format, base string) (dto.ExportResponse, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	sink, ok := r.sinks[format]
	if !ok {
		return dto.ExportResponse{}, fmt.Errorf("%w: unsupported report format %q", ErrInvalidInput, format)
	}
	var buf bytes.Buffer
	if err := sink.Render(&buf, report); err != nil {
		return dto.ExportResponse{}, fmt.Errorf("render %s report: %w", format, err)
	}
	return dto.ExportResponse{
		Filename:    base + "." + format,
		ContentType: sink.ContentType(),
		Body:        buf.Bytes(),
	}, nil
}
