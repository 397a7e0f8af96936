package port

import (
	"context"
	"io"
	"time"

	"github.com/bibbank/creditrisk/internal/domain/model"
)

// Classifier is a pre-trained binary default classifier.
type Classifier interface {
	// FeatureNames returns the input features in the order the model expects.
	FeatureNames() []string
	// PredictProba returns P(default) for each input vector.
	PredictProba(ctx context.Context, vectors [][]float64) ([]float64, error)
}

// UploadParser turns an uploaded file into a raw table.
type UploadParser interface {
	Parse(filename string, r io.Reader) (model.RawTable, error)
}

// ReportSink renders a report in one output format.
type ReportSink interface {
	Format() string
	ContentType() string
	Render(w io.Writer, report model.Report) error
}

// PipelineMetrics records scoring pipeline measurements.
type PipelineMetrics interface {
	ApplicantScored(ctx context.Context, band string)
	BatchFinished(ctx context.Context, status string, rows, persisted, failed int, elapsed time.Duration)
	RowPersistFailed(ctx context.Context)
}
