// Package telemetry records pipeline metrics through the OpenTelemetry
// meter API.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics implements port.PipelineMetrics.
type PipelineMetrics struct {
	scored        metric.Int64Counter
	batches       metric.Int64Counter
	batchRows     metric.Int64Counter
	rowFailures   metric.Int64Counter
	batchDuration metric.Float64Histogram
}

// NewPipelineMetrics registers the pipeline instruments on meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	var (
		m   PipelineMetrics
		err error
	)
	if m.scored, err = meter.Int64Counter("creditrisk_applicants_scored",
		metric.WithDescription("Single submissions scored, by risk band.")); err != nil {
		return nil, fmt.Errorf("create scored counter: %w", err)
	}
	if m.batches, err = meter.Int64Counter("creditrisk_batches",
		metric.WithDescription("Batch uploads that reached a terminal state, by status.")); err != nil {
		return nil, fmt.Errorf("create batches counter: %w", err)
	}
	if m.batchRows, err = meter.Int64Counter("creditrisk_batch_rows",
		metric.WithDescription("Batch rows by outcome: scored, persisted or failed.")); err != nil {
		return nil, fmt.Errorf("create batch rows counter: %w", err)
	}
	if m.rowFailures, err = meter.Int64Counter("creditrisk_row_persist_failures",
		metric.WithDescription("Per-row persistence failures.")); err != nil {
		return nil, fmt.Errorf("create row failure counter: %w", err)
	}
	if m.batchDuration, err = meter.Float64Histogram("creditrisk_batch_duration_seconds",
		metric.WithDescription("Wall time of a batch upload from parse to terminal state."),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("create batch duration histogram: %w", err)
	}
	return &m, nil
}

func (m *PipelineMetrics) ApplicantScored(ctx context.Context, band string) {
	m.scored.Add(ctx, 1, metric.WithAttributes(attribute.String("risk_band", band)))
}

func (m *PipelineMetrics) BatchFinished(ctx context.Context, status string, rows, persisted, failed int, elapsed time.Duration) {
	statusAttr := attribute.String("status", status)
	m.batches.Add(ctx, 1, metric.WithAttributes(statusAttr))
	m.batchRows.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("outcome", "scored")))
	m.batchRows.Add(ctx, int64(persisted), metric.WithAttributes(attribute.String("outcome", "persisted")))
	m.batchRows.Add(ctx, int64(failed), metric.WithAttributes(attribute.String("outcome", "failed")))
	m.batchDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(statusAttr))
}

func (m *PipelineMetrics) RowPersistFailed(ctx context.Context) {
	m.rowFailures.Add(ctx, 1)
}
