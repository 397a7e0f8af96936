package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/domain/service"
)

// DefaultBatchWorkers bounds per-row persistence when no worker count is set.
const DefaultBatchWorkers = 8

// ProcessBatchUploadUseCase drives one bulk upload through
// STARTED -> ALIGNING -> SCORING -> PER_ROW_PERSISTING -> FINALIZED.
type ProcessBatchUploadUseCase struct {
	parser    port.UploadParser
	pipeline  *service.RiskPipeline
	uploads   port.BatchUploadRepository
	audits    port.AuditLogRepository
	publisher port.EventPublisher
	metrics   port.PipelineMetrics
	workers   int
	logger    *slog.Logger
	now       func() time.Time
}

// NewProcessBatchUploadUseCase wires dependencies. workers <= 0 selects
// DefaultBatchWorkers; a nil metrics port records nothing.
func NewProcessBatchUploadUseCase(
	parser port.UploadParser,
	pipeline *service.RiskPipeline,
	uploads port.BatchUploadRepository,
	audits port.AuditLogRepository,
	publisher port.EventPublisher,
	metrics port.PipelineMetrics,
	workers int,
	logger *slog.Logger,
) *ProcessBatchUploadUseCase {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ProcessBatchUploadUseCase{
		parser:    parser,
		pipeline:  pipeline,
		uploads:   uploads,
		audits:    audits,
		publisher: publisher,
		metrics:   metrics,
		workers:   workers,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Execute parses, scores and persists an upload. A malformed file fails
// before any state exists. A scoring failure moves the upload to FAILED
// without persisting metadata or rows; only its audit entry is written.
// Row persistence failures are collected in the summary and never stop
// sibling rows.
func (uc *ProcessBatchUploadUseCase) Execute(
	ctx context.Context,
	req dto.ProcessBatchUploadRequest,
) (dto.ProcessBatchUploadResponse, error) {
	ctx, span := tracer.Start(ctx, "ProcessBatchUpload")
	defer span.End()
	started := time.Now()

	// 1. Parse the file.
	table, err := uc.parser.Parse(req.Filename, bytes.NewReader(req.Content))
	if err != nil {
		return dto.ProcessBatchUploadResponse{}, fmt.Errorf("parse upload: %w", err)
	}

	// 2. Start the upload; its ID is shared by every row.
	upload, err := model.NewBatchUpload(req.UploaderID, req.Filename, req.Notes, uc.now())
	if err != nil {
		return dto.ProcessBatchUploadResponse{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	span.SetAttributes(attribute.String("upload_id", upload.ID()), attribute.Int("rows", table.Len()))
	log := uc.logger.With("upload_id", upload.ID(), "filename", req.Filename)

	// 3. Align.
	if upload, err = upload.BeginAligning(uc.now()); err != nil {
		return dto.ProcessBatchUploadResponse{}, err
	}
	aligned := uc.pipeline.AlignTable(table)

	// 4. Score the whole table in one call.
	if upload, err = upload.BeginScoring(table.Len(), uc.now()); err != nil {
		return dto.ProcessBatchUploadResponse{}, err
	}
	scored, err := uc.pipeline.ScoreAligned(ctx, table, aligned)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring failed")
		uc.fail(ctx, log, upload, err, started)
		return dto.ProcessBatchUploadResponse{}, fmt.Errorf("score upload: %w", err)
	}

	// 5. Write the metadata record every row refers to.
	upload, err = upload.BeginPersisting(scored.Counts, scored.Degraded, scored.Notes, uc.now())
	if err != nil {
		return dto.ProcessBatchUploadResponse{}, err
	}
	if err := uc.uploads.SaveUpload(ctx, upload); err != nil {
		uc.fail(ctx, log, upload, err, started)
		return dto.ProcessBatchUploadResponse{}, fmt.Errorf("save upload metadata: %w", err)
	}

	// 6. Persist rows in parallel.
	failures := uc.persistRows(ctx, log, upload, scored)

	// 7. Finalize.
	upload, err = upload.Finalize(scored.Len()-len(failures), failures, uc.now())
	if err != nil {
		return dto.ProcessBatchUploadResponse{}, err
	}
	if err := uc.uploads.SaveUpload(ctx, upload); err != nil {
		// Rows are stored but the metadata record stays PER_ROW_PERSISTING.
		log.Error("failed to finalize upload metadata",
			"persisted", upload.Summary().PersistedRows,
			"error", err,
		)
		return dto.ProcessBatchUploadResponse{}, fmt.Errorf("finalize upload metadata: %w", err)
	}
	uc.publish(ctx, log, upload)

	summary := upload.Summary()
	uc.metrics.BatchFinished(ctx, upload.Status().String(), summary.TotalRows,
		summary.PersistedRows, summary.FailedRows(), time.Since(started))
	log.Info("batch upload finalized",
		"rows", summary.TotalRows,
		"persisted", summary.PersistedRows,
		"failed", summary.FailedRows(),
		"degraded", len(summary.Degraded),
	)

	ds := scored.Decorate()
	return dto.ProcessBatchUploadResponse{
		Upload:  toUploadResponse(upload),
		Dataset: dto.DatasetResponse{Header: ds.Header, Rows: ds.Rows},
	}, nil
}

// persistRows saves every scored row with a bounded worker pool and
// returns the failures sorted by row.
func (uc *ProcessBatchUploadUseCase) persistRows(
	ctx context.Context,
	log *slog.Logger,
	upload model.BatchUpload,
	scored service.ScoredTable,
) []model.RowIssue {
	var (
		g        errgroup.Group
		failures model.FailureLog
	)
	g.SetLimit(uc.workers)
	span := trace.SpanFromContext(ctx)

	for i := 0; i < scored.Len(); i++ {
		client := model.NewBatchClient(
			upload.ID(), upload.UploaderID(), i,
			scored.Records[i], scored.Attributes(i), scored.LoanAmounts[i],
			scored.Results[i], scored.RowNotes(i), uc.now(),
		)
		g.Go(func() error {
			if err := uc.uploads.SaveClient(ctx, client); err != nil {
				failures.Record(client.RowIndex, err.Error())
				uc.metrics.RowPersistFailed(ctx)
				span.AddEvent("row persist failed", trace.WithAttributes(attribute.Int("row", client.RowIndex)))
				log.Warn("failed to persist row", "row", client.RowIndex, "error", err)
			}
			// Row failures are recorded, never returned.
			return nil
		})
	}
	_ = g.Wait()
	return failures.Snapshot()
}

// fail moves the upload to FAILED, audits it and emits the failure event
// and metrics.
func (uc *ProcessBatchUploadUseCase) fail(
	ctx context.Context,
	log *slog.Logger,
	upload model.BatchUpload,
	cause error,
	started time.Time,
) {
	failed, err := upload.Fail(cause.Error(), uc.now())
	if err != nil {
		log.Error("cannot mark upload failed", "error", errors.Join(cause, err))
		return
	}
	if err := uc.audits.Record(ctx, failed.AuditEntry()); err != nil {
		log.Error("failed to audit failed upload", "error", err)
	}
	uc.publish(ctx, log, failed)
	uc.metrics.BatchFinished(ctx, failed.Status().String(), failed.Summary().TotalRows, 0, 0, time.Since(started))
	log.Error("batch upload failed", "error", cause)
}

func (uc *ProcessBatchUploadUseCase) publish(ctx context.Context, log *slog.Logger, upload model.BatchUpload) {
	if err := uc.publisher.Publish(ctx, upload.DomainEvents()...); err != nil {
		log.Warn("failed to publish upload events", "error", err)
	}
}
