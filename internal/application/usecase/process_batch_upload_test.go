package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/application/usecase"
	"github.com/bibbank/creditrisk/internal/domain/event"
	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/pkg/testutil"
)

func uploadRequest(content string) dto.ProcessBatchUploadRequest {
	return dto.ProcessBatchUploadRequest{
		UploaderID: "bank-001",
		Filename:   "clients.csv",
		Notes:      "june",
		Content:    []byte(content),
	}
}

func TestProcessBatchUpload_Execute(t *testing.T) {
	t.Run("scores, persists and finalizes every row", func(t *testing.T) {
		repo := &mockBatchUploadRepository{}
		publisher := &mockEventPublisher{}
		metrics := &mockMetrics{}
		clf := &testutil.StubClassifier{Probs: []float64{0.10, 0.50, 0.90}}
		uc := usecase.NewProcessBatchUploadUseCase(csvParser{}, newPipeline(t, clf), repo, &mockAuditRepo{}, publisher, metrics, 2, discardLogger())

		resp, err := uc.Execute(context.Background(), uploadRequest(testutil.SampleUploadCSV))
		require.NoError(t, err)

		up := resp.Upload
		assert.Equal(t, "FINALIZED", up.Status)
		assert.Equal(t, 3, up.TotalRows)
		assert.Equal(t, 1, up.LowCount)
		assert.Equal(t, 1, up.MediumCount)
		assert.Equal(t, 1, up.HighCount)
		assert.Equal(t, 3, up.PersistedRows)
		assert.Equal(t, 0, up.FailedRows)
		assert.Len(t, up.Degraded, 2)
		assert.NotNil(t, up.FinalizedAt)

		// Every row shares the upload ID.
		require.Len(t, repo.clients, 3)
		for _, c := range repo.clients {
			assert.Equal(t, up.UploadID, c.UploadID)
			assert.Equal(t, "bank-001", c.ProcessedBy)
			assert.Equal(t, []string{"North", "South", "East"}[c.RowIndex], c.Attributes["Branch"])
		}

		// Metadata is written before rows and again on finalization.
		require.Len(t, repo.uploadSaves, 2)
		assert.Equal(t, "PER_ROW_PERSISTING", repo.uploadSaves[0].Status().String())
		assert.Equal(t, "FINALIZED", repo.uploadSaves[1].Status().String())

		require.Len(t, publisher.publishedEvents, 1)
		assert.Equal(t, event.TypeBatchUploadCompleted, publisher.publishedEvents[0].EventType())
		assert.Equal(t, []string{"FINALIZED"}, metrics.finished)

		assert.Len(t, resp.Dataset.Header, 13+5)
		assert.Len(t, resp.Dataset.Rows, 3)
	})

	t.Run("a row persistence failure is recorded and siblings continue", func(t *testing.T) {
		repo := &mockBatchUploadRepository{
			saveClientFunc: func(_ context.Context, c model.BatchClient) error {
				if c.RowIndex == 1 {
					return errors.New("unique violation")
				}
				return nil
			},
		}
		metrics := &mockMetrics{}
		uc := usecase.NewProcessBatchUploadUseCase(csvParser{},
			newPipeline(t, &testutil.StubClassifier{Probs: []float64{0.2}}), repo, &mockAuditRepo{}, &mockEventPublisher{}, metrics, 4, discardLogger())

		resp, err := uc.Execute(context.Background(), uploadRequest(testutil.SampleUploadCSV))
		require.NoError(t, err)

		assert.Equal(t, "FINALIZED", resp.Upload.Status)
		assert.Equal(t, 2, resp.Upload.PersistedRows)
		require.Len(t, resp.Upload.Failures, 1)
		assert.Equal(t, 1, resp.Upload.Failures[0].Row)
		assert.Contains(t, resp.Upload.Failures[0].Reason, "unique violation")
		assert.Len(t, repo.clients, 2)
		assert.Equal(t, 1, metrics.rowFailure)
	})

	t.Run("many rows with scattered failures come back sorted", func(t *testing.T) {
		var b strings.Builder
		b.WriteString("Income,loan_amount\n")
		for i := 0; i < 50; i++ {
			fmt.Fprintf(&b, "%d,%d\n", 1000+i, 100*i)
		}
		repo := &mockBatchUploadRepository{
			saveClientFunc: func(_ context.Context, c model.BatchClient) error {
				if c.RowIndex%7 == 3 {
					return errors.New("boom")
				}
				return nil
			},
		}
		uc := usecase.NewProcessBatchUploadUseCase(csvParser{},
			newPipeline(t, &testutil.StubClassifier{Probs: []float64{0.4}}), repo, &mockAuditRepo{}, &mockEventPublisher{}, nil, 8, discardLogger())

		resp, err := uc.Execute(context.Background(), uploadRequest(b.String()))
		require.NoError(t, err)

		failures := resp.Upload.Failures
		require.Len(t, failures, 7)
		for i := 1; i < len(failures); i++ {
			assert.Less(t, failures[i-1].Row, failures[i].Row)
		}
		assert.Equal(t, 43, resp.Upload.PersistedRows)
	})

	t.Run("malformed file fails before any state exists", func(t *testing.T) {
		repo := &mockBatchUploadRepository{}
		publisher := &mockEventPublisher{}
		uc := usecase.NewProcessBatchUploadUseCase(csvParser{},
			newPipeline(t, &testutil.StubClassifier{Probs: []float64{0.2}}), repo, &mockAuditRepo{}, publisher, nil, 2, discardLogger())

		_, err := uc.Execute(context.Background(), uploadRequest(""))
		assert.ErrorIs(t, err, port.ErrMalformedUpload)
		assert.Empty(t, repo.uploadSaves)
		assert.Empty(t, publisher.publishedEvents)
	})

	t.Run("scoring failure fails the upload without persisting", func(t *testing.T) {
		repo := &mockBatchUploadRepository{}
		audits := &mockAuditRepo{}
		publisher := &mockEventPublisher{}
		metrics := &mockMetrics{}
		uc := usecase.NewProcessBatchUploadUseCase(csvParser{},
			newPipeline(t, &testutil.StubClassifier{Err: errors.New("onnx session closed")}),
			repo, audits, publisher, metrics, 2, discardLogger())

		_, err := uc.Execute(context.Background(), uploadRequest(testutil.SampleUploadCSV))
		testutil.AssertErrorContains(t, err, "score upload")
		assert.Empty(t, repo.uploadSaves)
		assert.Empty(t, repo.clients)
		require.Len(t, publisher.publishedEvents, 1)
		assert.Equal(t, event.TypeBatchUploadFailed, publisher.publishedEvents[0].EventType())
		assert.Equal(t, []string{"FAILED"}, metrics.finished)

		require.Len(t, audits.entries, 1)
		entry := audits.entries[0]
		assert.Equal(t, model.AuditActionBatchUploaded, entry.Action)
		assert.Equal(t, "FAILED", entry.Status)
		assert.Equal(t, "bank-001", entry.UserID)
		assert.Equal(t, publisher.publishedEvents[0].AggregateID(), entry.EntityID)
		assert.Contains(t, entry.Details, "onnx session closed")
	})

	t.Run("metadata write failure fails the upload", func(t *testing.T) {
		repo := &mockBatchUploadRepository{
			saveUploadFunc: func(context.Context, model.BatchUpload) error { return errors.New("db down") },
		}
		audits := &mockAuditRepo{}
		publisher := &mockEventPublisher{}
		uc := usecase.NewProcessBatchUploadUseCase(csvParser{},
			newPipeline(t, &testutil.StubClassifier{Probs: []float64{0.2}}), repo, audits, publisher, nil, 2, discardLogger())

		_, err := uc.Execute(context.Background(), uploadRequest(testutil.SampleUploadCSV))
		testutil.AssertErrorContains(t, err, "save upload metadata")
		assert.Empty(t, repo.clients)
		require.Len(t, publisher.publishedEvents, 1)
		assert.Equal(t, event.TypeBatchUploadFailed, publisher.publishedEvents[0].EventType())
		require.Len(t, audits.entries, 1)
		assert.Equal(t, "FAILED", audits.entries[0].Status)
	})

	t.Run("finalize write failure keeps rows and emits nothing", func(t *testing.T) {
		repo := &mockBatchUploadRepository{
			saveUploadFunc: func(_ context.Context, u model.BatchUpload) error {
				if u.Status().String() == "FINALIZED" {
					return errors.New("connection reset")
				}
				return nil
			},
		}
		audits := &mockAuditRepo{}
		publisher := &mockEventPublisher{}
		uc := usecase.NewProcessBatchUploadUseCase(csvParser{},
			newPipeline(t, &testutil.StubClassifier{Probs: []float64{0.2}}), repo, audits, publisher, nil, 2, discardLogger())

		_, err := uc.Execute(context.Background(), uploadRequest(testutil.SampleUploadCSV))
		testutil.AssertErrorContains(t, err, "finalize upload metadata")
		assert.Len(t, repo.clients, 3)
		require.Len(t, repo.uploadSaves, 1)
		assert.Equal(t, "PER_ROW_PERSISTING", repo.uploadSaves[0].Status().String())
		assert.Empty(t, publisher.publishedEvents)
		assert.Empty(t, audits.entries)
	})

	t.Run("missing uploader is invalid input", func(t *testing.T) {
		uc := usecase.NewProcessBatchUploadUseCase(csvParser{},
			newPipeline(t, &testutil.StubClassifier{Probs: []float64{0.2}}),
			&mockBatchUploadRepository{}, &mockAuditRepo{}, &mockEventPublisher{}, nil, 2, discardLogger())

		req := uploadRequest(testutil.SampleUploadCSV)
		req.UploaderID = ""
		_, err := uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, usecase.ErrInvalidInput)
	})
}

func TestProcessBatchUpload_FailedUploadIsAuditedInStore(t *testing.T) {
	app := testutil.NewApp(t, &testutil.StubClassifier{Err: errors.New("corrupted artifact")})
	ctx := context.Background()

	_, err := app.UseCases.ProcessBatchUpload.Execute(ctx, uploadRequest(testutil.SampleUploadCSV))
	require.Error(t, err)

	entries, err := app.Store.AuditLogs().List(ctx, model.AuditFilter{Action: model.AuditActionBatchUploaded})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "FAILED", entries[0].Status)
	assert.Contains(t, entries[0].Details, "corrupted artifact")

	uploads, err := app.Store.Uploads().FindUploadsByUploader(ctx, "bank-001")
	require.NoError(t, err)
	assert.Empty(t, uploads)
}
