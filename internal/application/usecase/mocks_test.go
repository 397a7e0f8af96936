package usecase_test

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bibbank/creditrisk/internal/domain/event"
	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/domain/service"
	"github.com/bibbank/creditrisk/internal/domain/valueobject"
	"github.com/bibbank/creditrisk/pkg/testutil"
)

// --- Mock implementations ---

type mockSubmissionRepository struct {
	saveFunc func(ctx context.Context, s model.ApplicantSubmission) error
	saved    []model.ApplicantSubmission
}

func (m *mockSubmissionRepository) Save(ctx context.Context, s model.ApplicantSubmission) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, s)
	}
	m.saved = append(m.saved, s)
	return nil
}

func (m *mockSubmissionRepository) FindByID(_ context.Context, id string) (model.ApplicantSubmission, error) {
	for _, s := range m.saved {
		if s.ID() == id {
			return s, nil
		}
	}
	return model.ApplicantSubmission{}, port.ErrNotFound
}

func (m *mockSubmissionRepository) FindByUserID(_ context.Context, userID string) ([]model.ApplicantSubmission, error) {
	var out []model.ApplicantSubmission
	for _, s := range m.saved {
		if s.UserID() == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSubmissionRepository) List(_ context.Context) ([]model.ApplicantSubmission, error) {
	return m.saved, nil
}

type mockBatchUploadRepository struct {
	mu             sync.Mutex
	saveUploadFunc func(ctx context.Context, u model.BatchUpload) error
	saveClientFunc func(ctx context.Context, c model.BatchClient) error
	uploads        map[string]model.BatchUpload
	uploadSaves    []model.BatchUpload
	clients        []model.BatchClient
}

func (m *mockBatchUploadRepository) SaveUpload(ctx context.Context, u model.BatchUpload) error {
	if m.saveUploadFunc != nil {
		if err := m.saveUploadFunc(ctx, u); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploads == nil {
		m.uploads = map[string]model.BatchUpload{}
	}
	m.uploads[u.ID()] = u
	m.uploadSaves = append(m.uploadSaves, u)
	return nil
}

func (m *mockBatchUploadRepository) SaveClient(ctx context.Context, c model.BatchClient) error {
	if m.saveClientFunc != nil {
		if err := m.saveClientFunc(ctx, c); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients = append(m.clients, c)
	return nil
}

func (m *mockBatchUploadRepository) FindUploadByID(_ context.Context, id string) (model.BatchUpload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.uploads[id]
	if !ok {
		return model.BatchUpload{}, port.ErrNotFound
	}
	return u, nil
}

func (m *mockBatchUploadRepository) FindUploadsByUploader(_ context.Context, uploaderID string) ([]model.BatchUpload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.BatchUpload
	for _, u := range m.uploads {
		if u.UploaderID() == uploaderID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockBatchUploadRepository) ListUploads(_ context.Context) ([]model.BatchUpload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.BatchUpload, 0, len(m.uploads))
	for _, u := range m.uploads {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out, nil
}

func (m *mockBatchUploadRepository) FindClientsByUpload(_ context.Context, uploadID string) ([]model.BatchClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.BatchClient
	for _, c := range m.clients {
		if c.UploadID == uploadID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RowIndex < out[j].RowIndex })
	return out, nil
}

type mockEventPublisher struct {
	publishFunc     func(ctx context.Context, events ...event.DomainEvent) error
	publishedEvents []event.DomainEvent
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...event.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

// csvParser parses CSV content and fails on empty files.
type csvParser struct{}

func (csvParser) Parse(_ string, r io.Reader) (model.RawTable, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return model.RawTable{}, fmt.Errorf("%w: %v", port.ErrMalformedUpload, err)
	}
	if len(records) == 0 {
		return model.RawTable{}, fmt.Errorf("%w: empty file", port.ErrMalformedUpload)
	}
	return model.RawTable{Header: records[0], Rows: records[1:]}, nil
}

type mockMetrics struct {
	mu         sync.Mutex
	scored     []string
	finished   []string
	rowFailure int
}

func (m *mockMetrics) ApplicantScored(_ context.Context, band string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scored = append(m.scored, band)
}

func (m *mockMetrics) BatchFinished(_ context.Context, status string, _, _, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = append(m.finished, status)
}

func (m *mockMetrics) RowPersistFailed(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rowFailure++
}

type mockSink struct {
	format string
}

func (m mockSink) Format() string      { return m.format }
func (m mockSink) ContentType() string { return "text/plain" }
func (m mockSink) Render(w io.Writer, r model.Report) error {
	_, err := fmt.Fprintf(w, "%s|%d", r.Title, len(r.Rows))
	return err
}

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline(t *testing.T, clf *testutil.StubClassifier) *service.RiskPipeline {
	t.Helper()
	vocab, err := service.NewLabelVocabulary(testutil.SampleVocabulary())
	require.NoError(t, err)
	p, err := service.NewRiskPipeline(clf, vocab, nil, valueobject.RiskThresholds{})
	require.NoError(t, err)
	return p
}
