package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bibbank/creditrisk/internal/application/usecase"
	"github.com/bibbank/creditrisk/internal/domain/event"
	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/domain/service"
	"github.com/bibbank/creditrisk/internal/domain/valueobject"
	"github.com/bibbank/creditrisk/internal/infrastructure/report"
	"github.com/bibbank/creditrisk/internal/infrastructure/sqlite"
	"github.com/bibbank/creditrisk/internal/infrastructure/tabular"
)

// RecordingPublisher keeps every published event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []event.DomainEvent
}

// Publish implements port.EventPublisher.
func (p *RecordingPublisher) Publish(_ context.Context, evts ...event.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, evts...)
	return nil
}

// Types returns the recorded event types in publish order.
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Events))
	for i, e := range p.Events {
		out[i] = e.EventType()
	}
	return out
}

// App is a fully wired use case set over a temporary SQLite store.
type App struct {
	UseCases   *usecase.Set
	Store      *sqlite.Store
	Publisher  *RecordingPublisher
	Classifier *StubClassifier
}

// NewApp wires every use case against a fresh SQLite file, the sample
// vocabulary and classifier, the real upload parser and the report sinks.
func NewApp(t *testing.T, classifier *StubClassifier) *App {
	t.Helper()

	if classifier == nil {
		classifier = &StubClassifier{Probs: []float64{0.2}}
	}
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "creditrisk.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	vocab, err := service.NewLabelVocabulary(SampleVocabulary())
	if err != nil {
		t.Fatalf("build vocabulary: %v", err)
	}
	pipeline, err := service.NewRiskPipeline(classifier, vocab, nil, valueobject.CanonicalRiskThresholds)
	if err != nil {
		t.Fatalf("build pipeline: %v", err)
	}

	publisher := &RecordingPublisher{}
	set := usecase.NewSet(usecase.Dependencies{
		Submissions: store.Submissions(),
		Uploads:     store.Uploads(),
		AuditLogs:   store.AuditLogs(),
		Publisher:   publisher,
		Parser:      tabular.NewParser(),
		Pipeline:    pipeline,
		Sinks:       []port.ReportSink{report.CSVSink{}, report.XLSXSink{}, report.PDFSink{MaxRows: 50}},
		Workers:     4,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return &App{UseCases: set, Store: store, Publisher: publisher, Classifier: classifier}
}
