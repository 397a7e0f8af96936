package main

import (
	"fmt"
	"io"
	"os"

	"github.com/bibbank/creditrisk/internal/application/usecase"
	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/domain/service"
	"github.com/bibbank/creditrisk/internal/domain/valueobject"
	"github.com/bibbank/creditrisk/internal/infrastructure/kafka"
	"github.com/bibbank/creditrisk/internal/infrastructure/ml"
	"github.com/bibbank/creditrisk/internal/infrastructure/report"
	"github.com/bibbank/creditrisk/internal/infrastructure/sqlite"
	"github.com/bibbank/creditrisk/internal/infrastructure/tabular"
	"github.com/bibbank/creditrisk/pkg/observability"
)

// cliUser owns everything riskctl stores unless --uploader says otherwise.
const cliUser = "riskctl"

// app is the wired use case set of one CLI invocation.
type app struct {
	uc        *usecase.Set
	artifacts *ml.Artifacts
	store     *sqlite.Store
}

func (a *app) Close() error {
	return firstErr(a.store.Close(), a.artifacts.Close())
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// openApp loads the model, opens the store and wires the use cases. Logs go
// to stderr so report bytes on stdout stay clean.
func openApp(g *globalFlags, workers int, stderr io.Writer) (*app, error) {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := observability.InitLogger(observability.LogConfig{
		Level:   g.logLevel,
		Format:  "text",
		Service: "riskctl",
		Output:  stderr,
	})

	thresholds, err := valueobject.NewRiskThresholds(g.low, g.high)
	if err != nil {
		return nil, fmt.Errorf("risk thresholds: %w", err)
	}
	artifacts, err := ml.LoadArtifacts(g.manifest)
	if err != nil {
		return nil, fmt.Errorf("load model artifacts: %w", err)
	}
	pipeline, err := service.NewRiskPipeline(artifacts.Classifier, artifacts.Vocabulary, nil, thresholds)
	if err != nil {
		_ = artifacts.Close()
		return nil, fmt.Errorf("build risk pipeline: %w", err)
	}
	store, err := sqlite.Open(g.dbPath)
	if err != nil {
		_ = artifacts.Close()
		return nil, err
	}

	uc := usecase.NewSet(usecase.Dependencies{
		Submissions: store.Submissions(),
		Uploads:     store.Uploads(),
		AuditLogs:   store.AuditLogs(),
		Publisher:   kafka.NewDiscardPublisher(logger),
		Parser:      tabular.NewParser(),
		Pipeline:    pipeline,
		Sinks:       []port.ReportSink{report.CSVSink{}, report.XLSXSink{}, report.PDFSink{}},
		Workers:     workers,
		Logger:      logger,
	})
	return &app{uc: uc, artifacts: artifacts, store: store}, nil
}
