// Command riskd serves credit risk scoring over gRPC and HTTP and consumes
// bulk upload requests from Kafka.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bibbank/creditrisk/internal/application/usecase"
	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/domain/service"
	"github.com/bibbank/creditrisk/internal/infrastructure/config"
	"github.com/bibbank/creditrisk/internal/infrastructure/kafka"
	"github.com/bibbank/creditrisk/internal/infrastructure/ml"
	"github.com/bibbank/creditrisk/internal/infrastructure/report"
	"github.com/bibbank/creditrisk/internal/infrastructure/tabular"
	"github.com/bibbank/creditrisk/internal/infrastructure/telemetry"
	grpcPresentation "github.com/bibbank/creditrisk/internal/presentation/grpc"
	"github.com/bibbank/creditrisk/internal/presentation/rest"
	"github.com/bibbank/creditrisk/pkg/auth"
	pkgkafka "github.com/bibbank/creditrisk/pkg/kafka"
	"github.com/bibbank/creditrisk/pkg/observability"
)

const meterName = "github.com/bibbank/creditrisk"

func main() {
	if err := run(); err != nil {
		slog.Error("riskd exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	cfg.Validate()

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.Telemetry.LogLevel,
		Format:  cfg.Telemetry.LogFormat,
		Service: cfg.ServiceName,
	})
	logger.Info("starting credit risk service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"store", cfg.Store.Driver,
	)

	// Tracing is optional.
	if cfg.Telemetry.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: cfg.ServiceName,
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
			Insecure:    cfg.Telemetry.Insecure,
			SampleRatio: cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }() //nolint:errcheck // best-effort tracer shutdown
		}
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: cfg.ServiceName})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }() //nolint:errcheck // best-effort flush
	metrics, err := telemetry.NewPipelineMetrics(meterProvider.Meter(meterName))
	if err != nil {
		return fmt.Errorf("create pipeline metrics: %w", err)
	}

	// Model artifacts.
	artifacts, err := ml.LoadArtifacts(cfg.Risk.ManifestPath)
	if err != nil {
		return fmt.Errorf("load model artifacts: %w", err)
	}
	defer artifacts.Close()
	logger.Info("model loaded",
		"name", artifacts.Manifest.Name,
		"version", artifacts.Manifest.Version,
		"format", artifacts.Manifest.Format,
		"features", len(artifacts.Classifier.FeatureNames()),
	)

	pipeline, err := service.NewRiskPipeline(artifacts.Classifier, artifacts.Vocabulary, nil, cfg.Thresholds())
	if err != nil {
		return fmt.Errorf("build risk pipeline: %w", err)
	}

	// Storage.
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	// Event publishing.
	var publisher port.EventPublisher = kafka.NewDiscardPublisher(logger)
	if cfg.Kafka.Enabled {
		producer, err := pkgkafka.NewProducer(cfg.Kafka.Client())
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer producer.Close()
		publisher = kafka.NewEventPublisher(producer, cfg.Kafka.EventTopic, logger)
	} else {
		logger.Info("kafka disabled, domain events are dropped")
	}

	// Use cases.
	uc := usecase.NewSet(usecase.Dependencies{
		Submissions: st.submissions,
		Uploads:     st.uploads,
		AuditLogs:   st.auditLogs,
		Publisher:   publisher,
		Parser:      tabular.NewParser(),
		Pipeline:    pipeline,
		Metrics:     metrics,
		Sinks:       []port.ReportSink{report.CSVSink{}, report.XLSXSink{}, report.PDFSink{MaxRows: 500}},
		Workers:     cfg.Batch.Workers,
		Logger:      logger,
	})

	// JWT validation.
	jwtCfg, err := auth.ResolveConfig(cfg.Auth.Issuer, cfg.Auth.JWTPublicKey, cfg.Auth.JWTPublicKeyFile, cfg.Auth.JWTSecret)
	if err != nil {
		return fmt.Errorf("resolve jwt config: %w", err)
	}
	jwtSvc, err := auth.NewJWTService(jwtCfg)
	if err != nil {
		return fmt.Errorf("initialize jwt service: %w", err)
	}

	// gRPC server.
	grpcServer := grpcPresentation.NewServer(
		grpcPresentation.NewCreditRiskHandler(uc, cfg.Batch.MaxUploadBytes, logger),
		logger, jwtSvc, cfg,
	)

	// HTTP server.
	router := rest.NewRouter(rest.RouterConfig{
		Handler:     rest.NewHandler(uc, cfg.Batch.MaxUploadBytes, logger),
		JWT:         jwtSvc,
		Logger:      logger,
		Limiter:     rest.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Metrics:     metricsHandler,
		Ready:       st.ping,
		ServiceName: cfg.ServiceName,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 3)

	go func() {
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Upload requests arriving over Kafka go through the same use case.
	if cfg.Kafka.Enabled && cfg.Kafka.UploadTopic != "" {
		consumer, err := pkgkafka.NewConsumer(cfg.Kafka.Client(), cfg.Kafka.UploadTopic,
			kafka.NewUploadRequestHandler(uc.ProcessBatchUpload, logger).Handler(), logger)
		if err != nil {
			return fmt.Errorf("create upload consumer: %w", err)
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("upload consumer error: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	grpcServer.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("credit risk service stopped")
	return nil
}
