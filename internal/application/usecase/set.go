package usecase

import (
	"log/slog"

	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/domain/service"
)

// Dependencies are the ports every use case is built from.
type Dependencies struct {
	Submissions port.SubmissionRepository
	Uploads     port.BatchUploadRepository
	AuditLogs   port.AuditLogRepository
	Publisher   port.EventPublisher
	Parser      port.UploadParser
	Pipeline    *service.RiskPipeline
	Metrics     port.PipelineMetrics
	Sinks       []port.ReportSink
	Workers     int
	Logger      *slog.Logger
}

// Set holds one instance of each use case, shared by the transports.
type Set struct {
	ScoreApplicant          *ScoreApplicantUseCase
	ProcessBatchUpload      *ProcessBatchUploadUseCase
	SubmissionHistory       *GetSubmissionHistoryUseCase
	ExportSubmissionHistory *ExportSubmissionHistoryUseCase
	ExportSubmissionReport  *ExportSubmissionReportUseCase
	ExportSubmissionList    *ExportSubmissionListUseCase
	PortfolioSummary        *GetPortfolioSummaryUseCase
	BatchUploads            *GetBatchUploadUseCase
	ExportUploadReport      *ExportUploadReportUseCase
	ExportUploadList        *ExportUploadListUseCase
	AuditLogs               *ListAuditLogsUseCase
	Renderer                *ReportRenderer
}

func NewSet(d Dependencies) *Set {
	renderer := NewReportRenderer(d.Sinks...)
	return &Set{
		ScoreApplicant:          NewScoreApplicantUseCase(d.Submissions, d.Publisher, d.Pipeline, d.Metrics, d.Logger),
		ProcessBatchUpload:      NewProcessBatchUploadUseCase(d.Parser, d.Pipeline, d.Uploads, d.AuditLogs, d.Publisher, d.Metrics, d.Workers, d.Logger),
		SubmissionHistory:       NewGetSubmissionHistoryUseCase(d.Submissions),
		ExportSubmissionHistory: NewExportSubmissionHistoryUseCase(d.Submissions, renderer),
		ExportSubmissionReport:  NewExportSubmissionReportUseCase(d.Submissions, renderer),
		ExportSubmissionList:    NewExportSubmissionListUseCase(d.Submissions, renderer),
		PortfolioSummary:        NewGetPortfolioSummaryUseCase(d.Submissions),
		BatchUploads:            NewGetBatchUploadUseCase(d.Uploads),
		ExportUploadReport:      NewExportUploadReportUseCase(d.Uploads, renderer),
		ExportUploadList:        NewExportUploadListUseCase(d.Uploads, renderer),
		AuditLogs:               NewListAuditLogsUseCase(d.AuditLogs),
		Renderer:                renderer,
	}
}
