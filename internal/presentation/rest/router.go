package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bibbank/creditrisk/pkg/auth"
)

// RouterConfig collects what the HTTP surface is built from.
type RouterConfig struct {
	Handler *Handler
	JWT     *auth.JWTService
	Logger  *slog.Logger
	Limiter *RateLimiter
	// Metrics, when set, is served on /metrics without authentication.
	Metrics http.Handler
	// Ready reports whether backing stores are reachable.
	Ready       func(ctx context.Context) error
	ServiceName string
}

// NewRouter builds the gin engine. Health checks and metrics are public; every
// /api/v1 route requires a bearer token.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(cfg.Logger))

	health := NewHealthHandler(cfg.ServiceName, cfg.Ready)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	h := cfg.Handler
	api := r.Group("/api/v1")
	api.Use(RateLimit(cfg.Limiter), auth.GinMiddleware(cfg.JWT))
	{
		api.GET("/reports/formats", h.ReportFormats)

		submissions := api.Group("/submissions")
		{
			submissions.POST("", RequireRoles(auth.RoleApplicant, auth.RoleAdmin, auth.RoleAPIClient), h.ScoreApplicant)
			submissions.GET("", h.SubmissionHistory)
			submissions.GET("/export", h.ExportSubmissionHistory)
			submissions.GET("/:id/report", h.SubmissionReport)
		}

		uploads := api.Group("/uploads", RequireRoles(auth.RoleBank, auth.RoleAdmin))
		{
			uploads.POST("", h.ProcessUpload)
			uploads.GET("", h.ListUploads)
			uploads.GET("/:id", h.GetUpload)
			uploads.GET("/:id/report", h.UploadReport)
		}

		portfolio := api.Group("/portfolio", RequireRoles(auth.RoleBank, auth.RoleAdmin))
		{
			portfolio.GET("", h.PortfolioSummary)
			portfolio.GET("/submissions", h.AllSubmissions)
			portfolio.GET("/submissions/export", h.ExportAllSubmissions)
		}

		admin := api.Group("/admin", RequireRoles(auth.RoleAdmin))
		{
			admin.GET("/uploads", h.AllUploads)
			admin.GET("/uploads/export", h.ExportAllUploads)
		}

		api.GET("/audit-logs", RequireRoles(auth.RoleAdmin), h.AuditLogs)
	}
	return r
}
