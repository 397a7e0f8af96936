package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/domain/service"
)

var tracer = otel.Tracer("github.com/bibbank/creditrisk/internal/application/usecase")

// ScoreApplicantUseCase scores and records a single applicant submission.
type ScoreApplicantUseCase struct {
	repo      port.SubmissionRepository
	publisher port.EventPublisher
	pipeline  *service.RiskPipeline
	metrics   port.PipelineMetrics
	logger    *slog.Logger
}

// NewScoreApplicantUseCase wires dependencies. A nil metrics port records nothing.
func NewScoreApplicantUseCase(
	repo port.SubmissionRepository,
	publisher port.EventPublisher,
	pipeline *service.RiskPipeline,
	metrics port.PipelineMetrics,
	logger *slog.Logger,
) *ScoreApplicantUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ScoreApplicantUseCase{
		repo:      repo,
		publisher: publisher,
		pipeline:  pipeline,
		metrics:   metrics,
		logger:    logger,
	}
}

// Execute scores the applicant, persists the submission with its audit
// entry, and publishes its domain events.
func (uc *ScoreApplicantUseCase) Execute(ctx context.Context, req dto.ScoreApplicantRequest) (dto.PredictionResponse, error) {
	ctx, span := tracer.Start(ctx, "ScoreApplicant")
	defer span.End()

	now := time.Now().UTC()

	// 1. Validate the form.
	record := model.ApplicantRecord{
		Income:         req.Income,
		Age:            req.Age,
		Experience:     req.Experience,
		MaritalStatus:  req.MaritalStatus,
		HouseOwnership: req.HouseOwnership,
		CarOwnership:   req.CarOwnership,
		Profession:     req.Profession,
		City:           req.City,
		State:          req.State,
		JobYears:       req.JobYears,
		HouseYears:     req.HouseYears,
	}
	terms := model.LoanTerms{
		Amount:         req.LoanAmount,
		DurationMonths: req.LoanDurationMonths,
		InterestRate:   req.InterestRate,
	}
	if err := record.Validate(); err != nil {
		return dto.PredictionResponse{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := terms.Validate(); err != nil {
		return dto.PredictionResponse{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// 2. Score.
	result, notes, err := uc.pipeline.ScoreApplicant(ctx, record, terms)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring failed")
		return dto.PredictionResponse{}, fmt.Errorf("score applicant: %w", err)
	}
	span.SetAttributes(
		attribute.String("risk_band", result.RiskBand.String()),
		attribute.Float64("default_probability", result.DefaultProbability),
	)

	// 3. Build the submission aggregate.
	sub, err := model.NewApplicantSubmission(req.UserID, record, terms, req.Comments, result, notes, now)
	if err != nil {
		return dto.PredictionResponse{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// 4. Persist.
	if err := uc.repo.Save(ctx, sub); err != nil {
		return dto.PredictionResponse{}, fmt.Errorf("save submission: %w", err)
	}

	// 5. Publish domain events. Failures here are logged, not returned.
	if err := uc.publisher.Publish(ctx, sub.DomainEvents()...); err != nil {
		uc.logger.Warn("failed to publish submission events",
			"submission_id", sub.ID(),
			"error", err,
		)
	}

	uc.metrics.ApplicantScored(ctx, result.RiskBand.String())
	uc.logger.Info("applicant scored",
		"submission_id", sub.ID(),
		"risk_band", result.RiskBand.String(),
		"notes", len(notes),
	)
	return toPredictionResponse(sub), nil
}
