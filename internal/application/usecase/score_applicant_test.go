package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/application/usecase"
	"github.com/bibbank/creditrisk/internal/domain/event"
	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/pkg/testutil"
)

func validScoreRequest() dto.ScoreApplicantRequest {
	return dto.ScoreApplicantRequest{
		UserID:             "applicant-001",
		Income:             1_200_000,
		Age:                35,
		Experience:         10,
		MaritalStatus:      "single",
		HouseOwnership:     "rented",
		CarOwnership:       "no",
		Profession:         "Technical_writer",
		City:               "Pune",
		State:              "Maharashtra",
		JobYears:           4,
		HouseYears:         11,
		LoanAmount:         decimal.NewFromInt(500_000),
		LoanDurationMonths: 36,
		InterestRate:       decimal.NewFromFloat(12.0),
		Comments:           "car loan",
	}
}

func TestScoreApplicant_Execute(t *testing.T) {
	t.Run("scores, persists and publishes a low risk applicant", func(t *testing.T) {
		repo := &mockSubmissionRepository{}
		publisher := &mockEventPublisher{}
		metrics := &mockMetrics{}
		uc := usecase.NewScoreApplicantUseCase(repo, publisher,
			newPipeline(t, &testutil.StubClassifier{Probs: []float64{0.25}}), metrics, discardLogger())

		resp, err := uc.Execute(context.Background(), validScoreRequest())
		require.NoError(t, err)

		assert.NotEmpty(t, resp.SubmissionID)
		assert.Equal(t, "Low", resp.RiskBand)
		assert.Equal(t, 0, resp.PredictedClass)
		testutil.AssertDecimalEqual(t, "45000", resp.EstimatedProfit)
		assert.Empty(t, resp.Notes)

		require.Len(t, repo.saved, 1)
		assert.Equal(t, "car loan", repo.saved[0].Comments())
		require.Len(t, publisher.publishedEvents, 1)
		assert.Equal(t, event.TypeApplicantScored, publisher.publishedEvents[0].EventType())
		assert.Equal(t, []string{"Low"}, metrics.scored)
	})

	t.Run("high risk applicant raises an alert event", func(t *testing.T) {
		publisher := &mockEventPublisher{}
		uc := usecase.NewScoreApplicantUseCase(&mockSubmissionRepository{}, publisher,
			newPipeline(t, &testutil.StubClassifier{Probs: []float64{0.91}}), nil, discardLogger())

		resp, err := uc.Execute(context.Background(), validScoreRequest())
		require.NoError(t, err)
		assert.Equal(t, "High", resp.RiskBand)
		assert.Equal(t, 1, resp.PredictedClass)
		require.Len(t, publisher.publishedEvents, 2)
		assert.Equal(t, event.TypeHighRiskApplicantDetected, publisher.publishedEvents[1].EventType())
	})

	t.Run("unseen category is scored with a note", func(t *testing.T) {
		uc := usecase.NewScoreApplicantUseCase(&mockSubmissionRepository{}, &mockEventPublisher{},
			newPipeline(t, &testutil.StubClassifier{Probs: []float64{0.5}}), nil, discardLogger())

		req := validScoreRequest()
		req.City = "Atlantis"
		resp, err := uc.Execute(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "Medium", resp.RiskBand)
		require.Len(t, resp.Notes, 1)
		assert.Contains(t, resp.Notes[0], "Atlantis")
	})

	t.Run("rejects invalid loan terms", func(t *testing.T) {
		repo := &mockSubmissionRepository{}
		clf := &testutil.StubClassifier{Probs: []float64{0.1}}
		uc := usecase.NewScoreApplicantUseCase(repo, &mockEventPublisher{}, newPipeline(t, clf), nil, discardLogger())

		req := validScoreRequest()
		req.LoanDurationMonths = 0
		_, err := uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, usecase.ErrInvalidInput)
		assert.Empty(t, repo.saved)
		assert.Empty(t, clf.Calls)
	})

	t.Run("rejects missing user", func(t *testing.T) {
		uc := usecase.NewScoreApplicantUseCase(&mockSubmissionRepository{}, &mockEventPublisher{},
			newPipeline(t, &testutil.StubClassifier{Probs: []float64{0.1}}), nil, discardLogger())

		req := validScoreRequest()
		req.UserID = ""
		_, err := uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, usecase.ErrInvalidInput)
	})

	t.Run("classifier failure is returned", func(t *testing.T) {
		boom := errors.New("model unavailable")
		repo := &mockSubmissionRepository{}
		uc := usecase.NewScoreApplicantUseCase(repo, &mockEventPublisher{},
			newPipeline(t, &testutil.StubClassifier{Err: boom}), nil, discardLogger())

		_, err := uc.Execute(context.Background(), validScoreRequest())
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, repo.saved)
	})

	t.Run("repository error is returned", func(t *testing.T) {
		repo := &mockSubmissionRepository{
			saveFunc: func(context.Context, model.ApplicantSubmission) error { return errors.New("db down") },
		}
		uc := usecase.NewScoreApplicantUseCase(repo, &mockEventPublisher{},
			newPipeline(t, &testutil.StubClassifier{Probs: []float64{0.1}}), nil, discardLogger())

		_, err := uc.Execute(context.Background(), validScoreRequest())
		testutil.AssertErrorContains(t, err, "save submission")
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		publisher := &mockEventPublisher{
			publishFunc: func(context.Context, ...event.DomainEvent) error { return errors.New("broker down") },
		}
		repo := &mockSubmissionRepository{}
		uc := usecase.NewScoreApplicantUseCase(repo, publisher,
			newPipeline(t, &testutil.StubClassifier{Probs: []float64{0.1}}), nil, discardLogger())

		_, err := uc.Execute(context.Background(), validScoreRequest())
		require.NoError(t, err)
		assert.Len(t, repo.saved, 1)
	})
}
