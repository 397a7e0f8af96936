package grpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/domain/event"
	"github.com/bibbank/creditrisk/pkg/auth"
	"github.com/bibbank/creditrisk/pkg/testutil"
)

// --- Helpers ---

func contextAs(userID uuid.UUID, roles ...string) context.Context {
	return auth.ContextWithClaims(context.Background(), &auth.Claims{UserID: userID, Roles: roles})
}

func buildTestHandler(t *testing.T, classifier *testutil.StubClassifier) (*CreditRiskHandler, *testutil.App) {
	t.Helper()
	app := testutil.NewApp(t, classifier)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCreditRiskHandler(app.UseCases, 1<<20, logger), app
}

func applicantForm() *dto.ScoreApplicantRequest {
	return &dto.ScoreApplicantRequest{
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
		InterestRate:       decimal.NewFromInt(12),
	}
}

func requireGRPCCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "expected gRPC status error, got %T: %v", err, err)
	assert.Equal(t, code, st.Code(), "expected gRPC code %s, got %s: %s", code, st.Code(), st.Message())
}

// --- Tests ---

func TestScoreApplicant(t *testing.T) {
	t.Run("missing claims returns Unauthenticated", func(t *testing.T) {
		h, _ := buildTestHandler(t, nil)
		_, err := h.ScoreApplicant(context.Background(), &ScoreApplicantRequest{Applicant: applicantForm()})
		requireGRPCCode(t, err, codes.Unauthenticated)
	})

	t.Run("bank role returns PermissionDenied", func(t *testing.T) {
		h, _ := buildTestHandler(t, nil)
		_, err := h.ScoreApplicant(contextAs(testutil.TestBankUserID, auth.RoleBank),
			&ScoreApplicantRequest{Applicant: applicantForm()})
		requireGRPCCode(t, err, codes.PermissionDenied)
	})

	t.Run("nil applicant returns InvalidArgument", func(t *testing.T) {
		h, _ := buildTestHandler(t, nil)
		_, err := h.ScoreApplicant(contextAs(testutil.TestApplicantID, auth.RoleApplicant), &ScoreApplicantRequest{})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("invalid form returns InvalidArgument", func(t *testing.T) {
		h, _ := buildTestHandler(t, nil)
		form := applicantForm()
		form.Age = 0
		_, err := h.ScoreApplicant(contextAs(testutil.TestApplicantID, auth.RoleApplicant),
			&ScoreApplicantRequest{Applicant: form})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("scores on behalf of the token subject", func(t *testing.T) {
		h, app := buildTestHandler(t, &testutil.StubClassifier{Probs: []float64{0.8}})
		ctx := contextAs(testutil.TestApplicantID, auth.RoleApplicant)

		form := applicantForm()
		form.UserID = "someone-else"
		resp, err := h.ScoreApplicant(ctx, &ScoreApplicantRequest{Applicant: form})
		require.NoError(t, err)
		assert.Equal(t, "High", resp.Prediction.RiskBand)
		assert.Equal(t, 1, resp.Prediction.PredictedClass)

		stored, err := app.Store.Submissions().FindByID(ctx, resp.Prediction.SubmissionID)
		require.NoError(t, err)
		assert.Equal(t, testutil.TestApplicantID.String(), stored.UserID())
	})

	t.Run("classifier failure returns Internal", func(t *testing.T) {
		h, _ := buildTestHandler(t, &testutil.StubClassifier{Err: errors.New("session closed")})
		_, err := h.ScoreApplicant(contextAs(testutil.TestApplicantID, auth.RoleApplicant),
			&ScoreApplicantRequest{Applicant: applicantForm()})
		requireGRPCCode(t, err, codes.Internal)
		assert.NotContains(t, err.Error(), "session closed")
	})
}

func TestGetSubmissionHistory(t *testing.T) {
	h, _ := buildTestHandler(t, nil)
	ctx := contextAs(testutil.TestApplicantID, auth.RoleApplicant)
	for range 2 {
		_, err := h.ScoreApplicant(ctx, &ScoreApplicantRequest{Applicant: applicantForm()})
		require.NoError(t, err)
	}

	t.Run("defaults to the caller", func(t *testing.T) {
		resp, err := h.GetSubmissionHistory(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, resp.Submissions, 2)
	})

	t.Run("other users history is forbidden", func(t *testing.T) {
		_, err := h.GetSubmissionHistory(contextAs(uuid.New(), auth.RoleApplicant),
			&GetSubmissionHistoryRequest{UserID: testutil.TestApplicantID.String()})
		requireGRPCCode(t, err, codes.PermissionDenied)
	})

	t.Run("admin reads any history", func(t *testing.T) {
		resp, err := h.GetSubmissionHistory(contextAs(testutil.TestAdminID, auth.RoleAdmin),
			&GetSubmissionHistoryRequest{UserID: testutil.TestApplicantID.String()})
		require.NoError(t, err)
		assert.Len(t, resp.Submissions, 2)
	})
}

func TestProcessBatchUpload(t *testing.T) {
	bank := contextAs(testutil.TestBankUserID, auth.RoleBank)

	t.Run("applicant role returns PermissionDenied", func(t *testing.T) {
		h, _ := buildTestHandler(t, nil)
		_, err := h.ProcessBatchUpload(contextAs(testutil.TestApplicantID, auth.RoleApplicant),
			&ProcessBatchUploadRequest{Filename: "clients.csv", Content: []byte(testutil.SampleUploadCSV)})
		requireGRPCCode(t, err, codes.PermissionDenied)
	})

	t.Run("missing content returns InvalidArgument", func(t *testing.T) {
		h, _ := buildTestHandler(t, nil)
		_, err := h.ProcessBatchUpload(bank, &ProcessBatchUploadRequest{Filename: "clients.csv"})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("oversized upload returns ResourceExhausted", func(t *testing.T) {
		h, _ := buildTestHandler(t, nil)
		h.maxUploadBytes = 10
		_, err := h.ProcessBatchUpload(bank,
			&ProcessBatchUploadRequest{Filename: "clients.csv", Content: []byte(testutil.SampleUploadCSV)})
		requireGRPCCode(t, err, codes.ResourceExhausted)
	})

	t.Run("unsupported file returns InvalidArgument", func(t *testing.T) {
		h, _ := buildTestHandler(t, nil)
		_, err := h.ProcessBatchUpload(bank,
			&ProcessBatchUploadRequest{Filename: "clients.json", Content: []byte(`{}`)})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("scores and finalizes a csv upload", func(t *testing.T) {
		h, app := buildTestHandler(t, &testutil.StubClassifier{Probs: []float64{0.1, 0.5, 0.9}})
		resp, err := h.ProcessBatchUpload(bank, &ProcessBatchUploadRequest{
			Filename: "clients.csv",
			Notes:    "weekly intake",
			Content:  []byte(testutil.SampleUploadCSV),
		})
		require.NoError(t, err)

		assert.Equal(t, "FINALIZED", resp.Upload.Status)
		assert.Equal(t, testutil.TestBankUserID.String(), resp.Upload.UploaderID)
		assert.Equal(t, 3, resp.Upload.TotalRows)
		assert.Equal(t, 3, resp.Upload.PersistedRows)
		assert.Equal(t, 1, resp.Upload.LowCount)
		assert.Equal(t, 1, resp.Upload.MediumCount)
		assert.Equal(t, 1, resp.Upload.HighCount)
		assert.Len(t, resp.Dataset.Rows, 3)
		assert.Contains(t, resp.Dataset.Header, "risk_band")
		assert.Contains(t, app.Publisher.Types(), event.TypeBatchUploadCompleted)
	})
}

func TestBatchUploadQueries(t *testing.T) {
	h, _ := buildTestHandler(t, nil)
	bank := contextAs(testutil.TestBankUserID, auth.RoleBank)
	processed, err := h.ProcessBatchUpload(bank,
		&ProcessBatchUploadRequest{Filename: "clients.csv", Content: []byte(testutil.SampleUploadCSV)})
	require.NoError(t, err)
	uploadID := processed.Upload.UploadID

	t.Run("get returns the stored upload", func(t *testing.T) {
		resp, err := h.GetBatchUpload(bank, &GetBatchUploadRequest{UploadID: uploadID})
		require.NoError(t, err)
		assert.Equal(t, "clients.csv", resp.Upload.Filename)
	})

	t.Run("empty id returns InvalidArgument", func(t *testing.T) {
		_, err := h.GetBatchUpload(bank, &GetBatchUploadRequest{})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("unknown id returns NotFound", func(t *testing.T) {
		_, err := h.GetBatchUpload(bank, &GetBatchUploadRequest{UploadID: uuid.NewString()})
		requireGRPCCode(t, err, codes.NotFound)
	})

	t.Run("another bank user is forbidden", func(t *testing.T) {
		_, err := h.GetBatchUpload(contextAs(uuid.New(), auth.RoleBank), &GetBatchUploadRequest{UploadID: uploadID})
		requireGRPCCode(t, err, codes.PermissionDenied)
	})

	t.Run("list returns the callers uploads", func(t *testing.T) {
		resp, err := h.ListBatchUploads(bank, nil)
		require.NoError(t, err)
		require.Len(t, resp.Uploads, 1)
		assert.Equal(t, uploadID, resp.Uploads[0].UploadID)
	})

	t.Run("export renders csv", func(t *testing.T) {
		resp, err := h.ExportUploadReport(bank, &ExportUploadReportRequest{UploadID: uploadID, Format: "csv"})
		require.NoError(t, err)
		assert.Equal(t, "upload_"+uploadID+".csv", resp.Filename)
		assert.Equal(t, "text/csv", resp.ContentType)
		assert.Contains(t, string(resp.Content), "risk_band")
	})

	t.Run("export rejects unknown formats", func(t *testing.T) {
		_, err := h.ExportUploadReport(bank, &ExportUploadReportRequest{UploadID: uploadID, Format: "docx"})
		requireGRPCCode(t, err, codes.InvalidArgument)
	})
}

func TestGetPortfolioSummary(t *testing.T) {
	h, _ := buildTestHandler(t, &testutil.StubClassifier{Probs: []float64{0.2}})
	_, err := h.ScoreApplicant(contextAs(testutil.TestApplicantID, auth.RoleApplicant),
		&ScoreApplicantRequest{Applicant: applicantForm()})
	require.NoError(t, err)

	t.Run("applicants are denied", func(t *testing.T) {
		_, err := h.GetPortfolioSummary(contextAs(testutil.TestApplicantID, auth.RoleApplicant), nil)
		requireGRPCCode(t, err, codes.PermissionDenied)
	})

	t.Run("bank staff see totals", func(t *testing.T) {
		resp, err := h.GetPortfolioSummary(contextAs(testutil.TestBankUserID, auth.RoleBank), nil)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Summary.TotalSubmissions)
		assert.Equal(t, 1, resp.Summary.LowCount)
	})
}

func TestServiceDescHonoursInterceptor(t *testing.T) {
	h, _ := buildTestHandler(t, nil)

	var seen string
	interceptor := func(ctx context.Context, req any, info *grpclib.UnaryServerInfo, next grpclib.UnaryHandler) (any, error) {
		seen = info.FullMethod
		return next(auth.ContextWithClaims(ctx, &auth.Claims{UserID: testutil.TestAdminID, Roles: []string{auth.RoleAdmin}}), req)
	}
	dec := func(v any) error { return nil }

	out, err := _CreditRiskService_GetPortfolioSummary_Handler(h, context.Background(), dec, interceptor)
	require.NoError(t, err)
	assert.Equal(t, "/creditrisk.v1.CreditRiskService/GetPortfolioSummary", seen)
	assert.IsType(t, &GetPortfolioSummaryResponse{}, out)

	_, err = _CreditRiskService_GetPortfolioSummary_Handler(h, context.Background(), dec, nil)
	requireGRPCCode(t, err, codes.Unauthenticated)
}

func TestJSONCodec(t *testing.T) {
	c := jsonCodec{}
	assert.Equal(t, "json", c.Name())

	b, err := c.Marshal(&GetBatchUploadRequest{UploadID: "u-1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"upload_id":"u-1"}`, string(b))

	var req GetBatchUploadRequest
	require.NoError(t, c.Unmarshal(b, &req))
	assert.Equal(t, "u-1", req.UploadID)
	assert.Error(t, c.Unmarshal([]byte("{"), &req))
}
