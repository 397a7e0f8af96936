package grpc

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"

	"github.com/bibbank/creditrisk/internal/infrastructure/config"
	"github.com/bibbank/creditrisk/pkg/auth"
	"github.com/bibbank/creditrisk/pkg/testutil"
)

func startServer(t *testing.T) (*grpclib.ClientConn, *auth.JWTService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{
		Secret:     "grpc-test-secret",
		Issuer:     "creditrisk-test",
		Expiration: time.Minute,
	})
	require.NoError(t, err)

	h, _ := buildTestHandler(t, &testutil.StubClassifier{Probs: []float64{0.4}})
	srv := NewServer(h, logger, jwtSvc, config.Config{Batch: config.BatchConfig{MaxUploadBytes: 1 << 20}})

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.ServeListener(lis) }()
	t.Cleanup(srv.GracefulStop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, jwtSvc
}

func TestServer_Health(t *testing.T) {
	conn, _ := startServer(t)
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: healthService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestServer_JSONCallsRequireToken(t *testing.T) {
	conn, jwtSvc := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out GetPortfolioSummaryResponse
	err := conn.Invoke(ctx, "/creditrisk.v1.CreditRiskService/GetPortfolioSummary",
		&GetPortfolioSummaryRequest{}, &out, grpclib.CallContentSubtype(codecName))
	requireGRPCCode(t, err, codes.Unauthenticated)

	token, err := jwtSvc.GenerateToken(testutil.TestApplicantID, []string{auth.RoleApplicant})
	require.NoError(t, err)
	authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)

	var scored ScoreApplicantResponse
	err = conn.Invoke(authed, "/creditrisk.v1.CreditRiskService/ScoreApplicant",
		&ScoreApplicantRequest{Applicant: applicantForm()}, &scored, grpclib.CallContentSubtype(codecName))
	require.NoError(t, err)
	assert.Equal(t, "Medium", scored.Prediction.RiskBand)
	assert.NotEmpty(t, scored.Prediction.SubmissionID)

	var history GetSubmissionHistoryResponse
	err = conn.Invoke(authed, "/creditrisk.v1.CreditRiskService/GetSubmissionHistory",
		&GetSubmissionHistoryRequest{}, &history, grpclib.CallContentSubtype(codecName))
	require.NoError(t, err)
	require.Len(t, history.Submissions, 1)
	assert.Equal(t, scored.Prediction.SubmissionID, history.Submissions[0].ID)
}
