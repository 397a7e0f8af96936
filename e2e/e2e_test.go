//go:build e2e

// Package e2e drives a running riskd over HTTP. Start it with
// STORE_DRIVER=sqlite, KAFKA_ENABLED=false and JWT_SECRET set, then run
// go test -tags e2e ./e2e with the same JWT_SECRET.
package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/creditrisk/pkg/auth"
	"github.com/bibbank/creditrisk/pkg/testutil"
)

var (
	baseURL string
	jwtSvc  *auth.JWTService
)

func TestMain(m *testing.M) {
	baseURL = os.Getenv("RISKD_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "test-e2e-secret"
	}
	var err error
	jwtSvc, err = auth.NewJWTService(auth.JWTConfig{
		Secret:     secret,
		Issuer:     envOr("JWT_ISSUER", "bib-identity"),
		Expiration: 10 * time.Minute,
	})
	if err != nil {
		panic(err)
	}

	// Wait for the service to be ready.
	for i := 0; i < 30; i++ {
		resp, err := http.Get(baseURL + "/readyz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		time.Sleep(2 * time.Second)
	}

	os.Exit(m.Run())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func call(t *testing.T, req *http.Request, userID uuid.UUID, roles ...string) *http.Response {
	t.Helper()
	token, err := jwtSvc.GenerateToken(userID, roles)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthCheck(t *testing.T) {
	resp, err := http.Get(baseURL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestApplicantFlow(t *testing.T) {
	applicant := uuid.New()
	form := `{
		"income": 1303834, "age": 23, "experience": 3,
		"marital_status": "single", "house_ownership": "rented", "car_ownership": "no",
		"profession": "Mechanical_engineer", "city": "Rewa", "state": "Madhya_Pradesh",
		"job_years": 3, "house_years": 13,
		"loan_amount": "250000", "loan_duration_months": 24, "interest_rate": "10"
	}`

	// Step 1: score.
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/submissions", strings.NewReader(form))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp := call(t, req, applicant, auth.RoleApplicant)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	id, _ := created["submission_id"].(string)
	require.NotEmpty(t, id)
	assert.Contains(t, []any{"Low", "Medium", "High"}, created["risk_band"])

	// Step 2: history contains it.
	req, _ = http.NewRequest(http.MethodGet, baseURL+"/api/v1/submissions", nil)
	resp = call(t, req, applicant, auth.RoleApplicant)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), id)

	// Step 3: PDF summary.
	req, _ = http.NewRequest(http.MethodGet, baseURL+"/api/v1/submissions/"+id+"/report", nil)
	resp = call(t, req, applicant, auth.RoleApplicant)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
}

func TestBankUploadFlow(t *testing.T) {
	bank := uuid.New()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "clients.csv")
	require.NoError(t, err)
	_, _ = io.WriteString(part, testutil.SampleUploadCSV)
	require.NoError(t, w.Close())

	req, _ := http.NewRequest(http.MethodPost, baseURL+"/api/v1/uploads", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp := call(t, req, bank, auth.RoleBank)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var processed struct {
		Upload struct {
			UploadID      string `json:"upload_id"`
			Status        string `json:"status"`
			TotalRows     int    `json:"total_rows"`
			PersistedRows int    `json:"persisted_rows"`
		} `json:"upload"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&processed))
	assert.Equal(t, "FINALIZED", processed.Upload.Status)
	assert.Equal(t, 3, processed.Upload.TotalRows)
	assert.Equal(t, 3, processed.Upload.PersistedRows)

	req, _ = http.NewRequest(http.MethodGet, baseURL+"/api/v1/uploads/"+processed.Upload.UploadID+"/report?format=xlsx", nil)
	resp = call(t, req, bank, auth.RoleBank)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")

	req, _ = http.NewRequest(http.MethodGet, baseURL+"/api/v1/portfolio", nil)
	resp = call(t, req, bank, auth.RoleBank)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
