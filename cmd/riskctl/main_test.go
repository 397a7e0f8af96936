package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/creditrisk/pkg/testutil"
)

const manifest = "../../configs/model.yaml"

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "riskctl dev\n", out)
}

func TestVocab(t *testing.T) {
	out, _, err := execute(t, "", "vocab", "--manifest", manifest)
	require.NoError(t, err)
	assert.Contains(t, out, "name: loan-default")
	assert.Contains(t, out, "CITY:")
	assert.Contains(t, out, "- Rewa")
	assert.Contains(t, out, "- house_years")
}

func TestScoreAndReport(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "risk.db")
	reports := filepath.Join(dir, "reports")
	writeFile(t, filepath.Join(dir, "in", "north", "clients.csv"), testutil.SampleUploadCSV)
	writeFile(t, filepath.Join(dir, "in", "notes.txt"), "ignored")

	out, _, err := execute(t, "", "score",
		"--manifest", manifest, "--db", db,
		"--report-dir", reports, "--format", "csv",
		"--uploader", "bank-007",
		filepath.Join(dir, "in", "**", "*"),
	)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	fields := strings.Split(lines[0], "\t")
	require.Len(t, fields, 4)
	assert.Equal(t, "FINALIZED", fields[2])
	assert.Contains(t, fields[3], "rows=3")
	assert.Contains(t, fields[3], "persisted=3")
	uploadID := fields[1]

	written, err := os.ReadFile(filepath.Join(reports, "upload_"+uploadID+".csv"))
	require.NoError(t, err)
	assert.Contains(t, string(written), "risk_band")

	t.Run("report renders the stored upload", func(t *testing.T) {
		out, _, err := execute(t, "", "report", "--manifest", manifest, "--db", db, "--format", "csv", uploadID)
		require.NoError(t, err)
		assert.Equal(t, 4, strings.Count(out, "\n"))
		assert.Contains(t, out, "Rewa")
	})

	t.Run("report writes to a file", func(t *testing.T) {
		path := filepath.Join(dir, "upload.pdf")
		_, stderr, err := execute(t, "", "report", "--manifest", manifest, "--db", db, "-o", path, uploadID)
		require.NoError(t, err)
		assert.Contains(t, stderr, "wrote "+path)
		body, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
	})

	t.Run("unknown upload fails", func(t *testing.T) {
		_, _, err := execute(t, "", "report", "--manifest", manifest, "--db", db, "no-such-upload")
		assert.Error(t, err)
	})
}

func TestScoreNoMatches(t *testing.T) {
	dir := t.TempDir()
	_, _, err := execute(t, "", "score", "--manifest", manifest, "--db", filepath.Join(dir, "risk.db"),
		filepath.Join(dir, "*.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no upload files match")
}

func TestScoreReportsFailedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "good.csv"), testutil.SampleUploadCSV)
	writeFile(t, filepath.Join(dir, "empty.csv"), "")

	out, stderr, err := execute(t, "", "score", "--manifest", manifest, "--db", filepath.Join(dir, "risk.db"),
		filepath.Join(dir, "*.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	assert.Contains(t, stderr, "empty.csv")
	assert.Contains(t, out, "good.csv")
}

func TestAssess(t *testing.T) {
	applicant := `{
		"income": 1303834, "age": 23, "experience": 3,
		"marital_status": "single", "house_ownership": "rented", "car_ownership": "no",
		"profession": "Mechanical_engineer", "city": "Rewa", "state": "Madhya_Pradesh",
		"job_years": 3, "house_years": 13,
		"loan_amount": "250000", "loan_duration_months": 24, "interest_rate": "10"
	}`
	out, _, err := execute(t, applicant, "assess", "--manifest", manifest,
		"--db", filepath.Join(t.TempDir(), "risk.db"), "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"submission_id"`)
	assert.Contains(t, out, `"risk_band"`)

	_, _, err = execute(t, "{", "assess", "--manifest", manifest,
		"--db", filepath.Join(t.TempDir(), "risk.db"), "-")
	assert.Error(t, err)
}

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.csv"), "x")
	writeFile(t, filepath.Join(dir, "sub", "b.XLSX"), "x")
	writeFile(t, filepath.Join(dir, "sub", "deeper", "c.tsv"), "x")
	writeFile(t, filepath.Join(dir, "sub", "d.json"), "x")

	files, err := expandPatterns([]string{
		filepath.Join(dir, "**", "*"),
		filepath.Join(dir, "a.csv"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "sub", "b.XLSX"),
		filepath.Join(dir, "sub", "deeper", "c.tsv"),
	}, files)

	_, err = expandPatterns([]string{filepath.Join(dir, "sub", "*.json")})
	assert.Error(t, err)
}
