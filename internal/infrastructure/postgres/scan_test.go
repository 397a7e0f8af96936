package postgres

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/domain/valueobject"
)

// fakeRow assigns its values to the scan destinations in order.
type fakeRow struct {
	values []any
	err    error
}

func (f fakeRow) Scan(dest ...any) error {
	if f.err != nil {
		return f.err
	}
	if len(dest) != len(f.values) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(f.values[i]))
	}
	return nil
}

func recordValues() []any {
	return []any{
		1303834.0, 23.0, 3.0,
		"single", "rented", "no",
		"Mechanical_engineer", "Rewa", "Madhya_Pradesh",
		3.0, 13.0,
	}
}

func TestScanSubmission(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("reconstructs the aggregate", func(t *testing.T) {
		values := []any{"sub-1", "user-1"}
		values = append(values, recordValues()...)
		values = append(values,
			decimal.NewFromInt(45000), 24, decimal.NewFromInt(12), "first loan",
			0.25, "Low", 0, decimal.RequireFromString("4050"),
			"success", []byte(`{"Income":0.4}`), now,
		)

		s, err := scanSubmission(fakeRow{values: values})
		require.NoError(t, err)
		assert.Equal(t, "sub-1", s.ID())
		assert.Equal(t, "user-1", s.UserID())
		assert.Equal(t, "Rewa", s.Applicant().City)
		assert.Equal(t, 24, s.Terms().DurationMonths)
		assert.True(t, s.Result().RiskBand.Equal(valueobject.RiskBandLow))
		assert.True(t, s.Result().EstimatedProfit.Equal(decimal.NewFromInt(4050)))
		assert.Equal(t, map[string]float64{"Income": 0.4}, s.FeatureImportance())
		assert.Equal(t, now, s.CreatedAt())
		assert.Empty(t, s.DomainEvents())
	})

	t.Run("maps no rows to ErrNotFound", func(t *testing.T) {
		_, err := scanSubmission(fakeRow{err: pgx.ErrNoRows})
		assert.ErrorIs(t, err, port.ErrNotFound)
	})

	t.Run("rejects an unknown band", func(t *testing.T) {
		values := []any{"sub-1", "user-1"}
		values = append(values, recordValues()...)
		values = append(values,
			decimal.NewFromInt(1), 1, decimal.Zero, "",
			0.5, "Extreme", 0, decimal.Zero,
			"success", []byte(`{}`), now,
		)
		_, err := scanSubmission(fakeRow{values: values})
		assert.Error(t, err)
	})
}

func TestScanUpload(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	finalized := now.Add(time.Second)

	values := []any{
		"up-1", "bank-1", "clients.csv", "monthly", "FINALIZED",
		3, 1, 1, 1,
		2, 1,
		[]byte(`[{"row":2,"reason":"duplicate key"}]`),
		[]byte(`[{"row":1,"reason":"CITY: unseen value \"Atlantis\""}]`),
		[]byte(`["column STATE not found, set to 0"]`),
		"", now, finalized, &finalized,
	}

	u, err := scanUpload(fakeRow{values: values})
	require.NoError(t, err)
	assert.Equal(t, valueobject.BatchStatusFinalized, u.Status())
	assert.Equal(t, "up-1", u.Summary().UploadID)
	assert.Equal(t, 3, u.Summary().TotalRows)
	assert.Equal(t, 1, u.Summary().FailedRows())
	assert.Equal(t, 2, u.Summary().Failures[0].Row)
	assert.Len(t, u.Summary().Degraded, 1)
	assert.Equal(t, []string{"column STATE not found, set to 0"}, u.Summary().Notes)
	assert.Equal(t, finalized, u.FinalizedAt())
}

func TestScanUpload_NotFinalized(t *testing.T) {
	now := time.Now().UTC()
	var none *time.Time
	values := []any{
		"up-2", "bank-1", "clients.csv", "", "SCORING",
		5, 0, 0, 0, 0, 0,
		[]byte(`[]`), []byte(`[]`), []byte(`[]`),
		"", now, now, none,
	}

	u, err := scanUpload(fakeRow{values: values})
	require.NoError(t, err)
	assert.True(t, u.FinalizedAt().IsZero())
	assert.Empty(t, u.Summary().Failures)
}
