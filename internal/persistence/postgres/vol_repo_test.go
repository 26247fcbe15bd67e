package postgres

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optrun/optrun/internal/domain/volatility"
)

func newMockRepo(t *testing.T) (*volRepo, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")
	return &volRepo{db: db, timeout: time.Second}, mock
}

func sampleRecord() volatility.Record {
	return volatility.Record{
		Symbol:       "SPY",
		LookbackDays: 252,
		ComputedAt:   time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC),
		HVSeries:     []float64{14.2, 15.8, 22.5},
		CurrentHV:    22.5,
		IVRank:       66.7,
		HVMean:       17.5,
		HVStd:        4.4,
		HVMin:        14.2,
		HVMax:        22.5,
		HighIV:       true,
	}
}

func TestVolRepo_SaveRecord(t *testing.T) {
	repo, mock := newMockRepo(t)
	rec := sampleRecord()

	mock.ExpectExec("INSERT INTO volatility_records").
		WithArgs(rec.Symbol, rec.LookbackDays, rec.ComputedAt, []byte(`[14.2,15.8,22.5]`),
			rec.CurrentHV, rec.IVRank, rec.HVMean, rec.HVStd, rec.HVMin, rec.HVMax,
			rec.HighIV, rec.LowIV).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SaveRecord(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVolRepo_LatestRecord(t *testing.T) {
	repo, mock := newMockRepo(t)
	rec := sampleRecord()

	rows := sqlmock.NewRows([]string{
		"symbol", "lookback_days", "computed_at", "hv_series", "current_hv",
		"iv_rank", "hv_mean", "hv_std", "hv_min", "hv_max", "high_iv", "low_iv",
	}).AddRow(rec.Symbol, rec.LookbackDays, rec.ComputedAt, []byte(`[14.2,15.8,22.5]`),
		rec.CurrentHV, rec.IVRank, rec.HVMean, rec.HVStd, rec.HVMin, rec.HVMax,
		rec.HighIV, rec.LowIV)

	mock.ExpectQuery("SELECT (.+) FROM volatility_records").
		WithArgs("SPY").
		WillReturnRows(rows)

	got, err := repo.LatestRecord(context.Background(), "SPY")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec, *got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVolRepo_LatestRecord_NoRows(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM volatility_records").
		WithArgs("TSLA").
		WillReturnRows(sqlmock.NewRows([]string{"symbol"}))

	got, err := repo.LatestRecord(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Nil(t, got)
}
