package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/optrun/optrun/internal/domain/volatility"
	"github.com/optrun/optrun/internal/persistence"
)

// volRepo implements persistence.VolRepo for PostgreSQL.
type volRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewVolRepo creates a PostgreSQL volatility record repository.
func NewVolRepo(db *sqlx.DB, timeout time.Duration) persistence.VolRepo {
	return &volRepo{db: db, timeout: timeout}
}

// Connect opens a PostgreSQL connection pool from a DSN.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// volRecordRow is the storage shape; the HV series travels as JSONB.
type volRecordRow struct {
	Symbol       string    `db:"symbol"`
	LookbackDays int       `db:"lookback_days"`
	ComputedAt   time.Time `db:"computed_at"`
	HVSeries     []byte    `db:"hv_series"`
	CurrentHV    float64   `db:"current_hv"`
	IVRank       float64   `db:"iv_rank"`
	HVMean       float64   `db:"hv_mean"`
	HVStd        float64   `db:"hv_std"`
	HVMin        float64   `db:"hv_min"`
	HVMax        float64   `db:"hv_max"`
	HighIV       bool      `db:"high_iv"`
	LowIV        bool      `db:"low_iv"`
}

func (r *volRepo) SaveRecord(ctx context.Context, rec volatility.Record) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	seriesJSON, err := json.Marshal(rec.HVSeries)
	if err != nil {
		return fmt.Errorf("marshal hv series: %w", err)
	}

	query := `
		INSERT INTO volatility_records
		(symbol, lookback_days, computed_at, hv_series, current_hv, iv_rank,
		 hv_mean, hv_std, hv_min, hv_max, high_iv, low_iv)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (symbol, computed_at) DO UPDATE SET
			lookback_days = EXCLUDED.lookback_days,
			hv_series = EXCLUDED.hv_series,
			current_hv = EXCLUDED.current_hv,
			iv_rank = EXCLUDED.iv_rank,
			hv_mean = EXCLUDED.hv_mean,
			hv_std = EXCLUDED.hv_std,
			hv_min = EXCLUDED.hv_min,
			hv_max = EXCLUDED.hv_max,
			high_iv = EXCLUDED.high_iv,
			low_iv = EXCLUDED.low_iv`

	_, err = r.db.ExecContext(ctx, query,
		rec.Symbol, rec.LookbackDays, rec.ComputedAt, seriesJSON,
		rec.CurrentHV, rec.IVRank, rec.HVMean, rec.HVStd, rec.HVMin, rec.HVMax,
		rec.HighIV, rec.LowIV)
	if err != nil {
		return fmt.Errorf("upsert volatility record for %s: %w", rec.Symbol, err)
	}
	return nil
}

func (r *volRepo) LatestRecord(ctx context.Context, symbol string) (*volatility.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT symbol, lookback_days, computed_at, hv_series, current_hv,
		       iv_rank, hv_mean, hv_std, hv_min, hv_max, high_iv, low_iv
		FROM volatility_records
		WHERE symbol = $1
		ORDER BY computed_at DESC
		LIMIT 1`

	var row volRecordRow
	if err := r.db.GetContext(ctx, &row, query, symbol); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load latest volatility record for %s: %w", symbol, err)
	}

	rec := volatility.Record{
		Symbol:       row.Symbol,
		LookbackDays: row.LookbackDays,
		ComputedAt:   row.ComputedAt,
		CurrentHV:    row.CurrentHV,
		IVRank:       row.IVRank,
		HVMean:       row.HVMean,
		HVStd:        row.HVStd,
		HVMin:        row.HVMin,
		HVMax:        row.HVMax,
		HighIV:       row.HighIV,
		LowIV:        row.LowIV,
	}
	if len(row.HVSeries) > 0 {
		if err := json.Unmarshal(row.HVSeries, &rec.HVSeries); err != nil {
			return nil, fmt.Errorf("decode hv series for %s: %w", symbol, err)
		}
	}
	return &rec, nil
}
