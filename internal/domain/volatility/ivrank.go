// Package volatility estimates an implied-volatility rank from historical
// price data. The percentile is computed against the instrument's own
// trailing historical-volatility series, not an option IV surface, so the
// rank is an HV rank in practice - an approximation of true IV rank, kept
// intentionally because downstream consumers depend on its behavior.
package volatility

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/optrun/optrun/internal/data"
	"github.com/optrun/optrun/internal/infrastructure/cache"
	"github.com/optrun/optrun/internal/telemetry/metrics"
)

const (
	// DefaultLookbackDays is one trading year.
	DefaultLookbackDays = 252
	// DefaultCacheTTL bounds how stale a cached rank may be.
	DefaultCacheTTL = time.Hour

	// rollingWindow is the HV window; it doubles as the minimum sample
	// count below which results are absent rather than wrong.
	rollingWindow = 20
	// tradingDays annualizes the daily return stddev.
	tradingDays = 252
)

// Record is a full volatility report for one symbol. Superseded, never
// mutated, when the cache TTL lapses.
type Record struct {
	Symbol       string    `json:"symbol" db:"symbol"`
	LookbackDays int       `json:"lookback_days" db:"lookback_days"`
	ComputedAt   time.Time `json:"computed_at" db:"computed_at"`
	HVSeries     []float64 `json:"hv_series"`
	CurrentHV    float64   `json:"current_hv" db:"current_hv"`
	IVRank       float64   `json:"iv_rank" db:"iv_rank"`
	HVMean       float64   `json:"hv_mean" db:"hv_mean"`
	HVStd        float64   `json:"hv_std" db:"hv_std"`
	HVMin        float64   `json:"hv_min" db:"hv_min"`
	HVMax        float64   `json:"hv_max" db:"hv_max"`
	HighIV       bool      `json:"high_iv" db:"high_iv"`
	LowIV        bool      `json:"low_iv" db:"low_iv"`
}

// Engine computes IV ranks with a per-(symbol, lookback) TTL cache. A
// single instance may be shared across goroutines; two simultaneous cache
// misses for the same key may both recompute, which is tolerated.
type Engine struct {
	provider data.HistoryProvider
	cache    *cache.TTLCache
	now      func() time.Time
}

// NewEngine creates an engine over the given history provider. TTL zero
// or negative falls back to the one-hour default.
func NewEngine(provider data.HistoryProvider, ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Engine{
		provider: provider,
		cache:    cache.New(ttl),
		now:      time.Now,
	}
}

// IVRank returns the percentile standing (0-100) of current historical
// volatility within its own trailing distribution over lookbackDays.
// Returns nil - never an error - when fewer than 20 samples are available,
// the provider fails, or the rolling series windows down to nothing. A
// constant price series yields rank 0, not nil: the HV series exists, it
// is just all zeros.
func (e *Engine) IVRank(ctx context.Context, symbol string, lookbackDays int) *float64 {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	key := cacheKey(symbol, lookbackDays)
	if v, ok := e.cache.Get(key); ok {
		metrics.IncIVCacheHit()
		log.Debug().Str("symbol", symbol).Msg("IV rank cache hit")
		rank := v.(float64)
		return &rank
	}
	metrics.IncIVCacheMiss()

	hv := e.fetchHVSeries(ctx, symbol, lookbackDays)
	if len(hv) == 0 {
		return nil
	}

	rank := percentileRank(hv)
	e.cache.Set(key, rank)

	log.Info().
		Str("symbol", symbol).
		Float64("iv_rank", rank).
		Float64("current_hv", hv[len(hv)-1]).
		Msg("IV rank computed")
	return &rank
}

// IVDetails reports the full volatility record for a symbol over the
// default lookback: HV distribution statistics plus HighIV/LowIV flags set
// when current HV sits beyond one standard deviation of the series mean.
// Both flags can be false; they can never both be true. Nil on
// insufficient data.
func (e *Engine) IVDetails(ctx context.Context, symbol string) *Record {
	hv := e.fetchHVSeries(ctx, symbol, DefaultLookbackDays)
	if len(hv) == 0 {
		return nil
	}

	current := hv[len(hv)-1]
	mean, std := stat.MeanStdDev(hv, nil)
	if math.IsNaN(std) {
		std = 0
	}
	min, max := hv[0], hv[0]
	for _, v := range hv {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}

	rank := percentileRank(hv)
	if cached := e.IVRank(ctx, symbol, DefaultLookbackDays); cached != nil {
		rank = *cached
	}

	return &Record{
		Symbol:       symbol,
		LookbackDays: DefaultLookbackDays,
		ComputedAt:   e.now(),
		HVSeries:     hv,
		CurrentHV:    current,
		IVRank:       rank,
		HVMean:       mean,
		HVStd:        std,
		HVMin:        min,
		HVMax:        max,
		HighIV:       current > mean+std,
		LowIV:        current < mean-std,
	}
}

// ClearCache wipes the whole rank cache. There is no selective
// invalidation; callers needing freshness wait out the TTL or clear.
func (e *Engine) ClearCache() {
	e.cache.Clear()
	log.Info().Msg("IV rank cache cleared")
}

// fetchHVSeries pulls price history and computes the rolling annualized
// historical-volatility series in percent. Empty on any failure.
func (e *Engine) fetchHVSeries(ctx context.Context, symbol string, lookbackDays int) []float64 {
	end := e.now()
	start := end.AddDate(0, 0, -lookbackDays)

	series, err := e.provider.GetHistory(ctx, symbol, start, end)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("History fetch failed for IV rank")
		return nil
	}
	if len(series) < rollingWindow {
		log.Warn().Str("symbol", symbol).Int("bars", len(series)).Msg("Insufficient data for IV rank")
		return nil
	}

	returns := series.Returns()
	if len(returns) < rollingWindow {
		return nil
	}

	hv := make([]float64, 0, len(returns)-rollingWindow+1)
	for i := rollingWindow; i <= len(returns); i++ {
		sd := stat.StdDev(returns[i-rollingWindow:i], nil)
		hv = append(hv, sd*math.Sqrt(tradingDays)*100)
	}
	return hv
}

// percentileRank is the share of past values strictly below the latest
// one, scaled to 0-100. The latest value competes against the whole
// series, itself included.
func percentileRank(hv []float64) float64 {
	current := hv[len(hv)-1]
	below := 0
	for _, v := range hv {
		if v < current {
			below++
		}
	}
	return float64(below) / float64(len(hv)) * 100
}

func cacheKey(symbol string, lookbackDays int) string {
	return fmt.Sprintf("%s:%d", symbol, lookbackDays)
}

// SetClock overrides the engine clock. Test hook.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
	e.cache.SetClock(now)
}
