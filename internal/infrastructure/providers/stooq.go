// Package providers holds concrete market-data collaborators. The engines
// only ever see the data.HistoryProvider interface; everything here -
// breaker state, rate limits, wire formats - stays behind it.
package providers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/optrun/optrun/internal/data"
)

// StooqConfig configures the daily-bars CSV provider.
type StooqConfig struct {
	BaseURL            string  `yaml:"base_url"`
	RequestTimeoutSecs int     `yaml:"request_timeout_secs"`
	RPS                float64 `yaml:"rps"`
	Burst              int     `yaml:"burst"`
}

// RequestTimeout returns the per-request timeout as a time.Duration.
func (c StooqConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// DefaultStooqConfig returns conservative free-tier settings.
func DefaultStooqConfig() StooqConfig {
	return StooqConfig{
		BaseURL:            "https://stooq.com/q/d/l/",
		RequestTimeoutSecs: 10,
		RPS:                2,
		Burst:              2,
	}
}

// Stooq fetches daily OHLC history as CSV. Requests pass through a token
// bucket and a circuit breaker; a tripped breaker fails fast, which the
// volatility engine reads as insufficient data.
type Stooq struct {
	cfg     StooqConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewStooq creates the provider.
func NewStooq(cfg StooqConfig) *Stooq {
	settings := gobreaker.Settings{
		Name:     "stooq",
		Interval: time.Minute,
		Timeout:  time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Provider circuit breaker state change")
		},
	}

	return &Stooq{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.RequestTimeout()},
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
	}
}

// GetHistory implements data.HistoryProvider.
func (p *Stooq) GetHistory(ctx context.Context, symbol string, start, end time.Time) (data.PriceSeries, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetch(ctx, symbol, start, end)
	})
	if err != nil {
		return nil, err
	}
	return result.(data.PriceSeries), nil
}

func (p *Stooq) fetch(ctx context.Context, symbol string, start, end time.Time) (data.PriceSeries, error) {
	url := fmt.Sprintf("%s?s=%s&d1=%s&d2=%s&i=d",
		p.cfg.BaseURL, stooqSymbol(symbol),
		start.Format("20060102"), end.Format("20060102"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch history for %s: status %d", symbol, resp.StatusCode)
	}

	series, err := parseDailyCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse history for %s: %w", symbol, err)
	}

	log.Debug().Str("symbol", symbol).Int("bars", len(series)).Msg("Fetched price history")
	return series, nil
}

// parseDailyCSV reads Date,Open,High,Low,Close,Volume rows. Rows that do
// not parse (holiday placeholders, "No data" bodies) are skipped.
func parseDailyCSV(r io.Reader) (data.PriceSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	var series data.PriceSeries
	for i, rec := range records {
		if i == 0 || len(rec) < 5 {
			continue // header or malformed row
		}
		ts, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			continue
		}
		high, err1 := strconv.ParseFloat(rec[2], 64)
		low, err2 := strconv.ParseFloat(rec[3], 64)
		closePx, err3 := strconv.ParseFloat(rec[4], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		series = append(series, data.Bar{
			Timestamp: ts,
			Close:     closePx,
			High:      high,
			Low:       low,
		})
	}
	return series, nil
}

// stooqSymbol maps a plain US ticker to stooq's form; index symbols and
// symbols that already carry a market suffix pass through.
func stooqSymbol(symbol string) string {
	s := strings.ToLower(symbol)
	if strings.Contains(s, ".") || strings.HasPrefix(s, "^") {
		return s
	}
	return s + ".us"
}
