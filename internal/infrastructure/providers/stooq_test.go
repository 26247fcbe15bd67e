package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Date,Open,High,Low,Close,Volume
2026-01-05,468.2,471.0,467.1,470.5,51234000
2026-01-06,470.6,473.3,469.8,472.1,48012000
2026-01-07,472.0,472.9,468.4,469.0,55210000
`

func testProvider(baseURL string) *Stooq {
	cfg := DefaultStooqConfig()
	cfg.BaseURL = baseURL
	cfg.RPS = 1000 // don't throttle tests
	cfg.Burst = 1000
	return NewStooq(cfg)
}

func TestStooq_GetHistory(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, sampleCSV)
	}))
	defer srv.Close()

	p := testProvider(srv.URL)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	series, err := p.GetHistory(context.Background(), "SPY", start, end)
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Contains(t, gotQuery, "s=spy.us")
	assert.Contains(t, gotQuery, "d1=20260101")
	assert.Contains(t, gotQuery, "d2=20260131")

	assert.Equal(t, 470.5, series[0].Close)
	assert.Equal(t, 471.0, series[0].High)
	assert.Equal(t, 467.1, series[0].Low)
	assert.True(t, series[0].Timestamp.Before(series[1].Timestamp))
}

func TestStooq_SymbolMapping(t *testing.T) {
	assert.Equal(t, "spy.us", stooqSymbol("SPY"))
	assert.Equal(t, "^spx", stooqSymbol("^SPX"))
	assert.Equal(t, "bmw.de", stooqSymbol("BMW.DE"))
}

func TestStooq_MalformedRowsSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Date,Open,High,Low,Close,Volume\nNo data\n2026-01-05,1,2,0.5,1.5,100\n")
	}))
	defer srv.Close()

	p := testProvider(srv.URL)
	series, err := p.GetHistory(context.Background(), "XXXX", time.Now().AddDate(0, -1, 0), time.Now())
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 1.5, series[0].Close)
}

func TestStooq_ServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := testProvider(srv.URL)
	_, err := p.GetHistory(context.Background(), "SPY", time.Now().AddDate(0, -1, 0), time.Now())
	assert.Error(t, err)
}

func TestStooq_BreakerTripsAfterConsecutiveFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := testProvider(srv.URL)
	ctx := context.Background()
	start, end := time.Now().AddDate(0, -1, 0), time.Now()

	for i := 0; i < 5; i++ {
		_, err := p.GetHistory(ctx, "SPY", start, end)
		assert.Error(t, err)
	}

	// Only the first three reach the server; the tripped breaker fails
	// the rest fast.
	assert.Equal(t, 3, hits)
}
