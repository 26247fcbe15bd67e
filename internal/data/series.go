package data

import (
	"context"
	"time"
)

// Bar is a single daily price sample. High and Low are zero when the
// source only carries closes.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Close     float64   `json:"close"`
	High      float64   `json:"high,omitempty"`
	Low       float64   `json:"low,omitempty"`
}

// PriceSeries is an ordered sequence of bars, ascending by timestamp with
// no duplicate timestamps. It is treated as immutable once handed to a
// calculation.
type PriceSeries []Bar

// Closes returns the close column of the series.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high column of the series.
func (s PriceSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.High
	}
	return out
}

// Lows returns the low column of the series.
func (s PriceSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Low
	}
	return out
}

// Returns computes simple percent-change returns between consecutive
// closes. Bars with a non-positive previous close are skipped.
func (s PriceSeries) Returns() []float64 {
	if len(s) < 2 {
		return nil
	}
	out := make([]float64, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		prev := s[i-1].Close
		if prev <= 0 {
			continue
		}
		out = append(out, (s[i].Close-prev)/prev)
	}
	return out
}

// HistoryProvider supplies daily price history for a symbol. Engines treat
// any error or sparse result as insufficient data rather than propagating
// the underlying failure.
type HistoryProvider interface {
	GetHistory(ctx context.Context, symbol string, start, end time.Time) (PriceSeries, error)
}
