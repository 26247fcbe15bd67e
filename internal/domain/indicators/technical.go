// Package indicators computes technical indicators over price series and
// reduces them to a single directional signal. Nothing here is cached;
// every call recomputes from the input.
package indicators

import (
	"errors"
	"math"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrBackendUnavailable marks the whole analysis as unavailable rather
// than returning partial results.
var ErrBackendUnavailable = errors.New("indicator backend unavailable")

// Signal is a categorical indicator verdict.
type Signal string

const (
	Bullish    Signal = "BULLISH"
	Bearish    Signal = "BEARISH"
	Neutral    Signal = "NEUTRAL"
	Oversold   Signal = "OVERSOLD"
	Overbought Signal = "OVERBOUGHT"
)

// Signal tags contributed to a snapshot.
const (
	TagRSIOversold   = "RSI_OVERSOLD"
	TagRSIOverbought = "RSI_OVERBOUGHT"
	TagMACDBullish   = "MACD_BULLISH"
	TagMACDBearish   = "MACD_BEARISH"
)

// Bands is a Bollinger band reading. Position is the current price's
// normalized location within the band: 0 at the lower band, 1 at the
// upper. Values outside [0,1] are intentional and signal a breakout.
type Bands struct {
	Upper    float64 `json:"upper"`
	Middle   float64 `json:"middle"`
	Lower    float64 `json:"lower"`
	Width    float64 `json:"width"`
	Position float64 `json:"position"`
	Signal   Signal  `json:"signal"`
}

// MACD is a trend-convergence reading. Crossover is an approximate
// recent-cross heuristic (lines within an absolute tolerance), not a true
// zero-crossing detector.
type MACD struct {
	Line       float64 `json:"macd"`
	SignalLine float64 `json:"signal"`
	Histogram  float64 `json:"histogram"`
	Trend      Signal  `json:"trend"`
	Crossover  bool    `json:"crossover"`
}

// Snapshot aggregates one pass over a price series. Indicators that could
// not be computed (insufficient samples) are nil.
type Snapshot struct {
	RSI     *float64 `json:"rsi,omitempty"`
	Bands   *Bands   `json:"bbands,omitempty"`
	MACD    *MACD    `json:"macd,omitempty"`
	ATR     *float64 `json:"atr,omitempty"`
	Signals []string `json:"signals"`
	Overall Signal   `json:"overall_signal"`
}

// Config holds the indicator periods.
type Config struct {
	RSIPeriod  int     `yaml:"rsi_period"`
	BBPeriod   int     `yaml:"bb_period"`
	BBStdDev   float64 `yaml:"bb_std_dev"`
	MACDFast   int     `yaml:"macd_fast"`
	MACDSlow   int     `yaml:"macd_slow"`
	MACDSignal int     `yaml:"macd_signal"`
	ATRPeriod  int     `yaml:"atr_period"`
}

// DefaultConfig returns the standard periods: RSI 14, Bollinger 20/2.0,
// MACD 12/26/9, ATR 14.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:  14,
		BBPeriod:   20,
		BBStdDev:   2.0,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		ATRPeriod:  14,
	}
}

// MACD/signal lines closer than this count as a recent crossover.
const crossoverTolerance = 0.1

// Engine computes indicators through an injected backend. Stateless apart
// from the warn-once guard; safe for concurrent use.
type Engine struct {
	backend  Backend
	cfg      Config
	warnOnce sync.Once
}

// NewEngine creates an engine over the given backend. A nil backend is
// tolerated: every computation then reports unavailable.
func NewEngine(backend Backend, cfg Config) *Engine {
	return &Engine{backend: backend, cfg: cfg}
}

// RSI returns the smoothed relative-strength value over the configured
// period, or nil with fewer than period+1 samples.
func (e *Engine) RSI(closes []float64) *float64 {
	if e.backend == nil || len(closes) < e.cfg.RSIPeriod+1 {
		return nil
	}
	out := e.backend.Rsi(closes, e.cfg.RSIPeriod)
	return lastValid(out)
}

// Bollinger returns the band values and the price's position within them,
// or nil with fewer than the period's samples. A zero-width band puts the
// position at 0.5.
func (e *Engine) Bollinger(closes []float64) *Bands {
	if e.backend == nil || len(closes) < e.cfg.BBPeriod {
		return nil
	}
	upper, middle, lower := e.backend.BBands(closes, e.cfg.BBPeriod, e.cfg.BBStdDev)
	if len(upper) == 0 || len(middle) == 0 || len(lower) == 0 {
		return nil
	}

	u, m, l := upper[len(upper)-1], middle[len(middle)-1], lower[len(lower)-1]
	if math.IsNaN(u) || math.IsNaN(m) || math.IsNaN(l) {
		return nil
	}

	price := closes[len(closes)-1]
	width := u - l
	position := 0.5
	if width > 0 {
		position = (price - l) / width
	}

	signal := Neutral
	switch {
	case position < 0.2:
		signal = Oversold
	case position > 0.8:
		signal = Overbought
	}

	return &Bands{
		Upper:    u,
		Middle:   m,
		Lower:    l,
		Width:    width,
		Position: position,
		Signal:   signal,
	}
}

// MACDSignalLine returns the trend-convergence reading, or nil with fewer
// than slow+signal samples.
func (e *Engine) MACDSignalLine(closes []float64) *MACD {
	if e.backend == nil || len(closes) < e.cfg.MACDSlow+e.cfg.MACDSignal {
		return nil
	}
	line, signalLine, hist := e.backend.Macd(closes, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)
	if len(line) == 0 || len(signalLine) == 0 || len(hist) == 0 {
		return nil
	}

	m := line[len(line)-1]
	s := signalLine[len(signalLine)-1]
	h := hist[len(hist)-1]
	if math.IsNaN(m) || math.IsNaN(s) || math.IsNaN(h) {
		return nil
	}

	trend := Neutral
	switch {
	case m > s && h > 0:
		trend = Bullish
	case m < s && h < 0:
		trend = Bearish
	}

	return &MACD{
		Line:       m,
		SignalLine: s,
		Histogram:  h,
		Trend:      trend,
		Crossover:  math.Abs(m-s) < crossoverTolerance,
	}
}

// ATR returns the average true range, or nil without period+1 complete
// high/low/close samples.
func (e *Engine) ATR(high, low, closes []float64) *float64 {
	if e.backend == nil ||
		len(closes) < e.cfg.ATRPeriod+1 ||
		len(high) != len(closes) || len(low) != len(closes) {
		return nil
	}
	out := e.backend.Atr(high, low, closes, e.cfg.ATRPeriod)
	return lastValid(out)
}

// Analyze runs all indicators over the series and reduces them to signal
// tags plus one overall signal. MACD trend is the sole tie-break authority
// for the aggregate; RSI and band signals only contribute tags. High/low
// series are optional; without them ATR is skipped. When the backend is
// absent the whole analysis is unavailable rather than partial.
func (e *Engine) Analyze(closes, high, low []float64) (*Snapshot, error) {
	if e.backend == nil {
		e.warnOnce.Do(func() {
			log.Warn().Msg("Indicator backend unavailable - technical analysis disabled")
		})
		return nil, ErrBackendUnavailable
	}

	snap := &Snapshot{
		RSI:     e.RSI(closes),
		Bands:   e.Bollinger(closes),
		MACD:    e.MACDSignalLine(closes),
		Signals: []string{},
		Overall: Neutral,
	}
	if high != nil && low != nil {
		snap.ATR = e.ATR(high, low, closes)
	}

	if snap.RSI != nil {
		switch {
		case *snap.RSI < 30:
			snap.Signals = append(snap.Signals, TagRSIOversold)
		case *snap.RSI > 70:
			snap.Signals = append(snap.Signals, TagRSIOverbought)
		}
	}
	if snap.Bands != nil {
		snap.Signals = append(snap.Signals, "BB_"+string(snap.Bands.Signal))
	}
	if snap.MACD != nil {
		snap.Signals = append(snap.Signals, "MACD_"+string(snap.MACD.Trend))
	}

	for _, tag := range snap.Signals {
		switch tag {
		case TagMACDBullish:
			snap.Overall = Bullish
		case TagMACDBearish:
			snap.Overall = Bearish
		}
	}

	return snap, nil
}

func lastValid(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	v := values[len(values)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
