// Package spread gates option quotes on bid-ask quality. Wide spreads mean
// poor liquidity, stale data, or market-maker trouble; none of those are
// tradable.
package spread

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/optrun/optrun/internal/telemetry/metrics"
)

// Action tells the caller what to do with the quote.
type Action string

const (
	Proceed Action = "PROCEED"
	Skip    Action = "SKIP"
)

// ReasonCode identifies which check failed, for machine consumers.
type ReasonCode string

const (
	ReasonOK            ReasonCode = "ok"
	ReasonBidTooLow     ReasonCode = "bid_too_low"
	ReasonInvalidPrices ReasonCode = "invalid_prices"
	ReasonCrossedMarket ReasonCode = "crossed_market"
	ReasonSpreadPctWide ReasonCode = "spread_pct_too_wide"
	ReasonSpreadAbsWide ReasonCode = "spread_dollars_too_wide"
)

// Verdict is the outcome of validating one quote. Mid, SpreadPct and
// SpreadDollars are populated from the crossed-market check onward; a
// valid verdict always carries all three and Action Proceed.
type Verdict struct {
	Valid         bool       `json:"valid"`
	ReasonCode    ReasonCode `json:"reason_code"`
	Reason        string     `json:"reason"`
	Bid           float64    `json:"bid"`
	Ask           float64    `json:"ask"`
	Mid           float64    `json:"mid,omitempty"`
	SpreadPct     float64    `json:"spread_pct,omitempty"`
	SpreadDollars float64    `json:"spread_dollars,omitempty"`
	Action        Action     `json:"action"`
}

// Quote is one option quote from a chain.
type Quote struct {
	Symbol       string  `json:"symbol"`
	Strike       float64 `json:"strike"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	Volume       int64   `json:"volume,omitempty"`
	OpenInterest int64   `json:"open_interest,omitempty"`
}

// ChainItem pairs a quote with its verdict.
type ChainItem struct {
	Quote   Quote   `json:"quote"`
	Verdict Verdict `json:"verdict"`
}

// ChainResult is the outcome of validating a whole chain slice.
type ChainResult struct {
	Valid          bool        `json:"valid"`
	ValidCount     int         `json:"valid_count"`
	InvalidCount   int         `json:"invalid_count"`
	Required       int         `json:"required"`
	ValidOptions   []ChainItem `json:"valid_options"`
	InvalidOptions []ChainItem `json:"invalid_options"`
}

// Config holds the validation thresholds.
type Config struct {
	MaxSpreadPct     float64 `yaml:"max_spread_pct"`     // spread as fraction of mid
	MaxSpreadDollars float64 `yaml:"max_spread_dollars"` // absolute spread
	MinBid           float64 `yaml:"min_bid"`            // quotes below this are dead
}

// DefaultConfig returns the standard thresholds: 20% of mid, $0.50
// absolute, $0.05 minimum bid.
func DefaultConfig() Config {
	return Config{
		MaxSpreadPct:     0.20,
		MaxSpreadDollars: 0.50,
		MinBid:           0.05,
	}
}

// Validator checks bid-ask spread quality. Pure computation, no state.
type Validator struct {
	cfg Config
}

// NewValidator creates a validator with the given thresholds.
func NewValidator(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateOptionSpread runs the ordered checks against a single quote.
// The first failing check wins. Symbol and strike are for logging only.
func (v *Validator) ValidateOptionSpread(bid, ask float64, symbol string, strike float64) Verdict {
	verdict := v.validate(bid, ask)
	metrics.IncSpreadVerdict(string(verdict.ReasonCode))

	if verdict.Valid {
		log.Debug().
			Str("symbol", symbol).
			Float64("strike", strike).
			Float64("bid", bid).
			Float64("ask", ask).
			Float64("spread_pct", verdict.SpreadPct).
			Msg("Spread OK")
	} else {
		log.Debug().
			Str("symbol", symbol).
			Float64("strike", strike).
			Str("reason", verdict.Reason).
			Msg("Spread rejected")
	}
	return verdict
}

func (v *Validator) validate(bid, ask float64) Verdict {
	if bid < v.cfg.MinBid {
		return Verdict{
			ReasonCode: ReasonBidTooLow,
			Reason:     fmt.Sprintf("Bid too low (%.2f < %.2f)", bid, v.cfg.MinBid),
			Bid:        bid, Ask: ask,
			Action: Skip,
		}
	}

	if bid <= 0 || ask <= 0 {
		return Verdict{
			ReasonCode: ReasonInvalidPrices,
			Reason:     fmt.Sprintf("Invalid prices (bid=%.2f, ask=%.2f)", bid, ask),
			Bid:        bid, Ask: ask,
			Action: Skip,
		}
	}

	if bid > ask {
		return Verdict{
			ReasonCode: ReasonCrossedMarket,
			Reason:     fmt.Sprintf("Bid > Ask (%.2f > %.2f) - data error", bid, ask),
			Bid:        bid, Ask: ask,
			Action: Skip,
		}
	}

	mid := (bid + ask) / 2
	spreadDollars := ask - bid
	spreadPct := math.Inf(1)
	if mid > 0 {
		spreadPct = spreadDollars / mid
	}

	if spreadPct > v.cfg.MaxSpreadPct {
		return Verdict{
			ReasonCode: ReasonSpreadPctWide,
			Reason:     fmt.Sprintf("Spread too wide (%.1f%% > %.1f%%)", spreadPct*100, v.cfg.MaxSpreadPct*100),
			Bid:        bid, Ask: ask,
			Mid: mid, SpreadPct: spreadPct, SpreadDollars: spreadDollars,
			Action: Skip,
		}
	}

	if spreadDollars > v.cfg.MaxSpreadDollars {
		return Verdict{
			ReasonCode: ReasonSpreadAbsWide,
			Reason:     fmt.Sprintf("Spread too wide ($%.2f > $%.2f)", spreadDollars, v.cfg.MaxSpreadDollars),
			Bid:        bid, Ask: ask,
			Mid: mid, SpreadPct: spreadPct, SpreadDollars: spreadDollars,
			Action: Skip,
		}
	}

	return Verdict{
		Valid:      true,
		ReasonCode: ReasonOK,
		Reason:     "Spread acceptable",
		Bid:        bid, Ask: ask,
		Mid: mid, SpreadPct: spreadPct, SpreadDollars: spreadDollars,
		Action: Proceed,
	}
}

// DefaultRequiredValid is the conventional chain pass threshold.
const DefaultRequiredValid = 2

// ValidateOptionsChain validates every quote independently, partitions the
// chain into valid and invalid lists, and declares the chain tradable only
// if at least requiredValid quotes pass. The threshold is taken literally;
// zero means any chain passes. The input is never mutated or reordered,
// and one bad quote never blocks evaluating the rest.
func (v *Validator) ValidateOptionsChain(options []Quote, requiredValid int) ChainResult {
	result := ChainResult{Required: requiredValid}

	for _, opt := range options {
		verdict := v.ValidateOptionSpread(opt.Bid, opt.Ask, opt.Symbol, opt.Strike)
		item := ChainItem{Quote: opt, Verdict: verdict}
		if verdict.Valid {
			result.ValidOptions = append(result.ValidOptions, item)
		} else {
			result.InvalidOptions = append(result.InvalidOptions, item)
		}
	}

	result.ValidCount = len(result.ValidOptions)
	result.InvalidCount = len(result.InvalidOptions)
	result.Valid = result.ValidCount >= requiredValid
	return result
}
