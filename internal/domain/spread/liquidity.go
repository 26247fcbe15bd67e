package spread

import "fmt"

// LiquidityConfig adds volume and open-interest requirements on top of the
// spread checks for callers that have chain statistics available.
type LiquidityConfig struct {
	Spread           Config  `yaml:"spread"`
	MinVolumeOIRatio float64 `yaml:"min_volume_oi_ratio"` // volume as % of open interest
}

// DefaultLiquidityConfig requires 10% daily volume relative to open
// interest in addition to the default spread thresholds.
func DefaultLiquidityConfig() LiquidityConfig {
	return LiquidityConfig{
		Spread:           DefaultConfig(),
		MinVolumeOIRatio: 10.0,
	}
}

// LiquidityReport is the combined spread plus volume/OI verdict.
type LiquidityReport struct {
	Passed        bool    `json:"passed"`
	Reason        string  `json:"reason,omitempty"`
	Spread        Verdict `json:"spread"`
	VolumeOIRatio float64 `json:"volume_oi_ratio"`
}

// LiquidityChecker layers a volume/open-interest gate over the spread
// validator. Contracts with zero open interest are always rejected.
type LiquidityChecker struct {
	cfg       LiquidityConfig
	validator *Validator
}

// NewLiquidityChecker creates a checker with the given thresholds.
func NewLiquidityChecker(cfg LiquidityConfig) *LiquidityChecker {
	return &LiquidityChecker{cfg: cfg, validator: NewValidator(cfg.Spread)}
}

// CheckLiquidity validates the quote's spread and its volume/OI ratio.
func (c *LiquidityChecker) CheckLiquidity(q Quote) LiquidityReport {
	report := LiquidityReport{
		Spread: c.validator.ValidateOptionSpread(q.Bid, q.Ask, q.Symbol, q.Strike),
	}

	if !report.Spread.Valid {
		report.Reason = report.Spread.Reason
		return report
	}

	if q.OpenInterest <= 0 {
		report.Reason = "No open interest"
		return report
	}

	report.VolumeOIRatio = float64(q.Volume) / float64(q.OpenInterest) * 100
	if report.VolumeOIRatio < c.cfg.MinVolumeOIRatio {
		report.Reason = fmt.Sprintf("Insufficient volume/OI ratio (%.1f%% < %.1f%%)",
			report.VolumeOIRatio, c.cfg.MinVolumeOIRatio)
		return report
	}

	report.Passed = true
	return report
}
