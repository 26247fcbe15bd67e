package spread

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOptionSpread_BidTooLow(t *testing.T) {
	v := NewValidator(DefaultConfig())

	verdict := v.ValidateOptionSpread(0.03, 0.10, "SPY", 450)

	assert.False(t, verdict.Valid)
	assert.Equal(t, ReasonBidTooLow, verdict.ReasonCode)
	assert.Equal(t, Skip, verdict.Action)
}

func TestValidateOptionSpread_InvalidPrices(t *testing.T) {
	v := NewValidator(Config{MaxSpreadPct: 0.20, MaxSpreadDollars: 0.50, MinBid: 0})

	verdict := v.ValidateOptionSpread(0, 1.00, "SPY", 450)
	assert.False(t, verdict.Valid)
	assert.Equal(t, ReasonInvalidPrices, verdict.ReasonCode)

	verdict = v.ValidateOptionSpread(1.00, -0.10, "SPY", 450)
	assert.False(t, verdict.Valid)
	assert.Equal(t, ReasonInvalidPrices, verdict.ReasonCode)
}

func TestValidateOptionSpread_CrossedMarket(t *testing.T) {
	v := NewValidator(DefaultConfig())

	verdict := v.ValidateOptionSpread(1.00, 0.90, "SPY", 450)

	assert.False(t, verdict.Valid)
	assert.Equal(t, ReasonCrossedMarket, verdict.ReasonCode)
	assert.Contains(t, verdict.Reason, "data error")
}

func TestValidateOptionSpread_SpreadPctTooWide(t *testing.T) {
	v := NewValidator(DefaultConfig())

	// spread 0.30 over mid 1.15 = 26% > 20%
	verdict := v.ValidateOptionSpread(1.00, 1.30, "SPY", 450)

	assert.False(t, verdict.Valid)
	assert.Equal(t, ReasonSpreadPctWide, verdict.ReasonCode)
	assert.Contains(t, verdict.Reason, "too wide")
}

func TestValidateOptionSpread_SpreadDollarsTooWide(t *testing.T) {
	v := NewValidator(DefaultConfig())

	// 0.60 absolute spread over mid 5.30 is 11.3% (passes pct) but > $0.50
	verdict := v.ValidateOptionSpread(5.00, 5.60, "SPY", 450)

	assert.False(t, verdict.Valid)
	assert.Equal(t, ReasonSpreadAbsWide, verdict.ReasonCode)
}

func TestValidateOptionSpread_Valid(t *testing.T) {
	v := NewValidator(DefaultConfig())

	verdict := v.ValidateOptionSpread(1.00, 1.05, "SPY", 450)

	require.True(t, verdict.Valid)
	assert.Equal(t, Proceed, verdict.Action)
	assert.Equal(t, ReasonOK, verdict.ReasonCode)
	assert.InDelta(t, 1.025, verdict.Mid, 1e-9)
	assert.InDelta(t, 0.0488, verdict.SpreadPct, 0.001)
	assert.InDelta(t, 0.05, verdict.SpreadDollars, 1e-9)
}

func TestValidateOptionSpread_CheckOrder(t *testing.T) {
	v := NewValidator(DefaultConfig())

	// Crossed AND below min bid: min-bid check fires first.
	verdict := v.ValidateOptionSpread(0.01, 0.005, "SPY", 450)
	assert.Equal(t, ReasonBidTooLow, verdict.ReasonCode)
}

func TestValidateOptionsChain(t *testing.T) {
	v := NewValidator(DefaultConfig())

	quotes := []Quote{
		{Symbol: "SPY", Strike: 450, Bid: 1.00, Ask: 1.05},
		{Symbol: "SPY", Strike: 455, Bid: 1.00, Ask: 0.90}, // crossed
		{Symbol: "SPY", Strike: 460, Bid: 2.00, Ask: 2.10},
	}

	result := v.ValidateOptionsChain(quotes, 2)

	assert.True(t, result.Valid)
	assert.Equal(t, 2, result.ValidCount)
	assert.Equal(t, 1, result.InvalidCount)
	require.Len(t, result.ValidOptions, 2)
	assert.Equal(t, 450.0, result.ValidOptions[0].Quote.Strike)
	assert.Equal(t, 460.0, result.ValidOptions[1].Quote.Strike)

	// Input slice untouched.
	assert.Equal(t, 455.0, quotes[1].Strike)

	// Raising the bar flips the chain verdict, counts unchanged.
	result = v.ValidateOptionsChain(quotes, 3)
	assert.False(t, result.Valid)
	assert.Equal(t, 2, result.ValidCount)
}

func TestValidateOptionsChain_Empty(t *testing.T) {
	v := NewValidator(DefaultConfig())

	result := v.ValidateOptionsChain(nil, 0)
	assert.True(t, result.Valid)

	result = v.ValidateOptionsChain(nil, 1)
	assert.False(t, result.Valid)
}

func TestCheckLiquidity(t *testing.T) {
	c := NewLiquidityChecker(DefaultLiquidityConfig())

	// Good spread, healthy volume/OI.
	report := c.CheckLiquidity(Quote{Bid: 1.00, Ask: 1.05, Volume: 500, OpenInterest: 2000})
	assert.True(t, report.Passed)
	assert.InDelta(t, 25.0, report.VolumeOIRatio, 1e-9)

	// Good spread, no open interest.
	report = c.CheckLiquidity(Quote{Bid: 1.00, Ask: 1.05, Volume: 500})
	assert.False(t, report.Passed)
	assert.Equal(t, "No open interest", report.Reason)

	// Good spread, thin volume.
	report = c.CheckLiquidity(Quote{Bid: 1.00, Ask: 1.05, Volume: 10, OpenInterest: 2000})
	assert.False(t, report.Passed)
	assert.Contains(t, report.Reason, "volume/OI")

	// Bad spread short-circuits before the volume check.
	report = c.CheckLiquidity(Quote{Bid: 1.00, Ask: 1.30, Volume: 500, OpenInterest: 2000})
	assert.False(t, report.Passed)
	assert.Contains(t, report.Reason, "too wide")
}
