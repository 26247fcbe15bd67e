// Package application composes the decision pipeline: IV rank and
// technical signals feed the DTE optimizer, and the spread validator gates
// individual quotes last. The engines never call each other; all
// composition happens here.
package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/optrun/optrun/internal/domain/dte"
	"github.com/optrun/optrun/internal/domain/indicators"
	"github.com/optrun/optrun/internal/domain/regime"
	"github.com/optrun/optrun/internal/domain/spread"
	"github.com/optrun/optrun/internal/domain/volatility"
	"github.com/optrun/optrun/internal/persistence"
	"github.com/optrun/optrun/internal/telemetry/metrics"
)

// Neutral inputs assumed when the caller cannot supply better ones, per
// the optimizer's defaults.
const (
	defaultVIXRatio = 1.0
	defaultIVRank   = 50.0
)

// EvalRequest carries one symbol's inputs through the pipeline. Highs,
// Lows and VIXRatio are optional.
type EvalRequest struct {
	Symbol       string
	Closes       []float64
	Highs        []float64
	Lows         []float64
	VIXRatio     *float64
	LookbackDays int
}

// Decision is the pipeline output for one symbol: the three decision
// stages plus the inputs they resolved to.
type Decision struct {
	RunID     string               `json:"run_id"`
	Symbol    string               `json:"symbol"`
	Timestamp time.Time            `json:"timestamp"`
	IVRank    *float64             `json:"iv_rank"`
	Technical *indicators.Snapshot `json:"technical"`
	Features  regime.Features      `json:"features"`
	Window    dte.Window           `json:"dte_window"`
}

// Pipeline owns one instance of each engine, constructed once at startup
// and injected here; no engine is reachable through hidden globals.
type Pipeline struct {
	vol    *volatility.Engine
	tech   *indicators.Engine
	dte    *dte.Optimizer
	spread *spread.Validator
	repo   persistence.VolRepo // nil disables persistence
}

// NewPipeline wires the four engines together. repo may be nil.
func NewPipeline(vol *volatility.Engine, tech *indicators.Engine, optimizer *dte.Optimizer, validator *spread.Validator, repo persistence.VolRepo) *Pipeline {
	return &Pipeline{
		vol:    vol,
		tech:   tech,
		dte:    optimizer,
		spread: validator,
		repo:   repo,
	}
}

// Evaluate runs the decision stages for one symbol. IV rank and the
// technical snapshot are computed independently; their absence downgrades
// the inputs to neutral defaults rather than failing the evaluation. Only
// a missing indicator backend surfaces as an error.
func (p *Pipeline) Evaluate(ctx context.Context, req EvalRequest) (*Decision, error) {
	decision := &Decision{
		RunID:     uuid.NewString(),
		Symbol:    req.Symbol,
		Timestamp: time.Now(),
	}

	decision.IVRank = p.vol.IVRank(ctx, req.Symbol, req.LookbackDays)

	snap, err := p.tech.Analyze(req.Closes, req.Highs, req.Lows)
	if err != nil {
		return nil, err
	}
	decision.Technical = snap

	vixRatio := defaultVIXRatio
	if req.VIXRatio != nil {
		vixRatio = *req.VIXRatio
	}
	ivRank := defaultIVRank
	if decision.IVRank != nil {
		ivRank = *decision.IVRank
	}
	decision.Features = regime.NewFeatures(vixRatio, ivRank)
	decision.Window = p.dte.PredictOptimalDTE(decision.Features)

	p.persistRecord(ctx, req.Symbol)
	metrics.IncEvaluation(string(snap.Overall))

	log.Info().
		Str("run_id", decision.RunID).
		Str("symbol", req.Symbol).
		Str("signal", string(snap.Overall)).
		Str("structure", string(decision.Features.Structure)).
		Int("min_dte", decision.Window.Min).
		Int("max_dte", decision.Window.Max).
		Msg("Evaluation complete")

	return decision, nil
}

// GateQuotes is the final per-quote liquidity gate before committing to a
// contract.
func (p *Pipeline) GateQuotes(quotes []spread.Quote, requiredValid int) spread.ChainResult {
	return p.spread.ValidateOptionsChain(quotes, requiredValid)
}

// persistRecord stores the full IV details snapshot when a repository is
// configured. Persistence failures are logged, never propagated; the
// decision stands either way.
func (p *Pipeline) persistRecord(ctx context.Context, symbol string) {
	if p.repo == nil {
		return
	}
	rec := p.vol.IVDetails(ctx, symbol)
	if rec == nil {
		return
	}
	if err := p.repo.SaveRecord(ctx, *rec); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to persist volatility record")
	}
}
