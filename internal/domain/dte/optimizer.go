// Package dte selects a days-to-expiration window from volatility-regime
// features. A trained regressor drives the window when a persisted model
// exists; a deterministic rule table keyed off the VIX term structure
// covers the cold start.
package dte

import (
	"math"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/optrun/optrun/internal/domain/dte/forest"
	"github.com/optrun/optrun/internal/domain/regime"
	"github.com/optrun/optrun/internal/telemetry/metrics"
)

// Window bounds. Every produced window satisfies
// MinDTE <= min <= max <= MaxDTE.
const (
	MinDTE = 21
	MaxDTE = 60

	// halfWindow is the symmetric reach around a model-predicted center.
	halfWindow = 7
)

// Rule-table thresholds, evaluated in precedence order.
const (
	panicVIXRatio = 1.05
	panicIVRank   = 80.0
	calmVIXRatio  = 0.95
)

// Window is an inclusive DTE range.
type Window struct {
	Min int `json:"min_dte"`
	Max int `json:"max_dte"`
}

// Canonical windows.
var (
	shortWindow   = Window{Min: 21, Max: 30} // backwardation: vega-crush capture
	longWindow    = Window{Min: 45, Max: 60} // contango: theta collection
	neutralWindow = Window{Min: 30, Max: 45} // default and unconditional fallback
)

// DefaultModelPath is where the trained regressor artifact lives.
const DefaultModelPath = "models/dte_optimizer.json"

// ModelStore persists the trained regressor at a named path. Load failure
// means cold mode, never a fatal error.
type ModelStore interface {
	Load(path string, v interface{}) error
	Save(path string, v interface{}) error
}

// Optimizer predicts DTE windows. It runs WARM when a model was loaded at
// construction or fitted by Train in this process, COLD otherwise; a
// prediction observes whichever model snapshot those produced last.
type Optimizer struct {
	mu    sync.RWMutex
	model *forest.Forest

	store ModelStore
	path  string
}

// NewOptimizer probes the store for a persisted model and fixes the
// starting mode accordingly.
func NewOptimizer(store ModelStore, path string) *Optimizer {
	if path == "" {
		path = DefaultModelPath
	}
	o := &Optimizer{store: store, path: path}

	var f forest.Forest
	if err := store.Load(path, &f); err != nil {
		log.Info().Str("path", path).Msg("No trained DTE model found, using rule-based cold start")
		return o
	}
	if len(f.Trees) == 0 {
		log.Warn().Str("path", path).Msg("DTE model artifact is empty, using rule-based cold start")
		return o
	}
	if err := f.Validate(); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("DTE model artifact is malformed, using rule-based cold start")
		return o
	}

	o.model = &f
	log.Info().Str("path", path).Msg("Loaded DTE optimizer model")
	return o
}

// Warm reports whether a trained model is currently loaded.
func (o *Optimizer) Warm() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.model != nil
}

// PredictOptimalDTE returns the DTE window for the given regime features.
// It never fails: non-finite features or any model error fall back to the
// neutral (30,45) window, taking precedence over both cold and warm paths.
func (o *Optimizer) PredictOptimalDTE(features regime.Features) Window {
	if !isFinite(features.VIXRatio) || !isFinite(features.IVRank) {
		log.Warn().
			Float64("vix_ratio", features.VIXRatio).
			Float64("iv_rank", features.IVRank).
			Msg("Non-finite regime features, using fallback DTE window")
		metrics.IncDTEPrediction("fallback")
		return neutralWindow
	}

	o.mu.RLock()
	model := o.model
	o.mu.RUnlock()

	if model == nil {
		metrics.IncDTEPrediction("cold")
		return ruleBasedWindow(features.VIXRatio, features.IVRank)
	}

	predicted, err := model.Predict(features.Vector())
	if err != nil || !isFinite(predicted) {
		log.Warn().Err(err).Msg("DTE model prediction failed, using fallback window")
		metrics.IncDTEPrediction("fallback")
		return neutralWindow
	}

	center := int(predicted)
	w := Window{
		Min: maxInt(MinDTE, center-halfWindow),
		Max: minInt(MaxDTE, center+halfWindow),
	}
	// A center outside [21,60] can cross the clamps; collapse to the
	// nearer bound rather than emit an inverted window.
	if w.Min > w.Max {
		if center < MinDTE {
			w = Window{Min: MinDTE, Max: MinDTE}
		} else {
			w = Window{Min: MaxDTE, Max: MaxDTE}
		}
	}

	log.Info().
		Int("center", center).
		Int("min_dte", w.Min).
		Int("max_dte", w.Max).
		Msg("DTE model prediction")
	metrics.IncDTEPrediction("warm")
	return w
}

// ruleBasedWindow is the deterministic cold-start table. Precedence:
// panic first, calm second, neutral otherwise.
func ruleBasedWindow(vixRatio, ivRank float64) Window {
	switch {
	case vixRatio > panicVIXRatio || ivRank > panicIVRank:
		log.Info().
			Float64("vix_ratio", vixRatio).
			Msg("Backwardation or panic IV, targeting short expiration")
		return shortWindow
	case vixRatio < calmVIXRatio:
		log.Info().
			Float64("vix_ratio", vixRatio).
			Msg("Contango, targeting long expiration")
		return longWindow
	default:
		log.Info().
			Float64("vix_ratio", vixRatio).
			Msg("Neutral term structure, using standard expiration")
		return neutralWindow
	}
}

// Train fits a fresh ensemble on feature rows X against target DTEs y,
// persists it, and swaps it in, transitioning COLD to WARM. A failure at
// any step leaves the previously loaded model untouched.
func (o *Optimizer) Train(X [][]float64, y []float64) error {
	f := forest.New()
	if err := f.Fit(X, y); err != nil {
		log.Error().Err(err).Msg("DTE model training failed")
		return err
	}

	if err := o.store.Save(o.path, f); err != nil {
		log.Error().Err(err).Str("path", o.path).Msg("DTE model persistence failed")
		return err
	}

	o.mu.Lock()
	o.model = f
	o.mu.Unlock()

	log.Info().Str("path", o.path).Int("samples", len(y)).Msg("Trained and saved DTE optimizer model")
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
