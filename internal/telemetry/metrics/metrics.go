package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	ivCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "optrun_iv_cache_hits_total",
		Help: "IV rank cache hits",
	})
	ivCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "optrun_iv_cache_misses_total",
		Help: "IV rank cache misses",
	})
	evaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optrun_evaluations_total",
		Help: "Pipeline evaluations by overall technical signal",
	}, []string{"signal"})
	spreadVerdicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optrun_spread_verdicts_total",
		Help: "Spread validation verdicts by reason code",
	}, []string{"reason"})
	dtePredictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optrun_dte_predictions_total",
		Help: "DTE predictions by optimizer mode",
	}, []string{"mode"})
)

// Register installs the optrun collectors on the given registerer, or the
// default one when nil. Safe to call more than once.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(ivCacheHits, ivCacheMisses, evaluations, spreadVerdicts, dtePredictions)
	})
}

// IncIVCacheHit counts a cache hit on the IV rank cache.
func IncIVCacheHit() { ivCacheHits.Inc() }

// IncIVCacheMiss counts a cache miss on the IV rank cache.
func IncIVCacheMiss() { ivCacheMisses.Inc() }

// IncEvaluation counts a completed pipeline evaluation.
func IncEvaluation(signal string) { evaluations.WithLabelValues(signal).Inc() }

// IncSpreadVerdict counts a spread validation outcome.
func IncSpreadVerdict(reason string) { spreadVerdicts.WithLabelValues(reason).Inc() }

// IncDTEPrediction counts a DTE window prediction.
func IncDTEPrediction(mode string) { dtePredictions.WithLabelValues(mode).Inc() }
