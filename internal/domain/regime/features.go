package regime

import "math"

// Structure labels the shape of the volatility term structure.
type Structure string

const (
	Contango      Structure = "CONTANGO"
	Backwardation Structure = "BACKWARDATION"
	Neutral       Structure = "NEUTRAL"
	Unknown       Structure = "UNKNOWN"
)

// Features is the volatility-regime feature vector consumed by the DTE
// optimizer: near-term/long-term volatility index ratio plus IV rank.
type Features struct {
	VIXRatio  float64   `json:"vix_ratio"`
	Structure Structure `json:"structure"`
	IVRank    float64   `json:"iv_rank"`
}

// Classification thresholds match the DTE rule table so a labelled
// structure and the window it drives never disagree.
const (
	backwardationRatio = 1.05
	contangoRatio      = 0.95
)

// ClassifyTermStructure labels a VIX/VIX3M ratio. A ratio above 1 means
// near-term volatility is bid over longer-dated volatility (stress); below
// 1 is the calm carry regime.
func ClassifyTermStructure(ratio float64) Structure {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return Unknown
	}
	switch {
	case ratio > backwardationRatio:
		return Backwardation
	case ratio < contangoRatio:
		return Contango
	default:
		return Neutral
	}
}

// NewFeatures builds a feature vector from a term-structure ratio and an
// IV rank, labelling the structure in the process.
func NewFeatures(vixRatio, ivRank float64) Features {
	return Features{
		VIXRatio:  vixRatio,
		Structure: ClassifyTermStructure(vixRatio),
		IVRank:    ivRank,
	}
}

// Vector returns the two-element feature vector fed to the trained
// regressor: [vixRatio, ivRank].
func (f Features) Vector() []float64 {
	return []float64{f.VIXRatio, f.IVRank}
}
