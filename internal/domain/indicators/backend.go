package indicators

import talib "github.com/markcheno/go-talib"

// Backend exposes the indicator primitives as pure functions over numeric
// sequences. The engine degrades to an explicit unavailable marker when
// constructed without one.
type Backend interface {
	Rsi(real []float64, period int) []float64
	BBands(real []float64, period int, nbDev float64) (upper, middle, lower []float64)
	Macd(real []float64, fast, slow, signal int) (macd, macdSignal, histogram []float64)
	Atr(high, low, close []float64, period int) []float64
}

type talibBackend struct{}

// NewTALibBackend returns the production backend built on go-talib.
func NewTALibBackend() Backend {
	return talibBackend{}
}

func (talibBackend) Rsi(real []float64, period int) []float64 {
	return talib.Rsi(real, period)
}

func (talibBackend) BBands(real []float64, period int, nbDev float64) ([]float64, []float64, []float64) {
	return talib.BBands(real, period, nbDev, nbDev, talib.SMA)
}

func (talibBackend) Macd(real []float64, fast, slow, signal int) ([]float64, []float64, []float64) {
	return talib.Macd(real, fast, slow, signal)
}

func (talibBackend) Atr(high, low, close []float64, period int) []float64 {
	return talib.Atr(high, low, close, period)
}
