package regime

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTermStructure(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		want  Structure
	}{
		{"deep backwardation", 1.20, Backwardation},
		{"just above threshold", 1.06, Backwardation},
		{"neutral upper bound", 1.05, Neutral},
		{"flat", 1.00, Neutral},
		{"neutral lower bound", 0.95, Neutral},
		{"contango", 0.90, Contango},
		{"zero ratio", 0, Unknown},
		{"negative ratio", -0.5, Unknown},
		{"nan", math.NaN(), Unknown},
		{"inf", math.Inf(1), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTermStructure(tt.ratio))
		})
	}
}

func TestNewFeatures(t *testing.T) {
	f := NewFeatures(1.10, 65)

	assert.Equal(t, Backwardation, f.Structure)
	assert.Equal(t, []float64{1.10, 65}, f.Vector())
}
