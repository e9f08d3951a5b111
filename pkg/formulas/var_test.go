package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile_LinearInterpolation(t *testing.T) {
	data := []float64{0.01, -0.02, 0.015, 0.00, 0.03}

	assert.InDelta(t, -0.016, Percentile(data, 5), 1e-12)
	assert.InDelta(t, 0.01, Percentile(data, 50), 1e-12)
	assert.InDelta(t, -0.02, Percentile(data, 0), 1e-12)
	assert.InDelta(t, 0.03, Percentile(data, 100), 1e-12)
	assert.Equal(t, 0.0, Percentile(nil, 5))
}

func TestPercentile_DoesNotMutateInput(t *testing.T) {
	data := []float64{3, 1, 2}
	Percentile(data, 50)
	assert.Equal(t, []float64{3, 1, 2}, data)
}

func TestHistoricalVaR(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.015, 0.00, 0.03}

	assert.InDelta(t, -0.016, HistoricalVaR(returns, 0.95), 1e-12)
	assert.Equal(t, 0.0, HistoricalVaR([]float64{-0.5}, 0.95))
}

func TestCVaR(t *testing.T) {
	tests := []struct {
		name       string
		returns    []float64
		confidence float64
		want       float64
	}{
		{"worst single return of ten", []float64{-0.10, -0.05, -0.02, 0.0, 0.02, 0.05, 0.10, 0.15, 0.20, 0.25}, 0.95, -0.10},
		{"tail of two at 80%", []float64{-0.10, -0.05, -0.02, 0.0, 0.02, 0.05, 0.10, 0.15, 0.20, 0.25}, 0.80, -0.075},
		{"single return", []float64{-0.10}, 0.95, -0.10},
		{"empty", nil, 0.95, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CVaR(tt.returns, tt.confidence), 1e-12)
		})
	}
}

func TestCVaR_NotAboveVaR(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.015, 0.00, 0.03, -0.04, 0.02, -0.01}
	assert.LessOrEqual(t, CVaR(returns, 0.95), HistoricalVaR(returns, 0.95))
}
