package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const riskFree = 0.04

func TestSharpeRatio(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
		want    float64
	}{
		{"reference fixture", []float64{0.01, -0.02, 0.015, 0.00, 0.03}, 6.5370596829436005},
		{"second fixture", []float64{0.01, -0.02, 0.015, -0.01, 0.03}, 4.296200794869959},
		{"constant returns have zero deviation", []float64{0.01, 0.01, 0.01, 0.01}, 0},
		{"single observation", []float64{0.05}, 0},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SharpeRatio(tt.returns, riskFree), 1e-9)
		})
	}
}

func TestSortinoRatio(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
		want    float64
	}{
		{"reference fixture", []float64{0.01, -0.02, 0.015, 0.00, 0.03}, 10.860179191131795},
		{"second fixture", []float64{0.01, -0.02, 0.015, -0.01, 0.03}, 15.370555235708569},
		{"no downside", []float64{0.02, 0.03, 0.05}, 0},
		{"single downside observation has zero deviation", []float64{0.02, 0.03, -0.05}, 0},
		{"single observation", []float64{-0.05}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SortinoRatio(tt.returns, riskFree), 1e-9)
		})
	}
}

func TestSharpeSortino_ZeroVariance(t *testing.T) {
	constant := make([]float64, 40)
	for i := range constant {
		constant[i] = 0.002
	}

	assert.Equal(t, 0.0, SharpeRatio(constant, riskFree))
	assert.Equal(t, 0.0, SortinoRatio(constant, riskFree))
}

func TestBeta(t *testing.T) {
	market := []float64{0.01, -0.01, 0.02, 0.0, -0.005}
	doubled := make([]float64, len(market))
	for i, m := range market {
		doubled[i] = 2 * m
	}

	assert.InDelta(t, 2.0, Beta(doubled, market), 1e-12)
	assert.InDelta(t, 1.0, Beta(market, market), 1e-12)

	t.Run("flat market defaults to one", func(t *testing.T) {
		assert.Equal(t, 1.0, Beta(doubled, []float64{0, 0, 0, 0, 0}))
	})
	t.Run("length mismatch defaults to one", func(t *testing.T) {
		assert.Equal(t, 1.0, Beta(doubled, market[:3]))
	})
	t.Run("too short defaults to one", func(t *testing.T) {
		assert.Equal(t, 1.0, Beta([]float64{0.1}, []float64{0.2}))
	})
}
