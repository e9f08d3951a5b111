package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWeights(t *testing.T) {
	w := NormalizeWeights([]float64{600, 400})
	require.Len(t, w, 2)
	assert.InDelta(t, 0.6, w[0], 1e-12)
	assert.InDelta(t, 0.4, w[1], 1e-12)

	assert.Nil(t, NormalizeWeights([]float64{0, 0}))
	assert.Nil(t, NormalizeWeights(nil))
}

func TestHHI(t *testing.T) {
	hhi := HHI([]float64{0.6, 0.4})
	assert.InDelta(t, 0.52, hhi, 1e-12)
	assert.InDelta(t, 1.923076923, EffectiveHoldings(hhi), 1e-9)
	assert.Equal(t, 0.0, EffectiveHoldings(0))
}

func TestHHI_EqualWeightIsIdeal(t *testing.T) {
	for _, n := range []int{2, 3, 5, 10, 25} {
		weights := make([]float64, n)
		for i := range weights {
			weights[i] = 1 / float64(n)
		}
		hhi := HHI(weights)
		assert.InDelta(t, 1/float64(n), hhi, 1e-12)
		assert.InDelta(t, 100.0, DiversificationScore(hhi, n), 1e-9)
	}
}

func TestDiversificationScore(t *testing.T) {
	assert.Equal(t, 50.0, DiversificationScore(1.0, 1))
	assert.Equal(t, 0.0, DiversificationScore(0, 0))
	assert.InDelta(t, 96.0, DiversificationScore(0.52, 2), 1e-9)

	// fully concentrated in one of many holdings
	assert.InDelta(t, 0.0, DiversificationScore(1.0, 4), 1e-9)

	for _, hhi := range []float64{-1, 0, 0.1, 0.5, 1, 3} {
		score := DiversificationScore(hhi, 4)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
	}
}

func TestTopNWeight(t *testing.T) {
	weights := []float64{0.1, 0.4, 0.05, 0.3, 0.15}

	assert.InDelta(t, 0.85, TopNWeight(weights, 3), 1e-12)
	assert.InDelta(t, 1.0, TopNWeight([]float64{0.6, 0.4}, 3), 1e-12)
	assert.Equal(t, []float64{0.1, 0.4, 0.05, 0.3, 0.15}, weights)
	assert.Equal(t, 0.4, MaxWeight(weights))
}
