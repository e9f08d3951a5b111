package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateReturns(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   []float64
	}{
		{"empty", nil, []float64{}},
		{"single price", []float64{100}, []float64{}},
		{"simple", []float64{100, 110, 99}, []float64{0.1, -0.1}},
		{"zero previous price is dropped", []float64{0, 10, 11}, []float64{0.1}},
		{"flat", []float64{5, 5, 5}, []float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateReturns(tt.prices)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-12)
			}
		})
	}
}

func TestAlignRecent_KeepsMostRecentObservations(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{30, 40, 50}

	aligned := AlignRecent(a, b)

	require.Len(t, aligned, 2)
	assert.Equal(t, []float64{3, 4, 5}, aligned[0])
	assert.Equal(t, []float64{30, 40, 50}, aligned[1])
}

func TestAlignRecent_EmptySeriesTruncatesAll(t *testing.T) {
	aligned := AlignRecent([]float64{1, 2}, []float64{})

	assert.Empty(t, aligned[0])
	assert.Empty(t, aligned[1])
	assert.Nil(t, AlignRecent())
}

func TestCumulativeReturns(t *testing.T) {
	curve := CumulativeReturns([]float64{0.1, -0.5, 1.0})

	require.Len(t, curve, 4)
	assert.Equal(t, 1.0, curve[0])
	assert.InDelta(t, 1.1, curve[1], 1e-12)
	assert.InDelta(t, 0.55, curve[2], 1e-12)
	assert.InDelta(t, 1.1, curve[3], 1e-12)

	assert.Equal(t, []float64{1.0}, CumulativeReturns(nil))
}

func TestTotalReturnPct(t *testing.T) {
	assert.InDelta(t, 21.0, TotalReturnPct([]float64{0.1, 0.1}), 1e-9)
	assert.Equal(t, 0.0, TotalReturnPct(nil))
}
