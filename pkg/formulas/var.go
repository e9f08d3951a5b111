package formulas

import (
	"math"
	"sort"
)

// Percentile returns the p-th percentile (0-100) of data using linear
// interpolation between closest ranks: rank = p/100 × (n-1).
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	rank := Clamp(p, 0, 100) / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// HistoricalVaR is the (1-confidence) percentile of historical returns.
// For confidence 0.95 this is the 5th percentile. Fewer than 2 returns yield 0.
func HistoricalVaR(returns []float64, confidence float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	return Percentile(returns, (1-confidence)*100)
}

// CVaR calculates Conditional Value at Risk: the mean of the worst
// ceil(n × (1-confidence)) returns. Always at or below HistoricalVaR.
func CVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	if len(returns) == 1 {
		return returns[0]
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	tailCount := int(math.Ceil(float64(len(sorted)) * (1 - confidence)))
	if tailCount < 1 {
		tailCount = 1
	}
	if tailCount > len(sorted) {
		tailCount = len(sorted)
	}
	return Mean(sorted[:tailCount])
}
