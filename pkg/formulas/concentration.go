package formulas

import "sort"

// NormalizeWeights scales non-negative values so they sum to 1.
// Returns nil when the total is not positive.
func NormalizeWeights(values []float64) []float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	if total <= 0 {
		return nil
	}

	weights := make([]float64, len(values))
	for i, v := range values {
		weights[i] = v / total
	}
	return weights
}

// HHI is the Herfindahl-Hirschman index: the sum of squared weights.
func HHI(weights []float64) float64 {
	sum := 0.0
	for _, w := range weights {
		sum += w * w
	}
	return sum
}

// EffectiveHoldings is 1/HHI, the number of equal-weight positions with the
// same concentration. 0 when HHI is 0.
func EffectiveHoldings(hhi float64) float64 {
	if hhi == 0 {
		return 0
	}
	return 1 / hhi
}

// DiversificationScore maps HHI onto 0-100 relative to the equal-weight ideal
// for n holdings. A single holding scores 50.
func DiversificationScore(hhi float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	if n == 1 {
		return 50
	}
	ideal := 1 / float64(n)
	score := (1 - (hhi-ideal)/(1-ideal)) * 100
	return Clamp(score, 0, 100)
}

// TopNWeight sums the n largest weights. Fewer than n weights sum all of them.
func TopNWeight(weights []float64, n int) float64 {
	sorted := make([]float64, len(weights))
	copy(sorted, weights)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	if n > len(sorted) {
		n = len(sorted)
	}
	sum := 0.0
	for _, w := range sorted[:n] {
		sum += w
	}
	return sum
}

// MaxWeight returns the largest weight, or 0 for an empty slice.
func MaxWeight(weights []float64) float64 {
	top := 0.0
	for _, w := range weights {
		if w > top {
			top = w
		}
	}
	return top
}
