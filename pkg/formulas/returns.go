package formulas

// CalculateReturns converts prices to simple period-over-period returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]
//
// A return whose previous price is 0 is undefined and dropped, so the result
// may be shorter than len(prices)-1.
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	return returns
}

// AlignRecent truncates every series to the length of the shortest one,
// keeping the most recent observations (right-aligned).
func AlignRecent(series ...[]float64) [][]float64 {
	if len(series) == 0 {
		return nil
	}

	minLen := len(series[0])
	for _, s := range series[1:] {
		if len(s) < minLen {
			minLen = len(s)
		}
	}

	aligned := make([][]float64, len(series))
	for i, s := range series {
		aligned[i] = s[len(s)-minLen:]
	}
	return aligned
}

// CumulativeReturns compounds returns into a growth curve starting at 1.0.
// The result has len(returns)+1 points.
func CumulativeReturns(returns []float64) []float64 {
	curve := make([]float64, len(returns)+1)
	curve[0] = 1.0
	for i, r := range returns {
		curve[i+1] = curve[i] * (1 + r)
	}
	return curve
}

// TotalReturnPct is the compounded return of the series, in percent.
func TotalReturnPct(returns []float64) float64 {
	curve := CumulativeReturns(returns)
	return (curve[len(curve)-1] - 1) * 100
}
