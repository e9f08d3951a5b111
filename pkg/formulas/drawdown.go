package formulas

// DrawdownMetrics represents drawdown analysis results
type DrawdownMetrics struct {
	MaxDrawdown     float64 `json:"max_drawdown"`     // fraction, 0.25 = 25% below peak
	CurrentDrawdown float64 `json:"current_drawdown"` // fraction below the running peak at the last point
	DaysInDrawdown  int     `json:"days_in_drawdown"` // observations since the last peak
	PeakValue       float64 `json:"peak_value"`
	CurrentValue    float64 `json:"current_value"`
}

// MaxDrawdown returns the largest peak-to-trough decline of a value series
// as a fraction in [0, 1]. Fewer than 2 values yield 0.
func MaxDrawdown(values []float64) float64 {
	return AnalyzeDrawdown(values).MaxDrawdown
}

// AnalyzeDrawdown walks the series tracking the running peak.
// A drawdown against a non-positive peak is treated as 0.
func AnalyzeDrawdown(values []float64) DrawdownMetrics {
	if len(values) < 2 {
		m := DrawdownMetrics{}
		if len(values) == 1 {
			m.PeakValue, m.CurrentValue = values[0], values[0]
		}
		return m
	}

	var m DrawdownMetrics
	peak := values[0]
	peakIdx := 0
	for i, v := range values {
		if v > peak {
			peak = v
			peakIdx = i
		}
		dd := 0.0
		if peak > 0 {
			dd = (peak - v) / peak
		}
		if dd > m.MaxDrawdown {
			m.MaxDrawdown = dd
		}
		m.CurrentDrawdown = dd
	}

	m.PeakValue = peak
	m.CurrentValue = values[len(values)-1]
	if m.CurrentDrawdown > 0 {
		m.DaysInDrawdown = len(values) - 1 - peakIdx
	}
	return m
}
