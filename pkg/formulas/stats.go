// Package formulas provides the numeric kernels behind the analytics engines.
// Every function is pure and deterministic; degenerate inputs yield 0 rather than NaN.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization factor for daily series.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation (n-1 denominator)
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// PopStdDev calculates the population standard deviation (n denominator)
func PopStdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(data, nil)
	return std
}

// Variance calculates the sample variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Covariance calculates the sample covariance between two datasets
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// Correlation calculates the Pearson correlation coefficient between two datasets.
// Returns 0 when either side has zero variance, and clamps into [-1, 1].
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0
	}
	return Clamp(c, -1, 1)
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: population std dev of daily returns × sqrt(252)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	return PopStdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
