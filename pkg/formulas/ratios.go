package formulas

import "math"

// Beta measures sensitivity of asset returns to market returns.
//
//	Beta = Cov(asset, market) / Var(market)
//
// Both moments use the sample estimator. Returns 1.0 (market-neutral default)
// when the series differ in length, have fewer than 2 points, or the market
// variance is zero.
func Beta(asset, market []float64) float64 {
	if len(asset) < 2 || len(asset) != len(market) {
		return 1.0
	}
	variance := Variance(market)
	if variance == 0 {
		return 1.0
	}
	return Covariance(asset, market) / variance
}

// excessReturns subtracts the de-annualized risk-free rate from every return.
func excessReturns(returns []float64, annualRiskFree float64) []float64 {
	daily := annualRiskFree / TradingDaysPerYear
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - daily
	}
	return excess
}

// SharpeRatio calculates the annualized Sharpe ratio of daily returns.
//
//	Sharpe = mean(excess) / std(excess) × sqrt(252)
//
// std is the population estimator. Returns 0 with fewer than 2 observations
// or zero deviation.
func SharpeRatio(returns []float64, annualRiskFree float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	excess := excessReturns(returns, annualRiskFree)
	std := PopStdDev(excess)
	if std == 0 {
		return 0
	}
	return Mean(excess) / std * math.Sqrt(TradingDaysPerYear)
}

// SortinoRatio calculates the annualized Sortino ratio of daily returns.
// The denominator is the population std of the negative excess returns only.
// Returns 0 when there is no downside or fewer than 2 observations.
func SortinoRatio(returns []float64, annualRiskFree float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	excess := excessReturns(returns, annualRiskFree)

	var downside []float64
	for _, e := range excess {
		if e < 0 {
			downside = append(downside, e)
		}
	}
	if len(downside) == 0 {
		return 0
	}

	std := PopStdDev(downside)
	if std == 0 {
		return 0
	}
	return Mean(excess) / std * math.Sqrt(TradingDaysPerYear)
}
