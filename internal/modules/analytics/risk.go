package analytics

import (
	"github.com/aristath/riskdesk/pkg/formulas"
)

// ComputeRisk derives risk metrics from a portfolio value series and the
// market's daily returns. Portfolio and market returns are right-aligned
// before any statistic is computed; when marketReturns is empty beta falls
// back to 1.0.
//
// Fewer than MinObservations aligned portfolio returns is InsufficientData.
func ComputeRisk(values, marketReturns []float64, riskFreeRate float64) (RiskMetrics, error) {
	returns := formulas.CalculateReturns(values)
	market := marketReturns
	if len(market) > 0 {
		aligned := formulas.AlignRecent(returns, market)
		returns, market = aligned[0], aligned[1]
	}

	if len(returns) < MinObservations {
		return RiskMetrics{}, newError(KindInsufficientData,
			"need at least %d daily returns, have %d", MinObservations, len(returns))
	}

	// drawdown runs over the same window the returns cover
	if len(values) > len(returns)+1 {
		values = values[len(values)-len(returns)-1:]
	}

	beta := 1.0
	if len(market) > 0 {
		beta = formulas.Beta(returns, market)
	}

	return RiskMetrics{
		Beta:           formulas.Round(beta, 3),
		SharpeRatio:    formulas.Round(formulas.SharpeRatio(returns, riskFreeRate), 3),
		SortinoRatio:   formulas.Round(formulas.SortinoRatio(returns, riskFreeRate), 3),
		MaxDrawdownPct: formulas.Round(formulas.MaxDrawdown(values)*100, 2),
		VaR95Pct:       formulas.Round(formulas.HistoricalVaR(returns, 0.95)*100, 2),
		CVaR95Pct:      formulas.Round(formulas.CVaR(returns, 0.95)*100, 2),
		VolatilityPct:  formulas.Round(formulas.AnnualizedVolatility(returns)*100, 2),
		RiskFreeRate:   riskFreeRate,
		Observations:   len(returns),
	}, nil
}
