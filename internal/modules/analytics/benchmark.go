package analytics

import (
	"github.com/aristath/riskdesk/internal/domain"
	"github.com/aristath/riskdesk/pkg/formulas"
)

var benchmarkNames = map[string]string{
	"^GSPC": "S&P 500",
	"^IXIC": "NASDAQ",
	"^DJI":  "Dow Jones",
	"^RUT":  "Russell 2000",
}

// BenchmarkName returns the display name of a benchmark ticker
func BenchmarkName(ticker string) string {
	if name, ok := benchmarkNames[ticker]; ok {
		return name
	}
	return ticker
}

// CompareBenchmark compounds the portfolio's and the benchmark's daily
// returns over their common, most recent window. A benchmark without a
// single return is MissingBenchmark.
func CompareBenchmark(values []float64, benchmark domain.PriceSeries) (BenchmarkComparison, error) {
	if benchmark.Len() == 0 {
		return BenchmarkComparison{}, newError(KindMissingBenchmark,
			"no price history for benchmark %s", benchmark.Ticker)
	}

	portReturns := formulas.CalculateReturns(values)
	if len(portReturns) == 0 {
		return BenchmarkComparison{}, newError(KindInsufficientData,
			"portfolio has no return history")
	}

	benchReturns := formulas.CalculateReturns(benchmark.Closes())
	if len(benchReturns) == 0 {
		return BenchmarkComparison{}, newError(KindMissingBenchmark,
			"benchmark %s has no return history", benchmark.Ticker)
	}

	aligned := formulas.AlignRecent(portReturns, benchReturns)
	portReturns, benchReturns = aligned[0], aligned[1]
	n := len(portReturns)
	if n == 0 {
		return BenchmarkComparison{}, newError(KindInsufficientData,
			"no overlapping returns with benchmark %s", benchmark.Ticker)
	}

	portCurve := formulas.CumulativeReturns(portReturns)
	benchCurve := formulas.CumulativeReturns(benchReturns)
	portTotal := (portCurve[n] - 1) * 100
	benchTotal := (benchCurve[n] - 1) * 100

	dates := benchmark.Dates()
	if len(dates) > n+1 {
		dates = dates[len(dates)-n-1:]
	}

	chart := BenchmarkChart{
		Dates:     dates,
		Portfolio: make([]float64, len(portCurve)),
		Benchmark: make([]float64, len(benchCurve)),
	}
	for i := range portCurve {
		chart.Portfolio[i] = formulas.Round(portCurve[i]*100, 2)
		chart.Benchmark[i] = formulas.Round(benchCurve[i]*100, 2)
	}

	return BenchmarkComparison{
		Benchmark:          benchmark.Ticker,
		BenchmarkName:      BenchmarkName(benchmark.Ticker),
		PortfolioReturnPct: formulas.Round(portTotal, 2),
		BenchmarkReturnPct: formulas.Round(benchTotal, 2),
		Alpha:              formulas.Round(portTotal-benchTotal, 2),
		Observations:       n,
		Chart:              chart,
	}, nil
}
