package analytics

import (
	"sort"

	"github.com/aristath/riskdesk/internal/domain"
	"github.com/aristath/riskdesk/pkg/formulas"
)

// ComputeCorrelation builds the Pearson correlation matrix of the assets'
// daily returns. Returns are keyed by the date of the later price and only
// dates present for every usable asset are kept. Assets without any return
// are excluded; fewer than two usable assets or two shared dates is
// InsufficientData.
func ComputeCorrelation(tickers []string, series map[string]domain.PriceSeries) (CorrelationMatrix, error) {
	var (
		usable   []string
		excluded []string
		byDate   = make(map[string]map[string]float64)
	)
	for _, ticker := range tickers {
		r := datedReturns(series[ticker])
		if len(r) == 0 {
			excluded = append(excluded, ticker)
			continue
		}
		usable = append(usable, ticker)
		byDate[ticker] = r
	}

	if len(usable) < 2 {
		return CorrelationMatrix{}, newError(KindInsufficientData,
			"need at least 2 assets with price history, have %d", len(usable))
	}

	// inner join on dates
	var dates []string
	for d := range byDate[usable[0]] {
		shared := true
		for _, t := range usable[1:] {
			if _, ok := byDate[t][d]; !ok {
				shared = false
				break
			}
		}
		if shared {
			dates = append(dates, d)
		}
	}
	if len(dates) < 2 {
		return CorrelationMatrix{}, newError(KindInsufficientData,
			"assets share %d return dates, need at least 2", len(dates))
	}
	sort.Strings(dates)

	columns := make([][]float64, len(usable))
	for i, t := range usable {
		col := make([]float64, len(dates))
		for j, d := range dates {
			col[j] = byDate[t][d]
		}
		columns[i] = col
	}

	k := len(usable)
	matrix := make([][]float64, k)
	for i := range matrix {
		matrix[i] = make([]float64, k)
		matrix[i][i] = 1.0
	}
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			c := formulas.Round(formulas.Correlation(columns[i], columns[j]), 3)
			matrix[i][j] = c
			matrix[j][i] = c
		}
	}

	return CorrelationMatrix{
		Tickers:      usable,
		Matrix:       matrix,
		Observations: len(dates),
		Excluded:     excluded,
	}, nil
}

// datedReturns maps the date of each later price to its simple return.
// Returns against a zero previous close are dropped.
func datedReturns(s domain.PriceSeries) map[string]float64 {
	out := make(map[string]float64)
	for i := 1; i < len(s.Points); i++ {
		prev := s.Points[i-1].Close
		if prev == 0 {
			continue
		}
		out[s.Points[i].Date.UTC().Format("2006-01-02")] = (s.Points[i].Close - prev) / prev
	}
	return out
}
