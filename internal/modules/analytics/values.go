package analytics

import (
	"time"

	"github.com/aristath/riskdesk/internal/domain"
	"github.com/aristath/riskdesk/pkg/formulas"
)

// Holding pairs a position's share count with its price history
type Holding struct {
	Ticker string
	Shares float64
	Series domain.PriceSeries
}

// ValueSeries sums shares × close across holdings, index by index, after
// right-aligning every history to the shortest one. The returned dates are
// those of the first holding over the aligned window.
func ValueSeries(holdings []Holding) ([]float64, []time.Time) {
	if len(holdings) == 0 {
		return nil, nil
	}

	closes := make([][]float64, len(holdings))
	for i, h := range holdings {
		closes[i] = h.Series.Closes()
	}
	aligned := formulas.AlignRecent(closes...)

	n := len(aligned[0])
	values := make([]float64, n)
	for i, h := range holdings {
		for j, price := range aligned[i] {
			values[j] += h.Shares * price
		}
	}

	dates := holdings[0].Series.Dates()
	return values, dates[len(dates)-n:]
}
