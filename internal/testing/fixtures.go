package testing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/riskdesk/internal/domain"
)

// SeriesStart is the first date of generated fixture series
var SeriesStart = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// TradingDays returns n consecutive weekdays starting at SeriesStart
func TradingDays(n int) []time.Time {
	days := make([]time.Time, 0, n)
	d := SeriesStart
	for len(days) < n {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			days = append(days, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return days
}

// SeriesFromPrices builds a price series over consecutive trading days
func SeriesFromPrices(ticker string, prices []float64) domain.PriceSeries {
	days := TradingDays(len(prices))
	points := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = domain.PricePoint{Date: days[i], Close: p}
	}
	return domain.PriceSeries{Ticker: ticker, Points: points}
}

// SeriesFromReturns compounds returns from a starting price. The series has len(returns)+1 points.
func SeriesFromReturns(ticker string, start float64, returns []float64) domain.PriceSeries {
	prices := make([]float64, len(returns)+1)
	prices[0] = start
	for i, r := range returns {
		prices[i+1] = prices[i] * (1 + r)
	}
	return SeriesFromPrices(ticker, prices)
}

// Wave returns n deterministic daily returns oscillating with the given amplitude,
// phase-shifted so different seeds decorrelate.
func Wave(n int, amplitude, drift float64, seed int) []float64 {
	returns := make([]float64, n)
	for i := range returns {
		x := float64(i+seed*7) * 0.7
		returns[i] = drift + amplitude*math.Sin(x) + amplitude*0.3*math.Cos(x*2.3+float64(seed))
	}
	return returns
}

// NewPosition builds a position from string decimals
func NewPosition(ticker, shares, costBasis string) domain.Position {
	return domain.Position{
		ID:           ticker,
		Ticker:       ticker,
		Shares:       decimal.RequireFromString(shares),
		CostBasis:    decimal.RequireFromString(costBasis),
		PurchaseDate: SeriesStart,
	}
}
