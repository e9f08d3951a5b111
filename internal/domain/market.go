package domain

import (
	"strings"
	"time"
)

// PricePoint is a daily close
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is a chronological (oldest first) series of daily closes
type PriceSeries struct {
	Ticker string       `json:"ticker"`
	Points []PricePoint `json:"points"`
}

// Len returns the number of observations
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Closes returns the close prices in chronological order
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// Dates returns the observation dates in chronological order
func (s PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		dates[i] = p.Date
	}
	return dates
}

// Latest returns the most recent observation
func (s PriceSeries) Latest() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Quote is the latest traded price of a ticker
type Quote struct {
	Timestamp     time.Time `json:"timestamp" msgpack:"timestamp"`
	Ticker        string    `json:"ticker" msgpack:"ticker"`
	Price         float64   `json:"price" msgpack:"price"`
	PreviousClose float64   `json:"previous_close" msgpack:"previous_close"`
	Change        float64   `json:"change" msgpack:"change"`
	ChangePercent float64   `json:"change_percent" msgpack:"change_percent"`
	Volume        int64     `json:"volume" msgpack:"volume"`
}

// Period is a lookback window for price history
type Period string

const (
	Period1M  Period = "1M"
	Period3M  Period = "3M"
	Period6M  Period = "6M"
	Period1Y  Period = "1Y"
	PeriodYTD Period = "YTD"
	Period5Y  Period = "5Y"
	PeriodMax Period = "MAX"
)

var periodObservations = map[Period]int{
	Period1M:  30,
	Period3M:  90,
	Period6M:  180,
	Period1Y:  252,
	PeriodYTD: 252,
	Period5Y:  1260,
	PeriodMax: 5000,
}

// Observations is the number of daily closes the period covers
func (p Period) Observations() int {
	return periodObservations[p]
}

// Valid reports whether p is a known period
func (p Period) Valid() bool {
	_, ok := periodObservations[p]
	return ok
}

// ParsePeriod parses s case-insensitively, returning def for empty or unknown input.
func ParsePeriod(s string, def Period) Period {
	p := Period(strings.ToUpper(strings.TrimSpace(s)))
	if p.Valid() {
		return p
	}
	return def
}
