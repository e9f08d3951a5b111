package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/aristath/riskdesk/internal/domain"
)

// MockMarketData is an in-memory domain.MarketDataProvider
type MockMarketData struct {
	mu         sync.RWMutex
	series     map[string]domain.PriceSeries
	quotes     map[string]domain.Quote
	errs       map[string]error
	seriesCall map[string]int
}

// NewMockMarketData creates an empty provider
func NewMockMarketData() *MockMarketData {
	return &MockMarketData{
		series:     make(map[string]domain.PriceSeries),
		quotes:     make(map[string]domain.Quote),
		errs:       make(map[string]error),
		seriesCall: make(map[string]int),
	}
}

// SetSeries registers the series returned for its ticker
func (m *MockMarketData) SetSeries(s domain.PriceSeries) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[s.Ticker] = s
}

// SetQuote registers the latest price for a ticker
func (m *MockMarketData) SetQuote(ticker string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[ticker] = domain.Quote{Ticker: ticker, Price: price}
}

// SetError makes every call for ticker fail with err
func (m *MockMarketData) SetError(ticker string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[ticker] = err
}

// SeriesCalls returns how many times the series for ticker was requested
func (m *MockMarketData) SeriesCalls(ticker string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seriesCall[ticker]
}

// GetPriceSeries returns the registered series truncated to the period's observations.
// Unknown tickers yield an empty series.
func (m *MockMarketData) GetPriceSeries(_ context.Context, ticker string, period domain.Period) (domain.PriceSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seriesCall[ticker]++

	if err := m.errs[ticker]; err != nil {
		return domain.PriceSeries{}, err
	}
	s, ok := m.series[ticker]
	if !ok {
		return domain.PriceSeries{Ticker: ticker}, nil
	}
	if n := period.Observations(); n > 0 && len(s.Points) > n {
		s.Points = s.Points[len(s.Points)-n:]
	}
	return s, nil
}

// GetQuote returns the registered quote, or an error when none is set
func (m *MockMarketData) GetQuote(_ context.Context, ticker string) (domain.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.errs[ticker]; err != nil {
		return domain.Quote{}, err
	}
	q, ok := m.quotes[ticker]
	if !ok {
		return domain.Quote{}, fmt.Errorf("no quote for %s", ticker)
	}
	return q, nil
}
