package domain

import "context"

// PriceSeriesProvider returns daily close history for a ticker.
// Implementations return an empty series (not an error) when the ticker has no data.
type PriceSeriesProvider interface {
	GetPriceSeries(ctx context.Context, ticker string, period Period) (PriceSeries, error)
}

// QuoteProvider returns the latest price for a ticker
type QuoteProvider interface {
	GetQuote(ctx context.Context, ticker string) (Quote, error)
}

// MarketDataProvider is the full market data collaborator
type MarketDataProvider interface {
	PriceSeriesProvider
	QuoteProvider
}

// SectorLookup maps a ticker to its sector.
// Unknown tickers map to DefaultSector.
type SectorLookup interface {
	Sector(ticker string) string
}

// DefaultSector is the sector for tickers with no mapping
const DefaultSector = "Other"
