package marketdata

import (
	"strings"
	"time"

	"github.com/aristath/riskdesk/internal/domain"
)

// Default TTLs, added to time.Now() when storing.
const (
	TTLQuote       = time.Minute // intraday quotes move constantly
	TTLPriceSeries = time.Hour   // daily closes change once per session

	// StaleHistoryAfter is how old a ticker's last sync may be before the
	// provider refreshes it from upstream on read.
	StaleHistoryAfter = 12 * time.Hour
)

// Cache namespaces
const (
	cacheQuote  = "quote"
	cacheSeries = "series"
)

func quoteKey(ticker string) string {
	return cacheQuote + ":" + ticker
}

func seriesKey(ticker string, period domain.Period) string {
	return strings.Join([]string{cacheSeries, ticker, string(period)}, ":")
}
