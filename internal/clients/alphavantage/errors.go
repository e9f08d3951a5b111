package alphavantage

import "fmt"

// ErrRateLimitExceeded is returned when the daily quota is spent or the API
// reports throttling.
type ErrRateLimitExceeded struct{}

func (ErrRateLimitExceeded) Error() string {
	return "alpha vantage rate limit exceeded"
}

// ErrInvalidAPIKey is returned when no key is configured or the API rejects it
type ErrInvalidAPIKey struct{}

func (ErrInvalidAPIKey) Error() string {
	return "alpha vantage API key missing or invalid"
}

// ErrSymbolNotFound is returned when the API has no data for a symbol
type ErrSymbolNotFound struct {
	Symbol string
}

func (e ErrSymbolNotFound) Error() string {
	return fmt.Sprintf("alpha vantage: symbol %s not found", e.Symbol)
}
