// Package alphavantage is a rate-limited client for the Alpha Vantage market data API.
package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/aristath/riskdesk/internal/metrics"
)

const providerName = "alphavantage"

// Output sizes for TIME_SERIES_DAILY
const (
	OutputCompact = "compact" // latest 100 bars
	OutputFull    = "full"    // 20+ years
)

// ClientInterface is the subset of the API riskdesk uses
type ClientInterface interface {
	GetDailyPrices(ctx context.Context, symbol, outputSize string) ([]DailyPrice, error)
	GetGlobalQuote(ctx context.Context, symbol string) (*GlobalQuote, error)
	GetRemainingRequests() int
}

// Config configures the client
type Config struct {
	APIKey            string
	BaseURL           string
	RequestsPerMinute int
	DailyLimit        int
	Timeout           time.Duration
}

// Client for alphavantage.co
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	metrics    *metrics.Registry
	log        zerolog.Logger

	mu         sync.Mutex
	dailyLimit int
	dailyCount int
	resetAt    time.Time
}

// NewClient creates a client. m may be nil.
func NewClient(cfg Config, m *metrics.Registry, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.alphavantage.co/query"
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 5
	}
	if cfg.DailyLimit <= 0 {
		cfg.DailyLimit = 25
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		metrics:    m,
		log:        log.With().Str("client", providerName).Logger(),
		dailyLimit: cfg.DailyLimit,
		resetAt:    nextMidnightUTC(),
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        providerName,
		MaxRequests: 1,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Caller errors do not indicate an unhealthy upstream
		IsSuccessful: func(err error) bool {
			var notFound ErrSymbolNotFound
			return err == nil || errors.As(err, &notFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	})

	return c
}

// GetDailyPrices fetches TIME_SERIES_DAILY, newest first
func (c *Client) GetDailyPrices(ctx context.Context, symbol, outputSize string) ([]DailyPrice, error) {
	if outputSize == "" {
		outputSize = OutputCompact
	}
	body, err := c.call(ctx, symbol, url.Values{
		"function":   {"TIME_SERIES_DAILY"},
		"symbol":     {symbol},
		"outputsize": {outputSize},
	})
	if err != nil {
		return nil, err
	}

	prices, err := parseDailyTimeSeries(body)
	if err != nil {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}
	return prices, nil
}

// GetGlobalQuote fetches the latest quote for symbol
func (c *Client) GetGlobalQuote(ctx context.Context, symbol string) (*GlobalQuote, error) {
	body, err := c.call(ctx, symbol, url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
	})
	if err != nil {
		return nil, err
	}

	quote, err := parseGlobalQuote(body)
	if err != nil {
		return nil, ErrSymbolNotFound{Symbol: symbol}
	}
	return quote, nil
}

// call runs one request through the quota, the limiter and the breaker
func (c *Client) call(ctx context.Context, symbol string, params url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrInvalidAPIKey{}
	}
	if err := c.checkRateLimit(); err != nil {
		c.metrics.ProviderRequest(providerName, "quota")
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, params)
	})
	if err != nil {
		status := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			status = "circuit_open"
		}
		c.metrics.ProviderRequest(providerName, status)
		c.log.Warn().Err(err).Str("symbol", symbol).Str("function", params.Get("function")).Msg("Request failed")
		return nil, err
	}

	c.metrics.ProviderRequest(providerName, "ok")
	return result.([]byte), nil
}

func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	c.log.Debug().Str("function", params.Get("function")).Str("symbol", params.Get("symbol")).Msg("Fetching")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if err := c.checkAPIError(body); err != nil {
		var notFound ErrSymbolNotFound
		if errors.As(err, &notFound) {
			notFound.Symbol = params.Get("symbol")
			return nil, notFound
		}
		return nil, err
	}
	return body, nil
}

// checkAPIError detects the error payloads the API returns with status 200
func (c *Client) checkAPIError(body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "Thank you for using Alpha Vantage") {
		return ErrRateLimitExceeded{}
	}

	var probe struct {
		Note         string `json:"Note"`
		Information  string `json:"Information"`
		ErrorMessage string `json:"Error Message"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return fmt.Errorf("unexpected response: %.80s", trimmed)
	}

	switch {
	case probe.Note != "":
		return ErrRateLimitExceeded{}
	case strings.Contains(strings.ToLower(probe.Information), "api key"):
		return ErrInvalidAPIKey{}
	case probe.Information != "":
		return ErrRateLimitExceeded{}
	case probe.ErrorMessage != "":
		if strings.Contains(strings.ToLower(probe.ErrorMessage), "apikey") {
			return ErrInvalidAPIKey{}
		}
		return ErrSymbolNotFound{}
	}
	return nil
}

// checkRateLimit consumes one request from the daily quota
func (c *Client) checkRateLimit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().UTC().After(c.resetAt) {
		c.dailyCount = 0
		c.resetAt = nextMidnightUTC()
	}
	if c.dailyCount >= c.dailyLimit {
		return ErrRateLimitExceeded{}
	}
	c.dailyCount++
	return nil
}

// GetRemainingRequests returns the unused daily quota
func (c *Client) GetRemainingRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dailyLimit - c.dailyCount
}

// ResetDailyCounter restores the full daily quota
func (c *Client) ResetDailyCounter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dailyCount = 0
	c.resetAt = nextMidnightUTC()
}

func nextMidnightUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
}
