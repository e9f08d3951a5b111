package alphavantage

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskdesk/internal/metrics"
)

func testutilCount(m *metrics.Registry, status string) float64 {
	return testutil.ToFloat64(m.ProviderRequests.WithLabelValues(providerName, status))
}

// TestParseFloat64 tests float parsing.
func TestParseFloat64(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"123.45", 123.45},
		{"0", 0},
		{"None", 0},
		{"", 0},
		{"null", 0},
		{"-", 0},
		{"50.5%", 50.5},
		{"-1.25%", -1.25},
		{"invalid", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseFloat64(tt.input))
		})
	}
}

// TestParseFloat64Ptr tests nullable float parsing.
func TestParseFloat64Ptr(t *testing.T) {
	tests := []struct {
		input    string
		isNil    bool
		expected float64
	}{
		{"123.45", false, 123.45},
		{"None", true, 0},
		{"", true, 0},
		{"null", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseFloat64Ptr(tt.input)
			if tt.isNil {
				assert.Nil(t, result)
			} else {
				require.NotNil(t, result)
				assert.Equal(t, tt.expected, *result)
			}
		})
	}
}

// TestParseInt64 tests integer parsing.
func TestParseInt64(t *testing.T) {
	assert.Equal(t, int64(12345), parseInt64("12345"))
	assert.Equal(t, int64(0), parseInt64("None"))
	assert.Equal(t, int64(0), parseInt64(""))
}

// TestParseDate tests date parsing.
func TestParseDate(t *testing.T) {
	d := parseDate("2024-01-15")
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.January, d.Month())
	assert.Equal(t, 15, d.Day())
	assert.Equal(t, time.UTC, d.Location())

	assert.True(t, parseDate("15/01/2024").IsZero())
}

// TestParseDateTime tests datetime parsing.
func TestParseDateTime(t *testing.T) {
	assert.Equal(t, 14, parseDateTime("2024-01-15 14:30:00").Hour())
	assert.False(t, parseDateTime("2024-01-15").IsZero())
	assert.True(t, parseDateTime("").IsZero())
}

// TestParseDailyTimeSeries tests daily time series parsing.
func TestParseDailyTimeSeries(t *testing.T) {
	prices, err := parseDailyTimeSeries([]byte(dailySeriesJSON))
	require.NoError(t, err)
	require.Len(t, prices, 2)

	// Should be sorted newest first
	assert.Equal(t, 15, prices[0].Date.Day())
	assert.Equal(t, 185.0, prices[0].Open)
	assert.Equal(t, 186.5, prices[0].High)
	assert.Equal(t, 184.5, prices[0].Low)
	assert.Equal(t, 186.2, prices[0].Close)
	assert.Equal(t, int64(3456789), prices[0].Volume)

	_, err = parseDailyTimeSeries([]byte(`{"Meta Data": {}}`))
	assert.Error(t, err)
}

// TestParseGlobalQuote tests global quote parsing.
func TestParseGlobalQuote(t *testing.T) {
	quote, err := parseGlobalQuote([]byte(globalQuoteJSON))
	require.NoError(t, err)

	assert.Equal(t, "IBM", quote.Symbol)
	assert.Equal(t, 185.0, quote.Open)
	assert.Equal(t, 186.2, quote.Price)
	assert.Equal(t, int64(3456789), quote.Volume)
	assert.Equal(t, 185.0, quote.PreviousClose)
	assert.Equal(t, 1.2, quote.Change)
	assert.Equal(t, 0.65, quote.ChangePercent)
	assert.Equal(t, 15, quote.LatestTradingDay.Day())
}

// BenchmarkParseFloat64 benchmarks float parsing.
func BenchmarkParseFloat64(b *testing.B) {
	for i := 0; i < b.N; i++ {
		parseFloat64("123.456789")
	}
}
