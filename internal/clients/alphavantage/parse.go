package alphavantage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DailyPrice is one row of TIME_SERIES_DAILY
type DailyPrice struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// GlobalQuote is the GLOBAL_QUOTE payload
type GlobalQuote struct {
	LatestTradingDay time.Time
	Symbol           string
	Open             float64
	High             float64
	Low              float64
	Price            float64
	PreviousClose    float64
	Change           float64
	ChangePercent    float64
	Volume           int64
}

// parseFloat64 tolerates the placeholders the API uses for missing values
func parseFloat64(s string) float64 {
	if p := parseFloat64Ptr(s); p != nil {
		return *p
	}
	return 0
}

func parseFloat64Ptr(s string) *float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	switch s {
	case "", "None", "null", "-":
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseInt64(s string) int64 {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return i
}

func parseDate(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDateTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC); err == nil {
		return t
	}
	return parseDate(s)
}

type dailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// parseDailyTimeSeries returns the bars newest first
func parseDailyTimeSeries(body []byte) ([]DailyPrice, error) {
	var resp struct {
		Series map[string]dailyBar `json:"Time Series (Daily)"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode daily series: %w", err)
	}
	if resp.Series == nil {
		return nil, fmt.Errorf("daily series missing from response")
	}

	prices := make([]DailyPrice, 0, len(resp.Series))
	for day, bar := range resp.Series {
		date := parseDate(day)
		if date.IsZero() {
			continue
		}
		prices = append(prices, DailyPrice{
			Date:   date,
			Open:   parseFloat64(bar.Open),
			High:   parseFloat64(bar.High),
			Low:    parseFloat64(bar.Low),
			Close:  parseFloat64(bar.Close),
			Volume: parseInt64(bar.Volume),
		})
	}

	sort.Slice(prices, func(i, j int) bool {
		return prices[i].Date.After(prices[j].Date)
	})
	return prices, nil
}

func parseGlobalQuote(body []byte) (*GlobalQuote, error) {
	var resp struct {
		Quote map[string]string `json:"Global Quote"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode global quote: %w", err)
	}
	q := resp.Quote
	if len(q) == 0 || q["01. symbol"] == "" {
		return nil, fmt.Errorf("global quote missing from response")
	}

	return &GlobalQuote{
		Symbol:           q["01. symbol"],
		Open:             parseFloat64(q["02. open"]),
		High:             parseFloat64(q["03. high"]),
		Low:              parseFloat64(q["04. low"]),
		Price:            parseFloat64(q["05. price"]),
		Volume:           parseInt64(q["06. volume"]),
		LatestTradingDay: parseDate(q["07. latest trading day"]),
		PreviousClose:    parseFloat64(q["08. previous close"]),
		Change:           parseFloat64(q["09. change"]),
		ChangePercent:    parseFloat64(q["10. change percent"]),
	}, nil
}
