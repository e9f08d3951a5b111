// Package handlers provides HTTP handlers for stored price history and quotes.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/riskdesk/internal/domain"
	"github.com/aristath/riskdesk/internal/modules/marketdata"
	"github.com/aristath/riskdesk/pkg/formulas"
)

// Handler handles price data HTTP requests
type Handler struct {
	market domain.MarketDataProvider
	log    zerolog.Logger
}

// NewHandler creates a new price data handler
func NewHandler(market domain.MarketDataProvider, log zerolog.Logger) *Handler {
	return &Handler{
		market: market,
		log:    log.With().Str("handler", "prices").Logger(),
	}
}

// HandleGetPrices handles GET /api/prices/{ticker}?period=1Y
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	series, ok := h.series(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"ticker": series.Ticker,
			"prices": series.Points,
			"count":  series.Len(),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetReturns handles GET /api/prices/{ticker}/returns?period=1Y
func (h *Handler) HandleGetReturns(w http.ResponseWriter, r *http.Request) {
	series, ok := h.series(w, r)
	if !ok {
		return
	}

	returns := formulas.CalculateReturns(series.Closes())

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"ticker":                series.Ticker,
			"returns":               returns,
			"count":                 len(returns),
			"total_return_pct":      formulas.Round(formulas.TotalReturnPct(returns), 2),
			"annual_volatility_pct": formulas.Round(formulas.AnnualizedVolatility(returns)*100, 2),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetQuote handles GET /api/quotes/{ticker}
func (h *Handler) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	quote, err := h.market.GetQuote(r.Context(), ticker)
	if errors.Is(err, marketdata.ErrNoQuote) {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to get quote")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get quote"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": quote,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// series loads the requested series, writing the error response itself on failure
func (h *Handler) series(w http.ResponseWriter, r *http.Request) (domain.PriceSeries, bool) {
	ticker := chi.URLParam(r, "ticker")
	period := domain.ParsePeriod(r.URL.Query().Get("period"), domain.Period1Y)

	series, err := h.market.GetPriceSeries(r.Context(), ticker, period)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to get price series")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get prices"})
		return domain.PriceSeries{}, false
	}
	if series.Len() == 0 {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no prices stored for " + domain.NormalizeTicker(ticker)})
		return domain.PriceSeries{}, false
	}
	return series, true
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
