// Package handlers exposes the analytic operations over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/riskdesk/internal/domain"
	"github.com/aristath/riskdesk/internal/modules/analytics"
)

// Handler handles analytics HTTP requests
type Handler struct {
	service *analytics.Service
	log     zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// HandleCorrelation returns the correlation matrix of the requested tickers.
// Query: tickers (comma separated, at least 2), period (default 6M).
func (h *Handler) HandleCorrelation(w http.ResponseWriter, r *http.Request) {
	var tickers []string
	for _, t := range strings.Split(r.URL.Query().Get("tickers"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tickers = append(tickers, t)
		}
	}
	if len(tickers) < 2 {
		h.writeError(w, http.StatusBadRequest, map[string]string{"error": "at least 2 tickers are required"})
		return
	}

	period := domain.ParsePeriod(r.URL.Query().Get("period"), domain.Period6M)
	result, err := h.service.CorrelationMatrix(r.Context(), tickers, period)
	h.respond(w, result, err)
}

// HandleRisk returns the portfolio's risk metrics
func (h *Handler) HandleRisk(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RiskMetrics(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, result, err)
}

// HandleAttribution returns position and sector attribution. Query: period (default 1Y).
func (h *Handler) HandleAttribution(w http.ResponseWriter, r *http.Request) {
	period := domain.ParsePeriod(r.URL.Query().Get("period"), domain.Period1Y)
	result, err := h.service.Attribution(r.Context(), chi.URLParam(r, "id"), period)
	h.respond(w, result, err)
}

// HandleBenchmark compares the portfolio to a benchmark.
// Query: benchmark (default ^GSPC), period (default 1Y).
func (h *Handler) HandleBenchmark(w http.ResponseWriter, r *http.Request) {
	period := domain.ParsePeriod(r.URL.Query().Get("period"), domain.Period1Y)
	result, err := h.service.CompareToBenchmark(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("benchmark"), period)
	h.respond(w, result, err)
}

// HandleDiversification returns the diversification score
func (h *Handler) HandleDiversification(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Diversification(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, result, err)
}

func (h *Handler) respond(w http.ResponseWriter, result interface{}, err error) {
	if err != nil {
		var e *analytics.Error
		if !errors.As(err, &e) {
			e = &analytics.Error{Kind: analytics.KindInternal, Reason: err.Error()}
		}
		h.writeError(w, StatusFor(e.Kind), e)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind analytics.Kind) int {
	switch kind {
	case analytics.KindNotFound:
		return http.StatusNotFound
	case analytics.KindInsufficientData, analytics.KindMissingBenchmark, analytics.KindNoValue:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, body interface{}) {
	h.writeJSON(w, status, body)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
