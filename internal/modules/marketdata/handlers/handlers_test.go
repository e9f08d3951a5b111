package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskdesk/internal/modules/marketdata"
	testingpkg "github.com/aristath/riskdesk/internal/testing"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	market := testingpkg.NewMockMarketData()
	market.SetSeries(testingpkg.SeriesFromPrices("AAPL", []float64{100, 110, 121}))
	market.SetQuote("AAPL", 121)
	market.SetError("NOPE", fmt.Errorf("NOPE: %w", marketdata.ErrNoQuote))
	market.SetError("BROKEN", errors.New("database is locked"))

	router := chi.NewRouter()
	NewHandler(market, zerolog.Nop()).RegisterRoutes(router)
	return router
}

func get(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHandleGetPrices(t *testing.T) {
	router := setupRouter(t)

	rec, body := get(t, router, "/prices/AAPL?period=1M")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "AAPL", data["ticker"])
	assert.Equal(t, 3.0, data["count"])
	assert.Contains(t, body["metadata"], "timestamp")
}

func TestHandleGetReturns(t *testing.T) {
	router := setupRouter(t)

	rec, body := get(t, router, "/prices/AAPL/returns")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, 2.0, data["count"])
	assert.Equal(t, 21.0, data["total_return_pct"])
	assert.Equal(t, 0.0, data["annual_volatility_pct"])
}

func TestHandleGetPrices_Errors(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		path   string
		status int
	}{
		{"/prices/UNKNOWN", http.StatusNotFound},
		{"/prices/BROKEN", http.StatusInternalServerError},
		{"/prices/UNKNOWN/returns", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, body := get(t, router, tt.path)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHandleGetQuote(t *testing.T) {
	router := setupRouter(t)

	rec, body := get(t, router, "/quotes/AAPL")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 121.0, body["data"].(map[string]interface{})["price"])

	rec, _ = get(t, router, "/quotes/NOPE")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = get(t, router, "/quotes/BROKEN")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
