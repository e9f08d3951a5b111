package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskdesk/internal/database"
	"github.com/aristath/riskdesk/internal/modules/portfolio"
	testingpkg "github.com/aristath/riskdesk/internal/testing"
)

type envelope struct {
	Data     json.RawMessage        `json:"data"`
	Metadata map[string]interface{} `json:"metadata"`
	Error    string                 `json:"error"`
}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, database.NamePortfolio)
	t.Cleanup(cleanup)

	repo := portfolio.NewRepository(db.Conn(), zerolog.Nop())
	service := portfolio.NewService(repo, testingpkg.NewMockMarketData(), zerolog.Nop())

	router := chi.NewRouter()
	NewHandler(service, zerolog.Nop()).RegisterRoutes(router)
	return router
}

func do(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func createPortfolio(t *testing.T, router http.Handler) string {
	t.Helper()
	rec, env := do(t, router, "POST", "/portfolios/", `{"name":"Main"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var p struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p.ID
}

func TestPortfolioLifecycle(t *testing.T) {
	router := setupRouter(t)
	id := createPortfolio(t, router)

	rec, env := do(t, router, "GET", "/portfolios/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), id)
	assert.NotEmpty(t, env.Metadata["timestamp"])

	rec, _ = do(t, router, "POST", "/portfolios/"+id+"/transactions",
		`{"ticker":"aapl","type":"BUY","shares":"10","price":"150.5"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, env = do(t, router, "GET", "/portfolios/"+id+"/positions", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var positions []struct {
		ID        string `json:"id"`
		Ticker    string `json:"ticker"`
		Shares    string `json:"shares"`
		CostBasis string `json:"cost_basis"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &positions))
	require.Len(t, positions, 1)
	assert.Equal(t, "AAPL", positions[0].Ticker)
	assert.Equal(t, "150.5", positions[0].CostBasis)

	rec, _ = do(t, router, "PUT", "/portfolios/"+id+"/positions/"+positions[0].ID,
		`{"shares":"5","cost_basis":"140"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, router, "GET", "/portfolios/"+id+"/transactions?limit=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"type":"BUY"`)

	rec, _ = do(t, router, "GET", "/portfolios/"+id+"/snapshots", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, router, "DELETE", "/portfolios/"+id+"/positions/"+positions[0].ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = do(t, router, "DELETE", "/portfolios/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = do(t, router, "GET", "/portfolios/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestErrors(t *testing.T) {
	router := setupRouter(t)
	id := createPortfolio(t, router)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"malformed json", "POST", "/portfolios/", `{`, http.StatusBadRequest},
		{"missing name", "POST", "/portfolios/", `{"description":"x"}`, http.StatusBadRequest},
		{"bad trade type", "POST", "/portfolios/" + id + "/transactions",
			`{"ticker":"A","type":"HOLD","shares":"1","price":"1"}`, http.StatusBadRequest},
		{"zero shares", "POST", "/portfolios/" + id + "/transactions",
			`{"ticker":"A","type":"BUY","shares":"0","price":"1"}`, http.StatusUnprocessableEntity},
		{"oversell", "POST", "/portfolios/" + id + "/transactions",
			`{"ticker":"A","type":"SELL","shares":"1","price":"1"}`, http.StatusUnprocessableEntity},
		{"unknown portfolio", "GET", "/portfolios/missing/positions", "", http.StatusNotFound},
		{"unknown position", "DELETE", "/portfolios/" + id + "/positions/missing", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, env.Error)
		})
	}
}
