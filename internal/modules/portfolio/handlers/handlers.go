// Package handlers provides HTTP handlers for portfolio management.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/riskdesk/internal/domain"
	"github.com/aristath/riskdesk/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service  *portfolio.Service
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.With().Str("handler", "portfolio").Logger(),
	}
}

type createPortfolioRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type positionRequest struct {
	PurchaseDate time.Time       `json:"purchase_date"`
	Ticker       string          `json:"ticker" validate:"required,max=20"`
	Shares       decimal.Decimal `json:"shares"`
	CostBasis    decimal.Decimal `json:"cost_basis"`
}

type updatePositionRequest struct {
	Shares    decimal.Decimal `json:"shares"`
	CostBasis decimal.Decimal `json:"cost_basis"`
}

type transactionRequest struct {
	ExecutedAt time.Time       `json:"executed_at"`
	Ticker     string          `json:"ticker" validate:"required,max=20"`
	Type       string          `json:"type" validate:"required,oneof=BUY SELL"`
	Notes      string          `json:"notes" validate:"max=500"`
	Shares     decimal.Decimal `json:"shares"`
	Price      decimal.Decimal `json:"price"`
}

// HandleListPortfolios returns all portfolios
func (h *Handler) HandleListPortfolios(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.service.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, portfolios)
}

// HandleCreatePortfolio creates an empty portfolio
func (h *Handler) HandleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req createPortfolioRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeData(w, http.StatusCreated, p)
}

// HandleGetPortfolio returns a portfolio with its positions
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, p)
}

// HandleDeletePortfolio removes a portfolio and everything it owns
func (h *Handler) HandleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetPositions lists positions of a portfolio
func (h *Handler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.service.GetPositions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, positions)
}

// HandleAddPosition adds or merges a position
func (h *Handler) HandleAddPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if !h.decode(w, r, &req) {
		return
	}

	pos, err := h.service.AddPosition(r.Context(), chi.URLParam(r, "id"), portfolio.PositionInput{
		PurchaseDate: req.PurchaseDate,
		Ticker:       req.Ticker,
		Shares:       req.Shares,
		CostBasis:    req.CostBasis,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeData(w, http.StatusCreated, pos)
}

// HandleUpdatePosition overwrites shares and cost basis
func (h *Handler) HandleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	var req updatePositionRequest
	if !h.decode(w, r, &req) {
		return
	}

	pos, err := h.service.UpdatePosition(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "positionID"),
		req.Shares, req.CostBasis)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, pos)
}

// HandleDeletePosition removes a position
func (h *Handler) HandleDeletePosition(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemovePosition(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "positionID")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetTransactions lists recent trades. Query: limit (default 100).
func (h *Handler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	txs, err := h.service.Transactions(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, txs)
}

// HandleRecordTransaction records a BUY or SELL and updates the position
func (h *Handler) HandleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !h.decode(w, r, &req) {
		return
	}

	t, err := h.service.RecordTransaction(r.Context(), chi.URLParam(r, "id"), portfolio.TradeRequest{
		ExecutedAt: req.ExecutedAt,
		Ticker:     req.Ticker,
		Type:       domain.TransactionType(req.Type),
		Notes:      req.Notes,
		Shares:     req.Shares,
		Price:      req.Price,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeData(w, http.StatusCreated, t)
}

// HandleGetSnapshots returns daily value snapshots. Query: days (default 365).
func (h *Handler) HandleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days <= 0 {
		days = 365
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	snapshots, err := h.service.Snapshots(r.Context(), chi.URLParam(r, "id"), since)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, snapshots)
}

// decode parses and validates a JSON body, writing a 400 on failure
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dest); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, portfolio.ErrNotFound), errors.Is(err, portfolio.ErrPositionNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, portfolio.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInsufficientShares), errors.Is(err, domain.ErrInvalidQuantity):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error().Err(err).Msg("Portfolio request failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
