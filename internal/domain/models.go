// Package domain provides the core portfolio and market data types shared by
// the analytics engines, repositories and providers.
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity is returned when a trade quantity or price is not positive.
	ErrInvalidQuantity = errors.New("quantity and price must be positive")
	// ErrInsufficientShares is returned when a sell exceeds the shares held.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrPortfolioNotFound is returned by position sources for unknown portfolios.
	ErrPortfolioNotFound = errors.New("portfolio not found")
)

// NormalizeTicker returns the canonical (trimmed, uppercased) ticker.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Portfolio is a named collection of positions
type Portfolio struct {
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Positions   []Position `json:"positions,omitempty"`
}

// Position is a holding of a single ticker. Shares and cost basis are exact decimals.
type Position struct {
	PurchaseDate time.Time       `json:"purchase_date"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ID           string          `json:"id"`
	PortfolioID  string          `json:"portfolio_id"`
	Ticker       string          `json:"ticker"`
	Shares       decimal.Decimal `json:"shares"`
	CostBasis    decimal.Decimal `json:"cost_basis"` // per share
}

// SharesFloat returns shares as float64 for numeric work
func (p Position) SharesFloat() float64 {
	return p.Shares.InexactFloat64()
}

// CostBasisFloat returns the per-share cost basis as float64
func (p Position) CostBasisFloat() float64 {
	return p.CostBasis.InexactFloat64()
}

// CostValue is shares × cost basis
func (p Position) CostValue() decimal.Decimal {
	return p.Shares.Mul(p.CostBasis)
}

// ApplyBuy adds qty shares bought at price, updating the cost basis to the
// weighted average of the existing and new lots.
func (p *Position) ApplyBuy(qty, price decimal.Decimal) error {
	if !qty.IsPositive() || !price.IsPositive() {
		return ErrInvalidQuantity
	}

	total := p.Shares.Add(qty)
	p.CostBasis = p.CostValue().Add(qty.Mul(price)).Div(total)
	p.Shares = total
	return nil
}

// ApplySell removes qty shares. Cost basis is unchanged. Returns true when the
// position is fully closed and should be removed.
func (p *Position) ApplySell(qty decimal.Decimal) (bool, error) {
	if !qty.IsPositive() {
		return false, ErrInvalidQuantity
	}
	if qty.GreaterThan(p.Shares) {
		return false, ErrInsufficientShares
	}

	p.Shares = p.Shares.Sub(qty)
	return !p.Shares.IsPositive(), nil
}

// TransactionType is BUY or SELL
type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	return t == TransactionBuy || t == TransactionSell
}

// Transaction is a recorded trade against a portfolio
type Transaction struct {
	ExecutedAt  time.Time       `json:"executed_at"`
	CreatedAt   time.Time       `json:"created_at"`
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolio_id"`
	Ticker      string          `json:"ticker"`
	Type        TransactionType `json:"type"`
	Notes       string          `json:"notes,omitempty"`
	Shares      decimal.Decimal `json:"shares"`
	Price       decimal.Decimal `json:"price"`
}

// Snapshot is the end-of-day value of a portfolio
type Snapshot struct {
	Date           time.Time `json:"date"`
	PortfolioID    string    `json:"portfolio_id"`
	TotalValue     float64   `json:"total_value"`
	TotalCost      float64   `json:"total_cost"`
	DailyReturnPct float64   `json:"daily_return_pct"`
}
