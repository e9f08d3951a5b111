// Package analytics turns price histories and positions into risk, return,
// correlation, attribution and diversification metrics.
package analytics

import "time"

// MinObservations is the number of aligned daily returns risk metrics require
const MinObservations = 30

// TopPositions caps the rows returned by attribution
const TopPositions = 10

// RiskMetrics is the risk profile of a portfolio over its aligned history.
// Ratios are rounded to 3 decimals, percentages to 2.
type RiskMetrics struct {
	Beta           float64 `json:"beta"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	SortinoRatio   float64 `json:"sortino_ratio"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	VaR95Pct       float64 `json:"var_95_pct"`
	CVaR95Pct      float64 `json:"cvar_95_pct"`
	VolatilityPct  float64 `json:"volatility_pct"`
	RiskFreeRate   float64 `json:"risk_free_rate"`
	Observations   int     `json:"observations"`
	Benchmark      string  `json:"benchmark"`
}

// CorrelationMatrix is a symmetric matrix keyed by Tickers in row/column order
type CorrelationMatrix struct {
	Tickers      []string    `json:"tickers"`
	Matrix       [][]float64 `json:"matrix"`
	Observations int         `json:"observations"`
	Excluded     []string    `json:"excluded,omitempty"`
}

// AttributionRow is one position's contribution to portfolio return
type AttributionRow struct {
	Ticker         string  `json:"ticker"`
	Sector         string  `json:"sector"`
	ReturnPct      float64 `json:"return_pct"`
	CurrentPrice   float64 `json:"current_price"`
	CurrentValue   float64 `json:"current_value"`
	WeightPct      float64 `json:"weight_pct"`
	WeightedReturn float64 `json:"weighted_return"`
	Priced         bool    `json:"priced"`
}

// SectorRow aggregates attribution across the positions of one sector
type SectorRow struct {
	Sector         string  `json:"sector"`
	WeightPct      float64 `json:"weight_pct"`
	WeightedReturn float64 `json:"weighted_return"`
	Positions      int     `json:"positions"`
}

// Attribution is the per-position and per-sector breakdown of return
type Attribution struct {
	Positions      []AttributionRow `json:"positions"`
	Sectors        []SectorRow      `json:"sectors"`
	TotalPositions int              `json:"total_positions"`
	TotalValue     float64          `json:"total_value"`
	TotalReturnPct float64          `json:"total_return_pct"`
	Period         string           `json:"period,omitempty"`
}

// BenchmarkChart holds both cumulative curves (×100) on shared dates
type BenchmarkChart struct {
	Dates     []time.Time `json:"dates"`
	Portfolio []float64   `json:"portfolio"`
	Benchmark []float64   `json:"benchmark"`
}

// BenchmarkComparison compares compounded portfolio and benchmark returns
type BenchmarkComparison struct {
	Benchmark          string         `json:"benchmark"`
	BenchmarkName      string         `json:"benchmark_name"`
	Period             string         `json:"period,omitempty"`
	PortfolioReturnPct float64        `json:"portfolio_return_pct"`
	BenchmarkReturnPct float64        `json:"benchmark_return_pct"`
	Alpha              float64        `json:"alpha"`
	Observations       int            `json:"observations"`
	Chart              BenchmarkChart `json:"chart"`
}

// Concentration levels by largest single weight
const (
	ConcentrationHigh   = "High"
	ConcentrationMedium = "Medium"
	ConcentrationLow    = "Low"
)

// Diversification summarizes how concentrated the priced holdings are
type Diversification struct {
	Score             float64  `json:"score"`
	HHI               float64  `json:"hhi"`
	EffectiveHoldings float64  `json:"effective_holdings"`
	Concentration     string   `json:"concentration"`
	Top3WeightPct     float64  `json:"top3_weight_pct"`
	MaxWeightPct      float64  `json:"max_weight_pct"`
	Holdings          int      `json:"holdings"`
	TotalValue        float64  `json:"total_value"`
	Unpriced          []string `json:"unpriced,omitempty"`
}
