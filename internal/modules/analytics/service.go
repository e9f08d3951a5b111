package analytics

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/riskdesk/internal/domain"
	"github.com/aristath/riskdesk/internal/metrics"
	"github.com/aristath/riskdesk/pkg/formulas"
)

// fetchConcurrency bounds concurrent provider calls per operation
const fetchConcurrency = 8

// PositionSource supplies the positions of a portfolio
type PositionSource interface {
	GetPositions(ctx context.Context, portfolioID string) ([]domain.Position, error)
}

// Options configures the service
type Options struct {
	RiskFreeRate float64
	Benchmark    string
}

// DefaultOptions returns a 4% risk-free rate against the S&P 500
func DefaultOptions() Options {
	return Options{RiskFreeRate: 0.04, Benchmark: "^GSPC"}
}

// Service runs the analytic operations.
//
// Every operation returns either a result or an *Error; collaborator failures
// and panics never propagate to the caller. Price histories are fetched
// concurrently and a ticker whose fetch fails is excluded with a warning.
type Service struct {
	positions PositionSource
	market    domain.MarketDataProvider
	sectors   domain.SectorLookup
	metrics   *metrics.Registry
	opts      Options
	log       zerolog.Logger
}

// NewService creates an analytics service. m may be nil.
func NewService(positions PositionSource, market domain.MarketDataProvider, sectors domain.SectorLookup, m *metrics.Registry, opts Options, log zerolog.Logger) *Service {
	if opts.Benchmark == "" {
		opts.Benchmark = DefaultOptions().Benchmark
	}
	return &Service{
		positions: positions,
		market:    market,
		sectors:   sectors,
		metrics:   m,
		opts:      opts,
		log:       log.With().Str("service", "analytics").Logger(),
	}
}

// CorrelationMatrix correlates the daily returns of tickers over period
// (default 6M). Tickers are uppercased and deduplicated in request order.
func (s *Service) CorrelationMatrix(ctx context.Context, tickers []string, period domain.Period) (CorrelationMatrix, error) {
	return run(s, "correlation", func() (CorrelationMatrix, error) {
		tickers = dedupeTickers(tickers)
		if len(tickers) < 2 {
			return CorrelationMatrix{}, newError(KindInsufficientData, "need at least 2 tickers, have %d", len(tickers))
		}
		period = resolvePeriod(period, domain.Period6M)

		series := s.fetchSeries(ctx, tickers, period)
		return ComputeCorrelation(tickers, series)
	})
}

// RiskMetrics computes the one-year risk profile of a portfolio against the
// configured benchmark.
func (s *Service) RiskMetrics(ctx context.Context, portfolioID string) (RiskMetrics, error) {
	return run(s, "risk", func() (RiskMetrics, error) {
		positions, err := s.loadPositions(ctx, portfolioID)
		if err != nil {
			return RiskMetrics{}, err
		}

		values, _, benchmark, err := s.portfolioHistory(ctx, positions, domain.Period1Y, s.opts.Benchmark)
		if err != nil {
			return RiskMetrics{}, err
		}

		var marketReturns []float64
		if benchmark.Len() > 1 {
			marketReturns = formulas.CalculateReturns(benchmark.Closes())
		} else {
			s.log.Warn().Str("benchmark", s.opts.Benchmark).Msg("No benchmark history, beta defaults to 1.0")
		}

		result, err := ComputeRisk(values, marketReturns, s.opts.RiskFreeRate)
		if err != nil {
			return RiskMetrics{}, err
		}
		result.Benchmark = s.opts.Benchmark
		return result, nil
	})
}

// Attribution breaks down portfolio return by position and sector using
// live quotes (default period 1Y).
func (s *Service) Attribution(ctx context.Context, portfolioID string, period domain.Period) (Attribution, error) {
	return run(s, "attribution", func() (Attribution, error) {
		positions, err := s.loadPositions(ctx, portfolioID)
		if err != nil {
			return Attribution{}, err
		}

		prices := s.fetchQuotes(ctx, positions)
		result := ComputeAttribution(positions, prices, s.sectors)
		result.Period = string(resolvePeriod(period, domain.Period1Y))
		return result, nil
	})
}

// CompareToBenchmark compares compounded portfolio and benchmark returns
// (defaults: configured benchmark, 1Y).
func (s *Service) CompareToBenchmark(ctx context.Context, portfolioID, benchmark string, period domain.Period) (BenchmarkComparison, error) {
	return run(s, "benchmark", func() (BenchmarkComparison, error) {
		positions, err := s.loadPositions(ctx, portfolioID)
		if err != nil {
			return BenchmarkComparison{}, err
		}

		benchmark = domain.NormalizeTicker(benchmark)
		if benchmark == "" {
			benchmark = s.opts.Benchmark
		}
		period = resolvePeriod(period, domain.Period1Y)

		values, _, bench, err := s.portfolioHistory(ctx, positions, period, benchmark)
		if err != nil {
			return BenchmarkComparison{}, err
		}
		bench.Ticker = benchmark

		result, err := CompareBenchmark(values, bench)
		if err != nil {
			return BenchmarkComparison{}, err
		}
		result.Period = string(period)
		return result, nil
	})
}

// Diversification scores the concentration of the positions that have a
// live price. Unpriced tickers are reported, not counted.
func (s *Service) Diversification(ctx context.Context, portfolioID string) (Diversification, error) {
	return run(s, "diversification", func() (Diversification, error) {
		positions, err := s.loadPositions(ctx, portfolioID)
		if err != nil {
			return Diversification{}, err
		}

		prices := s.fetchQuotes(ctx, positions)
		var (
			values   []float64
			unpriced []string
		)
		for _, pos := range positions {
			price, ok := prices[pos.Ticker]
			if !ok {
				unpriced = append(unpriced, pos.Ticker)
				continue
			}
			values = append(values, pos.SharesFloat()*price)
		}

		result, err := ComputeDiversification(values)
		if err != nil {
			return Diversification{}, err
		}
		result.Unpriced = unpriced
		return result, nil
	})
}

// run executes op, converting every failure into *Error and recording metrics
func run[T any](s *Service, op string, fn func() (T, error)) (result T, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Str("operation", op).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Analytics operation panicked")
			var zero T
			result, err = zero, newError(KindInternal, "%s failed unexpectedly", op)
		}

		outcome := "ok"
		if err != nil {
			outcome = string(KindOf(err))
		}
		s.metrics.ObserveAnalytics(op, outcome, time.Since(start))
	}()

	result, err = fn()
	if err != nil {
		e := asError(err)
		if e.Kind == KindInternal {
			s.log.Error().Err(err).Str("operation", op).Msg("Analytics operation failed")
		} else {
			s.log.Debug().Str("operation", op).Str("kind", string(e.Kind)).Msg(e.Reason)
		}
		return result, e
	}
	return result, nil
}

func (s *Service) loadPositions(ctx context.Context, portfolioID string) ([]domain.Position, error) {
	positions, err := s.positions.GetPositions(ctx, portfolioID)
	if err != nil {
		if errors.Is(err, domain.ErrPortfolioNotFound) {
			return nil, newError(KindNotFound, "portfolio %s not found", portfolioID)
		}
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	held := make([]domain.Position, 0, len(positions))
	for _, pos := range positions {
		if pos.Shares.IsPositive() {
			held = append(held, pos)
		}
	}
	if len(held) == 0 {
		return nil, newError(KindNotFound, "portfolio %s has no positions", portfolioID)
	}
	return held, nil
}

// portfolioHistory fetches every position's history plus the benchmark in
// one fan-out and returns the aligned portfolio value series.
func (s *Service) portfolioHistory(ctx context.Context, positions []domain.Position, period domain.Period, benchmark string) ([]float64, []time.Time, domain.PriceSeries, error) {
	tickers := make([]string, 0, len(positions)+1)
	for _, pos := range positions {
		tickers = append(tickers, pos.Ticker)
	}
	tickers = dedupeTickers(append(tickers, benchmark))

	series := s.fetchSeries(ctx, tickers, period)

	holdings := make([]Holding, 0, len(positions))
	for _, pos := range positions {
		ps, ok := series[pos.Ticker]
		if !ok {
			continue
		}
		holdings = append(holdings, Holding{Ticker: pos.Ticker, Shares: pos.SharesFloat(), Series: ps})
	}
	if len(holdings) == 0 {
		return nil, nil, domain.PriceSeries{}, newError(KindInsufficientData, "no price history for any position")
	}

	values, dates := ValueSeries(holdings)
	return values, dates, series[benchmark], nil
}

// fetchSeries fetches histories concurrently. Failed or empty fetches are
// logged and left out of the result.
func (s *Service) fetchSeries(ctx context.Context, tickers []string, period domain.Period) map[string]domain.PriceSeries {
	var (
		mu  sync.Mutex
		out = make(map[string]domain.PriceSeries, len(tickers))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, ticker := range tickers {
		ticker := ticker
		g.Go(func() error {
			ps, err := s.market.GetPriceSeries(gctx, ticker, period)
			if err != nil {
				s.log.Warn().Err(err).Str("ticker", ticker).Msg("Excluding ticker: price history unavailable")
				return nil
			}
			if ps.Len() == 0 {
				s.log.Warn().Str("ticker", ticker).Msg("Excluding ticker: empty price history")
				return nil
			}
			mu.Lock()
			out[ticker] = ps
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// fetchQuotes returns live prices by ticker; tickers without a usable quote
// are absent from the map.
func (s *Service) fetchQuotes(ctx context.Context, positions []domain.Position) map[string]float64 {
	var (
		mu  sync.Mutex
		out = make(map[string]float64, len(positions))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, pos := range positions {
		ticker := pos.Ticker
		g.Go(func() error {
			q, err := s.market.GetQuote(gctx, ticker)
			if err != nil || q.Price <= 0 {
				s.log.Warn().Err(err).Str("ticker", ticker).Msg("No live price, valuing at cost basis")
				return nil
			}
			mu.Lock()
			out[ticker] = q.Price
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func dedupeTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = domain.NormalizeTicker(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func resolvePeriod(p, def domain.Period) domain.Period {
	if p.Valid() {
		return p
	}
	return def
}
