package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/riskdesk/internal/domain"
)

// TradeRequest describes a BUY or SELL to record against a portfolio
type TradeRequest struct {
	ExecutedAt time.Time
	Ticker     string
	Type       domain.TransactionType
	Notes      string
	Shares     decimal.Decimal
	Price      decimal.Decimal
}

// PositionInput sets a position directly, bypassing the transaction log
type PositionInput struct {
	PurchaseDate time.Time
	Ticker       string
	Shares       decimal.Decimal
	CostBasis    decimal.Decimal
}

// Service orchestrates portfolio bookkeeping.
//
// Trades are applied to positions with weighted-average cost basis inside a
// single database transaction, so the position and the transaction log never
// disagree.
type Service struct {
	repo   *Repository
	quotes domain.QuoteProvider
	now    func() time.Time
	log    zerolog.Logger
}

// NewService creates a portfolio service. quotes may be nil when snapshots
// are not needed.
func NewService(repo *Repository, quotes domain.QuoteProvider, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		quotes: quotes,
		now:    time.Now,
		log:    log.With().Str("service", "portfolio").Logger(),
	}
}

// Create creates an empty portfolio
func (s *Service) Create(ctx context.Context, name, description string) (domain.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Portfolio{}, fmt.Errorf("%w: portfolio name is required", ErrInvalidInput)
	}

	now := s.now().UTC()
	p := domain.Portfolio{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreatePortfolio(ctx, p); err != nil {
		return domain.Portfolio{}, err
	}

	s.log.Info().Str("portfolio_id", p.ID).Str("name", p.Name).Msg("Portfolio created")
	return p, nil
}

// Get returns a portfolio with its positions
func (s *Service) Get(ctx context.Context, id string) (domain.Portfolio, error) {
	p, err := s.repo.GetPortfolio(ctx, id)
	if err != nil {
		return domain.Portfolio{}, err
	}
	p.Positions, err = s.repo.GetPositions(ctx, id)
	if err != nil {
		return domain.Portfolio{}, err
	}
	return p, nil
}

// List returns all portfolios without positions
func (s *Service) List(ctx context.Context) ([]domain.Portfolio, error) {
	return s.repo.ListPortfolios(ctx)
}

// Delete removes a portfolio
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeletePortfolio(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("portfolio_id", id).Msg("Portfolio deleted")
	return nil
}

// GetPositions returns the positions of an existing portfolio.
// A missing portfolio yields ErrNotFound; an empty one yields an empty slice.
func (s *Service) GetPositions(ctx context.Context, portfolioID string) ([]domain.Position, error) {
	if _, err := s.repo.GetPortfolio(ctx, portfolioID); err != nil {
		return nil, err
	}
	return s.repo.GetPositions(ctx, portfolioID)
}

// AddPosition creates a position or merges into the existing one for the
// same ticker using weighted-average cost.
func (s *Service) AddPosition(ctx context.Context, portfolioID string, in PositionInput) (domain.Position, error) {
	ticker := domain.NormalizeTicker(in.Ticker)
	if ticker == "" {
		return domain.Position{}, fmt.Errorf("%w: ticker is required", ErrInvalidInput)
	}
	if !in.Shares.IsPositive() || in.CostBasis.IsNegative() {
		return domain.Position{}, domain.ErrInvalidQuantity
	}

	var result domain.Position
	err := s.repo.WithTx(func(tx *Repository) error {
		if _, err := tx.GetPortfolio(ctx, portfolioID); err != nil {
			return err
		}

		now := s.now().UTC()
		pos, err := tx.GetPositionByTicker(ctx, portfolioID, ticker)
		switch {
		case errors.Is(err, ErrPositionNotFound):
			pos = domain.Position{
				ID:           uuid.NewString(),
				PortfolioID:  portfolioID,
				Ticker:       ticker,
				Shares:       in.Shares,
				CostBasis:    in.CostBasis,
				PurchaseDate: purchaseDate(in.PurchaseDate, now),
				CreatedAt:    now,
			}
		case err != nil:
			return err
		default:
			total := pos.Shares.Add(in.Shares)
			pos.CostBasis = pos.CostValue().Add(in.Shares.Mul(in.CostBasis)).Div(total)
			pos.Shares = total
		}
		pos.UpdatedAt = now

		if err := tx.UpsertPosition(ctx, pos); err != nil {
			return err
		}
		result = pos
		return tx.TouchPortfolio(ctx, portfolioID, now)
	})
	if err != nil {
		return domain.Position{}, err
	}
	return result, nil
}

// UpdatePosition overwrites shares and cost basis of an existing position
func (s *Service) UpdatePosition(ctx context.Context, portfolioID, positionID string, shares, costBasis decimal.Decimal) (domain.Position, error) {
	if !shares.IsPositive() || costBasis.IsNegative() {
		return domain.Position{}, domain.ErrInvalidQuantity
	}

	var result domain.Position
	err := s.repo.WithTx(func(tx *Repository) error {
		pos, err := tx.GetPosition(ctx, portfolioID, positionID)
		if err != nil {
			return err
		}
		pos.Shares = shares
		pos.CostBasis = costBasis
		pos.UpdatedAt = s.now().UTC()
		if err := tx.UpsertPosition(ctx, pos); err != nil {
			return err
		}
		result = pos
		return nil
	})
	return result, err
}

// RemovePosition deletes a position
func (s *Service) RemovePosition(ctx context.Context, portfolioID, positionID string) error {
	return s.repo.DeletePosition(ctx, portfolioID, positionID)
}

// RecordTransaction logs a trade and applies it to the matching position.
// A BUY opens or averages into the position; a SELL reduces it and removes
// it once no shares remain. Selling more than is held is rejected.
func (s *Service) RecordTransaction(ctx context.Context, portfolioID string, req TradeRequest) (domain.Transaction, error) {
	ticker := domain.NormalizeTicker(req.Ticker)
	if ticker == "" {
		return domain.Transaction{}, fmt.Errorf("%w: ticker is required", ErrInvalidInput)
	}
	if !req.Type.Valid() {
		return domain.Transaction{}, fmt.Errorf("%w: transaction type %q", ErrInvalidInput, req.Type)
	}
	if !req.Shares.IsPositive() || !req.Price.IsPositive() {
		return domain.Transaction{}, domain.ErrInvalidQuantity
	}

	now := s.now().UTC()
	t := domain.Transaction{
		ID:          uuid.NewString(),
		PortfolioID: portfolioID,
		Ticker:      ticker,
		Type:        req.Type,
		Notes:       req.Notes,
		Shares:      req.Shares,
		Price:       req.Price,
		ExecutedAt:  purchaseDate(req.ExecutedAt, now),
		CreatedAt:   now,
	}

	err := s.repo.WithTx(func(tx *Repository) error {
		if _, err := tx.GetPortfolio(ctx, portfolioID); err != nil {
			return err
		}

		pos, err := tx.GetPositionByTicker(ctx, portfolioID, ticker)
		exists := err == nil
		if err != nil && !errors.Is(err, ErrPositionNotFound) {
			return err
		}

		switch t.Type {
		case domain.TransactionBuy:
			if !exists {
				pos = domain.Position{
					ID:           uuid.NewString(),
					PortfolioID:  portfolioID,
					Ticker:       ticker,
					PurchaseDate: t.ExecutedAt,
					CreatedAt:    now,
				}
			}
			if err := pos.ApplyBuy(t.Shares, t.Price); err != nil {
				return err
			}
			pos.UpdatedAt = now
			if err := tx.UpsertPosition(ctx, pos); err != nil {
				return err
			}

		case domain.TransactionSell:
			if !exists {
				return fmt.Errorf("cannot sell %s: %w", ticker, domain.ErrInsufficientShares)
			}
			closed, err := pos.ApplySell(t.Shares)
			if err != nil {
				return fmt.Errorf("cannot sell %s shares of %s: %w", t.Shares, ticker, err)
			}
			if closed {
				if err := tx.DeletePosition(ctx, portfolioID, pos.ID); err != nil {
					return err
				}
			} else {
				pos.UpdatedAt = now
				if err := tx.UpsertPosition(ctx, pos); err != nil {
					return err
				}
			}
		}

		if err := tx.InsertTransaction(ctx, t); err != nil {
			return err
		}
		return tx.TouchPortfolio(ctx, portfolioID, now)
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	s.log.Info().
		Str("portfolio_id", portfolioID).
		Str("ticker", ticker).
		Str("type", string(t.Type)).
		Str("shares", t.Shares.String()).
		Str("price", t.Price.String()).
		Msg("Transaction recorded")

	return t, nil
}

// Transactions returns recent trades, newest first
func (s *Service) Transactions(ctx context.Context, portfolioID string, limit int) ([]domain.Transaction, error) {
	if _, err := s.repo.GetPortfolio(ctx, portfolioID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return s.repo.ListTransactions(ctx, portfolioID, limit)
}

// Snapshots returns daily value snapshots since the given time
func (s *Service) Snapshots(ctx context.Context, portfolioID string, since time.Time) ([]domain.Snapshot, error) {
	if _, err := s.repo.GetPortfolio(ctx, portfolioID); err != nil {
		return nil, err
	}
	return s.repo.ListSnapshots(ctx, portfolioID, since)
}

// TakeSnapshot values the portfolio at current quotes and stores today's
// snapshot. Positions without a quote are valued at cost basis.
func (s *Service) TakeSnapshot(ctx context.Context, portfolioID string) (domain.Snapshot, error) {
	if s.quotes == nil {
		return domain.Snapshot{}, fmt.Errorf("no quote provider configured")
	}

	positions, err := s.GetPositions(ctx, portfolioID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	var totalValue, totalCost decimal.Decimal
	for _, pos := range positions {
		totalCost = totalCost.Add(pos.CostValue())

		price := pos.CostBasis
		quote, err := s.quotes.GetQuote(ctx, pos.Ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", pos.Ticker).Msg("No quote for snapshot, using cost basis")
		} else {
			price = decimal.NewFromFloat(quote.Price)
		}
		totalValue = totalValue.Add(pos.Shares.Mul(price))
	}

	y, m, d := s.now().UTC().Date()
	snap := domain.Snapshot{
		PortfolioID: portfolioID,
		Date:        time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		TotalValue:  totalValue.InexactFloat64(),
		TotalCost:   totalCost.InexactFloat64(),
	}

	prev, ok, err := s.repo.PreviousSnapshot(ctx, portfolioID, snap.Date)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if ok && prev.TotalValue > 0 {
		snap.DailyReturnPct = (snap.TotalValue - prev.TotalValue) / prev.TotalValue * 100
	}

	if err := s.repo.SaveSnapshot(ctx, snap); err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

// SnapshotAll snapshots every portfolio, continuing past individual failures.
// Returns the number of snapshots taken.
func (s *Service) SnapshotAll(ctx context.Context) (int, error) {
	portfolios, err := s.repo.ListPortfolios(ctx)
	if err != nil {
		return 0, err
	}

	taken := 0
	var errs []error
	for _, p := range portfolios {
		if ctx.Err() != nil {
			return taken, ctx.Err()
		}
		if _, err := s.TakeSnapshot(ctx, p.ID); err != nil {
			s.log.Error().Err(err).Str("portfolio_id", p.ID).Msg("Snapshot failed")
			errs = append(errs, fmt.Errorf("%s: %w", p.ID, err))
			continue
		}
		taken++
	}
	return taken, errors.Join(errs...)
}

// Tickers returns every distinct ticker held across all portfolios
func (s *Service) Tickers(ctx context.Context) ([]string, error) {
	portfolios, err := s.repo.ListPortfolios(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var tickers []string
	for _, p := range portfolios {
		positions, err := s.repo.GetPositions(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, pos := range positions {
			if !seen[pos.Ticker] {
				seen[pos.Ticker] = true
				tickers = append(tickers, pos.Ticker)
			}
		}
	}
	return tickers, nil
}

func purchaseDate(t, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t.UTC()
}
