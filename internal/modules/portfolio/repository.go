// Package portfolio stores portfolios, positions, transactions and daily
// value snapshots, and applies trades to positions.
package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/riskdesk/internal/database"
	"github.com/aristath/riskdesk/internal/domain"
)

var (
	// ErrNotFound is returned when a portfolio does not exist
	ErrNotFound = domain.ErrPortfolioNotFound
	// ErrPositionNotFound is returned when a position does not exist
	ErrPositionNotFound = errors.New("position not found")
	// ErrInvalidInput is returned for malformed names, tickers or trade types
	ErrInvalidInput = errors.New("invalid input")
)

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Repository handles portfolio database operations
type Repository struct {
	db  *sql.DB
	q   querier
	log zerolog.Logger
}

// NewRepository creates a repository over the portfolio database
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		q:   db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// WithTx runs fn with a repository bound to a single transaction
func (r *Repository) WithTx(fn func(tx *Repository) error) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		return fn(&Repository{db: r.db, q: tx, log: r.log})
	})
}

// CreatePortfolio inserts a portfolio
func (r *Repository) CreatePortfolio(ctx context.Context, p domain.Portfolio) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO portfolios (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Description, p.CreatedAt.Unix(), p.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}
	return nil
}

// GetPortfolio returns the portfolio without positions
func (r *Repository) GetPortfolio(ctx context.Context, id string) (domain.Portfolio, error) {
	row := r.q.QueryRowContext(ctx,
		"SELECT id, name, description, created_at, updated_at FROM portfolios WHERE id = ?", id)

	p, err := scanPortfolio(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Portfolio{}, ErrNotFound
	}
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return p, nil
}

// ListPortfolios returns all portfolios, oldest first
func (r *Repository) ListPortfolios(ctx context.Context) ([]domain.Portfolio, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT id, name, description, created_at, updated_at FROM portfolios ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	portfolios := []domain.Portfolio{}
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}
	return portfolios, rows.Err()
}

// DeletePortfolio removes a portfolio and, by cascade, everything it owns
func (r *Repository) DeletePortfolio(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, "DELETE FROM portfolios WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchPortfolio bumps updated_at
func (r *Repository) TouchPortfolio(ctx context.Context, id string, at time.Time) error {
	if _, err := r.q.ExecContext(ctx, "UPDATE portfolios SET updated_at = ? WHERE id = ?", at.Unix(), id); err != nil {
		return fmt.Errorf("failed to touch portfolio: %w", err)
	}
	return nil
}

const positionColumns = "id, portfolio_id, ticker, shares, cost_basis, purchase_date, created_at, updated_at"

// GetPositions returns the positions of a portfolio ordered by ticker
func (r *Repository) GetPositions(ctx context.Context, portfolioID string) ([]domain.Position, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+positionColumns+" FROM positions WHERE portfolio_id = ? ORDER BY ticker", portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := []domain.Position{}
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return positions, nil
}

// GetPosition returns one position by id
func (r *Repository) GetPosition(ctx context.Context, portfolioID, positionID string) (domain.Position, error) {
	row := r.q.QueryRowContext(ctx,
		"SELECT "+positionColumns+" FROM positions WHERE portfolio_id = ? AND id = ?", portfolioID, positionID)
	pos, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Position{}, ErrPositionNotFound
	}
	if err != nil {
		return domain.Position{}, fmt.Errorf("failed to get position: %w", err)
	}
	return pos, nil
}

// GetPositionByTicker returns the position for ticker, or ErrPositionNotFound
func (r *Repository) GetPositionByTicker(ctx context.Context, portfolioID, ticker string) (domain.Position, error) {
	row := r.q.QueryRowContext(ctx,
		"SELECT "+positionColumns+" FROM positions WHERE portfolio_id = ? AND ticker = ?", portfolioID, ticker)
	pos, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Position{}, ErrPositionNotFound
	}
	if err != nil {
		return domain.Position{}, fmt.Errorf("failed to get position: %w", err)
	}
	return pos, nil
}

// UpsertPosition inserts or fully replaces a position keyed by id
func (r *Repository) UpsertPosition(ctx context.Context, p domain.Position) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO positions (`+positionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			shares = excluded.shares,
			cost_basis = excluded.cost_basis,
			purchase_date = excluded.purchase_date,
			updated_at = excluded.updated_at
	`, p.ID, p.PortfolioID, p.Ticker, p.Shares.String(), p.CostBasis.String(),
		p.PurchaseDate.Unix(), p.CreatedAt.Unix(), p.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert position %s: %w", p.Ticker, err)
	}
	return nil
}

// DeletePosition removes a position
func (r *Repository) DeletePosition(ctx context.Context, portfolioID, positionID string) error {
	result, err := r.q.ExecContext(ctx, "DELETE FROM positions WHERE portfolio_id = ? AND id = ?", portfolioID, positionID)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrPositionNotFound
	}
	return nil
}

// InsertTransaction records a trade
func (r *Repository) InsertTransaction(ctx context.Context, t domain.Transaction) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO transactions (id, portfolio_id, ticker, type, shares, price, notes, executed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.PortfolioID, t.Ticker, string(t.Type), t.Shares.String(), t.Price.String(),
		t.Notes, t.ExecutedAt.Unix(), t.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// ListTransactions returns up to limit trades, newest first
func (r *Repository) ListTransactions(ctx context.Context, portfolioID string, limit int) ([]domain.Transaction, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, portfolio_id, ticker, type, shares, price, notes, executed_at, created_at
		FROM transactions
		WHERE portfolio_id = ?
		ORDER BY executed_at DESC, created_at DESC
		LIMIT ?
	`, portfolioID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txs := []domain.Transaction{}
	for rows.Next() {
		var (
			t                 domain.Transaction
			txType            string
			executed, created int64
		)
		if err := rows.Scan(&t.ID, &t.PortfolioID, &t.Ticker, &txType, &t.Shares, &t.Price,
			&t.Notes, &executed, &created); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Type = domain.TransactionType(txType)
		t.ExecutedAt = time.Unix(executed, 0).UTC()
		t.CreatedAt = time.Unix(created, 0).UTC()
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// SaveSnapshot upserts the snapshot for its portfolio and date
func (r *Repository) SaveSnapshot(ctx context.Context, s domain.Snapshot) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO snapshots (portfolio_id, date, total_value, total_cost, daily_return_pct)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id, date) DO UPDATE SET
			total_value = excluded.total_value,
			total_cost = excluded.total_cost,
			daily_return_pct = excluded.daily_return_pct
	`, s.PortfolioID, s.Date.Unix(), s.TotalValue, s.TotalCost, s.DailyReturnPct)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns snapshots on or after since, oldest first
func (r *Repository) ListSnapshots(ctx context.Context, portfolioID string, since time.Time) ([]domain.Snapshot, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT portfolio_id, date, total_value, total_cost, daily_return_pct
		FROM snapshots
		WHERE portfolio_id = ? AND date >= ?
		ORDER BY date
	`, portfolioID, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []domain.Snapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// PreviousSnapshot returns the latest snapshot strictly before date
func (r *Repository) PreviousSnapshot(ctx context.Context, portfolioID string, date time.Time) (domain.Snapshot, bool, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT portfolio_id, date, total_value, total_cost, daily_return_pct
		FROM snapshots
		WHERE portfolio_id = ? AND date < ?
		ORDER BY date DESC
		LIMIT 1
	`, portfolioID, date.Unix())
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, err
	}
	return s, true, nil
}

func scanPortfolio(row rowScanner) (domain.Portfolio, error) {
	var (
		p                domain.Portfolio
		created, updated int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &created, &updated); err != nil {
		return domain.Portfolio{}, err
	}
	p.CreatedAt = time.Unix(created, 0).UTC()
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	return p, nil
}

func scanPosition(row rowScanner) (domain.Position, error) {
	var (
		p                           domain.Position
		purchased, created, updated int64
	)
	if err := row.Scan(&p.ID, &p.PortfolioID, &p.Ticker, &p.Shares, &p.CostBasis,
		&purchased, &created, &updated); err != nil {
		return domain.Position{}, err
	}
	p.PurchaseDate = time.Unix(purchased, 0).UTC()
	p.CreatedAt = time.Unix(created, 0).UTC()
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	return p, nil
}

func scanSnapshot(row rowScanner) (domain.Snapshot, error) {
	var (
		s    domain.Snapshot
		date int64
	)
	if err := row.Scan(&s.PortfolioID, &date, &s.TotalValue, &s.TotalCost, &s.DailyReturnPct); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	s.Date = time.Unix(date, 0).UTC()
	return s, nil
}
