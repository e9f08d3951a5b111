package marketdata

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

// HistoryDB provides access to stored daily price history
type HistoryDB struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryDB creates a new history database accessor
func NewHistoryDB(db *sql.DB, log zerolog.Logger) *HistoryDB {
	return &HistoryDB{
		db:  db,
		log: log.With().Str("component", "history_db").Logger(),
	}
}

// DailyPrice represents a daily OHLCV bar
type DailyPrice struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// SaveDailyPrices upserts bars for ticker in one transaction
func (h *HistoryDB) SaveDailyPrices(ctx context.Context, ticker string, prices []DailyPrice) error {
	if len(prices) == 0 {
		return nil
	}

	return database.WithTransaction(h.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO daily_prices (ticker, date, open, high, low, close, volume)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(ticker, date) DO UPDATE SET
				open = excluded.open,
				high = excluded.high,
				low = excluded.low,
				close = excluded.close,
				volume = excluded.volume
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare price upsert: %w", err)
		}
		defer stmt.Close()

		for _, p := range prices {
			day := truncateDay(p.Date)
			if _, err := stmt.ExecContext(ctx, ticker, day.Unix(), p.Open, p.High, p.Low, p.Close, p.Volume); err != nil {
				return fmt.Errorf("failed to save price %s %s: %w", ticker, day.Format("2006-01-02"), err)
			}
		}
		return nil
	})
}

// GetDailyPrices returns up to limit bars for ticker, newest first
func (h *HistoryDB) GetDailyPrices(ctx context.Context, ticker string, limit int) ([]DailyPrice, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT date, open, high, low, close, volume
		FROM daily_prices
		WHERE ticker = ?
		ORDER BY date DESC
		LIMIT ?
	`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var prices []DailyPrice
	for rows.Next() {
		var (
			p               DailyPrice
			dateUnix        int64
			open, high, low sql.NullFloat64
			volume          sql.NullInt64
		)
		if err := rows.Scan(&dateUnix, &open, &high, &low, &p.Close, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}
		p.Date = time.Unix(dateUnix, 0).UTC()
		p.Open, p.High, p.Low = open.Float64, high.Float64, low.Float64
		p.Volume = volume.Int64
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	return prices, nil
}

// GetSeries returns the most recent n closes for ticker in chronological order
func (h *HistoryDB) GetSeries(ctx context.Context, ticker string, n int) (domain.PriceSeries, error) {
	bars, err := h.GetDailyPrices(ctx, ticker, n)
	if err != nil {
		return domain.PriceSeries{}, err
	}

	points := make([]domain.PricePoint, len(bars))
	for i, b := range bars {
		points[len(bars)-1-i] = domain.PricePoint{Date: b.Date, Close: b.Close}
	}
	return domain.PriceSeries{Ticker: ticker, Points: points}, nil
}

// LatestClose returns the most recent stored close for ticker
func (h *HistoryDB) LatestClose(ctx context.Context, ticker string) (domain.PricePoint, bool, error) {
	bars, err := h.GetDailyPrices(ctx, ticker, 1)
	if err != nil {
		return domain.PricePoint{}, false, err
	}
	if len(bars) == 0 {
		return domain.PricePoint{}, false, nil
	}
	return domain.PricePoint{Date: bars[0].Date, Close: bars[0].Close}, true, nil
}

// MarkSynced records a sync attempt. syncErr is stored as text when non-nil.
func (h *HistoryDB) MarkSynced(ctx context.Context, ticker string, at time.Time, syncErr error) error {
	msg := ""
	if syncErr != nil {
		msg = syncErr.Error()
	}
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO sync_state (ticker, last_synced_at, last_error)
		VALUES (?, ?, ?)
		ON CONFLICT(ticker) DO UPDATE SET
			last_synced_at = excluded.last_synced_at,
			last_error = excluded.last_error
	`, ticker, at.Unix(), msg)
	if err != nil {
		return fmt.Errorf("failed to mark %s synced: %w", ticker, err)
	}
	return nil
}

// LastSynced returns when ticker was last synced, or the zero time if never
func (h *HistoryDB) LastSynced(ctx context.Context, ticker string) (time.Time, error) {
	var ts int64
	err := h.db.QueryRowContext(ctx, "SELECT last_synced_at FROM sync_state WHERE ticker = ?", ticker).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read sync state for %s: %w", ticker, err)
	}
	return time.Unix(ts, 0).UTC(), nil
}

// Tickers lists every ticker with stored history
func (h *HistoryDB) Tickers(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, "SELECT DISTINCT ticker FROM daily_prices ORDER BY ticker")
	if err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
