package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskdesk/internal/database"
	"github.com/aristath/riskdesk/internal/domain"
	testingpkg "github.com/aristath/riskdesk/internal/testing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService(t *testing.T) (*Service, *testingpkg.MockMarketData) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, database.NamePortfolio)
	t.Cleanup(cleanup)

	quotes := testingpkg.NewMockMarketData()
	return NewService(NewRepository(db.Conn(), zerolog.Nop()), quotes, zerolog.Nop()), quotes
}

func buy(t *testing.T, s *Service, id, ticker, shares, price string) {
	t.Helper()
	_, err := s.RecordTransaction(context.Background(), id, TradeRequest{
		Ticker: ticker, Type: domain.TransactionBuy, Shares: dec(shares), Price: dec(price),
	})
	require.NoError(t, err)
}

func TestService_CreateGetListDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	p, err := s.Create(ctx, "  Retirement ", "long term")
	require.NoError(t, err)
	assert.Equal(t, "Retirement", p.Name)
	assert.Len(t, p.ID, 36)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "long term", got.Description)
	assert.Empty(t, got.Positions)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.Delete(ctx, p.ID))
	_, err = s.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, p.ID), ErrNotFound)
}

func TestService_CreateRequiresName(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Create(context.Background(), "   ", "")
	assert.Error(t, err)
}

func TestService_BuyAveragesCostBasis(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	p, err := s.Create(ctx, "Main", "")
	require.NoError(t, err)

	buy(t, s, p.ID, "aapl", "10", "100")
	buy(t, s, p.ID, "AAPL", "10", "110")

	positions, err := s.GetPositions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "AAPL", positions[0].Ticker)
	assert.True(t, positions[0].Shares.Equal(dec("20")))
	assert.True(t, positions[0].CostBasis.Equal(dec("105")), positions[0].CostBasis.String())

	txs, err := s.Transactions(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestService_SellReducesAndCloses(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	p, _ := s.Create(ctx, "Main", "")
	buy(t, s, p.ID, "MSFT", "10", "300")

	_, err := s.RecordTransaction(ctx, p.ID, TradeRequest{
		Ticker: "MSFT", Type: domain.TransactionSell, Shares: dec("4"), Price: dec("320"),
	})
	require.NoError(t, err)

	positions, _ := s.GetPositions(ctx, p.ID)
	require.Len(t, positions, 1)
	assert.True(t, positions[0].Shares.Equal(dec("6")))
	assert.True(t, positions[0].CostBasis.Equal(dec("300")))

	_, err = s.RecordTransaction(ctx, p.ID, TradeRequest{
		Ticker: "MSFT", Type: domain.TransactionSell, Shares: dec("6"), Price: dec("330"),
	})
	require.NoError(t, err)

	positions, _ = s.GetPositions(ctx, p.ID)
	assert.Empty(t, positions)
}

func TestService_OversellRejectedAndRolledBack(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	p, _ := s.Create(ctx, "Main", "")
	buy(t, s, p.ID, "NVDA", "5", "400")

	_, err := s.RecordTransaction(ctx, p.ID, TradeRequest{
		Ticker: "NVDA", Type: domain.TransactionSell, Shares: dec("6"), Price: dec("450"),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientShares)

	_, err = s.RecordTransaction(ctx, p.ID, TradeRequest{
		Ticker: "TSLA", Type: domain.TransactionSell, Shares: dec("1"), Price: dec("200"),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientShares)

	txs, err := s.Transactions(ctx, p.ID, 10)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestService_RecordTransactionValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	p, _ := s.Create(ctx, "Main", "")

	tests := []struct {
		name string
		req  TradeRequest
	}{
		{"missing ticker", TradeRequest{Type: domain.TransactionBuy, Shares: dec("1"), Price: dec("1")}},
		{"bad type", TradeRequest{Ticker: "A", Type: "HOLD", Shares: dec("1"), Price: dec("1")}},
		{"zero shares", TradeRequest{Ticker: "A", Type: domain.TransactionBuy, Shares: dec("0"), Price: dec("1")}},
		{"negative price", TradeRequest{Ticker: "A", Type: domain.TransactionBuy, Shares: dec("1"), Price: dec("-1")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.RecordTransaction(ctx, p.ID, tt.req)
			assert.Error(t, err)
		})
	}

	_, err := s.RecordTransaction(ctx, "missing", TradeRequest{
		Ticker: "A", Type: domain.TransactionBuy, Shares: dec("1"), Price: dec("1"),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_AddUpdateRemovePosition(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	p, _ := s.Create(ctx, "Main", "")

	pos, err := s.AddPosition(ctx, p.ID, PositionInput{Ticker: "googl", Shares: dec("4"), CostBasis: dec("100")})
	require.NoError(t, err)
	assert.Equal(t, "GOOGL", pos.Ticker)

	merged, err := s.AddPosition(ctx, p.ID, PositionInput{Ticker: "GOOGL", Shares: dec("4"), CostBasis: dec("150")})
	require.NoError(t, err)
	assert.Equal(t, pos.ID, merged.ID)
	assert.True(t, merged.CostBasis.Equal(dec("125")))

	updated, err := s.UpdatePosition(ctx, p.ID, pos.ID, dec("2"), dec("90"))
	require.NoError(t, err)
	assert.True(t, updated.Shares.Equal(dec("2")))

	_, err = s.UpdatePosition(ctx, p.ID, "nope", dec("2"), dec("90"))
	assert.ErrorIs(t, err, ErrPositionNotFound)

	require.NoError(t, s.RemovePosition(ctx, p.ID, pos.ID))
	assert.ErrorIs(t, s.RemovePosition(ctx, p.ID, pos.ID), ErrPositionNotFound)
}

func TestService_GetPositionsUnknownPortfolio(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.GetPositions(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_TakeSnapshot(t *testing.T) {
	ctx := context.Background()
	s, quotes := newTestService(t)
	p, _ := s.Create(ctx, "Main", "")
	buy(t, s, p.ID, "AAPL", "10", "100")
	buy(t, s, p.ID, "MSFT", "2", "50")

	day := time.Date(2024, 3, 4, 21, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return day }
	quotes.SetQuote("AAPL", 110)
	quotes.SetError("MSFT", errors.New("upstream down"))

	snap, err := s.TakeSnapshot(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, snap.TotalValue) // MSFT falls back to cost
	assert.Equal(t, 1100.0, snap.TotalCost)
	assert.Equal(t, 0.0, snap.DailyReturnPct)
	assert.Equal(t, 0, snap.Date.Hour())

	s.now = func() time.Time { return day.AddDate(0, 0, 1) }
	quotes.SetQuote("AAPL", 122)
	snap, err = s.TakeSnapshot(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, snap.DailyReturnPct, 1e-9)

	snaps, err := s.Snapshots(ctx, p.ID, day.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.True(t, snaps[0].Date.Before(snaps[1].Date))
}

func TestService_SnapshotAllAndTickers(t *testing.T) {
	ctx := context.Background()
	s, quotes := newTestService(t)
	a, _ := s.Create(ctx, "A", "")
	b, _ := s.Create(ctx, "B", "")
	buy(t, s, a.ID, "AAPL", "1", "100")
	buy(t, s, b.ID, "AAPL", "1", "100")
	buy(t, s, b.ID, "KO", "3", "60")
	quotes.SetQuote("AAPL", 101)
	quotes.SetQuote("KO", 61)

	n, err := s.SnapshotAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tickers, err := s.Tickers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AAPL", "KO"}, tickers)
}

func TestService_SnapshotWithoutQuotes(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, database.NamePortfolio)
	defer cleanup()
	s := NewService(NewRepository(db.Conn(), zerolog.Nop()), nil, zerolog.Nop())

	_, err := s.TakeSnapshot(context.Background(), "x")
	assert.Error(t, err)
}
