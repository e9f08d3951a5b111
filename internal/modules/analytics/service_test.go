package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskdesk/internal/domain"
	"github.com/aristath/riskdesk/internal/metrics"
	testingpkg "github.com/aristath/riskdesk/internal/testing"
)

type mockPositions struct {
	mock.Mock
}

func (m *mockPositions) GetPositions(ctx context.Context, portfolioID string) ([]domain.Position, error) {
	args := m.Called(ctx, portfolioID)
	positions, _ := args.Get(0).([]domain.Position)
	return positions, args.Error(1)
}

type panicPositions struct{}

func (panicPositions) GetPositions(context.Context, string) ([]domain.Position, error) {
	panic("boom")
}

func newTestService(t *testing.T, positions PositionSource) (*Service, *testingpkg.MockMarketData, *metrics.Registry) {
	t.Helper()
	market := testingpkg.NewMockMarketData()
	m := metrics.New()
	svc := NewService(positions, market, sectorMap{"AAPL": "Technology"}, m, DefaultOptions(), zerolog.Nop())
	return svc, market, m
}

func holdings(portfolioID string, positions ...domain.Position) *mockPositions {
	src := &mockPositions{}
	src.On("GetPositions", mock.Anything, portfolioID).Return(positions, nil)
	src.On("GetPositions", mock.Anything, mock.Anything).Return(nil, domain.ErrPortfolioNotFound)
	return src
}

func TestService_RiskMetrics(t *testing.T) {
	src := holdings("p1",
		testingpkg.NewPosition("AAPL", "10", "100"),
		testingpkg.NewPosition("MSFT", "5", "200"),
	)
	svc, market, m := newTestService(t, src)
	market.SetSeries(testingpkg.SeriesFromReturns("AAPL", 100, testingpkg.Wave(60, 0.01, 0.001, 1)))
	market.SetSeries(testingpkg.SeriesFromReturns("MSFT", 200, testingpkg.Wave(80, 0.01, 0.001, 2)))
	market.SetSeries(testingpkg.SeriesFromReturns("^GSPC", 4000, testingpkg.Wave(80, 0.008, 0.0005, 3)))

	r, err := svc.RiskMetrics(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 60, r.Observations)
	assert.Equal(t, "^GSPC", r.Benchmark)
	assert.Equal(t, 0.04, r.RiskFreeRate)
	assert.NotEqual(t, 1.0, r.Beta)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalyticsRequests.WithLabelValues("risk", "ok")))
}

func TestService_RiskMetricsWithoutBenchmark(t *testing.T) {
	svc, market, _ := newTestService(t, holdings("p1", testingpkg.NewPosition("AAPL", "10", "100")))
	market.SetSeries(testingpkg.SeriesFromReturns("AAPL", 100, testingpkg.Wave(40, 0.01, 0.001, 1)))

	r, err := svc.RiskMetrics(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.Beta)
}

func TestService_RiskMetricsInsufficientHistory(t *testing.T) {
	svc, market, m := newTestService(t, holdings("p1", testingpkg.NewPosition("AAPL", "10", "100")))
	market.SetSeries(testingpkg.SeriesFromReturns("AAPL", 100, testingpkg.Wave(29, 0.01, 0.001, 1)))

	_, err := svc.RiskMetrics(context.Background(), "p1")
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindInsufficientData, e.Kind)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalyticsRequests.WithLabelValues("risk", "InsufficientData")))
}

func TestService_NotFound(t *testing.T) {
	empty := &mockPositions{}
	empty.On("GetPositions", mock.Anything, "empty").Return([]domain.Position{}, nil)
	empty.On("GetPositions", mock.Anything, "missing").Return(nil, domain.ErrPortfolioNotFound)
	svc, _, _ := newTestService(t, empty)
	ctx := context.Background()

	_, err := svc.RiskMetrics(ctx, "missing")
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = svc.Attribution(ctx, "empty", domain.Period1Y)
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = svc.CompareToBenchmark(ctx, "empty", "", "")
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = svc.Diversification(ctx, "empty")
	assert.Equal(t, KindNotFound, KindOf(err))
	empty.AssertExpectations(t)
}

func TestService_PositionSourceFailureIsInternal(t *testing.T) {
	src := &mockPositions{}
	src.On("GetPositions", mock.Anything, mock.Anything).Return(nil, errors.New("database is locked"))
	svc, _, _ := newTestService(t, src)

	_, err := svc.Diversification(context.Background(), "p1")
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestService_RecoversPanics(t *testing.T) {
	svc, _, m := newTestService(t, panicPositions{})

	require.NotPanics(t, func() {
		_, err := svc.Attribution(context.Background(), "p1", "")
		assert.Equal(t, KindInternal, KindOf(err))
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalyticsRequests.WithLabelValues("attribution", "Internal")))
}

func TestService_CorrelationMatrix(t *testing.T) {
	svc, market, _ := newTestService(t, holdings("p1"))
	market.SetSeries(testingpkg.SeriesFromReturns("AAPL", 100, testingpkg.Wave(200, 0.01, 0, 1)))
	market.SetSeries(testingpkg.SeriesFromReturns("MSFT", 100, testingpkg.Wave(200, 0.01, 0, 2)))
	market.SetError("BAD", errors.New("upstream down"))

	m, err := svc.CorrelationMatrix(context.Background(), []string{"aapl", "MSFT", "AAPL", "bad"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, m.Tickers)
	assert.Equal(t, []string{"BAD"}, m.Excluded)
	// default period is 6M: 180 prices, 179 returns
	assert.Equal(t, 179, m.Observations)

	_, err = svc.CorrelationMatrix(context.Background(), []string{"AAPL", "aapl"}, domain.Period1Y)
	assert.Equal(t, KindInsufficientData, KindOf(err))
}

func TestService_Attribution(t *testing.T) {
	svc, market, _ := newTestService(t, holdings("p1",
		testingpkg.NewPosition("AAPL", "10", "100"),
		testingpkg.NewPosition("KO", "10", "50"),
	))
	market.SetQuote("AAPL", 150)

	a, err := svc.Attribution(context.Background(), "p1", "bogus")
	require.NoError(t, err)
	assert.Equal(t, "1Y", a.Period)
	require.Len(t, a.Positions, 2)
	assert.Equal(t, "AAPL", a.Positions[0].Ticker)
	assert.True(t, a.Positions[0].Priced)
	assert.False(t, a.Positions[1].Priced)
	assert.Equal(t, "Technology", a.Sectors[0].Sector)
}

func TestService_CompareToBenchmark(t *testing.T) {
	svc, market, _ := newTestService(t, holdings("p1", testingpkg.NewPosition("AAPL", "10", "100")))
	market.SetSeries(testingpkg.SeriesFromReturns("AAPL", 100, testingpkg.Wave(100, 0.01, 0.002, 1)))

	_, err := svc.CompareToBenchmark(context.Background(), "p1", "^GSPC", domain.Period1Y)
	assert.Equal(t, KindMissingBenchmark, KindOf(err))

	market.SetSeries(testingpkg.SeriesFromReturns("QQQ", 300, testingpkg.Wave(100, 0.01, 0.001, 2)))
	c, err := svc.CompareToBenchmark(context.Background(), "p1", "qqq", domain.Period3M)
	require.NoError(t, err)
	assert.Equal(t, "QQQ", c.Benchmark)
	assert.Equal(t, "3M", c.Period)
	assert.Equal(t, 89, c.Observations)
	assert.Len(t, c.Chart.Portfolio, 90)
}

func TestService_Diversification(t *testing.T) {
	svc, market, _ := newTestService(t, holdings("p1",
		testingpkg.NewPosition("A", "6", "10"),
		testingpkg.NewPosition("B", "4", "10"),
		testingpkg.NewPosition("C", "100", "10"),
	))
	market.SetQuote("A", 100)
	market.SetQuote("B", 100)

	d, err := svc.Diversification(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, d.Holdings)
	assert.Equal(t, 0.52, d.HHI)
	assert.Equal(t, []string{"C"}, d.Unpriced)
}

func TestService_DiversificationNoValue(t *testing.T) {
	svc, _, _ := newTestService(t, holdings("p1", testingpkg.NewPosition("A", "6", "10")))

	_, err := svc.Diversification(context.Background(), "p1")
	assert.Equal(t, KindNoValue, KindOf(err))
}

func TestErrorFormatting(t *testing.T) {
	err := newError(KindNoValue, "portfolio %s has no value", "p1")
	assert.Equal(t, "NoValue: portfolio p1 has no value", err.Error())
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}
