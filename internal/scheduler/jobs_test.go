package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskdesk/internal/metrics"
)

type mockTickers struct{ mock.Mock }

func (m *mockTickers) Tickers(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	tickers, _ := args.Get(0).([]string)
	return tickers, args.Error(1)
}

type mockSyncer struct{ mock.Mock }

func (m *mockSyncer) SyncTicker(ctx context.Context, ticker string, full bool) (int, error) {
	args := m.Called(ctx, ticker, full)
	return args.Int(0), args.Error(1)
}

type stubSnapshotter struct {
	n   int
	err error
}

func (s stubSnapshotter) SnapshotAll(context.Context) (int, error) { return s.n, s.err }

type stubCleaner struct{ calls int }

func (s *stubCleaner) DeleteExpired(context.Context) (int64, error) {
	s.calls++
	return 3, nil
}

type stubBackuper struct{ err error }

func (s stubBackuper) Backup(context.Context) (string, error) { return "key", s.err }

func TestSyncPricesJob(t *testing.T) {
	tickers := &mockTickers{}
	tickers.On("Tickers", mock.Anything).Return([]string{"AAPL", "MSFT"}, nil)

	syncer := &mockSyncer{}
	syncer.On("SyncTicker", mock.Anything, "AAPL", false).Return(100, nil)
	syncer.On("SyncTicker", mock.Anything, "MSFT", false).Return(0, errors.New("rate limited"))
	syncer.On("SyncTicker", mock.Anything, "^GSPC", false).Return(100, nil)

	job := NewSyncPricesJob(tickers, syncer, "^GSPC", zerolog.Nop())
	assert.Equal(t, "sync_prices", job.Name())

	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MSFT")
	syncer.AssertNumberOfCalls(t, "SyncTicker", 3)
}

func TestSyncPricesJob_TickerSourceFails(t *testing.T) {
	tickers := &mockTickers{}
	tickers.On("Tickers", mock.Anything).Return(nil, errors.New("db closed"))

	job := NewSyncPricesJob(tickers, &mockSyncer{}, "", zerolog.Nop())
	assert.Error(t, job.Run())
}

func TestScheduler_RunNowRecordsMetrics(t *testing.T) {
	m := metrics.New()
	s := New(m, zerolog.Nop())

	cleaner := &stubCleaner{}
	require.NoError(t, s.RunNow(NewCacheCleanupJob(cleaner, zerolog.Nop())))
	assert.Error(t, s.RunNow(NewSnapshotJob(stubSnapshotter{err: errors.New("x")}, zerolog.Nop())))
	require.NoError(t, s.RunNow(NewBackupJob(stubBackuper{}, zerolog.Nop())))

	assert.Equal(t, 1, cleaner.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("cache_cleanup", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("snapshot", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("backup", "ok")))
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(nil, zerolog.Nop())
	job := NewBackupJob(stubBackuper{}, zerolog.Nop())

	assert.NoError(t, s.AddJob("0 0 3 * * *", job))
	assert.NoError(t, s.AddJob("", job))
	assert.Error(t, s.AddJob("not a schedule", job))
	assert.Len(t, s.cron.Entries(), 1)

	s.Start()
	s.Stop()
}
