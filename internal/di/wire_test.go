package di

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskdesk/internal/config"
	"github.com/aristath/riskdesk/internal/metrics"
	"github.com/aristath/riskdesk/internal/modules/marketdata"
	"github.com/aristath/riskdesk/internal/scheduler"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:         t.TempDir(),
		Port:            8001,
		RiskFreeRate:    0.04,
		BenchmarkTicker: "^GSPC",
		Cache:           config.CacheConfig{Backend: config.CacheBackendSQLite},
		Schedules: config.ScheduleConfig{
			PriceSync:    "0 30 22 * * 1-5",
			Snapshot:     "0 0 23 * * 1-5",
			CacheCleanup: "0 0 * * * *",
			Maintenance:  "",
			Backup:       "0 0 3 * * *",
		},
	}
}

func TestInitializeDatabases(t *testing.T) {
	cfg := testConfig(t)

	container, err := InitializeDatabases(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.NotNil(t, container.PortfolioDB)
	assert.NotNil(t, container.HistoryDB)
	assert.NotNil(t, container.CacheDB)
	assert.Len(t, container.Databases(), 3)

	assert.FileExists(t, filepath.Join(cfg.DataDir, "portfolio.db"))
	assert.FileExists(t, filepath.Join(cfg.DataDir, "history.db"))
	assert.FileExists(t, filepath.Join(cfg.DataDir, "cache.db"))
}

func TestInitializeDatabases_InvalidPath(t *testing.T) {
	cfg := testConfig(t)
	// a regular file cannot hold databases
	blocker := filepath.Join(cfg.DataDir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	cfg.DataDir = filepath.Join(blocker, "data")

	_, err := InitializeDatabases(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)
	sched := scheduler.New(nil, zerolog.Nop())

	container, jobs, err := Wire(cfg, metrics.New(), sched, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.Nil(t, container.AlphaVantage)
	assert.Nil(t, container.Redis)
	assert.Nil(t, container.BackupService)
	assert.IsType(t, &marketdata.SQLiteCache{}, container.Cache)
	assert.NotNil(t, container.AnalyticsService)
	assert.NotNil(t, container.PortfolioHandler)
	assert.NotNil(t, container.AnalyticsHandler)
	assert.NotNil(t, container.MarketDataHandler)

	// backup disabled, so four jobs
	assert.Nil(t, jobs.Backup)
	assert.Len(t, jobs.All(), 4)
	require.NoError(t, sched.RunNow(jobs.CacheCleanup))
}

func TestWire_WithAPIKeyAndSectorFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.AlphaVantage = config.AlphaVantageConfig{APIKey: "demo", RequestsPerMinute: 5, DailyLimit: 25}
	cfg.SectorMapFile = filepath.Join(cfg.DataDir, "sectors.yaml")
	require.NoError(t, os.WriteFile(cfg.SectorMapFile, []byte("sectors:\n  Materials: [ZZZ]\n"), 0644))

	container, _, err := Wire(cfg, nil, scheduler.New(nil, zerolog.Nop()), zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.NotNil(t, container.AlphaVantage)
	assert.Equal(t, "Materials", container.SectorLookup.Sector("ZZZ"))
}

func TestWire_BadSectorFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.SectorMapFile = filepath.Join(cfg.DataDir, "missing.yaml")

	_, _, err := Wire(cfg, nil, scheduler.New(nil, zerolog.Nop()), zerolog.Nop())
	assert.Error(t, err)
}

func TestWire_BadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedules.Snapshot = "every now and then"

	_, _, err := Wire(cfg, nil, scheduler.New(nil, zerolog.Nop()), zerolog.Nop())
	assert.Error(t, err)
}
