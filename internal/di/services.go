package di

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aristath/riskdesk/internal/clients/alphavantage"
	"github.com/aristath/riskdesk/internal/config"
	"github.com/aristath/riskdesk/internal/modules/analytics"
	analyticshandlers "github.com/aristath/riskdesk/internal/modules/analytics/handlers"
	"github.com/aristath/riskdesk/internal/modules/marketdata"
	marketdatahandlers "github.com/aristath/riskdesk/internal/modules/marketdata/handlers"
	"github.com/aristath/riskdesk/internal/modules/portfolio"
	portfoliohandlers "github.com/aristath/riskdesk/internal/modules/portfolio/handlers"
	"github.com/aristath/riskdesk/internal/modules/sectors"
	"github.com/aristath/riskdesk/internal/reliability"
)

// InitializeServices builds market data, portfolio, analytics and backup services.
// Databases must already be initialized.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if err := initializeCache(container, cfg, log); err != nil {
		return err
	}

	// Without an API key the provider serves stored history only.
	// Keep upstream a nil interface rather than a typed nil pointer.
	var upstream alphavantage.ClientInterface
	if cfg.AlphaVantage.APIKey != "" {
		container.AlphaVantage = alphavantage.NewClient(alphavantage.Config{
			APIKey:            cfg.AlphaVantage.APIKey,
			BaseURL:           cfg.AlphaVantage.BaseURL,
			RequestsPerMinute: cfg.AlphaVantage.RequestsPerMinute,
			DailyLimit:        cfg.AlphaVantage.DailyLimit,
			Timeout:           cfg.AlphaVantage.Timeout,
		}, container.Metrics, log)
		upstream = container.AlphaVantage
	} else {
		log.Warn().Msg("ALPHA_VANTAGE_API_KEY not set, serving stored price history only")
	}

	container.HistoryStore = marketdata.NewHistoryDB(container.HistoryDB.Conn(), log)
	container.MarketData = marketdata.NewProvider(
		container.HistoryStore,
		container.Cache,
		upstream,
		container.Metrics,
		marketdata.Options{QuoteTTL: cfg.Cache.QuoteTTL, SeriesTTL: cfg.Cache.SeriesTTL},
		log,
	)

	container.SectorLookup = sectors.NewDefault()
	if cfg.SectorMapFile != "" {
		lookup, err := sectors.LoadFile(cfg.SectorMapFile)
		if err != nil {
			return fmt.Errorf("failed to load sector map: %w", err)
		}
		container.SectorLookup = lookup
	}

	container.PortfolioRepo = portfolio.NewRepository(container.PortfolioDB.Conn(), log)
	container.PortfolioService = portfolio.NewService(container.PortfolioRepo, container.MarketData, log)

	container.AnalyticsService = analytics.NewService(
		container.PortfolioService,
		container.MarketData,
		container.SectorLookup,
		container.Metrics,
		analytics.Options{RiskFreeRate: cfg.RiskFreeRate, Benchmark: cfg.BenchmarkTicker},
		log,
	)

	if cfg.Backup.Enabled() {
		store, err := reliability.NewS3Store(context.Background(), cfg.Backup)
		if err != nil {
			return fmt.Errorf("failed to create backup store: %w", err)
		}
		container.BackupService = reliability.NewBackupService(
			container.Databases(),
			store,
			cfg.Backup.Prefix,
			cfg.Backup.RetentionDays,
			filepath.Join(cfg.DataDir, "tmp"),
			log,
		)
	}

	container.PortfolioHandler = portfoliohandlers.NewHandler(container.PortfolioService, log)
	container.AnalyticsHandler = analyticshandlers.NewHandler(container.AnalyticsService, log)
	container.MarketDataHandler = marketdatahandlers.NewHandler(container.MarketData, log)

	log.Info().
		Str("cache", cfg.Cache.Backend).
		Bool("upstream", upstream != nil).
		Bool("backups", container.BackupService != nil).
		Int("sector_mappings", container.SectorLookup.Len()).
		Msg("Services initialized")
	return nil
}

// initializeCache selects the market data cache backend
func initializeCache(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if cfg.Cache.Backend != config.CacheBackendRedis {
		container.Cache = marketdata.NewSQLiteCache(container.CacheDB.Conn())
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to redis at %s: %w", cfg.Cache.RedisAddr, err)
	}

	container.Redis = client
	container.Cache = marketdata.NewRedisCache(client, "riskdesk:")
	log.Info().Str("addr", cfg.Cache.RedisAddr).Msg("Using redis market data cache")
	return nil
}
