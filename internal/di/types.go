// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/redis/go-redis/v9"

	"github.com/aristath/riskdesk/internal/clients/alphavantage"
	"github.com/aristath/riskdesk/internal/database"
	"github.com/aristath/riskdesk/internal/metrics"
	"github.com/aristath/riskdesk/internal/modules/analytics"
	analyticshandlers "github.com/aristath/riskdesk/internal/modules/analytics/handlers"
	"github.com/aristath/riskdesk/internal/modules/marketdata"
	marketdatahandlers "github.com/aristath/riskdesk/internal/modules/marketdata/handlers"
	"github.com/aristath/riskdesk/internal/modules/portfolio"
	portfoliohandlers "github.com/aristath/riskdesk/internal/modules/portfolio/handlers"
	"github.com/aristath/riskdesk/internal/modules/sectors"
	"github.com/aristath/riskdesk/internal/reliability"
)

// Container holds all initialized dependencies
type Container struct {
	// Databases
	PortfolioDB *database.DB
	HistoryDB   *database.DB
	CacheDB     *database.DB

	Metrics *metrics.Registry

	// Market data
	Redis            *redis.Client // nil unless the redis cache backend is selected
	Cache            marketdata.Cache
	AlphaVantage     *alphavantage.Client // nil without an API key
	HistoryStore     *marketdata.HistoryDB
	MarketData       *marketdata.Provider
	SectorLookup     *sectors.Lookup
	PortfolioRepo    *portfolio.Repository
	PortfolioService *portfolio.Service
	AnalyticsService *analytics.Service

	// Reliability
	BackupService *reliability.BackupService // nil when backups are not configured

	// HTTP
	PortfolioHandler  *portfoliohandlers.Handler
	AnalyticsHandler  *analyticshandlers.Handler
	MarketDataHandler *marketdatahandlers.Handler
}

// Databases returns every open database
func (c *Container) Databases() []*database.DB {
	var dbs []*database.DB
	for _, db := range []*database.DB{c.PortfolioDB, c.HistoryDB, c.CacheDB} {
		if db != nil {
			dbs = append(dbs, db)
		}
	}
	return dbs
}

// Close releases databases and the redis client
func (c *Container) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	for _, db := range c.Databases() {
		_ = db.Close()
	}
}
