// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Cache backends
const (
	CacheBackendSQLite = "sqlite"
	CacheBackendRedis  = "redis"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for all databases (always absolute)
	LogLevel        string
	BenchmarkTicker string
	SectorMapFile   string // optional YAML ticker -> sector overrides
	Port            int
	RiskFreeRate    float64 // annual, as decimal
	DevMode         bool
	AlphaVantage    AlphaVantageConfig
	Cache           CacheConfig
	Schedules       ScheduleConfig
	Backup          BackupConfig
}

// AlphaVantageConfig configures the market data client
type AlphaVantageConfig struct {
	APIKey            string
	BaseURL           string
	RequestsPerMinute int
	DailyLimit        int
	Timeout           time.Duration
}

// CacheConfig selects the market data cache backend
type CacheConfig struct {
	Backend       string // sqlite or redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	QuoteTTL      time.Duration
	SeriesTTL     time.Duration
}

// ScheduleConfig holds cron expressions (with seconds) for background jobs.
// An empty expression disables the job.
type ScheduleConfig struct {
	PriceSync    string
	Snapshot     string
	CacheCleanup string
	Maintenance  string
	Backup       string
}

// BackupConfig configures database backups to S3-compatible storage
type BackupConfig struct {
	Bucket          string
	Endpoint        string // custom endpoint for R2/MinIO, empty for AWS
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	RetentionDays   int
}

// Enabled reports whether remote backups are configured
func (b BackupConfig) Enabled() bool {
	return b.Bucket != ""
}

// Load reads configuration from environment variables, loading .env if present
func Load() (*Config, error) {
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("RISKDESK_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("GO_PORT", 8001),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RiskFreeRate:    getEnvAsFloat("RISK_FREE_RATE", 0.04),
		BenchmarkTicker: getEnv("BENCHMARK_TICKER", "^GSPC"),
		SectorMapFile:   getEnv("SECTOR_MAP_FILE", ""),
		AlphaVantage: AlphaVantageConfig{
			APIKey:            getEnv("ALPHA_VANTAGE_API_KEY", ""),
			BaseURL:           getEnv("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
			RequestsPerMinute: getEnvAsInt("ALPHA_VANTAGE_RPM", 5),
			DailyLimit:        getEnvAsInt("ALPHA_VANTAGE_DAILY_LIMIT", 25),
			Timeout:           getEnvAsDuration("ALPHA_VANTAGE_TIMEOUT", 30*time.Second),
		},
		Cache: CacheConfig{
			Backend:       getEnv("CACHE_BACKEND", CacheBackendSQLite),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			QuoteTTL:      getEnvAsDuration("QUOTE_CACHE_TTL", time.Minute),
			SeriesTTL:     getEnvAsDuration("SERIES_CACHE_TTL", time.Hour),
		},
		Schedules: ScheduleConfig{
			PriceSync:    getEnv("PRICE_SYNC_SCHEDULE", "0 30 22 * * 1-5"),
			Snapshot:     getEnv("SNAPSHOT_SCHEDULE", "0 0 23 * * 1-5"),
			CacheCleanup: getEnv("CACHE_CLEANUP_SCHEDULE", "0 0 * * * *"),
			Maintenance:  getEnv("MAINTENANCE_SCHEDULE", "0 15 4 * * *"),
			Backup:       getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
		},
		Backup: BackupConfig{
			Bucket:          getEnv("BACKUP_BUCKET", ""),
			Endpoint:        getEnv("BACKUP_ENDPOINT", ""),
			Region:          getEnv("BACKUP_REGION", "auto"),
			AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
			Prefix:          getEnv("BACKUP_PREFIX", "riskdesk/"),
			RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.RiskFreeRate < 0 || c.RiskFreeRate >= 1 {
		return fmt.Errorf("risk-free rate %v out of range [0, 1)", c.RiskFreeRate)
	}
	if c.BenchmarkTicker == "" {
		return fmt.Errorf("benchmark ticker is required")
	}
	switch c.Cache.Backend {
	case CacheBackendSQLite, CacheBackendRedis:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.AlphaVantage.RequestsPerMinute <= 0 {
		return fmt.Errorf("ALPHA_VANTAGE_RPM must be positive")
	}
	if c.Backup.Enabled() && (c.Backup.AccessKeyID == "" || c.Backup.SecretAccessKey == "") {
		return fmt.Errorf("backup bucket set but credentials missing")
	}
	return nil
}

// DatabasePath returns the file path for the named database
func (c *Config) DatabasePath(name string) string {
	return filepath.Join(c.DataDir, name+".db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
