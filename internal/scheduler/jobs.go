package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// TickerSource lists the tickers currently held
type TickerSource interface {
	Tickers(ctx context.Context) ([]string, error)
}

// PriceSyncer refreshes the stored history of one ticker
type PriceSyncer interface {
	SyncTicker(ctx context.Context, ticker string, full bool) (int, error)
}

// Snapshotter values every portfolio
type Snapshotter interface {
	SnapshotAll(ctx context.Context) (int, error)
}

// ExpiredCleaner purges expired cache entries
type ExpiredCleaner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Backuper uploads a database backup
type Backuper interface {
	Backup(ctx context.Context) (string, error)
}

// SyncPricesJob refreshes price history for every held ticker plus the benchmark
type SyncPricesJob struct {
	tickers   TickerSource
	syncer    PriceSyncer
	benchmark string
	timeout   time.Duration
	log       zerolog.Logger
}

// NewSyncPricesJob creates a SyncPricesJob
func NewSyncPricesJob(tickers TickerSource, syncer PriceSyncer, benchmark string, log zerolog.Logger) *SyncPricesJob {
	return &SyncPricesJob{
		tickers:   tickers,
		syncer:    syncer,
		benchmark: benchmark,
		timeout:   30 * time.Minute,
		log:       log.With().Str("job", "sync_prices").Logger(),
	}
}

// Name returns the job name
func (j *SyncPricesJob) Name() string {
	return "sync_prices"
}

// Run syncs each ticker, continuing past individual failures
func (j *SyncPricesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	tickers, err := j.tickers.Tickers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tickers: %w", err)
	}
	if j.benchmark != "" {
		tickers = append(tickers, j.benchmark)
	}

	var (
		errs   []error
		synced int
		stored int
	)
	for _, ticker := range tickers {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		n, err := j.syncer.SyncTicker(ctx, ticker, false)
		if err != nil {
			j.log.Warn().Err(err).Str("ticker", ticker).Msg("Price sync failed")
			errs = append(errs, fmt.Errorf("%s: %w", ticker, err))
			continue
		}
		synced++
		stored += n
	}

	j.log.Info().
		Int("tickers", len(tickers)).
		Int("synced", synced).
		Int("bars", stored).
		Msg("Price sync completed")

	return errors.Join(errs...)
}

// SnapshotJob stores the daily value snapshot of every portfolio
type SnapshotJob struct {
	snapshots Snapshotter
	log       zerolog.Logger
}

// NewSnapshotJob creates a SnapshotJob
func NewSnapshotJob(snapshots Snapshotter, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{snapshots: snapshots, log: log.With().Str("job", "snapshot").Logger()}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "snapshot"
}

// Run executes the snapshot job
func (j *SnapshotJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	n, err := j.snapshots.SnapshotAll(ctx)
	j.log.Info().Int("portfolios", n).Msg("Snapshots taken")
	return err
}

// CacheCleanupJob purges expired market data cache entries
type CacheCleanupJob struct {
	cache ExpiredCleaner
	log   zerolog.Logger
}

// NewCacheCleanupJob creates a CacheCleanupJob
func NewCacheCleanupJob(cache ExpiredCleaner, log zerolog.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{cache: cache, log: log.With().Str("job", "cache_cleanup").Logger()}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Run executes the cleanup
func (j *CacheCleanupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := j.cache.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	j.log.Debug().Int64("deleted", n).Msg("Expired cache entries purged")
	return nil
}

// BackupJob uploads a database backup
type BackupJob struct {
	backups Backuper
	log     zerolog.Logger
}

// NewBackupJob creates a BackupJob
func NewBackupJob(backups Backuper, log zerolog.Logger) *BackupJob {
	return &BackupJob{backups: backups, log: log.With().Str("job", "backup").Logger()}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run executes the backup
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	_, err := j.backups.Backup(ctx)
	return err
}
