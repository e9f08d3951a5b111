package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/riskdesk/internal/config"
	"github.com/aristath/riskdesk/internal/reliability"
	"github.com/aristath/riskdesk/internal/scheduler"
)

// JobInstances holds every background job, for scheduling and manual triggering
type JobInstances struct {
	SyncPrices   *scheduler.SyncPricesJob
	Snapshot     *scheduler.SnapshotJob
	CacheCleanup *scheduler.CacheCleanupJob
	Maintenance  *reliability.MaintenanceJob
	Backup       *scheduler.BackupJob // nil when backups are not configured
}

// All returns the non-nil jobs
func (j *JobInstances) All() []scheduler.Job {
	jobs := []scheduler.Job{j.SyncPrices, j.Snapshot, j.CacheCleanup, j.Maintenance}
	if j.Backup != nil {
		jobs = append(jobs, j.Backup)
	}
	return jobs
}

// RegisterJobs creates the jobs and registers them with sched on the configured schedules
func RegisterJobs(container *Container, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) (*JobInstances, error) {
	jobs := &JobInstances{
		SyncPrices:   scheduler.NewSyncPricesJob(container.PortfolioService, container.MarketData, cfg.BenchmarkTicker, log),
		Snapshot:     scheduler.NewSnapshotJob(container.PortfolioService, log),
		CacheCleanup: scheduler.NewCacheCleanupJob(container.Cache, log),
		Maintenance:  reliability.NewMaintenanceJob(container.Databases(), cfg.DataDir, log),
	}
	if container.BackupService != nil {
		jobs.Backup = scheduler.NewBackupJob(container.BackupService, log)
	}

	schedules := []struct {
		schedule string
		job      scheduler.Job
	}{
		{cfg.Schedules.PriceSync, jobs.SyncPrices},
		{cfg.Schedules.Snapshot, jobs.Snapshot},
		{cfg.Schedules.CacheCleanup, jobs.CacheCleanup},
		{cfg.Schedules.Maintenance, jobs.Maintenance},
	}
	if jobs.Backup != nil {
		schedules = append(schedules, struct {
			schedule string
			job      scheduler.Job
		}{cfg.Schedules.Backup, jobs.Backup})
	}

	for _, s := range schedules {
		if err := sched.AddJob(s.schedule, s.job); err != nil {
			return nil, fmt.Errorf("failed to register %s job: %w", s.job.Name(), err)
		}
	}

	return jobs, nil
}
