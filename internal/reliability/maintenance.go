package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/aristath/riskdesk/internal/database"
)

// minFreeDiskBytes halts maintenance when the data volume is nearly full
const minFreeDiskBytes = 500 * 1024 * 1024

// MaintenanceJob checks database integrity, truncates WAL files and watches
// free disk space on the data volume.
type MaintenanceJob struct {
	databases []*database.DB
	dataDir   string
	usage     func(path string) (*disk.UsageStat, error)
	log       zerolog.Logger
}

// NewMaintenanceJob creates a maintenance job over the given databases
func NewMaintenanceJob(databases []*database.DB, dataDir string, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		dataDir:   dataDir,
		usage:     disk.Usage,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run executes the maintenance pass
func (j *MaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	startTime := time.Now()

	for _, db := range j.databases {
		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("Integrity check failed")
			return err
		}

		// not critical
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
		}
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().Dur("duration_ms", time.Since(startTime)).Msg("Maintenance completed")
	return nil
}

func (j *MaintenanceJob) checkDiskSpace() error {
	usage, err := j.usage(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(usage.Free) / 1e9
	if usage.Free < minFreeDiskBytes {
		j.log.Error().Float64("available_gb", availableGB).Msg("Insufficient disk space")
		return fmt.Errorf("only %.2f GB free on %s", availableGB, j.dataDir)
	}
	if usage.UsedPercent > 90 {
		j.log.Warn().
			Float64("available_gb", availableGB).
			Float64("used_percent", usage.UsedPercent).
			Msg("Disk space running low")
	}
	return nil
}
