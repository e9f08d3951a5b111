package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	syncFull    bool
	syncTickers []string
	backupList  bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schemas",
	Long: `Open every database and apply the embedded schemas. Schemas are
idempotent, so running migrate repeatedly is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		for _, db := range a.container.Databases() {
			a.log.Info().Str("database", db.Name()).Str("path", db.Path()).Msg("Schema applied")
		}
		return nil
	},
}

var syncPricesCmd = &cobra.Command{
	Use:   "sync-prices",
	Short: "Refresh stored daily price history",
	Long: `Fetch daily prices for every held ticker plus the benchmark.

Examples:
  riskdesk sync-prices
  riskdesk sync-prices --ticker AAPL --ticker MSFT
  riskdesk sync-prices --full`,
	RunE: runSyncPrices,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Store today's value snapshot for every portfolio",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		return a.scheduler.RunNow(a.jobs.Snapshot)
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload a database backup to object storage",
	Long: `Create a consistent copy of every database, upload it as a tar.gz
archive and rotate old backups. Requires BACKUP_BUCKET and credentials.

Examples:
  riskdesk backup
  riskdesk backup --list`,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(migrateCmd, syncPricesCmd, snapshotCmd, backupCmd)

	syncPricesCmd.Flags().BoolVar(&syncFull, "full", false, "Fetch the full history instead of the recent window")
	syncPricesCmd.Flags().StringSliceVar(&syncTickers, "ticker", nil, "Ticker to sync (repeatable, default: all held tickers and the benchmark)")

	backupCmd.Flags().BoolVar(&backupList, "list", false, "List existing backups instead of creating one")
}

func runSyncPrices(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	// the scheduled job covers the common case
	if !syncFull && len(syncTickers) == 0 {
		return a.scheduler.RunNow(a.jobs.SyncPrices)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Hour)
	defer cancel()

	tickers := syncTickers
	if len(tickers) == 0 {
		if tickers, err = a.container.PortfolioService.Tickers(ctx); err != nil {
			return err
		}
		tickers = append(tickers, a.cfg.BenchmarkTicker)
	}

	var errs []error
	for _, ticker := range tickers {
		n, err := a.container.MarketData.SyncTicker(ctx, ticker, syncFull)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ticker, err))
			continue
		}
		a.log.Info().Str("ticker", ticker).Int("bars", n).Msg("Synced")
	}
	return errors.Join(errs...)
}

func runBackup(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	if a.container.BackupService == nil {
		return fmt.Errorf("backups are not configured (set BACKUP_BUCKET)")
	}

	if !backupList {
		return a.scheduler.RunNow(a.jobs.Backup)
	}

	backups, err := a.container.BackupService.List(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tSIZE\tCREATED")
	for _, b := range backups {
		fmt.Fprintf(w, "%s\t%d\t%s\n", b.Key, b.SizeBytes, b.Timestamp.Format(time.RFC3339))
	}
	return w.Flush()
}
