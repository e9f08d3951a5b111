// Package main is the entry point for riskdesk, a portfolio analytics service.
// It serves the HTTP API and runs background jobs (price sync, snapshots,
// cache cleanup, maintenance and backups), and exposes one-shot commands for
// the same jobs.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/riskdesk/internal/config"
	"github.com/aristath/riskdesk/internal/di"
	"github.com/aristath/riskdesk/internal/metrics"
	"github.com/aristath/riskdesk/internal/scheduler"
	"github.com/aristath/riskdesk/pkg/logger"
)

var logPretty bool

// rootCmd is the base command for the riskdesk CLI
var rootCmd = &cobra.Command{
	Use:   "riskdesk",
	Short: "Portfolio analytics service",
	Long: `riskdesk tracks portfolios and serves risk, correlation, attribution,
benchmark and diversification analytics over stored daily price history.

Configuration is read from the environment (and .env when present).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&logPretty, "pretty", true, "Human-readable log output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles what every command needs
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	metrics   *metrics.Registry
	scheduler *scheduler.Scheduler
	container *di.Container
	jobs      *di.JobInstances
}

// bootstrap loads configuration, sets up logging and wires all dependencies
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: logPretty,
	})
	logger.SetGlobalLogger(log)

	m := metrics.New()
	sched := scheduler.New(m, log)

	container, jobs, err := di.Wire(cfg, m, sched, log)
	if err != nil {
		return nil, fmt.Errorf("failed to wire dependencies: %w", err)
	}

	return &app{
		cfg:       cfg,
		log:       log,
		metrics:   m,
		scheduler: sched,
		container: container,
		jobs:      jobs,
	}, nil
}

func (a *app) close() {
	a.container.Close()
}
