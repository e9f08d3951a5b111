package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/riskdesk/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the job scheduler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	log := a.log
	log.Info().Msg("Starting riskdesk")

	srv := server.New(server.Config{
		Log:       log,
		Port:      a.cfg.Port,
		DevMode:   a.cfg.DevMode,
		DataDir:   a.cfg.DataDir,
		Databases: a.container.Databases(),
		Metrics:   a.metrics,
		Modules: []server.RouteRegistrar{
			a.container.PortfolioHandler,
			a.container.AnalyticsHandler,
			a.container.MarketDataHandler,
		},
		Scheduler: a.scheduler,
		Jobs:      a.jobs.All(),
	})

	a.scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case <-quit:
	case serveErr = <-errCh:
		log.Error().Err(serveErr).Msg("HTTP server failed")
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// waits for running jobs
	a.scheduler.Stop()

	log.Info().Msg("Server stopped")
	return serveErr
}
