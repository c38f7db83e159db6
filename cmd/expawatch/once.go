package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/expawatch/internal/scheduler"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run one poll cycle per kind, then exit",
	Long:  "Runs a single cycle for every enabled kind against the real store and notifier. Suited to cron.",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logFormat)
	cfg := mustLoadConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recordStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer recordStore.Close()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	n := setupNotifier(cfg, httpClient, logger)

	sched := scheduler.NewScheduler(buildPollers(cfg, recordStore, n, logger), logger)
	for kind, stats := range sched.RunOnce(ctx) {
		logger.Info("cycle finished",
			"kind", kind,
			"fetch_failed", stats.FetchFailed,
			"inserted", stats.Inserted,
			"notified", stats.Notified,
		)
	}
	return nil
}
