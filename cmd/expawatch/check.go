package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/expawatch/internal/notifier"
	"github.com/amishk599/expawatch/internal/scheduler"
	"github.com/amishk599/expawatch/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Poll once, log what would be sent, exit",
	Long:  "One-shot poll of every enabled kind. Records are classified and the messages logged; nothing is stored or posted.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logFormat)
	cfg := mustLoadConfig(logger)

	logger.Info("check mode: nothing will be stored or posted")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n := notifier.NewLogNotifier(notifier.NewFormatter(cfg.Routing.Location), logger)
	sched := scheduler.NewScheduler(buildPollers(cfg, store.NewNopStore(), n, logger), logger)
	sched.RunOnce(ctx)

	logger.Info("check complete")
	return nil
}
