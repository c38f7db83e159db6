package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/expawatch/internal/model"
	"github.com/amishk599/expawatch/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification to every bound channel",
	Long:  "Sends a dummy record to each channel reachable by an enabled kind, using the configured notifier.",
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logFormat)
	cfg := mustLoadConfig(logger)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	n := setupNotifier(cfg, httpClient, logger)

	var keys []model.RoutingKey
	for _, kind := range cfg.EnabledKinds() {
		keys = append(keys, model.ChannelsFor(kind)...)
	}

	if err := notifier.SendTestMessage(context.Background(), n, keys); err != nil {
		logger.Error("test notification failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test notification sent successfully", "channels", len(keys))
	return nil
}
