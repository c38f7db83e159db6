package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/expawatch/internal/audit"
	"github.com/amishk599/expawatch/internal/classify"
	"github.com/amishk599/expawatch/internal/config"
	"github.com/amishk599/expawatch/internal/model"
	"github.com/amishk599/expawatch/internal/notifier"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Show the routing table and channel bindings",
	Long:  "Reads the config and prints which records go to which channel, and the (redacted) endpoint bound to each.",
	RunE:  runChannels,
}

func init() {
	rootCmd.AddCommand(channelsCmd)
}

func runChannels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(audit.RenderChannels(channelRows(cfg)))
	return nil
}

func channelRows(cfg *config.Config) []audit.ChannelRow {
	rules := map[model.RoutingKey]string{
		model.ChannelSignup: fmt.Sprintf("signups selecting programme %d", cfg.Routing.TargetProgramme),
	}
	for _, r := range classify.ApplicationRoutes {
		where := "abroad"
		if r.AtHome {
			where = "at " + cfg.Routing.HomeLocation
		}
		rule := fmt.Sprintf("%s applications %s", r.Function, where)
		if prev, ok := rules[r.Key]; ok {
			rule = prev + "; " + rule
		}
		rules[r.Key] = rule
	}

	rows := make([]audit.ChannelRow, 0, len(model.RoutingKeys))
	for _, key := range model.RoutingKeys {
		row := audit.ChannelRow{Key: key, Rule: rules[key]}
		if u := cfg.Notification.Channels[key]; u != "" {
			row.Endpoint = notifier.RedactURL(u)
		}
		rows = append(rows, row)
	}
	return rows
}
