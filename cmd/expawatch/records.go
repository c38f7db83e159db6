package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/expawatch/internal/audit"
	"github.com/amishk599/expawatch/internal/model"
)

var (
	recordsKind  string
	recordsLimit int
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List stored records",
	Long:  "Prints the most recently stored records of each kind with the channel they route to.",
	RunE:  runRecords,
}

func init() {
	recordsCmd.Flags().StringVar(&recordsKind, "kind", "", "only list this kind (signup or application)")
	recordsCmd.Flags().IntVar(&recordsLimit, "limit", 20, "maximum records per kind (0 lists everything)")
	rootCmd.AddCommand(recordsCmd)
}

func runRecords(cmd *cobra.Command, args []string) error {
	if recordsLimit < 0 {
		return fmt.Errorf("--limit must be >= 0 (0 lists everything), got %d", recordsLimit)
	}
	kinds := model.Kinds
	if recordsKind != "" {
		k := model.Kind(recordsKind)
		if !k.Valid() {
			return fmt.Errorf("unknown kind %q", recordsKind)
		}
		kinds = []model.Kind{k}
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	recordStore, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer recordStore.Close()

	classifier := newClassifier(cfg)
	for _, kind := range kinds {
		records, err := recordStore.List(ctx, kind, recordsLimit)
		if err != nil {
			return fmt.Errorf("list %s: %w", kind.Collection(), err)
		}
		fmt.Print(audit.RenderRecords(kind, records, classifier, cfg.Routing.Location))
	}
	return nil
}
