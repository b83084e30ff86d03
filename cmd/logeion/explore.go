package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/logeion/internal/lookup"
)

func newExploreCommand() *cobra.Command {
	var limit int

	command := &cobra.Command{
		Use:   "explore [table]",
		Short: "Show the columns and sample rows of a dictionary table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			table := lookup.DefaultExploreTable
			if len(args) == 1 {
				table = args[0]
			}

			ctx := cmd.Context()
			service, resolver := newLookupService(ctx, cfg)
			defer func() {
				_ = resolver.Close()
			}()

			report := service.ExploreDatabase(ctx, table, limit)
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.Success {
				return fmt.Errorf("failed to explore %s: %s", report.Table, report.Error)
			}
			return nil
		},
	}
	command.Flags().IntVar(&limit, "limit", lookup.DefaultExploreLimit, "Number of sample rows")
	return command
}
