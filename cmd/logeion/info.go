package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/logeion/internal/lemma"
	"github.com/at-ishikawa/logeion/internal/lookup"
)

func newInfoCommand() *cobra.Command {
	var asJSON bool

	command := &cobra.Command{
		Use:   "info",
		Short: "Show the server status, the database and the lemmatizer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			service, resolver := newLookupService(ctx, cfg)
			defer func() {
				_ = resolver.Close()
			}()

			status := service.ServerInfo(ctx)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), status)
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
	command.Flags().BoolVar(&asJSON, "json", false, "Print the status as JSON")
	return command
}

func printStatus(w io.Writer, status lookup.ServerStatus) {
	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(w, "%s %s\n", status.Name, status.Version)
	if status.Description != "" {
		_, _ = fmt.Fprintln(w, status.Description)
	}
	_, _ = fmt.Fprintf(w, "Tools: %s\n", strings.Join(status.ToolsAvailable, ", "))

	statusColor := color.New(color.FgGreen)
	if status.DatabaseStatus != lookup.DatabaseStatusConnected {
		statusColor = color.New(color.FgRed)
	}
	_, _ = fmt.Fprint(w, "Database: ")
	_, _ = statusColor.Fprintln(w, status.DatabaseStatus)

	modelColor := color.New(color.FgGreen)
	if status.ModelStatus != lemma.StatusLoaded {
		modelColor = color.New(color.FgYellow)
	}
	_, _ = fmt.Fprintf(w, "Lemmatizer: %s (%s) ", status.Lemmatizer, status.Model)
	_, _ = modelColor.Fprintln(w, status.ModelStatus)
}
