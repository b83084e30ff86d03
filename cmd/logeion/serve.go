package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/logeion/internal/bootstrap"
	"github.com/at-ishikawa/logeion/internal/dictionary"
	"github.com/at-ishikawa/logeion/internal/lemma"
	"github.com/at-ishikawa/logeion/internal/lookup"
	"github.com/at-ishikawa/logeion/internal/mcp"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dictionary tools over MCP on stdin and stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store := dictionary.NewDBStore(cfg.Database)
			if err := store.Ping(ctx); err != nil {
				return fmt.Errorf("dictionary database is unreachable: %w", err)
			}

			app := bootstrap.New()
			resolver := lemma.Load(ctx, cfg.Lemmatizer, cfg.OpenAI)
			app.AddShutdownHook("lemmatizer", func(ctx context.Context) error {
				return resolver.Close()
			})

			server, err := mcp.NewServer(lookup.NewService(store, resolver, cfg.Server), cfg.Server)
			if err != nil {
				_ = resolver.Close()
				return fmt.Errorf("mcp.NewServer > %w", err)
			}

			return app.Run(ctx, func(ctx context.Context) error {
				return server.ServeStdio(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
}
