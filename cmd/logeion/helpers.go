package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/at-ishikawa/logeion/internal/config"
	"github.com/at-ishikawa/logeion/internal/dictionary"
	"github.com/at-ishikawa/logeion/internal/lemma"
	"github.com/at-ishikawa/logeion/internal/lookup"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	lemmatizerProvider.apply(cfg)
	return cfg, nil
}

// newLookupService wires the store and the lemma resolver. The caller closes the resolver.
func newLookupService(ctx context.Context, cfg *config.Config) (*lookup.Service, *lemma.Resolver) {
	store := dictionary.NewDBStore(cfg.Database)
	resolver := lemma.Load(ctx, cfg.Lemmatizer, cfg.OpenAI)
	return lookup.NewService(store, resolver, cfg.Server), resolver
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoder.Encode > %w", err)
	}
	return nil
}
