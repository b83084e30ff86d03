// Package lemma reduces an inflected Latin word to its dictionary headword.
package lemma

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/at-ishikawa/logeion/internal/config"
	"github.com/at-ishikawa/logeion/internal/inference"
	"github.com/at-ishikawa/logeion/internal/inference/openai"
	"github.com/at-ishikawa/logeion/internal/inference/service"
	"github.com/at-ishikawa/logeion/internal/inference/table"
)

const (
	StatusLoaded       = "loaded"
	StatusNotAvailable = "not available"
)

// Resolver wraps an annotation backend loaded once at startup.
// A Resolver without a backend is unavailable and never produces a lemma.
type Resolver struct {
	annotator inference.Annotator
	provider  string
	model     string
}

// NewResolver creates an available resolver around annotator.
func NewResolver(annotator inference.Annotator, provider, model string) *Resolver {
	return &Resolver{annotator: annotator, provider: provider, model: model}
}

// Unavailable returns a resolver that reports "not available".
func Unavailable(provider, model string) *Resolver {
	return &Resolver{provider: provider, model: model}
}

// Load builds the configured backend and checks it is ready. It never fails:
// a backend that cannot be loaded is logged and yields an unavailable resolver.
func Load(ctx context.Context, cfg config.LemmatizerConfig, openAICfg config.OpenAIConfig) *Resolver {
	model := cfg.Model
	if cfg.Provider == config.ProviderOpenAI {
		model = openAICfg.Model
	}

	annotator, err := newAnnotator(cfg, openAICfg)
	if err != nil {
		slog.Default().Warn("lemmatizer could not be created",
			"provider", cfg.Provider,
			"model", model,
			"error", err)
		return Unavailable(cfg.Provider, model)
	}
	if annotator == nil {
		slog.Default().Info("lemmatizer disabled", "provider", cfg.Provider)
		return Unavailable(cfg.Provider, model)
	}

	if err := annotator.Ready(ctx); err != nil {
		slog.Default().Warn("lemmatizer model could not be loaded",
			"provider", cfg.Provider,
			"model", model,
			"error", err)
		_ = annotator.Close()
		return Unavailable(cfg.Provider, model)
	}
	slog.Default().Info("lemmatizer loaded", "provider", cfg.Provider, "model", model)
	return NewResolver(annotator, cfg.Provider, model)
}

func newAnnotator(cfg config.LemmatizerConfig, openAICfg config.OpenAIConfig) (inference.Annotator, error) {
	retryAttempts := maxRetryAttempts(cfg)
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch cfg.Provider {
	case config.ProviderService:
		return service.NewClient(cfg.Endpoint, cfg.Model, timeout, retryAttempts), nil
	case config.ProviderOpenAI:
		return openai.NewClient(openAICfg.APIKey, openAICfg.Model, retryAttempts), nil
	case config.ProviderTable:
		annotator, err := table.Load(cfg.TableFile)
		if err != nil {
			return nil, fmt.Errorf("table.Load > %w", err)
		}
		slog.Default().Debug("lemma table read", "path", cfg.TableFile, "forms", annotator.Len())
		return annotator, nil
	case config.ProviderNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown lemmatizer provider %q", cfg.Provider)
	}
}

func maxRetryAttempts(cfg config.LemmatizerConfig) uint {
	if cfg.MaxRetryAttempts == 0 {
		return inference.DefaultMaxRetryAttempts
	}
	return cfg.MaxRetryAttempts
}

// Available reports whether a backend was loaded.
func (r *Resolver) Available() bool {
	return r != nil && r.annotator != nil
}

// Status returns "loaded" or "not available".
func (r *Resolver) Status() string {
	if r.Available() {
		return StatusLoaded
	}
	return StatusNotAvailable
}

func (r *Resolver) Provider() string {
	if r == nil {
		return ""
	}
	return r.provider
}

func (r *Resolver) Model() string {
	if r == nil {
		return ""
	}
	return r.model
}

// Lemmatize returns the lemma of the first token the backend produces for word.
// ok is false when the resolver is unavailable, the backend fails,
// no token is produced or the lemma is empty.
func (r *Resolver) Lemmatize(ctx context.Context, word string) (lemma string, ok bool) {
	if !r.Available() {
		return "", false
	}

	tokens, err := r.annotator.Annotate(ctx, word)
	if err != nil {
		slog.Default().Warn("lemmatization failed", "word", word, "error", err)
		return "", false
	}
	if len(tokens) == 0 {
		return "", false
	}
	lemma = strings.TrimSpace(tokens[0].Lemma)
	if lemma == "" {
		return "", false
	}
	return lemma, true
}

func (r *Resolver) Close() error {
	if !r.Available() {
		return nil
	}
	return r.annotator.Close()
}
