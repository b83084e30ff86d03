package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"slices"
	"strconv"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/at-ishikawa/logeion/internal/bootstrap"
	"github.com/at-ishikawa/logeion/internal/config"
	"github.com/at-ishikawa/logeion/internal/dictionary"
	"github.com/at-ishikawa/logeion/internal/lemma"
	"github.com/at-ishikawa/logeion/internal/lookup"
	"github.com/at-ishikawa/logeion/internal/mcp"
	"github.com/at-ishikawa/logeion/internal/server"
)

const mcpPath = "/mcp"

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}

	store := dictionary.NewDBStore(cfg.Database)
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("dictionary database is unreachable: %w", err)
	}

	app := bootstrap.New()
	resolver := lemma.Load(ctx, cfg.Lemmatizer, cfg.OpenAI)
	app.AddShutdownHook("lemmatizer", func(ctx context.Context) error {
		return resolver.Close()
	})

	handler, err := newHandler(lookup.NewService(store, resolver, cfg.Server), cfg.Server)
	if err != nil {
		_ = resolver.Close()
		return fmt.Errorf("newHandler() > %w", err)
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.Server.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	app.AddShutdownHook("http server", srv.Shutdown)

	return app.Run(ctx, func(ctx context.Context) error {
		slog.Default().Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("srv.ListenAndServe() > %w", err)
		}
		return nil
	})
}

func loadConfig() (*config.Config, error) {
	configFile := os.Getenv("LOGEION_CONFIG")
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}

// newHandler mounts the MCP endpoint and the Connect service on one mux.
func newHandler(service *lookup.Service, serverConfig config.ServerConfig) (http.Handler, error) {
	mcpServer, err := mcp.NewServer(service, serverConfig)
	if err != nil {
		return nil, fmt.Errorf("mcp.NewServer > %w", err)
	}
	dictionaryHandler, err := server.NewDictionaryHandler(service)
	if err != nil {
		return nil, fmt.Errorf("server.NewDictionaryHandler > %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(mcpPath, mcp.NewHTTPHandler(mcpServer))
	path, h := server.NewDictionaryServiceHandler(dictionaryHandler)
	mux.Handle(path, h)

	return corsMiddleware(serverConfig.CORS.AllowedOrigins, h2c.NewHandler(mux, &http2.Server{})), nil
}

func corsMiddleware(allowedOrigins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (slices.Contains(allowedOrigins, origin) || slices.Contains(allowedOrigins, "*")) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Connect-Protocol-Version, "+mcp.SessionHeader)
			w.Header().Set("Access-Control-Expose-Headers", mcp.SessionHeader)
			w.Header().Set("Access-Control-Max-Age", "3600")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
