// Package lookup implements the dictionary lookup policy: exact match first,
// then the lemma of the word, and the status and introspection helpers
// served alongside it.
package lookup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/at-ishikawa/logeion/internal/config"
	"github.com/at-ishikawa/logeion/internal/dictionary"
	"github.com/at-ishikawa/logeion/internal/lemma"
)

const (
	ToolGetWord         = "get_word"
	ToolGetServerInfo   = "get_server_info"
	ToolExploreDatabase = "explore_database"

	DefaultExploreTable = "Entries"
	DefaultExploreLimit = 10
	MaxExploreLimit     = 1000

	DatabaseStatusConnected = "connected"
)

// Tools lists the operations in the order they are advertised.
var Tools = []string{ToolGetWord, ToolGetServerInfo, ToolExploreDatabase}

// ServerStatus is a snapshot of the server and its collaborators.
type ServerStatus struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	Description    string   `json:"description"`
	ToolsAvailable []string `json:"toolsAvailable"`
	DatabaseStatus string   `json:"databaseStatus"`
	ModelStatus    string   `json:"modelStatus"`
	Model          string   `json:"model"`
	Lemmatizer     string   `json:"lemmatizer"`
}

type Service struct {
	store    dictionary.Store
	resolver *lemma.Resolver
	server   config.ServerConfig
}

func NewService(store dictionary.Store, resolver *lemma.Resolver, server config.ServerConfig) *Service {
	if resolver == nil {
		resolver = lemma.Unavailable(config.ProviderNone, "")
	}
	return &Service{
		store:    store,
		resolver: resolver,
		server:   server,
	}
}

// Resolve runs the lookup policy for word.
// A panic in the store or the lemmatizer is reported as a StorageFailure.
func (s *Service) Resolve(ctx context.Context, word string) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Default().Error("lookup panicked", "word", word, "panic", r)
			outcome = StorageFailure{Err: fmt.Errorf("lookup of %q panicked: %v", word, r)}
		}
	}()

	entries, err := s.store.FetchByHead(ctx, word)
	if err != nil {
		return StorageFailure{Err: err}
	}
	if len(entries) > 0 {
		return ExactMatch{Entries: entries}
	}

	if !s.resolver.Available() {
		return NotFound{ResolverAvailable: false}
	}
	lemma, ok := s.resolver.Lemmatize(ctx, word)
	if !ok || lemma == word {
		return NotFound{ResolverAvailable: true}
	}

	entries, err = s.store.FetchByHead(ctx, lemma)
	if err != nil {
		return StorageFailure{Err: err}
	}
	if len(entries) > 0 {
		return LemmaMatch{Lemma: lemma, Entries: entries}
	}
	return NotFound{ResolverAvailable: true}
}

// LookupWord looks up word and never fails: every error becomes part of the Result.
func (s *Service) LookupWord(ctx context.Context, word string) Result {
	result := NewResult(word, s.Resolve(ctx, word))
	slog.Default().Debug("lookup",
		"word", word,
		"method", result.Method,
		"lemma", result.Lemma,
		"entries", len(result.Entries),
		"error", result.Error,
	)
	return result
}

// ServerInfo pings the store and reports the state of the server.
func (s *Service) ServerInfo(ctx context.Context) ServerStatus {
	databaseStatus := DatabaseStatusConnected
	if err := s.store.Ping(ctx); err != nil {
		databaseStatus = "error: " + err.Error()
	}

	tools := make([]string, len(Tools))
	copy(tools, Tools)
	return ServerStatus{
		Name:           s.server.Name,
		Version:        s.server.Version,
		Description:    s.server.Description,
		ToolsAvailable: tools,
		DatabaseStatus: databaseStatus,
		ModelStatus:    s.resolver.Status(),
		Model:          s.resolver.Model(),
		Lemmatizer:     s.resolver.Provider(),
	}
}

// ExploreDatabase describes table with up to limit sample rows.
// Zero values select DefaultExploreTable and DefaultExploreLimit.
// Any other limit is clamped to [1, MaxExploreLimit].
func (s *Service) ExploreDatabase(ctx context.Context, table string, limit int) dictionary.SchemaReport {
	if table == "" {
		table = DefaultExploreTable
	}
	limit = NormalizeLimit(limit)

	report, err := s.store.DescribeTable(ctx, table, limit)
	if err != nil {
		slog.Default().Debug("explore database failed", "table", table, "error", err)
		return dictionary.FailedSchemaReport(table, err)
	}
	return report
}

// NormalizeLimit maps 0 to DefaultExploreLimit and clamps any other value.
func NormalizeLimit(limit int) int {
	if limit == 0 {
		return DefaultExploreLimit
	}
	return ClampLimit(limit)
}

// ClampLimit bounds a sample size to [1, MaxExploreLimit].
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxExploreLimit {
		return MaxExploreLimit
	}
	return limit
}
