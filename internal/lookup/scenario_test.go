package lookup

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/logeion/internal/config"
	"github.com/at-ishikawa/logeion/internal/dictionary"
	"github.com/at-ishikawa/logeion/internal/inference/table"
	"github.com/at-ishikawa/logeion/internal/lemma"
	"github.com/at-ishikawa/logeion/internal/testutil"
)

func newSQLiteService(t *testing.T, dbPath string, resolver *lemma.Resolver) *Service {
	t.Helper()
	store := dictionary.NewDBStore(config.DatabaseConfig{
		Driver:           config.DriverSQLite,
		Path:             dbPath,
		LookupTable:      "Entries",
		HeadColumn:       "head",
		ExplorableTables: []string{"Entries"},
	})
	return NewService(store, resolver, testServerConfig)
}

func amoResolver() *lemma.Resolver {
	annotator := table.NewAnnotator(map[string]table.Entry{"amo": {Lemma: "amare", POS: "VERB"}})
	return lemma.NewResolver(annotator, config.ProviderTable, "table")
}

func TestService_Scenarios(t *testing.T) {
	dbPath := testutil.SetupDictionaryDB(t, t.TempDir(),
		testutil.Headword{Head: "amare", Definition: "to love", PartOfSpeech: "verb"},
		testutil.Headword{Head: "puer", Definition: "boy", PartOfSpeech: "noun"},
	)
	service := newSQLiteService(t, dbPath, amoResolver())
	ctx := context.Background()

	t.Run("exact headword", func(t *testing.T) {
		got := service.LookupWord(ctx, "amare")
		assert.True(t, got.Success)
		assert.Equal(t, MethodExact, got.Method)
		assert.Empty(t, got.Lemma)
		require.Len(t, got.Entries, 1)
		assert.Equal(t, "amare", got.Entries[0]["head"])
		assert.Equal(t, "to love", got.Entries[0]["definition"])
	})

	t.Run("inflected form found through its lemma", func(t *testing.T) {
		got := service.LookupWord(ctx, "amo")
		assert.True(t, got.Success)
		assert.Equal(t, MethodLemmatized, got.Method)
		assert.Equal(t, "amare", got.Lemma)
		require.Len(t, got.Entries, 1)
		assert.Equal(t, "amare", got.Entries[0]["head"])
	})

	t.Run("unknown word", func(t *testing.T) {
		got := service.LookupWord(ctx, "xyzzy")
		assert.Equal(t, Result{
			Success: false,
			Word:    "xyzzy",
			Entries: []dictionary.Entry{},
			Method:  MethodNone,
			Error:   "No results found for 'xyzzy' or its lemma",
		}, got)
	})

	t.Run("invalid storage path", func(t *testing.T) {
		broken := newSQLiteService(t, filepath.Join(t.TempDir(), "missing", "dict.sqlite"), amoResolver())
		got := broken.LookupWord(ctx, "test")
		assert.False(t, got.Success)
		assert.Equal(t, MethodError, got.Method)
		assert.NotEmpty(t, got.Error)
		assert.Equal(t, []dictionary.Entry{}, got.Entries)
	})

	t.Run("server info", func(t *testing.T) {
		got := service.ServerInfo(ctx)
		assert.Equal(t, "connected", got.DatabaseStatus)
		assert.Equal(t, "loaded", got.ModelStatus)
		assert.Equal(t, []string{"get_word", "get_server_info", "explore_database"}, got.ToolsAvailable)
	})

	t.Run("explore entries", func(t *testing.T) {
		got := service.ExploreDatabase(ctx, "Entries", 5)
		assert.True(t, got.Success)
		assert.LessOrEqual(t, len(got.SampleRows), 5)
		assert.Contains(t, got.ColumnNames, "head")
	})

	t.Run("explore a table outside the allow-list", func(t *testing.T) {
		got := service.ExploreDatabase(ctx, "InvalidTable", 10)
		assert.False(t, got.Success)
		assert.Equal(t, "InvalidTable", got.Table)
		assert.NotEmpty(t, got.Error)
	})
}
