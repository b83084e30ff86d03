// Package testutil provides shared test helpers for creating config files and dictionary fixtures.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	// sqlite driver for writing fixtures.
	_ "modernc.org/sqlite"
)

// Headword is one row of the Entries fixture table.
type Headword struct {
	Head         string
	Definition   string
	PartOfSpeech string
	Etymology    string
}

// DefaultHeadwords is the fixture dictionary used across packages.
var DefaultHeadwords = []Headword{
	{Head: "amare", Definition: "to love", PartOfSpeech: "verb", Etymology: "from Proto-Indo-European *am-"},
	{Head: "puer", Definition: "boy", PartOfSpeech: "noun", Etymology: "from Proto-Indo-European *ph₂wḗr"},
	{Head: "puella", Definition: "girl", PartOfSpeech: "noun", Etymology: "diminutive of puer"},
	{Head: "bonus", Definition: "good", PartOfSpeech: "adjective", Etymology: "from Old Latin duenos"},
	{Head: "magnus", Definition: "great", PartOfSpeech: "adjective", Etymology: "from Proto-Indo-European *meǵh₂-"},
}

const entriesSchema = `CREATE TABLE Entries (
	id INTEGER PRIMARY KEY,
	head TEXT NOT NULL,
	definition TEXT,
	part_of_speech TEXT,
	etymology TEXT
)`

// SetupDictionaryDB writes a SQLite dictionary with an Entries table into dir
// and returns the path to the database file.
func SetupDictionaryDB(t *testing.T, dir string, headwords ...Headword) string {
	t.Helper()
	if len(headwords) == 0 {
		headwords = DefaultHeadwords
	}

	dbPath := filepath.Join(dir, "dictionary.sqlite")
	db, err := sqlx.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, db.Close())
	}()

	db.MustExec(entriesSchema)
	for _, h := range headwords {
		db.MustExec(
			"INSERT INTO Entries (head, definition, part_of_speech, etymology) VALUES (?, ?, ?, ?)",
			h.Head, h.Definition, h.PartOfSpeech, h.Etymology,
		)
	}
	return dbPath
}

// SetupLemmaTable writes a YAML lemma table mapping forms to lemmas and returns its path.
func SetupLemmaTable(t *testing.T, dir string, lemmas map[string]string) string {
	t.Helper()
	content := ""
	for form, lemma := range lemmas {
		content += fmt.Sprintf("%q: %q\n", form, lemma)
	}
	path := filepath.Join(dir, "lemmas.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// SetupTestConfig creates a config file pointing at dbPath with the table lemmatizer
// reading lemmaTable (the lemmatizer is disabled when lemmaTable is empty).
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir, dbPath, lemmaTable string) string {
	t.Helper()

	lemmatizer := "lemmatizer:\n  provider: none\n"
	if lemmaTable != "" {
		lemmatizer = fmt.Sprintf("lemmatizer:\n  provider: table\n  table_file: %s\n", lemmaTable)
	}
	configContent := fmt.Sprintf(`server:
  name: Logeion MCP Server
  version: 1.0.0
database:
  driver: sqlite
  path: %s
  lookup_table: Entries
  head_column: head
  explorable_tables:
    - Entries
%s`, dbPath, lemmatizer)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}
