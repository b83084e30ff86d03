package testutil

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupDictionaryDB(t *testing.T) {
	tests := []struct {
		name      string
		headwords []Headword
		wantHeads []string
	}{
		{
			name:      "default fixture",
			wantHeads: []string{"amare", "puer", "puella", "bonus", "magnus"},
		},
		{
			name:      "custom headwords",
			headwords: []Headword{{Head: "rosa", Definition: "rose"}},
			wantHeads: []string{"rosa"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := SetupDictionaryDB(t, t.TempDir(), tt.headwords...)

			db, err := sqlx.Open("sqlite", dbPath)
			require.NoError(t, err)
			defer db.Close()

			var heads []string
			require.NoError(t, db.Select(&heads, "SELECT head FROM Entries ORDER BY id"))
			assert.Equal(t, tt.wantHeads, heads)
		})
	}
}

func TestSetupLemmaTable(t *testing.T) {
	path := SetupLemmaTable(t, t.TempDir(), map[string]string{"amo": "amare"})

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\"amo\": \"amare\"\n", string(content))
}

func TestSetupTestConfig(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("without lemma table", func(t *testing.T) {
		cfgPath := SetupTestConfig(t, tmpDir, "/data/dict.sqlite", "")
		content, err := os.ReadFile(cfgPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), "path: /data/dict.sqlite")
		assert.Contains(t, string(content), "provider: none")
	})

	t.Run("with lemma table", func(t *testing.T) {
		cfgPath := SetupTestConfig(t, tmpDir, "/data/dict.sqlite", "/data/lemmas.yml")
		content, err := os.ReadFile(cfgPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), "provider: table")
		assert.Contains(t, string(content), "table_file: /data/lemmas.yml")
	})
}
