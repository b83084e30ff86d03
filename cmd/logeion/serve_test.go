package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommand(t *testing.T) {
	t.Run("answers MCP requests on stdin", func(t *testing.T) {
		stdin := strings.Join([]string{
			`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"test","version":"0.0.1"}}}`,
			`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
			`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_word","arguments":{"word":"amo"}}}`,
		}, "\n") + "\n"

		out, err := executeCommand(t, stdin, "--config", setupFixture(t), "serve")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 2)

		var initialize struct {
			ID     int `json:"id"`
			Result struct {
				ProtocolVersion string `json:"protocolVersion"`
				ServerInfo      struct {
					Name string `json:"name"`
				} `json:"serverInfo"`
			} `json:"result"`
		}
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &initialize))
		assert.Equal(t, 1, initialize.ID)
		assert.Equal(t, "2025-06-18", initialize.Result.ProtocolVersion)
		assert.Equal(t, "Logeion MCP Server", initialize.Result.ServerInfo.Name)

		var call struct {
			ID     int `json:"id"`
			Result struct {
				StructuredContent struct {
					Method string `json:"method"`
					Lemma  string `json:"lemma"`
				} `json:"structuredContent"`
			} `json:"result"`
		}
		require.NoError(t, json.Unmarshal([]byte(lines[1]), &call))
		assert.Equal(t, 2, call.ID)
		assert.Equal(t, "lemmatized", call.Result.StructuredContent.Method)
		assert.Equal(t, "amare", call.Result.StructuredContent.Lemma)
	})

	t.Run("fails when the database is unreachable", func(t *testing.T) {
		_, err := executeCommand(t, "", "--config", setupMissingDatabaseFixture(t), "serve")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dictionary database is unreachable")
	})

	t.Run("fails with an invalid config", func(t *testing.T) {
		_, err := executeCommand(t, "", "--config", "/non/existent/config.yml", "serve")
		assert.Error(t, err)
	})
}
