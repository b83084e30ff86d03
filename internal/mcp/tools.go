package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/at-ishikawa/logeion/internal/config"
	"github.com/at-ishikawa/logeion/internal/lookup"
)

type GetWordArgs struct {
	Word string `json:"word" validate:"required"`
}

type ExploreDatabaseArgs struct {
	TableName string `json:"table_name" validate:"omitempty,max=128"`
	Limit     *int   `json:"limit"`
}

var toolDefinitions = []Tool{
	{
		Name:        lookup.ToolGetWord,
		Description: "Look up a Latin word in the dictionary. Tries the exact headword first and falls back to the lemmatized form.",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "word": {"type": "string", "description": "The Latin word to look up"}
  },
  "required": ["word"]
}`),
	},
	{
		Name:        lookup.ToolGetServerInfo,
		Description: "Report the server version, the available tools and the status of the dictionary database and the lemmatizer.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	},
	{
		Name:        lookup.ToolExploreDatabase,
		Description: "Show the columns and sample rows of a dictionary table.",
		InputSchema: json.RawMessage(fmt.Sprintf(`{
  "type": "object",
  "properties": {
    "table_name": {"type": "string", "description": "Table to describe", "default": %q},
    "limit": {"type": "integer", "description": "Maximum number of sample rows", "default": %d, "minimum": 1, "maximum": %d}
  }
}`, lookup.DefaultExploreTable, lookup.DefaultExploreLimit, lookup.MaxExploreLimit)),
	},
}

// invalidArgumentsError is reported to the caller as a tool result with isError set.
type invalidArgumentsError struct {
	message string
}

func (e *invalidArgumentsError) Error() string {
	return e.message
}

type toolHandler func(ctx context.Context, arguments json.RawMessage) (any, error)

func (s *Server) toolHandlers() map[string]toolHandler {
	return map[string]toolHandler{
		lookup.ToolGetWord: func(ctx context.Context, arguments json.RawMessage) (any, error) {
			var args GetWordArgs
			if err := s.decodeArguments(arguments, &args); err != nil {
				return nil, err
			}
			return s.dictionary.LookupWord(ctx, args.Word), nil
		},
		lookup.ToolGetServerInfo: func(ctx context.Context, _ json.RawMessage) (any, error) {
			return s.dictionary.ServerInfo(ctx), nil
		},
		lookup.ToolExploreDatabase: func(ctx context.Context, arguments json.RawMessage) (any, error) {
			var args ExploreDatabaseArgs
			if err := s.decodeArguments(arguments, &args); err != nil {
				return nil, err
			}
			var limit int
			if args.Limit != nil {
				limit = *args.Limit
			}
			limit = lookup.NormalizeLimit(limit)
			return s.dictionary.ExploreDatabase(ctx, args.TableName, limit), nil
		},
	}
}

func (s *Server) decodeArguments(arguments json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(arguments)) == 0 || bytes.Equal(bytes.TrimSpace(arguments), []byte("null")) {
		arguments = json.RawMessage("{}")
	}
	if err := json.Unmarshal(arguments, dst); err != nil {
		return &invalidArgumentsError{message: fmt.Sprintf("invalid arguments: %v", err)}
	}
	if err := s.validate.Struct(dst); err != nil {
		return &invalidArgumentsError{message: config.TranslateErrors(err, s.translator)}
	}
	return nil
}
