package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/at-ishikawa/logeion/internal/config"
	"github.com/at-ishikawa/logeion/internal/dictionary"
	"github.com/at-ishikawa/logeion/internal/lookup"
)

// maxMessageSize bounds a single newline-delimited message on stdio.
const maxMessageSize = 4 * 1024 * 1024

// Dictionary is the set of operations exposed as tools.
type Dictionary interface {
	LookupWord(ctx context.Context, word string) lookup.Result
	ServerInfo(ctx context.Context) lookup.ServerStatus
	ExploreDatabase(ctx context.Context, table string, limit int) dictionary.SchemaReport
}

// Server dispatches JSON-RPC messages to the dictionary tools.
// It holds no per-request state and is safe for concurrent use.
type Server struct {
	dictionary Dictionary
	info       Implementation
	validate   *validator.Validate
	translator ut.Translator
	handlers   map[string]toolHandler
	logger     *slog.Logger

	writeMu sync.Mutex
}

func NewServer(dictionary Dictionary, serverConfig config.ServerConfig) (*Server, error) {
	validate, trans, err := config.NewValidator("json")
	if err != nil {
		return nil, fmt.Errorf("config.NewValidator > %w", err)
	}

	s := &Server{
		dictionary: dictionary,
		info: Implementation{
			Name:    serverConfig.Name,
			Version: serverConfig.Version,
		},
		validate:   validate,
		translator: trans,
		logger:     slog.Default(),
	}
	s.handlers = s.toolHandlers()
	return s, nil
}

// Handle processes one raw JSON-RPC message.
// It returns nil for notifications, which get no response.
func (s *Server) Handle(ctx context.Context, message []byte) *Response {
	var req Request
	if err := json.Unmarshal(message, &req); err != nil {
		s.logger.Debug("failed to parse message", "error", err)
		return errorResponse(nil, CodeParseError, "Parse error: "+err.Error())
	}
	return s.HandleRequest(ctx, req)
}

// HandleRequest dispatches a decoded request and recovers from panics in the handlers.
func (s *Server) HandleRequest(ctx context.Context, req Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic while handling request",
				"method", req.Method,
				"panic", r,
				"stack", string(debug.Stack()))
			if req.IsNotification() {
				resp = nil
				return
			}
			resp = errorResponse(req.ID, CodeInternalError, fmt.Sprintf("Internal error: %v", r))
		}
	}()

	if req.JSONRPC != jsonRPCVersion || req.Method == "" {
		if req.IsNotification() {
			return nil
		}
		return errorResponse(req.ID, CodeInvalidRequest, "Invalid Request")
	}

	s.logger.Debug("handling request", "method", req.Method, "id", string(req.ID))
	result, rpcErr := s.dispatch(ctx, req)
	if req.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		return &Response{JSONRPC: jsonRPCVersion, ID: req.ID, Error: rpcErr}
	}
	return &Response{JSONRPC: jsonRPCVersion, ID: req.ID, Result: result}
}

func (s *Server) dispatch(ctx context.Context, req Request) (any, *Error) {
	switch req.Method {
	case MethodInitialize:
		var params InitializeParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				return nil, &Error{Code: CodeInvalidParams, Message: "Invalid params: " + err.Error()}
			}
		}
		version := params.ProtocolVersion
		if version == "" {
			version = LatestProtocolVersion
		}
		s.logger.Info("client initialized",
			"client", params.ClientInfo.Name,
			"clientVersion", params.ClientInfo.Version,
			"protocolVersion", version)
		return InitializeResult{
			ProtocolVersion: version,
			Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
			ServerInfo:      s.info,
		}, nil
	case MethodInitialized, MethodPing:
		return struct{}{}, nil
	case MethodToolsList:
		return ListToolsResult{Tools: toolDefinitions}, nil
	case MethodToolsCall:
		return s.callTool(ctx, req.Params)
	default:
		return nil, &Error{Code: CodeMethodNotFound, Message: "Method not found: " + req.Method}
	}
}

func (s *Server) callTool(ctx context.Context, rawParams json.RawMessage) (any, *Error) {
	var params CallToolParams
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "Invalid params: " + err.Error()}
	}
	handler, ok := s.handlers[params.Name]
	if !ok {
		return nil, &Error{Code: CodeInvalidParams, Message: "Unknown tool: " + params.Name}
	}

	result, err := handler(ctx, params.Arguments)
	if err != nil {
		var argsErr *invalidArgumentsError
		if errors.As(err, &argsErr) {
			return CallToolResult{Content: textContent(argsErr.Error()), IsError: true}, nil
		}
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}

	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: fmt.Sprintf("json.Marshal > %v", err)}
	}
	return CallToolResult{
		Content:           textContent(string(text)),
		StructuredContent: result,
	}, nil
}

// ServeStdio reads newline-delimited JSON-RPC messages from r and writes
// responses to w, one message at a time, until r is exhausted or ctx is done.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	s.logger.Info("MCP server listening on stdio", "name", s.info.Name, "version", s.info.Version)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxMessageSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := s.Handle(ctx, line)
		if resp == nil {
			continue
		}
		if err := s.writeMessage(w, resp); err != nil {
			return fmt.Errorf("writeMessage > %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner.Scan > %w", err)
	}
	s.logger.Info("client disconnected")
	return nil
}

func (s *Server) writeMessage(w io.Writer, resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err = w.Write(append(data, '\n'))
	return err
}

func errorResponse(id json.RawMessage, code int, message string) *Response {
	return &Response{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &Error{Code: code, Message: message},
	}
}
