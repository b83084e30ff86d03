package mcp

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionHeader carries the session issued by initialize on streamable HTTP.
const SessionHeader = "Mcp-Session-Id"

const maxRequestBodySize = 1 << 20

const (
	defaultSessionIdleTimeout = 30 * time.Minute
	defaultMaxSessions        = 1024
)

// HTTPHandler serves the streamable HTTP transport: one JSON-RPC message per POST,
// answered with a single JSON body. Server-initiated streams are not offered.
// Sessions idle for longer than the idle timeout expire, and when the cap is
// reached the least recently used session is closed to make room.
type HTTPHandler struct {
	server *Server

	mu          sync.Mutex
	sessions    map[string]time.Time
	idleTimeout time.Duration
	maxSessions int
	now         func() time.Time
}

func NewHTTPHandler(server *Server) *HTTPHandler {
	return &HTTPHandler{
		server:      server,
		sessions:    make(map[string]time.Time),
		idleTimeout: defaultSessionIdleTimeout,
		maxSessions: defaultMaxSessions,
		now:         time.Now,
	}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HTTPHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(nil, CodeParseError, "Parse error: "+err.Error()))
		return
	}

	sessionID := r.Header.Get(SessionHeader)
	if req.Method == MethodInitialize {
		sessionID = h.newSession()
		w.Header().Set(SessionHeader, sessionID)
	} else {
		if sessionID == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse(req.ID, CodeInvalidRequest, "Bad Request: missing "+SessionHeader+" header"))
			return
		}
		if !h.touchSession(sessionID) {
			writeJSON(w, http.StatusNotFound, errorResponse(req.ID, CodeInvalidRequest, "Session not found"))
			return
		}
	}

	resp := h.server.HandleRequest(r.Context(), req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionHeader)
	h.mu.Lock()
	_, ok := h.sessions[sessionID]
	delete(h.sessions, sessionID)
	h.mu.Unlock()

	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	h.server.logger.Debug("session closed", "session", sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) newSession() string {
	id := uuid.NewString()
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	h.expireLocked(now)
	for len(h.sessions) >= h.maxSessions && len(h.sessions) > 0 {
		h.evictOldestLocked()
	}
	h.sessions[id] = now
	h.server.logger.Debug("session opened", "session", id)
	return id
}

// touchSession reports whether id is an open session and marks it as used.
func (h *HTTPHandler) touchSession(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	lastSeen, ok := h.sessions[id]
	if !ok {
		return false
	}
	now := h.now()
	if now.Sub(lastSeen) > h.idleTimeout {
		delete(h.sessions, id)
		h.server.logger.Debug("session expired", "session", id)
		return false
	}
	h.sessions[id] = now
	return true
}

func (h *HTTPHandler) expireLocked(now time.Time) {
	for id, lastSeen := range h.sessions {
		if now.Sub(lastSeen) > h.idleTimeout {
			delete(h.sessions, id)
			h.server.logger.Debug("session expired", "session", id)
		}
	}
}

func (h *HTTPHandler) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, lastSeen := range h.sessions {
		if oldestID == "" || lastSeen.Before(oldest) {
			oldestID, oldest = id, lastSeen
		}
	}
	delete(h.sessions, oldestID)
	h.server.logger.Debug("session evicted", "session", oldestID)
}

// SessionCount returns the number of open sessions.
func (h *HTTPHandler) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
