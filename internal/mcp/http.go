// Streamable HTTP transport per MCP spec 2025-03-26: a single /mcp
// endpoint accepting POST (JSON-RPC messages), GET (SSE stream for
// progress notifications) and DELETE (session termination).
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/membank/membank/internal/progress"
)

// SessionHeader carries the session identifier on HTTP requests and the
// initialize response.
const SessionHeader = "Mcp-Session-Id"

// HTTPServer wraps Server with the Streamable HTTP transport. Unlike the
// stdio transport, many sessions coexist: initialize creates one, every
// later request must present its id, DELETE ends it.
type HTTPServer struct {
	server *Server
	table  *SessionTable
	logger *slog.Logger

	mu      sync.Mutex
	streams map[string]chan *Notification // sessionID -> open SSE stream
}

// NewHTTPServer creates an HTTP transport wrapper around the core server.
func NewHTTPServer(server *Server, logger *slog.Logger) *HTTPServer {
	return &HTTPServer{
		server:  server,
		table:   NewSessionTable(),
		logger:  logger,
		streams: make(map[string]chan *Notification),
	}
}

// Router returns the chi router serving the MCP endpoint and the health
// probe.
func (h *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Accept", SessionHeader},
		ExposedHeaders: []string{SessionHeader},
	}))

	r.Post("/mcp", h.handlePost)
	r.Get("/mcp", h.handleGet)
	r.Delete("/mcp", h.handleDelete)
	r.Get("/healthz", h.handleHealth)
	return r
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePost processes JSON-RPC messages from the client.
func (h *HTTPServer) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 10*1024*1024))
	if err != nil {
		http.Error(w, `{"error":"failed to read request body"}`, http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		http.Error(w, `{"error":"empty request body"}`, http.StatusBadRequest)
		return
	}

	if strings.HasPrefix(trimmed, "[") {
		h.handleBatch(w, r, body)
		return
	}
	h.handleSingle(w, r, body)
}

// handleSingle processes one JSON-RPC message.
func (h *HTTPServer) handleSingle(w http.ResponseWriter, r *http.Request, body []byte) {
	var peek struct {
		ID     json.RawMessage `json:"id,omitempty"`
		Method string          `json:"method,omitempty"`
	}
	if err := json.Unmarshal(body, &peek); err != nil {
		h.writeJSONError(w, http.StatusBadRequest, ErrCodeParse, "Parse error", err.Error())
		return
	}

	if peek.Method == "initialize" {
		session := h.table.Create()
		ctx := WithSession(r.Context(), session)
		resp := h.server.HandleMessage(ctx, body)
		if resp != nil && resp.Error == nil {
			w.Header().Set(SessionHeader, session.ID)
			h.logger.Info("session created", "session_id", session.ID)
		} else {
			h.table.Delete(session.ID)
		}
		h.writeJSON(w, http.StatusOK, resp)
		return
	}

	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	isNotification := peek.ID == nil || string(peek.ID) == "null"
	ctx := h.requestContext(r.Context(), session)

	resp := h.server.HandleMessage(ctx, body)
	if isNotification || resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleBatch processes a JSON-RPC batch against one session.
func (h *HTTPServer) handleBatch(w http.ResponseWriter, r *http.Request, body []byte) {
	var messages []json.RawMessage
	if err := json.Unmarshal(body, &messages); err != nil {
		h.writeJSONError(w, http.StatusBadRequest, ErrCodeParse, "Parse error", err.Error())
		return
	}
	if len(messages) == 0 {
		h.writeJSONError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "empty batch", nil)
		return
	}

	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	ctx := h.requestContext(r.Context(), session)

	var responses []*Response
	for _, msg := range messages {
		if resp := h.server.HandleMessage(ctx, msg); resp != nil {
			responses = append(responses, resp)
		}
	}

	if len(responses) == 0 {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	h.writeJSON(w, http.StatusOK, responses)
}

// handleGet opens the SSE stream delivering progress notifications for
// the request's session. One stream per session; a second GET replaces
// the first.
func (h *HTTPServer) handleGet(w http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		http.Error(w, `{"error":"Accept header must include text/event-stream"}`, http.StatusBadRequest)
		return
	}

	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	ch := make(chan *Notification, 64)
	h.mu.Lock()
	if old, exists := h.streams[session.ID]; exists {
		close(old)
	}
	h.streams[session.ID] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if h.streams[session.ID] == ch {
			delete(h.streams, session.ID)
		}
		h.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Info("sse stream opened", "session_id", session.ID)
	for {
		select {
		case <-r.Context().Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				h.logger.Error("failed to marshal notification", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// handleDelete terminates a session.
func (h *HTTPServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		http.Error(w, `{"error":"Mcp-Session-Id header required"}`, http.StatusBadRequest)
		return
	}
	if !h.table.Delete(id) {
		http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
		return
	}

	h.mu.Lock()
	if ch, exists := h.streams[id]; exists {
		close(ch)
		delete(h.streams, id)
	}
	h.mu.Unlock()

	h.logger.Info("session terminated", "session_id", id)
	w.WriteHeader(http.StatusOK)
}

// requireSession resolves the request's session from the header, writing
// the error response when missing or unknown.
func (h *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		http.Error(w, `{"error":"Mcp-Session-Id header required"}`, http.StatusBadRequest)
		return nil, false
	}
	session := h.table.Get(id)
	if session == nil {
		http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
		return nil, false
	}
	return session, true
}

// requestContext attaches the session and a reporter routing progress
// events onto the session's SSE stream. Without an open stream events
// are dropped.
func (h *HTTPServer) requestContext(ctx context.Context, session *Session) context.Context {
	ctx = WithSession(ctx, session)
	return progress.WithReporter(ctx, progress.Func(func(_ context.Context, ev progress.Event) {
		n := &Notification{
			JSONRPC: "2.0",
			Method:  MethodProgress,
			Params: ProgressParams{
				Status:  ev.Status,
				Message: ev.Message,
				Percent: ev.Percent,
				IsFinal: ev.IsFinal,
				Data:    ev.Data,
			},
		}
		h.mu.Lock()
		ch := h.streams[session.ID]
		h.mu.Unlock()
		if ch == nil {
			return
		}
		select {
		case ch <- n:
		default:
			h.logger.Warn("dropping progress event, stream full", "session_id", session.ID)
		}
	}))
}

func (h *HTTPServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}

func (h *HTTPServer) writeJSONError(w http.ResponseWriter, httpStatus int, code int, message string, data any) {
	h.writeJSON(w, httpStatus, &Response{
		JSONRPC: "2.0",
		Error:   &RPCError{Code: code, Message: message, Data: data},
	})
}
