// Package mcp implements the MCP protocol runtime: JSON-RPC message
// handling, the tool registry, per-connection sessions, and the two
// transports (stdio line channel and Streamable HTTP with SSE).
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/membank/membank/internal/apperr"
	"github.com/membank/membank/internal/progress"
)

// ProtocolVersion is the MCP protocol revision this server speaks.
const ProtocolVersion = "2025-03-26"

// Server implements the MCP protocol over a line-delimited duplex channel.
// Exactly one session exists per connection; progress notifications
// interleave with responses on the same channel, ordering preserved.
type Server struct {
	registry *Registry
	info     ServerInfo
	logger   *slog.Logger

	in  io.Reader
	out io.Writer

	encMu sync.Mutex // serialises writes: responses and notifications share out
}

// NewServer creates an MCP server with the given registry and server info,
// speaking on stdin/stdout.
func NewServer(registry *Registry, info ServerInfo, logger *slog.Logger) *Server {
	return &Server{
		registry: registry,
		info:     info,
		logger:   logger,
		in:       os.Stdin,
		out:      os.Stdout,
	}
}

// NewServerOn is NewServer with explicit channel endpoints, used by tests.
func NewServerOn(registry *Registry, info ServerInfo, logger *slog.Logger, in io.Reader, out io.Writer) *Server {
	s := NewServer(registry, info, logger)
	s.in = in
	s.out = out
	return s
}

// Run reads JSON-RPC requests from the channel and writes responses back.
// It blocks until the channel closes or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	// MCP messages can be large (e.g. bulk payloads)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)

	session := NewSession()
	s.logger.Info("membank server started", "name", s.info.Name, "version", s.info.Version)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		reqCtx := WithSession(ctx, session)
		reqCtx = progress.WithReporter(reqCtx, progress.Func(s.notifyProgress))

		resp := s.HandleMessage(reqCtx, line)
		if resp != nil {
			if err := s.write(resp); err != nil {
				s.logger.Error("failed to write response", "error", err)
				return fmt.Errorf("writing response: %w", err)
			}
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("reading channel: %w", err)
	}

	s.logger.Info("membank server stopped (channel closed)")
	return nil
}

// notifyProgress emits one progress notification on the channel.
func (s *Server) notifyProgress(ctx context.Context, ev progress.Event) {
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
	if err := s.write(n); err != nil {
		s.logger.Error("failed to write progress notification", "error", err)
	}
}

func (s *Server) write(v any) error {
	s.encMu.Lock()
	defer s.encMu.Unlock()
	return json.NewEncoder(s.out).Encode(v)
}

// HandleMessage parses a JSON-RPC message and dispatches it. Returns nil
// for notifications.
func (s *Server) HandleMessage(ctx context.Context, data []byte) *Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Error("failed to parse request", "error", err)
		return &Response{
			JSONRPC: "2.0",
			Error: &RPCError{
				Code:    ErrCodeParse,
				Message: "Parse error",
				Data:    err.Error(),
			},
		}
	}

	// Notifications (no ID) don't get a response
	if req.ID == nil && req.Method == "notifications/initialized" {
		s.logger.Info("client initialized")
		return nil
	}
	if req.ID == nil {
		s.logger.Debug("received notification", "method", req.Method)
		return nil
	}

	s.logger.Debug("handling request", "method", req.Method, "id", string(req.ID))

	result, rpcErr := s.dispatch(ctx, &req)
	resp := &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
	}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	return resp
}

// dispatch routes a request by method.
func (s *Server) dispatch(ctx context.Context, req *Request) (any, *RPCError) {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "ping":
		return map[string]any{}, nil
	case "tools/list":
		return &ToolsListResult{Tools: s.registry.List()}, nil
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return nil, &RPCError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		}
	}
}

func (s *Server) handleInitialize(req *Request) (any, *RPCError) {
	var params InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "invalid initialize params", Data: err.Error()}
		}
	}
	s.logger.Info("initialize", "client", params.ClientInfo.Name, "protocol", params.ProtocolVersion)
	return &InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapability{
			Tools: &ToolsCapability{},
		},
		ServerInfo: s.info,
	}, nil
}

// handleToolsCall looks up the tool, runs it, and converts coded domain
// errors into the error envelope. This is the single translation point of
// the error taxonomy.
func (s *Server) handleToolsCall(ctx context.Context, req *Request) (any, *RPCError) {
	var params ToolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "invalid tools/call params", Data: err.Error()}
	}

	tool := s.registry.Get(params.Name)
	if tool == nil {
		return nil, &RPCError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("unknown tool: %s", params.Name),
		}
	}

	args := params.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		code := apperr.CodeOf(err)
		s.logger.Warn("tool failed", "tool", params.Name, "code", code, "error", err)
		return CodedErrorResult(string(code), err.Error()), nil
	}
	return result, nil
}
