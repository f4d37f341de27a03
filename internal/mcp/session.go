package mcp

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/membank/membank/internal/apperr"
)

// Session binds a transport connection to a client project root, default
// repository and default branch. A session is created unbound and becomes
// bound by the init-memory-bank tool; individual calls may override
// repository and branch but not the project root.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	bound       bool
	projectRoot string
	repository  string
	branch      string
}

// NewSession creates an unbound session with a generated identifier.
func NewSession() *Session {
	return &Session{ID: uuid.NewString(), CreatedAt: time.Now()}
}

// Bind establishes the session scope. Rebinding replaces the previous
// scope; the init tool establishes defaults, it does not lock them.
func (s *Session) Bind(projectRoot, repository, branch string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bound = true
	s.projectRoot = projectRoot
	s.repository = repository
	s.branch = branch
}

// Scope returns the bound triple. Fails with SessionUnbound before the
// first init-memory-bank call.
func (s *Session) Scope() (projectRoot, repository, branch string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.bound {
		return "", "", "", apperr.New(apperr.CodeSessionUnbound,
			"no memory bank initialized; call init-memory-bank first")
	}
	return s.projectRoot, s.repository, s.branch, nil
}

// Bound reports whether init-memory-bank has run on this session.
func (s *Session) Bound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

type sessionKey struct{}

// WithSession returns a context carrying the connection's session.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom extracts the session from the context. Fails with
// SessionUnbound when the transport attached none.
func SessionFrom(ctx context.Context) (*Session, error) {
	if s, ok := ctx.Value(sessionKey{}).(*Session); ok && s != nil {
		return s, nil
	}
	return nil, apperr.New(apperr.CodeSessionUnbound, "no active session")
}

// SessionTable tracks the sessions of a multi-connection transport.
type SessionTable struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionTable creates an empty table.
func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[string]*Session)}
}

// Create registers a new session and returns it.
func (t *SessionTable) Create() *Session {
	s := NewSession()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[s.ID] = s
	return s
}

// Get returns the session with the given id, or nil.
func (t *SessionTable) Get(id string) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessions[id]
}

// Delete removes a session, reporting whether it existed.
func (t *SessionTable) Delete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.sessions[id]
	delete(t.sessions, id)
	return ok
}
