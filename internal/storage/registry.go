package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/membank/membank/internal/apperr"
)

// Registry maps each client project root to a lazily-created, cached Client.
// Concurrent demand for the same cold root performs exactly one
// initialisation; all callers share the outcome.
type Registry struct {
	dbFilename string
	logger     *slog.Logger

	mu      sync.Mutex
	clients map[string]*Client
	group   singleflight.Group
}

// NewRegistry creates an empty registry. dbFilename names the per-project
// database directory (default "memory-bank.kuzu").
func NewRegistry(dbFilename string, logger *slog.Logger) *Registry {
	return &Registry{
		dbFilename: dbFilename,
		logger:     logger,
		clients:    make(map[string]*Client),
	}
}

// GetClient returns the ready client for projectRoot, opening and caching it
// on first use. On initialisation failure nothing is cached, so later calls
// retry.
func (r *Registry) GetClient(ctx context.Context, projectRoot string) (*Client, error) {
	if projectRoot == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "client project root must not be empty")
	}
	root := filepath.Clean(projectRoot)

	r.mu.Lock()
	if c, ok := r.clients[root]; ok {
		r.mu.Unlock()
		return c, nil
	}
	r.mu.Unlock()

	ch := r.group.DoChan(root, func() (any, error) {
		c, err := Open(context.WithoutCancel(ctx), filepath.Join(root, r.dbFilename))
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.clients[root] = c
		r.mu.Unlock()
		r.logger.Info("store client initialized", "project_root", root, "db", r.dbFilename)
		return c, nil
	})

	// Waiters inherit the caller's cancellation; the initialisation itself
	// runs to completion so other waiters can still use its result.
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Client), nil
	case <-ctx.Done():
		return nil, apperr.Wrap(ctx.Err(), apperr.CodeCancelled, "waiting for store client for %s", root)
	}
}

// Peek returns the cached client for projectRoot without initialising one.
func (r *Registry) Peek(projectRoot string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[filepath.Clean(projectRoot)]
	return c, ok
}

// Shutdown closes every cached client. Callers hold no stale references
// afterwards.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]*Client)
	r.mu.Unlock()

	var firstErr error
	for root, c := range clients {
		if err := c.Close(); err != nil {
			r.logger.Error("closing store client", "project_root", root, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
