package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenInstallsSchema(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "memory-bank.kuzu")

	c, err := Open(ctx, dir)
	require.NoError(t, err)
	defer c.Close()

	// directory and engine file created
	_, err = os.Stat(filepath.Join(dir, DatabaseFile))
	require.NoError(t, err)

	rows, err := c.Query(ctx, `SELECT value FROM schema_meta WHERE key = 'schema_version'`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0]["value"])
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := Open(ctx, filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	defer c.Close()

	n, err := c.Exec(ctx,
		`INSERT INTO nodes (label, pk, repository, branch, props, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"Component", "r:main:comp-a", "r", "main", `{"name":"A"}`,
		"2025-01-14T10:00:00Z", "2025-01-14T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := c.Query(ctx, `SELECT pk, props FROM nodes WHERE label = ?`, "Component")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "r:main:comp-a", rows[0]["pk"])
	assert.Equal(t, `{"name":"A"}`, rows[0]["props"])
}

func TestClientCloseIdempotent(t *testing.T) {
	c, err := Open(context.Background(), filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.Query(context.Background(), `SELECT 1`)
	assert.Error(t, err)
}

func TestRegistryReturnsSameClient(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry("memory-bank.kuzu", testLogger())
	defer r.Shutdown()
	root := t.TempDir()

	a, err := r.GetClient(ctx, root)
	require.NoError(t, err)
	b, err := r.GetClient(ctx, root)
	require.NoError(t, err)
	assert.Same(t, a, b)

	// distinct roots get distinct clients
	other, err := r.GetClient(ctx, t.TempDir())
	require.NoError(t, err)
	assert.NotSame(t, a, other)
}

func TestRegistryConcurrentColdStart(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry("memory-bank.kuzu", testLogger())
	defer r.Shutdown()
	root := t.TempDir()

	const callers = 16
	clients := make([]*Client, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clients[i], errs[i] = r.GetClient(ctx, root)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, clients[0], clients[i])
	}
}

func TestRegistryRejectsEmptyRoot(t *testing.T) {
	r := NewRegistry("memory-bank.kuzu", testLogger())
	_, err := r.GetClient(context.Background(), "")
	require.Error(t, err)
}

func TestRegistryShutdownClosesClients(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry("memory-bank.kuzu", testLogger())
	root := t.TempDir()

	c, err := r.GetClient(ctx, root)
	require.NoError(t, err)
	require.NoError(t, r.Shutdown())

	_, err = c.Query(ctx, `SELECT 1`)
	assert.Error(t, err)

	// the registry recovers by opening a fresh client
	fresh, err := r.GetClient(ctx, root)
	require.NoError(t, err)
	assert.NotSame(t, c, fresh)
	require.NoError(t, r.Shutdown())
}
