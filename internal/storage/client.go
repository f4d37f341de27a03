// Package storage implements the embedded graph store: one SQLite database
// per client project root, holding labeled property nodes and typed
// relationships, plus the registry that lazily provisions and caches a
// client per root.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	// Pure-Go SQLite driver, no CGO.
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/membank/membank/internal/apperr"
)

// DatabaseFile is the engine file inside the per-project database directory.
const DatabaseFile = "graph.db"

// Row is one result record: column alias to value. Numeric values are
// native scalars, timestamps are time.Time.
type Row map[string]any

// Client owns one database handle and the schema within it. Writes are
// serialised behind a per-handle mutex; reads proceed concurrently.
type Client struct {
	db      *sql.DB
	dir     string // database directory, {projectRoot}/{dbFilename}
	writeMu sync.Mutex
	closed  bool
	mu      sync.Mutex // guards closed
}

// Open creates the database directory if absent, opens the engine handle and
// installs the schema. Closing the returned client releases engine resources.
func Open(ctx context.Context, dir string) (*Client, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeIoError, "creating database directory %s", dir)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		filepath.Join(dir, DatabaseFile))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeIoError, "opening database in %s", dir)
	}

	c := &Client{db: db, dir: dir}
	if err := installSchema(ctx, db); err != nil {
		db.Close()
		return nil, apperr.Wrap(err, apperr.CodeEngineError, "installing schema in %s", dir)
	}
	return c, nil
}

// Dir returns the database directory this client owns.
func (c *Client) Dir() string { return c.dir }

func (c *Client) ready() error {
	if c == nil || c.db == nil {
		return apperr.New(apperr.CodeEngineError, "store client not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return apperr.New(apperr.CodeEngineError, "store client is closed")
	}
	return nil
}

// Query executes a parameterised read and returns all rows.
func (c *Client) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeEngineError, "query failed")
	}
	defer rows.Close()
	return scanRows(rows)
}

// Exec executes a parameterised write under the write mutex and returns the
// number of affected rows.
func (c *Client) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperr.Wrap(err, apperr.CodeEngineError, "write failed")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Wrap(err, apperr.CodeEngineError, "rows affected")
	}
	return n, nil
}

// Tx runs fn inside a write transaction under the write mutex. The
// transaction commits when fn returns nil and rolls back otherwise.
func (c *Client) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := c.ready(); err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeEngineError, "begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(err, apperr.CodeEngineError, "commit transaction")
	}
	return nil
}

// Close releases engine resources. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.db.Close(); err != nil {
		return apperr.Wrap(err, apperr.CodeIoError, "closing database in %s", c.dir)
	}
	return nil
}

// scanRows converts sql rows into []Row, normalising driver values:
// []byte to string, RFC3339 strings stay strings (gateways parse), integers
// stay int64.
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeEngineError, "reading columns")
	}
	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, apperr.Wrap(err, apperr.CodeEngineError, "scanning row")
		}
		r := make(Row, len(cols))
		for i, col := range cols {
			switch v := vals[i].(type) {
			case []byte:
				r[col] = string(v)
			default:
				r[col] = v
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeEngineError, "iterating rows")
	}
	return out, nil
}

// ParseTime parses a stored RFC3339 timestamp. The driver may have already
// decoded the column into a time.Time; that value passes through unchanged.
func ParseTime(v any) (time.Time, bool) {
	switch s := v.(type) {
	case time.Time:
		return s, true
	case string:
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}
