// Package repository provides per-entity-type gateways translating domain
// objects to and from graph records. Gateways hold a non-owning reference to
// a store client and never compose operations across entity types; that
// composition happens in the memory operations layer.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/membank/membank/internal/apperr"
	"github.com/membank/membank/internal/storage"
)

// base carries the shared node and relationship queries every gateway uses.
type base struct {
	client *storage.Client
}

// now returns the server-side timestamp used for created_at/updated_at.
func now() time.Time { return time.Now().UTC() }

// getNode fetches one node's props JSON plus timestamps, or nil when absent.
func (b base) getNode(ctx context.Context, label, pk string) (json.RawMessage, time.Time, time.Time, error) {
	rows, err := b.client.Query(ctx,
		`SELECT props, created_at, updated_at FROM nodes WHERE label = ? AND pk = ?`,
		label, pk)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	if len(rows) == 0 {
		return nil, time.Time{}, time.Time{}, nil
	}
	props, _ := rows[0]["props"].(string)
	created, _ := storage.ParseTime(rows[0]["created_at"])
	updated, _ := storage.ParseTime(rows[0]["updated_at"])
	return json.RawMessage(props), created, updated, nil
}

// upsertNode MERGEs a node by primary key: on create sets all attributes, on
// match replaces props and advances updated_at while keeping created_at.
// Returns the effective created_at and updated_at.
func (b base) upsertNode(ctx context.Context, label, pk, repo, branch string, props any) (time.Time, time.Time, error) {
	raw, err := json.Marshal(props)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Wrap(err, apperr.CodeInternal, "marshaling %s %s", label, pk)
	}
	ts := now()
	stamp := ts.Format(time.RFC3339Nano)
	_, err = b.client.Exec(ctx,
		`INSERT INTO nodes (label, pk, repository, branch, props, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (label, pk) DO UPDATE SET
		   props = excluded.props,
		   updated_at = excluded.updated_at`,
		label, pk, repo, branch, string(raw), stamp, stamp)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	// Re-read created_at: on update it predates this call.
	_, created, updated, err := b.getNode(ctx, label, pk)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return created, updated, nil
}

// touchProps rewrites a node's props without advancing created_at.
func (b base) touchProps(ctx context.Context, label, pk string, props any) (time.Time, error) {
	raw, err := json.Marshal(props)
	if err != nil {
		return time.Time{}, apperr.Wrap(err, apperr.CodeInternal, "marshaling %s %s", label, pk)
	}
	ts := now()
	_, err = b.client.Exec(ctx,
		`UPDATE nodes SET props = ?, updated_at = ? WHERE label = ? AND pk = ?`,
		string(raw), ts.Format(time.RFC3339Nano), label, pk)
	return ts, err
}

// deleteNode detach-deletes a node: the node row and every incident edge go
// in one transaction. Returns false when the node did not exist.
func (b base) deleteNode(ctx context.Context, label, pk string) (bool, error) {
	var existed bool
	err := b.client.Tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM nodes WHERE label = ? AND pk = ?`, label, pk)
		if err != nil {
			return apperr.Wrap(err, apperr.CodeEngineError, "deleting %s %s", label, pk)
		}
		n, _ := res.RowsAffected()
		existed = n > 0
		if !existed {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`DELETE FROM rels WHERE (from_label = ? AND from_pk = ?) OR (to_label = ? AND to_pk = ?)`,
			label, pk, label, pk)
		if err != nil {
			return apperr.Wrap(err, apperr.CodeEngineError, "detaching %s %s", label, pk)
		}
		return nil
	})
	return existed, err
}

// scanScope lists the props of all nodes of one label in (repository,
// branch), ordered by primary key for deterministic results.
func (b base) scanScope(ctx context.Context, label, repo, branch string) ([]json.RawMessage, error) {
	rows, err := b.client.Query(ctx,
		`SELECT props FROM nodes WHERE label = ? AND repository = ? AND branch = ? ORDER BY pk`,
		label, repo, branch)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(rows))
	for _, r := range rows {
		props, _ := r["props"].(string)
		out = append(out, json.RawMessage(props))
	}
	return out, nil
}

// nodeExists reports presence by primary key.
func (b base) nodeExists(ctx context.Context, label, pk string) (bool, error) {
	rows, err := b.client.Query(ctx,
		`SELECT 1 AS one FROM nodes WHERE label = ? AND pk = ?`, label, pk)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// mergeRel creates the typed edge if absent. Idempotent in the edge set.
func (b base) mergeRel(ctx context.Context, relType, fromLabel, fromPK, toLabel, toPK string) error {
	_, err := b.client.Exec(ctx,
		`INSERT OR IGNORE INTO rels (rel_type, from_label, from_pk, to_label, to_pk, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		relType, fromLabel, fromPK, toLabel, toPK, now().Format(time.RFC3339Nano))
	return err
}

// relExists reports whether the typed edge is present.
func (b base) relExists(ctx context.Context, relType, fromLabel, fromPK, toLabel, toPK string) (bool, error) {
	rows, err := b.client.Query(ctx,
		`SELECT 1 AS one FROM rels
		 WHERE rel_type = ? AND from_label = ? AND from_pk = ? AND to_label = ? AND to_pk = ?`,
		relType, fromLabel, fromPK, toLabel, toPK)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// outgoing returns the pks of nodes reachable over one typed edge from the
// given node, restricted to toLabel, ordered ascending.
func (b base) outgoing(ctx context.Context, relType, fromLabel, fromPK, toLabel string) ([]string, error) {
	rows, err := b.client.Query(ctx,
		`SELECT to_pk FROM rels
		 WHERE rel_type = ? AND from_label = ? AND from_pk = ? AND to_label = ?
		 ORDER BY to_pk`,
		relType, fromLabel, fromPK, toLabel)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		pk, _ := r["to_pk"].(string)
		out = append(out, pk)
	}
	return out, nil
}

// incoming returns the pks of nodes with a typed edge into the given node,
// restricted to fromLabel, ordered ascending.
func (b base) incoming(ctx context.Context, relType, toLabel, toPK, fromLabel string) ([]string, error) {
	rows, err := b.client.Query(ctx,
		`SELECT from_pk FROM rels
		 WHERE rel_type = ? AND to_label = ? AND to_pk = ? AND from_label = ?
		 ORDER BY from_pk`,
		relType, toLabel, toPK, fromLabel)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		pk, _ := r["from_pk"].(string)
		out = append(out, pk)
	}
	return out, nil
}

func unmarshalInto[T any](raw json.RawMessage) (*T, error) {
	if raw == nil {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "decoding stored node")
	}
	return &v, nil
}
