package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaDDL creates the node and relationship tables. Idempotent: every
// statement is IF NOT EXISTS. Nodes are primary-key indexed on (label, pk);
// pk is the graph unique id for scoped entities and the plain id for
// Repository and Tag nodes. repository/branch are denormalised for scoped
// scans and empty for global nodes.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
		label      TEXT NOT NULL,
		pk         TEXT NOT NULL,
		repository TEXT NOT NULL DEFAULT '',
		branch     TEXT NOT NULL DEFAULT '',
		props      TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (label, pk)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_scope ON nodes (label, repository, branch)`,
	`CREATE TABLE IF NOT EXISTS rels (
		rel_type   TEXT NOT NULL,
		from_label TEXT NOT NULL,
		from_pk    TEXT NOT NULL,
		to_label   TEXT NOT NULL,
		to_pk      TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (rel_type, from_label, from_pk, to_label, to_pk)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rels_from ON rels (from_label, from_pk, rel_type)`,
	`CREATE INDEX IF NOT EXISTS idx_rels_to ON rels (to_label, to_pk, rel_type)`,
	`CREATE TABLE IF NOT EXISTS schema_meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`INSERT OR IGNORE INTO schema_meta (key, value) VALUES ('schema_version', '1')`,
}

// installSchema runs the DDL inside the opening client. Safe to run on every
// open.
func installSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// SchemaIndexes lists the installed index names, surfaced by the indexes
// introspection tool.
var SchemaIndexes = []string{
	"sqlite_autoindex_nodes_1 (label, pk)",
	"idx_nodes_scope (label, repository, branch)",
	"sqlite_autoindex_rels_1 (rel_type, from_label, from_pk, to_label, to_pk)",
	"idx_rels_from (from_label, from_pk, rel_type)",
	"idx_rels_to (to_label, to_pk, rel_type)",
}
