package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/membank/membank/internal/domain"
	"github.com/membank/membank/internal/storage"
)

// GraphGateway exposes label-generic node and edge queries used by the
// operations layer for traversals, analytics projections, introspection and
// bulk deletes.
type GraphGateway struct {
	base
}

func NewGraphGateway(client *storage.Client) *GraphGateway {
	return &GraphGateway{base{client: client}}
}

// NodeRecord is a label-generic view of a stored node.
type NodeRecord struct {
	Label     string          `json:"label"`
	PK        string          `json:"pk"`
	Props     json.RawMessage `json:"props"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// GetNode returns a node by (label, pk) or nil when absent.
func (g *GraphGateway) GetNode(ctx context.Context, label, pk string) (*NodeRecord, error) {
	raw, created, updated, err := g.getNode(ctx, label, pk)
	if err != nil || raw == nil {
		return nil, err
	}
	return &NodeRecord{Label: label, PK: pk, Props: raw, CreatedAt: created, UpdatedAt: updated}, nil
}

// Exists reports node presence.
func (g *GraphGateway) Exists(ctx context.Context, label, pk string) (bool, error) {
	return g.nodeExists(ctx, label, pk)
}

// DeleteNode detach-deletes any node.
func (g *GraphGateway) DeleteNode(ctx context.Context, label, pk string) (bool, error) {
	return g.deleteNode(ctx, label, pk)
}

// ListScoped returns all nodes of a label in (repository, branch), ordered
// by pk.
func (g *GraphGateway) ListScoped(ctx context.Context, label, repo, branch string) ([]NodeRecord, error) {
	return g.listWhere(ctx,
		`SELECT label, pk, props, created_at, updated_at FROM nodes
		 WHERE label = ? AND repository = ? AND branch = ? ORDER BY pk`,
		label, repo, branch)
}

// ListByRepository returns all nodes of a label across every branch of the
// logical repository name.
func (g *GraphGateway) ListByRepository(ctx context.Context, label, repo string) ([]NodeRecord, error) {
	return g.listWhere(ctx,
		`SELECT label, pk, props, created_at, updated_at FROM nodes
		 WHERE label = ? AND repository = ? ORDER BY pk`,
		label, repo)
}

func (g *GraphGateway) listWhere(ctx context.Context, query string, args ...any) ([]NodeRecord, error) {
	rows, err := g.client.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out := make([]NodeRecord, 0, len(rows))
	for _, r := range rows {
		rec := NodeRecord{}
		rec.Label, _ = r["label"].(string)
		rec.PK, _ = r["pk"].(string)
		props, _ := r["props"].(string)
		rec.Props = json.RawMessage(props)
		rec.CreatedAt, _ = storage.ParseTime(r["created_at"])
		rec.UpdatedAt, _ = storage.ParseTime(r["updated_at"])
		out = append(out, rec)
	}
	return out, nil
}

// Edge is one typed, directed relationship.
type Edge struct {
	Type      string `json:"type"`
	FromLabel string `json:"from_label"`
	FromPK    string `json:"from_pk"`
	ToLabel   string `json:"to_label"`
	ToPK      string `json:"to_pk"`
}

// EdgesTouching returns all edges with either endpoint in the given pk set,
// optionally filtered by relationship types. Used to build traversal and
// analytics projections.
func (g *GraphGateway) EdgesTouching(ctx context.Context, relTypes []string, pks []string) ([]Edge, error) {
	if len(pks) == 0 {
		return nil, nil
	}
	set := make(map[string]struct{}, len(pks))
	for _, pk := range pks {
		set[pk] = struct{}{}
	}
	rows, err := g.client.Query(ctx,
		`SELECT rel_type, from_label, from_pk, to_label, to_pk FROM rels ORDER BY rel_type, from_pk, to_pk`)
	if err != nil {
		return nil, err
	}
	typeOK := func(t string) bool {
		if len(relTypes) == 0 {
			return true
		}
		for _, want := range relTypes {
			if want == t {
				return true
			}
		}
		return false
	}
	var out []Edge
	for _, r := range rows {
		e := Edge{}
		e.Type, _ = r["rel_type"].(string)
		e.FromLabel, _ = r["from_label"].(string)
		e.FromPK, _ = r["from_pk"].(string)
		e.ToLabel, _ = r["to_label"].(string)
		e.ToPK, _ = r["to_pk"].(string)
		if !typeOK(e.Type) {
			continue
		}
		_, fromIn := set[e.FromPK]
		_, toIn := set[e.ToPK]
		if fromIn || toIn {
			out = append(out, e)
		}
	}
	return out, nil
}

// Neighbors returns edges incident to one node, filtered by relationship
// types, in both directions.
func (g *GraphGateway) Neighbors(ctx context.Context, relTypes []string, label, pk string) ([]Edge, error) {
	return g.EdgesTouching(ctx, relTypes, []string{pk})
}

// Labels returns the distinct node labels present, ascending.
func (g *GraphGateway) Labels(ctx context.Context) ([]string, error) {
	rows, err := g.client.Query(ctx,
		`SELECT DISTINCT label FROM nodes ORDER BY label`)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		l, _ := r["label"].(string)
		out = append(out, l)
	}
	return out, nil
}

// CountByLabel returns node counts keyed by label.
func (g *GraphGateway) CountByLabel(ctx context.Context) (map[string]int64, error) {
	rows, err := g.client.Query(ctx,
		`SELECT label, COUNT(*) AS n FROM nodes GROUP BY label ORDER BY label`)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		l, _ := r["label"].(string)
		n, _ := r["n"].(int64)
		out[l] = n
	}
	return out, nil
}

// PropertyKeys returns the distinct top-level property keys of nodes with
// the given label, ascending.
func (g *GraphGateway) PropertyKeys(ctx context.Context, label string) ([]string, error) {
	rows, err := g.client.Query(ctx,
		`SELECT DISTINCT j.key AS k
		 FROM nodes, json_each(nodes.props) AS j
		 WHERE nodes.label = ?
		 ORDER BY j.key`,
		label)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		k, _ := r["k"].(string)
		out = append(out, k)
	}
	return out, nil
}

// ScopedEdges returns all edges of the given types whose endpoints are both
// scoped nodes in (repository, branch). Used by analytics projections.
func (g *GraphGateway) ScopedEdges(ctx context.Context, relType, repo, branch string) ([]Edge, error) {
	rows, err := g.client.Query(ctx,
		`SELECT r.rel_type, r.from_label, r.from_pk, r.to_label, r.to_pk
		 FROM rels r
		 JOIN nodes a ON a.label = r.from_label AND a.pk = r.from_pk
		 JOIN nodes b ON b.label = r.to_label AND b.pk = r.to_pk
		 WHERE r.rel_type = ? AND a.repository = ? AND a.branch = ?
		   AND b.repository = ? AND b.branch = ?
		 ORDER BY r.from_pk, r.to_pk`,
		relType, repo, branch, repo, branch)
	if err != nil {
		return nil, err
	}
	out := make([]Edge, 0, len(rows))
	for _, r := range rows {
		e := Edge{}
		e.Type, _ = r["rel_type"].(string)
		e.FromLabel, _ = r["from_label"].(string)
		e.FromPK, _ = r["from_pk"].(string)
		e.ToLabel, _ = r["to_label"].(string)
		e.ToPK, _ = r["to_pk"].(string)
		out = append(out, e)
	}
	return out, nil
}

// ScopedPKs returns the pks of every scoped node in (repository, branch)
// across the scoped labels, ordered by label then pk.
func (g *GraphGateway) ScopedPKs(ctx context.Context, repo, branch string) (map[string][]string, error) {
	out := make(map[string][]string, len(domain.ScopedLabels))
	for _, label := range domain.ScopedLabels {
		rows, err := g.client.Query(ctx,
			`SELECT pk FROM nodes WHERE label = ? AND repository = ? AND branch = ? ORDER BY pk`,
			label, repo, branch)
		if err != nil {
			return nil, err
		}
		pks := make([]string, 0, len(rows))
		for _, r := range rows {
			pk, _ := r["pk"].(string)
			pks = append(pks, pk)
		}
		out[label] = pks
	}
	return out, nil
}
