package repository

import (
	"context"

	"github.com/membank/membank/internal/domain"
	"github.com/membank/membank/internal/storage"
)

// TagGateway accesses Tag nodes, which are global to a project-root
// database, and the IS_TAGGED_WITH edges pointing at them.
type TagGateway struct {
	base
}

func NewTagGateway(client *storage.Client) *TagGateway {
	return &TagGateway{base{client: client}}
}

func (g *TagGateway) FindByID(ctx context.Context, id string) (*domain.Tag, error) {
	raw, created, _, err := g.getNode(ctx, domain.LabelTag, id)
	if err != nil || raw == nil {
		return nil, err
	}
	t, err := unmarshalInto[domain.Tag](raw)
	if err != nil {
		return nil, err
	}
	t.CreatedAt = created
	return t, nil
}

func (g *TagGateway) Upsert(ctx context.Context, t *domain.Tag) (*domain.Tag, error) {
	created, _, err := g.upsertNode(ctx, domain.LabelTag, t.ID, "", "", t)
	if err != nil {
		return nil, err
	}
	out := *t
	out.CreatedAt = created
	return &out, nil
}

func (g *TagGateway) Delete(ctx context.Context, id string) (bool, error) {
	return g.deleteNode(ctx, domain.LabelTag, id)
}

func (g *TagGateway) List(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := g.client.Query(ctx,
		`SELECT props FROM nodes WHERE label = ? ORDER BY pk`, domain.LabelTag)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Tag, 0, len(rows))
	for _, r := range rows {
		props, _ := r["props"].(string)
		t, err := unmarshalInto[domain.Tag]([]byte(props))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Exists reports tag presence by id.
func (g *TagGateway) Exists(ctx context.Context, id string) (bool, error) {
	return g.nodeExists(ctx, domain.LabelTag, id)
}

// MergeTaggedWith creates the IS_TAGGED_WITH edge from any node.
func (g *TagGateway) MergeTaggedWith(ctx context.Context, fromLabel, fromPK, tagID string) error {
	return g.mergeRel(ctx, domain.RelIsTaggedWith, fromLabel, fromPK, domain.LabelTag, tagID)
}

// TaggedRef is one endpoint of an IS_TAGGED_WITH edge.
type TaggedRef struct {
	Label string `json:"label"`
	PK    string `json:"pk"`
}

// ItemsTagged returns the (label, pk) pairs of every node tagged with tagID,
// ordered by label then pk.
func (g *TagGateway) ItemsTagged(ctx context.Context, tagID string) ([]TaggedRef, error) {
	rows, err := g.client.Query(ctx,
		`SELECT from_label, from_pk FROM rels
		 WHERE rel_type = ? AND to_label = ? AND to_pk = ?
		 ORDER BY from_label, from_pk`,
		domain.RelIsTaggedWith, domain.LabelTag, tagID)
	if err != nil {
		return nil, err
	}
	out := make([]TaggedRef, 0, len(rows))
	for _, r := range rows {
		label, _ := r["from_label"].(string)
		pk, _ := r["from_pk"].(string)
		out = append(out, TaggedRef{Label: label, PK: pk})
	}
	return out, nil
}
