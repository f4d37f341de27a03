package repository

import (
	"context"
	"sort"

	"github.com/membank/membank/internal/domain"
	"github.com/membank/membank/internal/storage"
)

// ContextGateway accesses Context nodes and their CONTEXT_OF edges.
type ContextGateway struct {
	base
}

func NewContextGateway(client *storage.Client) *ContextGateway {
	return &ContextGateway{base{client: client}}
}

func (g *ContextGateway) FindByGraphID(ctx context.Context, gid string) (*domain.Context, error) {
	raw, created, updated, err := g.getNode(ctx, domain.LabelContext, gid)
	if err != nil || raw == nil {
		return nil, err
	}
	c, err := unmarshalInto[domain.Context](raw)
	if err != nil {
		return nil, err
	}
	c.CreatedAt, c.UpdatedAt = created, updated
	return c, nil
}

func (g *ContextGateway) Upsert(ctx context.Context, c *domain.Context) (*domain.Context, error) {
	created, updated, err := g.upsertNode(ctx,
		domain.LabelContext, c.GraphUniqueID, c.Repository, c.Branch, c)
	if err != nil {
		return nil, err
	}
	out := *c
	out.CreatedAt, out.UpdatedAt = created, updated
	return &out, nil
}

func (g *ContextGateway) Delete(ctx context.Context, gid string) (bool, error) {
	return g.deleteNode(ctx, domain.LabelContext, gid)
}

func (g *ContextGateway) ListByScope(ctx context.Context, repo, branch string) ([]*domain.Context, error) {
	raws, err := g.scanScope(ctx, domain.LabelContext, repo, branch)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Context, 0, len(raws))
	for _, raw := range raws {
		c, err := unmarshalInto[domain.Context](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// MergeContextOf creates the CONTEXT_OF edge onto a component, decision or
// rule node.
func (g *ContextGateway) MergeContextOf(ctx context.Context, contextGID, targetLabel, targetGID string) error {
	return g.mergeRel(ctx, domain.RelContextOf,
		domain.LabelContext, contextGID, targetLabel, targetGID)
}

// ForItem returns the graph ids of contexts linked to the item, ascending.
func (g *ContextGateway) ForItem(ctx context.Context, targetLabel, targetGID string) ([]string, error) {
	return g.incoming(ctx, domain.RelContextOf, targetLabel, targetGID, domain.LabelContext)
}

// FindMany resolves context graph ids to entities, dropping absentees,
// ordered by date descending then id.
func (g *ContextGateway) FindMany(ctx context.Context, gids []string) ([]*domain.Context, error) {
	out := make([]*domain.Context, 0, len(gids))
	for _, gid := range gids {
		c, err := g.FindByGraphID(ctx, gid)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out = append(out, c)
		}
	}
	sortContextsByDateDesc(out)
	return out, nil
}

func sortContextsByDateDesc(cs []*domain.Context) {
	// Date strings are YYYY-MM-DD so lexicographic order is calendar order.
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Date != cs[j].Date {
			return cs[i].Date > cs[j].Date
		}
		return cs[i].ID < cs[j].ID
	})
}
