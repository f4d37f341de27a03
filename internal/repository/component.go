package repository

import (
	"context"

	"github.com/membank/membank/internal/domain"
	"github.com/membank/membank/internal/storage"
)

// ComponentGateway accesses Component nodes and their DEPENDS_ON edges.
type ComponentGateway struct {
	base
}

func NewComponentGateway(client *storage.Client) *ComponentGateway {
	return &ComponentGateway{base{client: client}}
}

// FindByGraphID returns the component or nil when absent.
func (g *ComponentGateway) FindByGraphID(ctx context.Context, gid string) (*domain.Component, error) {
	raw, created, updated, err := g.getNode(ctx, domain.LabelComponent, gid)
	if err != nil || raw == nil {
		return nil, err
	}
	c, err := unmarshalInto[domain.Component](raw)
	if err != nil {
		return nil, err
	}
	c.CreatedAt, c.UpdatedAt = created, updated
	return c, nil
}

// Upsert writes the component and returns the post-image with server-side
// timestamps.
func (g *ComponentGateway) Upsert(ctx context.Context, c *domain.Component) (*domain.Component, error) {
	created, updated, err := g.upsertNode(ctx,
		domain.LabelComponent, c.GraphUniqueID, c.Repository, c.Branch, c)
	if err != nil {
		return nil, err
	}
	out := *c
	out.CreatedAt, out.UpdatedAt = created, updated
	return &out, nil
}

// Delete detach-deletes the component.
func (g *ComponentGateway) Delete(ctx context.Context, gid string) (bool, error) {
	return g.deleteNode(ctx, domain.LabelComponent, gid)
}

// ListByScope returns all components in (repository, branch) ordered by
// graph unique id.
func (g *ComponentGateway) ListByScope(ctx context.Context, repo, branch string) ([]*domain.Component, error) {
	raws, err := g.scanScope(ctx, domain.LabelComponent, repo, branch)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Component, 0, len(raws))
	for _, raw := range raws {
		c, err := unmarshalInto[domain.Component](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// MergeDependsOn creates the DEPENDS_ON edge between two components.
func (g *ComponentGateway) MergeDependsOn(ctx context.Context, fromGID, toGID string) error {
	return g.mergeRel(ctx, domain.RelDependsOn,
		domain.LabelComponent, fromGID, domain.LabelComponent, toGID)
}

// Dependencies returns the graph ids this component depends on, ascending.
func (g *ComponentGateway) Dependencies(ctx context.Context, gid string) ([]string, error) {
	return g.outgoing(ctx, domain.RelDependsOn, domain.LabelComponent, gid, domain.LabelComponent)
}

// Dependents returns the graph ids depending on this component, ascending.
func (g *ComponentGateway) Dependents(ctx context.Context, gid string) ([]string, error) {
	return g.incoming(ctx, domain.RelDependsOn, domain.LabelComponent, gid, domain.LabelComponent)
}

// Exists reports component presence by graph id.
func (g *ComponentGateway) Exists(ctx context.Context, gid string) (bool, error) {
	return g.nodeExists(ctx, domain.LabelComponent, gid)
}
