package repository

import (
	"context"

	"github.com/membank/membank/internal/domain"
	"github.com/membank/membank/internal/storage"
)

// MetadataGateway accesses Metadata nodes.
type MetadataGateway struct {
	base
}

func NewMetadataGateway(client *storage.Client) *MetadataGateway {
	return &MetadataGateway{base{client: client}}
}

func (g *MetadataGateway) FindByGraphID(ctx context.Context, gid string) (*domain.Metadata, error) {
	raw, created, updated, err := g.getNode(ctx, domain.LabelMetadata, gid)
	if err != nil || raw == nil {
		return nil, err
	}
	m, err := unmarshalInto[domain.Metadata](raw)
	if err != nil {
		return nil, err
	}
	m.CreatedAt, m.UpdatedAt = created, updated
	return m, nil
}

func (g *MetadataGateway) Upsert(ctx context.Context, m *domain.Metadata) (*domain.Metadata, error) {
	created, updated, err := g.upsertNode(ctx,
		domain.LabelMetadata, m.GraphUniqueID, m.Repository, m.Branch, m)
	if err != nil {
		return nil, err
	}
	out := *m
	out.CreatedAt, out.UpdatedAt = created, updated
	return &out, nil
}

func (g *MetadataGateway) Delete(ctx context.Context, gid string) (bool, error) {
	return g.deleteNode(ctx, domain.LabelMetadata, gid)
}

func (g *MetadataGateway) ListByScope(ctx context.Context, repo, branch string) ([]*domain.Metadata, error) {
	raws, err := g.scanScope(ctx, domain.LabelMetadata, repo, branch)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Metadata, 0, len(raws))
	for _, raw := range raws {
		m, err := unmarshalInto[domain.Metadata](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
