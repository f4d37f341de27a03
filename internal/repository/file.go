package repository

import (
	"context"

	"github.com/membank/membank/internal/domain"
	"github.com/membank/membank/internal/storage"
)

// FileGateway accesses File nodes and their CONTAINS_FILE edges.
type FileGateway struct {
	base
}

func NewFileGateway(client *storage.Client) *FileGateway {
	return &FileGateway{base{client: client}}
}

func (g *FileGateway) FindByGraphID(ctx context.Context, gid string) (*domain.File, error) {
	raw, created, updated, err := g.getNode(ctx, domain.LabelFile, gid)
	if err != nil || raw == nil {
		return nil, err
	}
	f, err := unmarshalInto[domain.File](raw)
	if err != nil {
		return nil, err
	}
	f.CreatedAt, f.UpdatedAt = created, updated
	return f, nil
}

func (g *FileGateway) Upsert(ctx context.Context, f *domain.File) (*domain.File, error) {
	created, updated, err := g.upsertNode(ctx,
		domain.LabelFile, f.GraphUniqueID, f.Repository, f.Branch, f)
	if err != nil {
		return nil, err
	}
	out := *f
	out.CreatedAt, out.UpdatedAt = created, updated
	return &out, nil
}

func (g *FileGateway) Delete(ctx context.Context, gid string) (bool, error) {
	return g.deleteNode(ctx, domain.LabelFile, gid)
}

func (g *FileGateway) ListByScope(ctx context.Context, repo, branch string) ([]*domain.File, error) {
	raws, err := g.scanScope(ctx, domain.LabelFile, repo, branch)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.File, 0, len(raws))
	for _, raw := range raws {
		f, err := unmarshalInto[domain.File](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Exists reports file presence by graph id.
func (g *FileGateway) Exists(ctx context.Context, gid string) (bool, error) {
	return g.nodeExists(ctx, domain.LabelFile, gid)
}

// MergeContainsFile creates the CONTAINS_FILE edge from a component.
func (g *FileGateway) MergeContainsFile(ctx context.Context, componentGID, fileGID string) error {
	return g.mergeRel(ctx, domain.RelContainsFile,
		domain.LabelComponent, componentGID, domain.LabelFile, fileGID)
}

// FilesOfComponent returns graph ids of files contained by the component.
func (g *FileGateway) FilesOfComponent(ctx context.Context, componentGID string) ([]string, error) {
	return g.outgoing(ctx, domain.RelContainsFile,
		domain.LabelComponent, componentGID, domain.LabelFile)
}
