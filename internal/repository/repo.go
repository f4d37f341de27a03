package repository

import (
	"context"

	"github.com/membank/membank/internal/domain"
	"github.com/membank/membank/internal/storage"
)

// RepositoryGateway accesses Repository nodes, the roots of each
// (name, branch) space.
type RepositoryGateway struct {
	base
}

func NewRepositoryGateway(client *storage.Client) *RepositoryGateway {
	return &RepositoryGateway{base{client: client}}
}

func (g *RepositoryGateway) FindByID(ctx context.Context, id string) (*domain.Repository, error) {
	raw, created, updated, err := g.getNode(ctx, domain.LabelRepository, id)
	if err != nil || raw == nil {
		return nil, err
	}
	r, err := unmarshalInto[domain.Repository](raw)
	if err != nil {
		return nil, err
	}
	r.CreatedAt, r.UpdatedAt = created, updated
	return r, nil
}

// Ensure upserts the Repository node for (name, branch) and returns it.
func (g *RepositoryGateway) Ensure(ctx context.Context, name, branch string) (*domain.Repository, error) {
	r := &domain.Repository{
		ID:     domain.RepositoryNodeID(name, branch),
		Name:   name,
		Branch: branch,
	}
	created, updated, err := g.upsertNode(ctx, domain.LabelRepository, r.ID, name, branch, r)
	if err != nil {
		return nil, err
	}
	r.CreatedAt, r.UpdatedAt = created, updated
	return r, nil
}

func (g *RepositoryGateway) Delete(ctx context.Context, id string) (bool, error) {
	return g.deleteNode(ctx, domain.LabelRepository, id)
}

// List returns all Repository nodes ordered by id.
func (g *RepositoryGateway) List(ctx context.Context) ([]*domain.Repository, error) {
	rows, err := g.client.Query(ctx,
		`SELECT props FROM nodes WHERE label = ? ORDER BY pk`, domain.LabelRepository)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Repository, 0, len(rows))
	for _, row := range rows {
		props, _ := row["props"].(string)
		r, err := unmarshalInto[domain.Repository]([]byte(props))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Branches returns the branch names of every Repository node with the given
// logical name, ascending.
func (g *RepositoryGateway) Branches(ctx context.Context, name string) ([]string, error) {
	rows, err := g.client.Query(ctx,
		`SELECT branch FROM nodes WHERE label = ? AND repository = ? ORDER BY branch`,
		domain.LabelRepository, name)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		b, _ := r["branch"].(string)
		out = append(out, b)
	}
	return out, nil
}

// MergePartOfRepo creates the PART_OF_REPO edge from the Repository node to
// a scoped entity.
func (g *RepositoryGateway) MergePartOfRepo(ctx context.Context, repoID, entityLabel, entityGID string) error {
	return g.mergeRel(ctx, domain.RelPartOfRepo,
		domain.LabelRepository, repoID, entityLabel, entityGID)
}
