package repository

import (
	"context"

	"github.com/membank/membank/internal/domain"
	"github.com/membank/membank/internal/storage"
)

// RuleGateway accesses Rule nodes.
type RuleGateway struct {
	base
}

func NewRuleGateway(client *storage.Client) *RuleGateway {
	return &RuleGateway{base{client: client}}
}

func (g *RuleGateway) FindByGraphID(ctx context.Context, gid string) (*domain.Rule, error) {
	raw, created, updated, err := g.getNode(ctx, domain.LabelRule, gid)
	if err != nil || raw == nil {
		return nil, err
	}
	r, err := unmarshalInto[domain.Rule](raw)
	if err != nil {
		return nil, err
	}
	r.CreatedAt, r.UpdatedAt = created, updated
	return r, nil
}

func (g *RuleGateway) Upsert(ctx context.Context, r *domain.Rule) (*domain.Rule, error) {
	created, updated, err := g.upsertNode(ctx,
		domain.LabelRule, r.GraphUniqueID, r.Repository, r.Branch, r)
	if err != nil {
		return nil, err
	}
	out := *r
	out.CreatedAt, out.UpdatedAt = created, updated
	return &out, nil
}

func (g *RuleGateway) Delete(ctx context.Context, gid string) (bool, error) {
	return g.deleteNode(ctx, domain.LabelRule, gid)
}

func (g *RuleGateway) ListByScope(ctx context.Context, repo, branch string) ([]*domain.Rule, error) {
	raws, err := g.scanScope(ctx, domain.LabelRule, repo, branch)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Rule, 0, len(raws))
	for _, raw := range raws {
		r, err := unmarshalInto[domain.Rule](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// FindActive returns the active rules in (repository, branch), ordered by id.
func (g *RuleGateway) FindActive(ctx context.Context, repo, branch string) ([]*domain.Rule, error) {
	rows, err := g.client.Query(ctx,
		`SELECT props FROM nodes
		 WHERE label = ? AND repository = ? AND branch = ?
		   AND json_extract(props, '$.status') = ?
		 ORDER BY pk`,
		domain.LabelRule, repo, branch, domain.RuleActive)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Rule, 0, len(rows))
	for _, row := range rows {
		props, _ := row["props"].(string)
		r, err := unmarshalInto[domain.Rule]([]byte(props))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
