package repository

import (
	"context"

	"github.com/membank/membank/internal/domain"
	"github.com/membank/membank/internal/storage"
)

// DecisionGateway accesses Decision nodes.
type DecisionGateway struct {
	base
}

func NewDecisionGateway(client *storage.Client) *DecisionGateway {
	return &DecisionGateway{base{client: client}}
}

func (g *DecisionGateway) FindByGraphID(ctx context.Context, gid string) (*domain.Decision, error) {
	raw, created, updated, err := g.getNode(ctx, domain.LabelDecision, gid)
	if err != nil || raw == nil {
		return nil, err
	}
	d, err := unmarshalInto[domain.Decision](raw)
	if err != nil {
		return nil, err
	}
	d.CreatedAt, d.UpdatedAt = created, updated
	return d, nil
}

func (g *DecisionGateway) Upsert(ctx context.Context, d *domain.Decision) (*domain.Decision, error) {
	created, updated, err := g.upsertNode(ctx,
		domain.LabelDecision, d.GraphUniqueID, d.Repository, d.Branch, d)
	if err != nil {
		return nil, err
	}
	out := *d
	out.CreatedAt, out.UpdatedAt = created, updated
	return &out, nil
}

func (g *DecisionGateway) Delete(ctx context.Context, gid string) (bool, error) {
	return g.deleteNode(ctx, domain.LabelDecision, gid)
}

func (g *DecisionGateway) ListByScope(ctx context.Context, repo, branch string) ([]*domain.Decision, error) {
	raws, err := g.scanScope(ctx, domain.LabelDecision, repo, branch)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Decision, 0, len(raws))
	for _, raw := range raws {
		d, err := unmarshalInto[domain.Decision](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// FindByDateRange returns decisions whose date falls inside the inclusive
// [start, end] calendar-day bounds, ordered by date then id.
func (g *DecisionGateway) FindByDateRange(ctx context.Context, repo, branch, start, end string) ([]*domain.Decision, error) {
	rows, err := g.client.Query(ctx,
		`SELECT props FROM nodes
		 WHERE label = ? AND repository = ? AND branch = ?
		   AND json_extract(props, '$.date') >= ? AND json_extract(props, '$.date') <= ?
		 ORDER BY json_extract(props, '$.date'), pk`,
		domain.LabelDecision, repo, branch, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Decision, 0, len(rows))
	for _, r := range rows {
		props, _ := r["props"].(string)
		d, err := unmarshalInto[domain.Decision]([]byte(props))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// MergeDecisionOn creates the DECISION_ON edge onto a component.
func (g *DecisionGateway) MergeDecisionOn(ctx context.Context, decisionGID, componentGID string) error {
	return g.mergeRel(ctx, domain.RelDecisionOn,
		domain.LabelDecision, decisionGID, domain.LabelComponent, componentGID)
}

// ForComponent returns the graph ids of decisions with a DECISION_ON edge
// onto the component, ascending.
func (g *DecisionGateway) ForComponent(ctx context.Context, componentGID string) ([]string, error) {
	return g.incoming(ctx, domain.RelDecisionOn,
		domain.LabelComponent, componentGID, domain.LabelDecision)
}
