package memory

import (
	"context"
	"sort"

	"github.com/membank/membank/internal/apperr"
	"github.com/membank/membank/internal/domain"
	"github.com/membank/membank/internal/graphalgo"
	"github.com/membank/membank/internal/repository"
)

// GetComponentDependencies walks DEPENDS_ON from the component up to depth
// hops, deduplicating by graph unique id. Depth 0 returns only the source.
// Results are ordered by ascending logical id.
func (b *Bank) GetComponentDependencies(ctx context.Context, repo, branch, componentID string, depth int) ([]*domain.Component, error) {
	if depth < 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "depth must be >= 0, got %d", depth)
	}
	startGID := domain.GraphID(repo, branch, componentID)
	start, err := b.components.FindByGraphID(ctx, startGID)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return nil, apperr.New(apperr.CodeNotFound, "component %s not found in %s/%s", componentID, repo, branch)
	}
	if depth == 0 {
		return []*domain.Component{start}, nil
	}

	visited := map[string]bool{startGID: true}
	frontier := []string{startGID}
	var found []string
	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []string
		for _, gid := range frontier {
			deps, err := b.components.Dependencies(ctx, gid)
			if err != nil {
				return nil, err
			}
			for _, dep := range deps {
				if visited[dep] {
					continue
				}
				visited[dep] = true
				found = append(found, dep)
				next = append(next, dep)
			}
		}
		frontier = next
	}

	return b.resolveComponents(ctx, found)
}

// GetComponentDependents walks the inverse DEPENDS_ON traversal.
func (b *Bank) GetComponentDependents(ctx context.Context, repo, branch, componentID string, depth int) ([]*domain.Component, error) {
	if depth < 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "depth must be >= 0, got %d", depth)
	}
	if depth == 0 {
		depth = 1
	}
	startGID := domain.GraphID(repo, branch, componentID)
	exists, err := b.components.Exists(ctx, startGID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.New(apperr.CodeNotFound, "component %s not found in %s/%s", componentID, repo, branch)
	}

	visited := map[string]bool{startGID: true}
	frontier := []string{startGID}
	var found []string
	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []string
		for _, gid := range frontier {
			deps, err := b.components.Dependents(ctx, gid)
			if err != nil {
				return nil, err
			}
			for _, dep := range deps {
				if visited[dep] {
					continue
				}
				visited[dep] = true
				found = append(found, dep)
				next = append(next, dep)
			}
		}
		frontier = next
	}

	return b.resolveComponents(ctx, found)
}

func (b *Bank) resolveComponents(ctx context.Context, gids []string) ([]*domain.Component, error) {
	out := make([]*domain.Component, 0, len(gids))
	for _, gid := range gids {
		c, err := b.components.FindByGraphID(ctx, gid)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GoverningItems aggregates the governance view of one component.
type GoverningItems struct {
	Decisions      []*domain.Decision `json:"decisions"`
	Rules          []*domain.Rule     `json:"rules"`
	ContextHistory []*domain.Context  `json:"contextHistory"`
}

// GetGoverningItemsForComponent returns the decisions targeting the
// component, the active rules of its (repository, branch) and the
// component's context history, newest first.
func (b *Bank) GetGoverningItemsForComponent(ctx context.Context, repo, branch, componentID string) (*GoverningItems, error) {
	gid := domain.GraphID(repo, branch, componentID)
	exists, err := b.components.Exists(ctx, gid)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.New(apperr.CodeNotFound, "component %s not found in %s/%s", componentID, repo, branch)
	}

	out := &GoverningItems{
		Decisions:      []*domain.Decision{},
		Rules:          []*domain.Rule{},
		ContextHistory: []*domain.Context{},
	}

	decisionGIDs, err := b.decisions.ForComponent(ctx, gid)
	if err != nil {
		return nil, err
	}
	for _, dgid := range decisionGIDs {
		d, err := b.decisions.FindByGraphID(ctx, dgid)
		if err != nil {
			return nil, err
		}
		if d != nil {
			out.Decisions = append(out.Decisions, d)
		}
	}

	rules, err := b.rules.FindActive(ctx, repo, branch)
	if err != nil {
		return nil, err
	}
	out.Rules = rules

	ctxGIDs, err := b.contexts.ForItem(ctx, domain.LabelComponent, gid)
	if err != nil {
		return nil, err
	}
	history, err := b.contexts.FindMany(ctx, ctxGIDs)
	if err != nil {
		return nil, err
	}
	out.ContextHistory = history
	return out, nil
}

// GetItemContextualHistory returns the Context nodes linked to the item,
// ordered by date descending.
func (b *Bank) GetItemContextualHistory(ctx context.Context, repo, branch, itemType, itemID string) ([]*domain.Context, error) {
	label, err := domain.LabelForType(itemType)
	if err != nil {
		return nil, err
	}
	switch label {
	case domain.LabelComponent, domain.LabelDecision, domain.LabelRule:
	default:
		return nil, apperr.New(apperr.CodeInvalidArgument,
			"contextual history applies to component, decision or rule, got %q", itemType)
	}
	gid := domain.GraphID(repo, branch, itemID)
	exists, err := b.graph.Exists(ctx, label, gid)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.New(apperr.CodeNotFound, "%s %s not found in %s/%s", itemType, itemID, repo, branch)
	}
	gids, err := b.contexts.ForItem(ctx, label, gid)
	if err != nil {
		return nil, err
	}
	return b.contexts.FindMany(ctx, gids)
}

// RelatedItem is one neighbourhood member found by GetRelatedItems.
type RelatedItem struct {
	Record   repository.NodeRecord `json:"record"`
	Distance int                   `json:"distance"`
}

// GetRelatedItems returns the breadth-limited neighbourhood of an item over
// the given relationship types (all types when empty), both directions,
// ordered by distance then primary key.
func (b *Bank) GetRelatedItems(ctx context.Context, repo, branch, itemType, itemID string, relationships []string, depth int) ([]RelatedItem, error) {
	if depth <= 0 {
		depth = 1
	}
	label, err := domain.LabelForType(itemType)
	if err != nil {
		return nil, err
	}
	startPK := domain.GraphID(repo, branch, itemID)
	if label == domain.LabelTag {
		startPK = itemID
	}
	exists, err := b.graph.Exists(ctx, label, startPK)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.New(apperr.CodeNotFound, "%s %s not found in %s/%s", itemType, itemID, repo, branch)
	}

	type hop struct {
		label, pk string
	}
	visited := map[string]bool{startPK: true}
	frontier := []hop{{label, startPK}}
	var out []RelatedItem

	for dist := 1; dist <= depth && len(frontier) > 0; dist++ {
		var next []hop
		for _, h := range frontier {
			edges, err := b.graph.Neighbors(ctx, relationships, h.label, h.pk)
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				nbLabel, nbPK := e.ToLabel, e.ToPK
				if e.ToPK == h.pk && e.ToLabel == h.label {
					nbLabel, nbPK = e.FromLabel, e.FromPK
				}
				if visited[nbPK] {
					continue
				}
				visited[nbPK] = true
				rec, err := b.graph.GetNode(ctx, nbLabel, nbPK)
				if err != nil {
					return nil, err
				}
				if rec == nil {
					continue
				}
				out = append(out, RelatedItem{Record: *rec, Distance: dist})
				next = append(next, hop{nbLabel, nbPK})
			}
		}
		frontier = next
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Record.PK < out[j].Record.PK
	})
	return out, nil
}

// ShortestPath returns the shortest undirected path between two scoped
// nodes in the same (repository, branch), as an ordered list of graph
// unique ids. Ties break lexicographically. Cross-branch requests are
// rejected.
func (b *Bank) ShortestPath(ctx context.Context, startGID, endGID string) ([]string, error) {
	sRepo, sBranch, _, err := domain.SplitGraphID(startGID)
	if err != nil {
		return nil, err
	}
	eRepo, eBranch, _, err := domain.SplitGraphID(endGID)
	if err != nil {
		return nil, err
	}
	if sRepo != eRepo || sBranch != eBranch {
		return nil, apperr.New(apperr.CodeConflict,
			"shortest path endpoints must share a repository and branch: %s vs %s", startGID, endGID)
	}

	pksByLabel, err := b.graph.ScopedPKs(ctx, sRepo, sBranch)
	if err != nil {
		return nil, err
	}
	var nodes []string
	for _, pks := range pksByLabel {
		nodes = append(nodes, pks...)
	}

	edgesRaw, err := b.graph.EdgesTouching(ctx, nil, nodes)
	if err != nil {
		return nil, err
	}
	inScope := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		inScope[n] = true
	}
	var edges [][2]string
	for _, e := range edgesRaw {
		if inScope[e.FromPK] && inScope[e.ToPK] {
			edges = append(edges, [2]string{e.FromPK, e.ToPK})
		}
	}

	g := graphalgo.New(nodes, edges)
	path := graphalgo.ShortestPath(g, startGID, endGID)
	if path == nil {
		return nil, apperr.New(apperr.CodeNotFound, "no path between %s and %s", startGID, endGID)
	}
	return path, nil
}

// GetDecisionsByDateRange returns decisions within the inclusive
// calendar-day bounds.
func (b *Bank) GetDecisionsByDateRange(ctx context.Context, repo, branch, start, end string) ([]*domain.Decision, error) {
	if err := domain.ValidateDate("startDate", start); err != nil {
		return nil, err
	}
	if err := domain.ValidateDate("endDate", end); err != nil {
		return nil, err
	}
	if start > end {
		return nil, apperr.New(apperr.CodeInvalidArgument, "startDate %s is after endDate %s", start, end)
	}
	out, err := b.decisions.FindByDateRange(ctx, repo, branch, start, end)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*domain.Decision{}
	}
	return out, nil
}
