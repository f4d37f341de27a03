package memory

import (
	"context"
	"fmt"

	"github.com/membank/membank/internal/domain"
	"github.com/membank/membank/internal/graphalgo"
	"github.com/membank/membank/internal/progress"
)

// componentProjection loads the analytics subgraph: Component nodes and
// DEPENDS_ON edges within (repository, branch).
func (b *Bank) componentProjection(ctx context.Context, repo, branch string) (*graphalgo.Graph, error) {
	comps, err := b.components.ListByScope(ctx, repo, branch)
	if err != nil {
		return nil, err
	}
	nodes := make([]string, 0, len(comps))
	for _, c := range comps {
		nodes = append(nodes, c.GraphUniqueID)
	}
	edgesRaw, err := b.graph.ScopedEdges(ctx, domain.RelDependsOn, repo, branch)
	if err != nil {
		return nil, err
	}
	edges := make([][2]string, 0, len(edgesRaw))
	for _, e := range edgesRaw {
		edges = append(edges, [2]string{e.FromPK, e.ToPK})
	}
	return graphalgo.New(nodes, edges), nil
}

// PageRankParams tune the power iteration; zero values take the defaults
// (damping 0.85, epsilon 1e-6, 100 iterations).
type PageRankParams struct {
	Damping float64 `json:"damping,omitempty"`
	Epsilon float64 `json:"epsilon,omitempty"`
	MaxIter int     `json:"maxIterations,omitempty"`
}

// PageRank runs power iteration over the component projection, streaming
// per-iteration progress and honouring cancellation between iterations.
func (b *Bank) PageRank(ctx context.Context, repo, branch string, p PageRankParams) (*graphalgo.PageRankResult, error) {
	rep := progress.FromContext(ctx)
	g, err := b.componentProjection(ctx, repo, branch)
	if err != nil {
		return nil, err
	}
	rep.Notify(ctx, progress.Event{
		Status:  "running",
		Message: fmt.Sprintf("pagerank over %d nodes, %d edges", g.Len(), g.EdgeCount()),
	})
	maxIter := p.MaxIter
	if maxIter <= 0 {
		maxIter = graphalgo.DefaultMaxIter
	}
	res, err := graphalgo.PageRank(ctx, g, p.Damping, p.Epsilon, maxIter,
		func(iter int, delta float64) {
			rep.Notify(ctx, progress.Event{
				Status:  "running",
				Message: fmt.Sprintf("iteration %d, delta %.2e", iter, delta),
				Percent: 100 * float64(iter) / float64(maxIter),
			})
		})
	if err != nil {
		return nil, err
	}
	rep.Notify(ctx, progress.Event{Status: "complete", IsFinal: true, Percent: 100})
	return res, nil
}

// LouvainCommunities runs hierarchical modularity maximisation over the
// component projection.
func (b *Bank) LouvainCommunities(ctx context.Context, repo, branch string) (*graphalgo.LouvainResult, error) {
	rep := progress.FromContext(ctx)
	g, err := b.componentProjection(ctx, repo, branch)
	if err != nil {
		return nil, err
	}
	rep.Notify(ctx, progress.Event{
		Status:  "running",
		Message: fmt.Sprintf("louvain over %d nodes", g.Len()),
	})
	res, err := graphalgo.Louvain(ctx, g)
	if err != nil {
		return nil, err
	}
	rep.Notify(ctx, progress.Event{Status: "complete", IsFinal: true, Percent: 100})
	return res, nil
}

// KCoreResult maps each node to its coreness.
type KCoreResult struct {
	Coreness map[string]int `json:"coreness"`
}

// KCoreDecomposition peels the component projection.
func (b *Bank) KCoreDecomposition(ctx context.Context, repo, branch string) (*KCoreResult, error) {
	rep := progress.FromContext(ctx)
	g, err := b.componentProjection(ctx, repo, branch)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &KCoreResult{Coreness: graphalgo.KCore(g)}
	rep.Notify(ctx, progress.Event{Status: "complete", IsFinal: true, Percent: 100})
	return res, nil
}

// ComponentsResult lists connected components with at least two members.
type ComponentsResult struct {
	Components [][]string `json:"components"`
}

// StronglyConnectedComponents reports SCCs of the component projection with
// two or more members.
func (b *Bank) StronglyConnectedComponents(ctx context.Context, repo, branch string) (*ComponentsResult, error) {
	g, err := b.componentProjection(ctx, repo, branch)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	comps := graphalgo.StronglyConnectedComponents(g)
	if comps == nil {
		comps = [][]string{}
	}
	return &ComponentsResult{Components: comps}, nil
}

// WeaklyConnectedComponents reports WCCs of the component projection with
// two or more members.
func (b *Bank) WeaklyConnectedComponents(ctx context.Context, repo, branch string) (*ComponentsResult, error) {
	g, err := b.componentProjection(ctx, repo, branch)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	comps := graphalgo.WeaklyConnectedComponents(g)
	if comps == nil {
		comps = [][]string{}
	}
	return &ComponentsResult{Components: comps}, nil
}
