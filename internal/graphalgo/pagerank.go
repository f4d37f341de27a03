package graphalgo

import (
	"context"
	"math"

	"github.com/membank/membank/internal/apperr"
)

// PageRank defaults.
const (
	DefaultDamping = 0.85
	DefaultEpsilon = 1e-6
	DefaultMaxIter = 100
)

// PageRankResult carries the scores and convergence metadata.
type PageRankResult struct {
	Ranks      map[string]float64 `json:"ranks"`
	Iterations int                `json:"iterations"`
	Converged  bool               `json:"converged"`
}

// PageRank runs standard power iteration with the given damping factor.
// Dangling mass is redistributed uniformly. The cancellation signal is
// checked between iterations; onIteration (optional) observes progress.
func PageRank(ctx context.Context, g *Graph, damping, eps float64, maxIter int, onIteration func(iter int, delta float64)) (*PageRankResult, error) {
	n := g.Len()
	if n == 0 {
		return &PageRankResult{Ranks: map[string]float64{}, Converged: true}, nil
	}
	if damping <= 0 || damping >= 1 {
		damping = DefaultDamping
	}
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}

	ranks := make(map[string]float64, n)
	for _, node := range g.Nodes() {
		ranks[node] = 1.0 / float64(n)
	}

	res := &PageRankResult{}
	for iter := 1; iter <= maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, apperr.Wrap(err, apperr.CodeCancelled, "pagerank cancelled at iteration %d", iter)
		}

		// Dangling nodes contribute their whole rank uniformly.
		dangling := 0.0
		for _, node := range g.Nodes() {
			if len(g.Out(node)) == 0 {
				dangling += ranks[node]
			}
		}

		next := make(map[string]float64, n)
		base := (1.0-damping)/float64(n) + damping*dangling/float64(n)
		for _, node := range g.Nodes() {
			sum := 0.0
			for _, pred := range g.In(node) {
				sum += ranks[pred] / float64(len(g.Out(pred)))
			}
			next[node] = base + damping*sum
		}

		delta := 0.0
		for _, node := range g.Nodes() {
			delta += math.Abs(next[node] - ranks[node])
		}
		ranks = next
		res.Iterations = iter
		if onIteration != nil {
			onIteration(iter, delta)
		}
		if delta < eps {
			res.Converged = true
			break
		}
	}
	res.Ranks = ranks
	return res, nil
}
