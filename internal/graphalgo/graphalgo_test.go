package graphalgo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membank/membank/internal/apperr"
)

func TestNewDeduplicatesAndSorts(t *testing.T) {
	g := New(
		[]string{"b", "a", "b", "c"},
		[][2]string{{"a", "b"}, {"a", "b"}, {"b", "c"}, {"c", "zz"}},
	)

	assert.Equal(t, []string{"a", "b", "c"}, g.Nodes())
	// duplicate edge collapsed, edge to unknown node dropped
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, []string{"b"}, g.Out("a"))
	assert.Equal(t, []string{"a"}, g.In("b"))
}

func TestPageRankEmptyGraph(t *testing.T) {
	res, err := PageRank(context.Background(), New(nil, nil), 0, 0, 0, nil)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Empty(t, res.Ranks)
}

func TestPageRankStarGraph(t *testing.T) {
	g := New(
		[]string{"a", "b", "c", "hub"},
		[][2]string{{"a", "hub"}, {"b", "hub"}, {"c", "hub"}},
	)

	res, err := PageRank(context.Background(), g, DefaultDamping, DefaultEpsilon, DefaultMaxIter, nil)
	require.NoError(t, err)
	assert.True(t, res.Converged)

	sum := 0.0
	for _, r := range res.Ranks {
		sum += r
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.Greater(t, res.Ranks["hub"], res.Ranks["a"])
	assert.InDelta(t, res.Ranks["a"], res.Ranks["b"], 1e-9)
}

func TestPageRankDeterministic(t *testing.T) {
	edges := [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}, {"d", "a"}}
	nodes := []string{"a", "b", "c", "d"}

	first, err := PageRank(context.Background(), New(nodes, edges), 0, 0, 0, nil)
	require.NoError(t, err)
	second, err := PageRank(context.Background(), New(nodes, edges), 0, 0, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Iterations, second.Iterations)
	assert.Equal(t, first.Ranks, second.Ranks)
}

func TestPageRankCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := New([]string{"a", "b"}, [][2]string{{"a", "b"}})
	_, err := PageRank(ctx, g, 0, 0, 0, nil)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeCancelled))
}

func TestPageRankReportsIterations(t *testing.T) {
	g := New([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}})

	var iters []int
	res, err := PageRank(context.Background(), g, 0, 0, 0, func(iter int, delta float64) {
		iters = append(iters, iter)
	})
	require.NoError(t, err)
	require.NotEmpty(t, iters)
	assert.Equal(t, res.Iterations, iters[len(iters)-1])
}

func TestStronglyConnectedComponents(t *testing.T) {
	g := New(
		[]string{"a", "b", "c", "d", "e"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}, {"c", "d"}, {"d", "e"}},
	)

	comps := StronglyConnectedComponents(g)
	require.Len(t, comps, 1)
	assert.Equal(t, []string{"a", "b", "c"}, comps[0])
}

func TestWeaklyConnectedComponents(t *testing.T) {
	g := New(
		[]string{"a", "b", "c", "d", "lone"},
		[][2]string{{"a", "b"}, {"d", "c"}},
	)

	comps := WeaklyConnectedComponents(g)
	require.Len(t, comps, 2)
	assert.Equal(t, []string{"a", "b"}, comps[0])
	assert.Equal(t, []string{"c", "d"}, comps[1])
}

func TestKCoreTriangleWithPendant(t *testing.T) {
	g := New(
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}, {"a", "d"}},
	)

	core := KCore(g)
	assert.Equal(t, 2, core["a"])
	assert.Equal(t, 2, core["b"])
	assert.Equal(t, 2, core["c"])
	assert.Equal(t, 1, core["d"])
}

func TestLouvainTwoClusters(t *testing.T) {
	// two triangles joined by a single bridge edge
	g := New(
		[]string{"a1", "a2", "a3", "b1", "b2", "b3"},
		[][2]string{
			{"a1", "a2"}, {"a2", "a3"}, {"a3", "a1"},
			{"b1", "b2"}, {"b2", "b3"}, {"b3", "b1"},
			{"a1", "b1"},
		},
	)

	res, err := Louvain(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, res.Communities, 2)
	assert.Equal(t, []string{"a1", "a2", "a3"}, res.Communities[0])
	assert.Equal(t, []string{"b1", "b2", "b3"}, res.Communities[1])
	assert.Greater(t, res.Modularity, 0.0)
}

func TestLouvainCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := New([]string{"a", "b"}, [][2]string{{"a", "b"}})
	_, err := Louvain(ctx, g)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeCancelled))
}

func TestShortestPathPrefersLexicographicTie(t *testing.T) {
	// two equal-length paths s->a->t and s->b->t
	g := New(
		[]string{"s", "a", "b", "t"},
		[][2]string{{"s", "a"}, {"s", "b"}, {"a", "t"}, {"b", "t"}},
	)

	assert.Equal(t, []string{"s", "a", "t"}, ShortestPath(g, "s", "t"))
}

func TestShortestPathUndirected(t *testing.T) {
	// edge direction should not matter
	g := New([]string{"x", "y", "z"}, [][2]string{{"y", "x"}, {"y", "z"}})
	assert.Equal(t, []string{"x", "y", "z"}, ShortestPath(g, "x", "z"))
}

func TestShortestPathEdgeCases(t *testing.T) {
	g := New([]string{"a", "b", "c"}, [][2]string{{"a", "b"}})

	assert.Equal(t, []string{"a"}, ShortestPath(g, "a", "a"))
	assert.Nil(t, ShortestPath(g, "a", "c"))
	assert.Nil(t, ShortestPath(g, "a", "missing"))
}
