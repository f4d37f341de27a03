package graphalgo

import (
	"context"
	"sort"

	"github.com/membank/membank/internal/apperr"
)

// LouvainResult carries the detected communities and the modularity of the
// final partition.
type LouvainResult struct {
	Communities [][]string `json:"communities"`
	Modularity  float64    `json:"modularity"`
	Levels      int        `json:"levels"`
}

// Louvain runs hierarchical modularity maximisation on the undirected
// projection. Each level greedily moves nodes into the neighbouring
// community with the best modularity gain, then aggregates communities into
// super-nodes and repeats until no move improves modularity. The
// cancellation signal is checked between levels.
func Louvain(ctx context.Context, g *Graph) (*LouvainResult, error) {
	// weighted undirected adjacency, self-loops allowed after aggregation
	weights := make(map[string]map[string]float64, g.Len())
	addEdge := func(a, b string, w float64) {
		if weights[a] == nil {
			weights[a] = make(map[string]float64)
		}
		weights[a][b] += w
	}
	for _, n := range g.Nodes() {
		for _, m := range g.Out(n) {
			addEdge(n, m, 1)
			if n != m {
				addEdge(m, n, 1)
			}
		}
		if weights[n] == nil {
			weights[n] = make(map[string]float64)
		}
	}

	// membership maps original node -> community label across levels
	membership := make(map[string]string, g.Len())
	for _, n := range g.Nodes() {
		membership[n] = n
	}

	nodes := append([]string(nil), g.Nodes()...)
	res := &LouvainResult{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, apperr.Wrap(err, apperr.CodeCancelled, "louvain cancelled at level %d", res.Levels+1)
		}
		comm, improved := louvainLevel(nodes, weights)
		if !improved {
			break
		}
		res.Levels++

		// Fold this level into the cumulative membership.
		for orig, c := range membership {
			membership[orig] = comm[c]
		}

		// Aggregate: communities become nodes, edge weights sum.
		next := make(map[string]map[string]float64)
		nodeSet := make(map[string]struct{})
		for _, n := range nodes {
			cn := comm[n]
			nodeSet[cn] = struct{}{}
			for m, w := range weights[n] {
				cm := comm[m]
				if next[cn] == nil {
					next[cn] = make(map[string]float64)
				}
				next[cn][cm] += w
			}
		}
		weights = next
		nodes = nodes[:0]
		for n := range nodeSet {
			nodes = append(nodes, n)
		}
		sort.Strings(nodes)
		if len(nodes) <= 1 {
			break
		}
	}

	groups := make(map[string][]string)
	for orig, c := range membership {
		groups[c] = append(groups[c], orig)
	}
	for _, members := range groups {
		sort.Strings(members)
		res.Communities = append(res.Communities, members)
	}
	sort.Slice(res.Communities, func(i, j int) bool {
		return res.Communities[i][0] < res.Communities[j][0]
	})

	res.Modularity = modularityOf(g, membership)
	return res, nil
}

// louvainLevel performs one local-moving pass. Returns the community of
// every node and whether any move improved modularity.
func louvainLevel(nodes []string, weights map[string]map[string]float64) (map[string]string, bool) {
	comm := make(map[string]string, len(nodes))
	degree := make(map[string]float64, len(nodes))
	var total float64
	for _, n := range nodes {
		comm[n] = n
		for m, w := range weights[n] {
			degree[n] += w
			if n == m {
				degree[n] += w // self loops count twice toward degree
			}
			total += w
		}
	}
	if total == 0 {
		return comm, false
	}
	m2 := total // sum of weights counts each undirected edge twice already

	commDegree := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		commDegree[comm[n]] += degree[n]
	}

	improvedAny := false
	for pass := 0; pass < 10; pass++ {
		moved := false
		for _, n := range nodes {
			current := comm[n]
			commDegree[current] -= degree[n]

			// weight from n to each neighbouring community
			links := make(map[string]float64)
			for nb, w := range weights[n] {
				if nb == n {
					continue
				}
				links[comm[nb]] += w
			}

			best, bestGain := current, 0.0
			// deterministic candidate order
			cands := make([]string, 0, len(links))
			for c := range links {
				cands = append(cands, c)
			}
			sort.Strings(cands)
			for _, c := range cands {
				gain := links[c] - commDegree[c]*degree[n]/m2
				base := links[current] - commDegree[current]*degree[n]/m2
				if gain-base > 1e-12 && (gain-base > bestGain || best == current) {
					if gain-base > bestGain {
						best, bestGain = c, gain-base
					}
				}
			}

			comm[n] = best
			commDegree[best] += degree[n]
			if best != current {
				moved = true
				improvedAny = true
			}
		}
		if !moved {
			break
		}
	}
	return comm, improvedAny
}

// modularityOf computes the modularity of a partition on the original
// undirected projection.
func modularityOf(g *Graph, membership map[string]string) float64 {
	degree := make(map[string]float64, g.Len())
	var m float64
	for _, n := range g.Nodes() {
		for range g.Out(n) {
			m++
		}
	}
	if m == 0 {
		return 0
	}
	for _, n := range g.Nodes() {
		degree[n] = float64(len(g.undirected(n)))
	}

	var q float64
	for _, n := range g.Nodes() {
		for _, o := range g.Nodes() {
			if membership[n] != membership[o] {
				continue
			}
			a := 0.0
			for _, nb := range g.Out(n) {
				if nb == o {
					a = 1
					break
				}
			}
			if a == 0 {
				for _, nb := range g.In(n) {
					if nb == o {
						a = 1
						break
					}
				}
			}
			q += a - degree[n]*degree[o]/(2*m)
		}
	}
	return q / (2 * m)
}
