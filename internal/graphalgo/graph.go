// Package graphalgo implements whole-graph analytics on an in-memory
// projection built by the operations layer. All algorithms are
// deterministic: nodes are processed in sorted order so repeated runs on a
// fixed graph produce identical results.
package graphalgo

import "sort"

// Graph is a directed projection. Adjacency lists are kept sorted.
type Graph struct {
	nodes []string
	out   map[string][]string
	in    map[string][]string
}

// New builds a projection from a node set and directed edges. Edges whose
// endpoints are outside the node set are ignored; duplicates collapse.
func New(nodes []string, edges [][2]string) *Graph {
	g := &Graph{
		out: make(map[string][]string, len(nodes)),
		in:  make(map[string][]string, len(nodes)),
	}
	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		g.nodes = append(g.nodes, n)
	}
	sort.Strings(g.nodes)

	dedup := make(map[[2]string]struct{}, len(edges))
	for _, e := range edges {
		if _, ok := seen[e[0]]; !ok {
			continue
		}
		if _, ok := seen[e[1]]; !ok {
			continue
		}
		if _, ok := dedup[e]; ok {
			continue
		}
		dedup[e] = struct{}{}
		g.out[e[0]] = append(g.out[e[0]], e[1])
		g.in[e[1]] = append(g.in[e[1]], e[0])
	}
	for _, adj := range []map[string][]string{g.out, g.in} {
		for k := range adj {
			sort.Strings(adj[k])
		}
	}
	return g
}

// Nodes returns the sorted node set.
func (g *Graph) Nodes() []string { return g.nodes }

// Len returns the node count.
func (g *Graph) Len() int { return len(g.nodes) }

// Out returns the sorted successors of n.
func (g *Graph) Out(n string) []string { return g.out[n] }

// In returns the sorted predecessors of n.
func (g *Graph) In(n string) []string { return g.in[n] }

// EdgeCount returns the number of directed edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, adj := range g.out {
		n += len(adj)
	}
	return n
}

// undirected returns the sorted union of successors and predecessors of n.
func (g *Graph) undirected(n string) []string {
	merged := make([]string, 0, len(g.out[n])+len(g.in[n]))
	merged = append(merged, g.out[n]...)
	merged = append(merged, g.in[n]...)
	sort.Strings(merged)
	// collapse duplicates in place
	w := 0
	for i, v := range merged {
		if i > 0 && merged[w-1] == v {
			continue
		}
		merged[w] = v
		w++
	}
	return merged[:w]
}
