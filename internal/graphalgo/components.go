package graphalgo

import "sort"

// StronglyConnectedComponents returns the SCCs with two or more members
// using Tarjan's algorithm (iterative, so deep chains cannot overflow the
// stack). Components are sorted by their smallest member; members sorted.
func StronglyConnectedComponents(g *Graph) [][]string {
	index := make(map[string]int, g.Len())
	lowlink := make(map[string]int, g.Len())
	onStack := make(map[string]bool, g.Len())
	var stack []string
	next := 0
	var comps [][]string

	type frame struct {
		node string
		succ int
	}

	for _, root := range g.Nodes() {
		if _, seen := index[root]; seen {
			continue
		}
		var call []frame
		call = append(call, frame{node: root})
		index[root] = next
		lowlink[root] = next
		next++
		stack = append(stack, root)
		onStack[root] = true

		for len(call) > 0 {
			f := &call[len(call)-1]
			succs := g.Out(f.node)
			if f.succ < len(succs) {
				w := succs[f.succ]
				f.succ++
				if _, seen := index[w]; !seen {
					index[w] = next
					lowlink[w] = next
					next++
					stack = append(stack, w)
					onStack[w] = true
					call = append(call, frame{node: w})
				} else if onStack[w] {
					if index[w] < lowlink[f.node] {
						lowlink[f.node] = index[w]
					}
				}
				continue
			}
			// All successors explored: maybe pop a component, then return.
			if lowlink[f.node] == index[f.node] {
				var comp []string
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == f.node {
						break
					}
				}
				if len(comp) >= 2 {
					sort.Strings(comp)
					comps = append(comps, comp)
				}
			}
			done := f.node
			call = call[:len(call)-1]
			if len(call) > 0 {
				parent := &call[len(call)-1]
				if lowlink[done] < lowlink[parent.node] {
					lowlink[parent.node] = lowlink[done]
				}
			}
		}
	}

	sort.Slice(comps, func(i, j int) bool { return comps[i][0] < comps[j][0] })
	return comps
}

// WeaklyConnectedComponents returns the WCCs with two or more members using
// union-find over the undirected edge set.
func WeaklyConnectedComponents(g *Graph) [][]string {
	parent := make(map[string]string, g.Len())
	var find func(string) string
	find = func(x string) string {
		for parent[x] != x {
			parent[x] = parent[parent[x]] // path halving
			x = parent[x]
		}
		return x
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		// Deterministic: smaller root wins.
		if rb < ra {
			ra, rb = rb, ra
		}
		parent[rb] = ra
	}

	for _, n := range g.Nodes() {
		parent[n] = n
	}
	for _, n := range g.Nodes() {
		for _, m := range g.Out(n) {
			union(n, m)
		}
	}

	groups := make(map[string][]string)
	for _, n := range g.Nodes() {
		r := find(n)
		groups[r] = append(groups[r], n)
	}
	var comps [][]string
	for _, members := range groups {
		if len(members) >= 2 {
			sort.Strings(members)
			comps = append(comps, members)
		}
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i][0] < comps[j][0] })
	return comps
}
