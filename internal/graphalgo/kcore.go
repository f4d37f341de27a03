package graphalgo

// KCore computes each node's coreness by classical peeling on the
// undirected projection: repeatedly remove the minimum-degree node and
// record the largest k at which it survives.
func KCore(g *Graph) map[string]int {
	degree := make(map[string]int, g.Len())
	adj := make(map[string][]string, g.Len())
	for _, n := range g.Nodes() {
		adj[n] = g.undirected(n)
		degree[n] = len(adj[n])
	}

	coreness := make(map[string]int, g.Len())
	removed := make(map[string]bool, g.Len())
	k := 0
	for len(removed) < g.Len() {
		// Peel every node with degree <= k before raising k.
		progressed := true
		for progressed {
			progressed = false
			for _, n := range g.Nodes() {
				if removed[n] || degree[n] > k {
					continue
				}
				removed[n] = true
				coreness[n] = k
				for _, m := range adj[n] {
					if !removed[m] {
						degree[m]--
					}
				}
				progressed = true
			}
		}
		k++
	}
	return coreness
}
