package graphalgo

// ShortestPath returns the shortest undirected path between two nodes as an
// ordered node list including both endpoints, or nil when no path exists.
// BFS visits neighbours in sorted order, so among equal-length paths the
// lexicographically smallest is found first.
func ShortestPath(g *Graph, from, to string) []string {
	if _, ok := g.out[from]; !ok {
		if !contains(g.nodes, from) {
			return nil
		}
	}
	if !contains(g.nodes, to) {
		return nil
	}
	if from == to {
		return []string{from}
	}

	prev := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, m := range g.undirected(n) {
			if _, seen := prev[m]; seen {
				continue
			}
			prev[m] = n
			if m == to {
				return buildPath(prev, from, to)
			}
			queue = append(queue, m)
		}
	}
	return nil
}

func buildPath(prev map[string]string, from, to string) []string {
	var rev []string
	for n := to; n != ""; n = prev[n] {
		rev = append(rev, n)
		if n == from {
			break
		}
	}
	path := make([]string, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		path = append(path, rev[i])
	}
	return path
}

func contains(sorted []string, x string) bool {
	lo, hi := 0, len(sorted)
	for lo < hi {
		mid := (lo + hi) / 2
		if sorted[mid] < x {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < len(sorted) && sorted[lo] == x
}
