package graph

// Path returns a directed path from one node to another, favoring shorter
// routes, or nil when no path exists. Either endpoint being empty or
// unknown yields nil. A direct edge always wins.
//
// The search is exact on small graphs and good enough on large ones; it is
// meant for diagnostics such as spelling out a detected cycle, not for
// shortest-path workloads.
func (g *Graph) Path(from, to string) []string {
	if from == "" || to == "" {
		return nil
	}
	if !g.Has(from) || !g.Has(to) {
		return nil
	}
	p := g.findPath(from, to, nil)
	if len(p) < 2 {
		// A single-element result is the visited-marker, not a path.
		return nil
	}
	return p
}

// findPath recursively searches for a path u -> v. head holds the nodes on
// the current route; re-entering one of them returns the one-element marker
// that the caller discards. Among viable successor routes the shortest
// found first is kept, and a route of exactly one hop short-circuits.
func (g *Graph) findPath(u, v string, head []string) []string {
	for _, s := range g.adj[u] {
		if s == v {
			return []string{u, v}
		}
	}
	for _, h := range head {
		if h == u {
			return []string{u}
		}
	}

	route := make([]string, len(head)+1)
	copy(route, head)
	route[len(head)] = u

	var best []string
	for _, w := range g.adj[u] {
		sub := g.findPath(w, v, route)
		if len(sub) < 2 {
			continue
		}
		if len(sub) == 2 {
			return append([]string{u}, sub...)
		}
		if best == nil || len(sub) < len(best)-1 {
			best = append([]string{u}, sub...)
		}
	}
	return best
}
