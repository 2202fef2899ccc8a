package graph

// sccState carries the bookkeeping of one Tarjan traversal.
type sccState struct {
	clock   int
	disc    map[string]int
	lowLink map[string]int
	onStack map[string]bool
	stack   []string
	out     [][]string
}

// Components returns the strongly connected components of the graph,
// computed with Tarjan's algorithm. Every node belongs to exactly one
// component; nodes outside any cycle form singleton components. The result
// is cached until the next mutation. Callers must not modify the returned
// slices.
func (g *Graph) Components() [][]string {
	if g.ccValid {
		return g.cc
	}
	s := &sccState{
		disc:    make(map[string]int, len(g.adj)),
		lowLink: make(map[string]int, len(g.adj)),
		onStack: make(map[string]bool, len(g.adj)),
	}
	for _, n := range g.order {
		s.disc[n] = -1
		s.lowLink[n] = -1
	}
	for _, n := range g.order {
		if s.disc[n] == -1 {
			g.strongConnect(n, s)
		}
	}
	g.cc = s.out
	g.ccValid = true
	return g.cc
}

func (g *Graph) strongConnect(u string, s *sccState) {
	s.disc[u] = s.clock
	s.lowLink[u] = s.clock
	s.clock++
	s.stack = append(s.stack, u)
	s.onStack[u] = true

	for _, v := range g.adj[u] {
		if s.disc[v] == -1 {
			g.strongConnect(v, s)
			if s.lowLink[v] < s.lowLink[u] {
				s.lowLink[u] = s.lowLink[v]
			}
		} else if s.onStack[v] && s.disc[v] < s.lowLink[u] {
			// Back edge to a node of the current component.
			s.lowLink[u] = s.disc[v]
		}
	}

	if s.lowLink[u] != s.disc[u] {
		return
	}
	// u is the root of a component; pop the stack down to it.
	var comp []string
	for {
		n := len(s.stack) - 1
		w := s.stack[n]
		s.stack = s.stack[:n]
		s.onStack[w] = false
		comp = append(comp, w)
		if w == u {
			break
		}
	}
	s.out = append(s.out, comp)
}

// IsCyclic reports whether the graph contains at least one cycle, that is,
// whether some strongly connected component spans more than one node.
func (g *Graph) IsCyclic() bool {
	return len(g.Components()) < g.Len()
}
