package graph

import (
	"fmt"
	"strings"
)

// Edge is a single directed edge from one named node to another.
type Edge struct {
	From string
	To   string
}

// Graph is a directed graph over string-named nodes. Each node keeps an
// ordered list of successors, so iteration order is deterministic and
// parallel edges are representable. The zero value is not usable; call New.
//
// Graph is not safe for concurrent mutation. Callers that share a graph
// across goroutines must serialize access themselves.
type Graph struct {
	adj   map[string][]string
	order []string

	// cc caches the strongly connected components until the next mutation.
	cc      [][]string
	ccValid bool
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{adj: make(map[string][]string)}
}

// invalidate drops the cached component decomposition.
func (g *Graph) invalidate() {
	g.cc = nil
	g.ccValid = false
}

// ensure registers name as a node if it is not yet present.
func (g *Graph) ensure(name string) {
	if _, ok := g.adj[name]; ok {
		return
	}
	g.adj[name] = nil
	g.order = append(g.order, name)
}

// AddNode registers a node with no edges. Adding a node that already exists
// is harmless. The empty name is ignored. Returns the graph for chaining.
func (g *Graph) AddNode(name string) *Graph {
	if name == "" {
		return g
	}
	g.invalidate()
	g.ensure(name)
	return g
}

// Add inserts the edge from -> to, registering either endpoint as needed.
// Edges are appended, not deduplicated, so calling Add twice with the same
// pair yields a parallel edge. An empty from is ignored; an empty to makes
// the call equivalent to AddNode(from). Returns the graph for chaining.
func (g *Graph) Add(from, to string) *Graph {
	if from == "" {
		return g
	}
	g.invalidate()
	g.ensure(from)
	if to == "" {
		return g
	}
	g.ensure(to)
	g.adj[from] = append(g.adj[from], to)
	return g
}

// Remove deletes a node along with every edge that names it, as source or
// target. Removing an unknown node is a no-op and leaves the cached
// components intact. Returns the graph for chaining.
func (g *Graph) Remove(name string) *Graph {
	if _, ok := g.adj[name]; !ok {
		return g
	}
	g.invalidate()
	delete(g.adj, name)
	for i, n := range g.order {
		if n == name {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	for n, succ := range g.adj {
		kept := succ[:0]
		for _, s := range succ {
			if s != name {
				kept = append(kept, s)
			}
		}
		g.adj[n] = kept
	}
	return g
}

// RemoveEdge deletes one instance of the edge from -> to. The endpoints stay
// registered. Removing from an unknown source is a no-op and leaves the
// cached components intact. Returns the graph for chaining.
func (g *Graph) RemoveEdge(from, to string) *Graph {
	if _, ok := g.adj[from]; !ok {
		return g
	}
	g.invalidate()
	for i, s := range g.adj[from] {
		if s == to {
			g.adj[from] = append(g.adj[from][:i], g.adj[from][i+1:]...)
			break
		}
	}
	return g
}

// Len reports the number of nodes.
func (g *Graph) Len() int {
	return len(g.adj)
}

// Has reports whether name is a node of the graph.
func (g *Graph) Has(name string) bool {
	_, ok := g.adj[name]
	return ok
}

// HasEdge reports whether at least one edge from -> to exists.
func (g *Graph) HasEdge(from, to string) bool {
	if !g.Has(from) || !g.Has(to) {
		return false
	}
	for _, s := range g.adj[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Nodes returns all node names in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Successors returns the ordered successor list of name. Unknown nodes
// yield nil.
func (g *Graph) Successors(name string) []string {
	succ := g.adj[name]
	if len(succ) == 0 {
		return nil
	}
	out := make([]string, len(succ))
	copy(out, succ)
	return out
}

// Edges returns the distinct edges of the graph in first-appearance order.
// Parallel edges collapse to a single entry.
func (g *Graph) Edges() []Edge {
	var out []Edge
	seen := make(map[Edge]bool)
	for _, n := range g.order {
		for _, s := range g.adj[n] {
			e := Edge{From: n, To: s}
			if seen[e] {
				continue
			}
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// Roots returns the nodes no edge points at, in insertion order.
func (g *Graph) Roots() []string {
	targeted := make(map[string]bool)
	for _, succ := range g.adj {
		for _, s := range succ {
			targeted[s] = true
		}
	}
	var out []string
	for _, n := range g.order {
		if !targeted[n] {
			out = append(out, n)
		}
	}
	return out
}

// Leaves returns the nodes with no outgoing edges, in insertion order.
func (g *Graph) Leaves() []string {
	var out []string
	for _, n := range g.order {
		if len(g.adj[n]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Intermediates returns every node that has at least one outgoing edge,
// together with every node such an edge points at. In other words it is the
// set of nodes touched by any edge; isolated nodes are excluded. Order is
// first appearance while walking sources and their successors.
func (g *Graph) Intermediates() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, n := range g.order {
		if len(g.adj[n]) == 0 {
			continue
		}
		add(n)
		for _, s := range g.adj[n] {
			add(s)
		}
	}
	return out
}

// Reverse returns a new graph with every edge direction flipped. The result
// is built from the distinct edge set, so parallel edges collapse and nodes
// without any edge do not carry over.
func (g *Graph) Reverse() *Graph {
	r := New()
	for _, e := range g.Edges() {
		r.Add(e.To, e.From)
	}
	return r
}

// String renders the adjacency of the graph, one node per line, in
// insertion order.
func (g *Graph) String() string {
	var b strings.Builder
	for _, n := range g.order {
		fmt.Fprintf(&b, "%s -> %v\n", n, g.adj[n])
	}
	return b.String()
}
