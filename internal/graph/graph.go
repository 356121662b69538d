package graph

import (
	"fmt"
	"sort"
)

// Edge is an undirected edge normalised so that U < V.
type Edge struct {
	U int `json:"u"`
	V int `json:"v"`
}

func NewEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{U: a, V: b}
}

func (e Edge) String() string {
	return fmt.Sprintf("%d-%d", e.U, e.V)
}

// Other returns the endpoint opposite to node.
func (e Edge) Other(node int) int {
	if e.U == node {
		return e.V
	}
	return e.U
}

// Hardware is the fixed target graph. Nodes are numbered 0..NodeCount()-1.
type Hardware interface {
	NodeCount() int
	Neighbors(node int) []int
	HasEdge(u, v int) bool
}

// Adjacency is a generic undirected hardware graph built from an edge list.
type Adjacency struct {
	n   int
	adj [][]int
	set map[Edge]struct{}
}

func NewAdjacency(n int, edges []Edge) (*Adjacency, error) {
	if n <= 0 {
		return nil, fmt.Errorf("node count must be > 0")
	}
	a := &Adjacency{
		n:   n,
		adj: make([][]int, n),
		set: make(map[Edge]struct{}, len(edges)),
	}
	for _, e := range edges {
		if e.U == e.V {
			return nil, fmt.Errorf("self-loop on node %d", e.U)
		}
		if e.U < 0 || e.V < 0 || e.U >= n || e.V >= n {
			return nil, fmt.Errorf("edge %s out of range [0,%d)", e, n)
		}
		norm := NewEdge(e.U, e.V)
		if _, ok := a.set[norm]; ok {
			continue
		}
		a.set[norm] = struct{}{}
		a.adj[norm.U] = append(a.adj[norm.U], norm.V)
		a.adj[norm.V] = append(a.adj[norm.V], norm.U)
	}
	for i := range a.adj {
		sort.Ints(a.adj[i])
	}
	return a, nil
}

func (a *Adjacency) NodeCount() int { return a.n }

func (a *Adjacency) Neighbors(node int) []int {
	if node < 0 || node >= a.n {
		return nil
	}
	return append([]int(nil), a.adj[node]...)
}

func (a *Adjacency) HasEdge(u, v int) bool {
	_, ok := a.set[NewEdge(u, v)]
	return ok
}

// EdgeCount counts the undirected edges of any hardware graph.
func EdgeCount(h Hardware) int {
	total := 0
	for node := 0; node < h.NodeCount(); node++ {
		total += len(h.Neighbors(node))
	}
	return total / 2
}
