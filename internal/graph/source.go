package graph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Source is the logical graph to embed: an ordered node set and the edges
// that must be realised between chains.
type Source struct {
	nodes    []int
	edges    []Edge
	index    map[int]int
	partners map[int][]int
}

func NewSource(nodes []int, edges []Edge) (*Source, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("source graph requires at least one node")
	}
	s := &Source{
		nodes:    append([]int(nil), nodes...),
		index:    make(map[int]int, len(nodes)),
		partners: make(map[int][]int, len(nodes)),
	}
	for i, node := range s.nodes {
		if _, dup := s.index[node]; dup {
			return nil, fmt.Errorf("duplicate source node %d", node)
		}
		s.index[node] = i
	}
	seen := make(map[Edge]struct{}, len(edges))
	for _, e := range edges {
		if e.U == e.V {
			return nil, fmt.Errorf("self-loop on source node %d", e.U)
		}
		if _, ok := s.index[e.U]; !ok {
			return nil, fmt.Errorf("edge %s references unknown node %d", e, e.U)
		}
		if _, ok := s.index[e.V]; !ok {
			return nil, fmt.Errorf("edge %s references unknown node %d", e, e.V)
		}
		norm := NewEdge(e.U, e.V)
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		s.edges = append(s.edges, norm)
		s.partners[norm.U] = append(s.partners[norm.U], norm.V)
		s.partners[norm.V] = append(s.partners[norm.V], norm.U)
	}
	sort.Slice(s.edges, func(i, j int) bool {
		if s.edges[i].U == s.edges[j].U {
			return s.edges[i].V < s.edges[j].V
		}
		return s.edges[i].U < s.edges[j].U
	})
	for node := range s.partners {
		sort.Ints(s.partners[node])
	}
	return s, nil
}

// Complete returns K_n on nodes 0..n-1.
func Complete(n int) (*Source, error) {
	if n <= 0 {
		return nil, fmt.Errorf("complete graph size must be > 0")
	}
	nodes := make([]int, n)
	edges := make([]Edge, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		nodes[i] = i
		for j := i + 1; j < n; j++ {
			edges = append(edges, Edge{U: i, V: j})
		}
	}
	return NewSource(nodes, edges)
}

// Cycle returns C_n on nodes 0..n-1.
func Cycle(n int) (*Source, error) {
	if n < 3 {
		return nil, fmt.Errorf("cycle graph size must be >= 3")
	}
	nodes := make([]int, n)
	edges := make([]Edge, 0, n)
	for i := 0; i < n; i++ {
		nodes[i] = i
		edges = append(edges, NewEdge(i, (i+1)%n))
	}
	return NewSource(nodes, edges)
}

// ParseSource understands "k<n>" (complete) and "c<n>" (cycle).
func ParseSource(name string) (*Source, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) < 2 {
		return nil, fmt.Errorf("unsupported source graph: %q", name)
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil {
		return nil, fmt.Errorf("unsupported source graph %q: %w", name, err)
	}
	switch name[0] {
	case 'k':
		return Complete(n)
	case 'c':
		return Cycle(n)
	default:
		return nil, fmt.Errorf("unsupported source graph: %q", name)
	}
}

func (s *Source) Nodes() []int {
	return append([]int(nil), s.nodes...)
}

func (s *Source) NodeCount() int {
	return len(s.nodes)
}

func (s *Source) Edges() []Edge {
	return append([]Edge(nil), s.edges...)
}

func (s *Source) EdgeCount() int {
	return len(s.edges)
}

func (s *Source) HasNode(node int) bool {
	_, ok := s.index[node]
	return ok
}

// Neighbors returns the required partners of node in ascending order.
func (s *Source) Neighbors(node int) []int {
	return append([]int(nil), s.partners[node]...)
}

func (s *Source) Degree(node int) int {
	return len(s.partners[node])
}
