package embedding

import (
	"fmt"
	"sort"

	"chimeraevo/internal/graph"
)

// Problem pairs the source graph with the hardware it is embedded into.
// Every embedding of one search run shares the same read-only Problem.
type Problem struct {
	Source   *graph.Source
	Hardware graph.Hardware
}

func NewProblem(source *graph.Source, hardware graph.Hardware) (*Problem, error) {
	if source == nil {
		return nil, fmt.Errorf("source graph is required")
	}
	if hardware == nil {
		return nil, fmt.Errorf("hardware graph is required")
	}
	if source.NodeCount() > hardware.NodeCount() {
		return nil, fmt.Errorf("source graph has %d nodes but hardware only %d", source.NodeCount(), hardware.NodeCount())
	}
	return &Problem{Source: source, Hardware: hardware}, nil
}

// Embedding is an immutable snapshot mapping source nodes to chains of
// hardware nodes together with the hardware edges claimed between chains.
// Use Edit to derive a modified copy.
type Embedding struct {
	problem *Problem
	chains  map[int][]int
	owner   map[int]int
	claimed map[graph.Edge]struct{}
}

// Empty returns an embedding with no chains and no claimed edges.
func Empty(problem *Problem) *Embedding {
	return &Embedding{
		problem: problem,
		chains:  map[int][]int{},
		owner:   map[int]int{},
		claimed: map[graph.Edge]struct{}{},
	}
}

func (e *Embedding) Problem() *Problem {
	return e.problem
}

// Chain returns the hardware nodes assigned to src in ascending order.
func (e *Embedding) Chain(src int) []int {
	return append([]int(nil), e.chains[src]...)
}

func (e *Embedding) ChainSize(src int) int {
	return len(e.chains[src])
}

func (e *Embedding) Mapping() map[int][]int {
	out := make(map[int][]int, len(e.chains))
	for src, chain := range e.chains {
		out[src] = append([]int(nil), chain...)
	}
	return out
}

// Owner reports which source node uses hardware node h.
func (e *Embedding) Owner(h int) (int, bool) {
	src, ok := e.owner[h]
	return src, ok
}

func (e *Embedding) IsFree(h int) bool {
	_, used := e.owner[h]
	return !used
}

// Nodes returns every hardware node in use, ascending.
func (e *Embedding) Nodes() []int {
	out := make([]int, 0, len(e.owner))
	for h := range e.owner {
		out = append(out, h)
	}
	sort.Ints(out)
	return out
}

func (e *Embedding) NodeCount() int {
	return len(e.owner)
}

func (e *Embedding) ClaimedEdges() []graph.Edge {
	out := make([]graph.Edge, 0, len(e.claimed))
	for edge := range e.claimed {
		out = append(out, edge)
	}
	sortEdges(out)
	return out
}

func (e *Embedding) HasClaim(u, v int) bool {
	_, ok := e.claimed[graph.NewEdge(u, v)]
	return ok
}

// ChainsDisjoint checks that no hardware node serves two source nodes and
// that the reverse index agrees with the chains.
func (e *Embedding) ChainsDisjoint() bool {
	seen := make(map[int]int, len(e.owner))
	for src, chain := range e.chains {
		for _, h := range chain {
			if prev, dup := seen[h]; dup && prev != src {
				return false
			}
			seen[h] = src
			if owner, ok := e.owner[h]; !ok || owner != src {
				return false
			}
		}
	}
	return len(seen) == len(e.owner)
}

// IsValid reports whether every required source edge is realised by a
// claimed hardware edge between the two chains and the chains are disjoint.
func (e *Embedding) IsValid() bool {
	if !e.ChainsDisjoint() {
		return false
	}
	for _, src := range e.problem.Source.Nodes() {
		if len(e.chains[src]) == 0 {
			return false
		}
	}
	satisfied := e.satisfiedSet()
	for _, edge := range e.problem.Source.Edges() {
		if _, ok := satisfied[edge]; !ok {
			return false
		}
	}
	return true
}

func (e *Embedding) IsSatisfied(a, b int) bool {
	_, ok := e.satisfiedSet()[graph.NewEdge(a, b)]
	return ok
}

// SatisfiedEdges returns the required source edges already realised.
func (e *Embedding) SatisfiedEdges() []graph.Edge {
	satisfied := e.satisfiedSet()
	out := make([]graph.Edge, 0, len(satisfied))
	for _, edge := range e.problem.Source.Edges() {
		if _, ok := satisfied[edge]; ok {
			out = append(out, edge)
		}
	}
	return out
}

// MissingEdges returns the required source edges not yet realised.
func (e *Embedding) MissingEdges() []graph.Edge {
	satisfied := e.satisfiedSet()
	out := make([]graph.Edge, 0)
	for _, edge := range e.problem.Source.Edges() {
		if _, ok := satisfied[edge]; !ok {
			out = append(out, edge)
		}
	}
	return out
}

// DegreePercentages gives, per source node in source order, the fraction of
// its required neighbours already connected to its chain.
func (e *Embedding) DegreePercentages() []float64 {
	satisfied := e.satisfiedSet()
	nodes := e.problem.Source.Nodes()
	out := make([]float64, len(nodes))
	for i, src := range nodes {
		partners := e.problem.Source.Neighbors(src)
		if len(partners) == 0 {
			out[i] = 1
			continue
		}
		connected := 0
		for _, other := range partners {
			if _, ok := satisfied[graph.NewEdge(src, other)]; ok {
				connected++
			}
		}
		out[i] = float64(connected) / float64(len(partners))
	}
	return out
}

// Equal compares mapping and claimed edges.
func (e *Embedding) Equal(other *Embedding) bool {
	if e == nil || other == nil {
		return e == other
	}
	if len(e.chains) != len(other.chains) || len(e.claimed) != len(other.claimed) {
		return false
	}
	for src, chain := range e.chains {
		otherChain, ok := other.chains[src]
		if !ok || len(chain) != len(otherChain) {
			return false
		}
		for i := range chain {
			if chain[i] != otherChain[i] {
				return false
			}
		}
	}
	for edge := range e.claimed {
		if _, ok := other.claimed[edge]; !ok {
			return false
		}
	}
	return true
}

func (e *Embedding) String() string {
	return fmt.Sprintf("embedding(nodes=%d claimed=%d missing=%d)", len(e.owner), len(e.claimed), len(e.MissingEdges()))
}

func (e *Embedding) satisfiedSet() map[graph.Edge]struct{} {
	out := make(map[graph.Edge]struct{}, len(e.claimed))
	for edge := range e.claimed {
		a, okA := e.owner[edge.U]
		b, okB := e.owner[edge.V]
		if !okA || !okB || a == b {
			continue
		}
		out[graph.NewEdge(a, b)] = struct{}{}
	}
	return out
}

func (e *Embedding) clone() *Embedding {
	out := &Embedding{
		problem: e.problem,
		chains:  make(map[int][]int, len(e.chains)),
		owner:   make(map[int]int, len(e.owner)),
		claimed: make(map[graph.Edge]struct{}, len(e.claimed)),
	}
	for src, chain := range e.chains {
		out.chains[src] = append([]int(nil), chain...)
	}
	for h, src := range e.owner {
		out.owner[h] = src
	}
	for edge := range e.claimed {
		out.claimed[edge] = struct{}{}
	}
	return out
}

func sortEdges(edges []graph.Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].U == edges[j].U {
			return edges[i].V < edges[j].V
		}
		return edges[i].U < edges[j].U
	})
}
