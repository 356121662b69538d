package embedding

import (
	"fmt"
	"sort"

	"chimeraevo/internal/graph"
)

// Builder edits a private deep copy of an embedding. The source embedding is
// never touched, so candidates derived from one baseline share nothing.
type Builder struct {
	e     *Embedding
	built bool
}

func (e *Embedding) Edit() *Builder {
	return &Builder{e: e.clone()}
}

func NewBuilder(problem *Problem) *Builder {
	return &Builder{e: Empty(problem)}
}

func (b *Builder) Problem() *Problem {
	return b.e.problem
}

func (b *Builder) Owner(h int) (int, bool) {
	return b.e.Owner(h)
}

func (b *Builder) IsFree(h int) bool {
	return b.e.IsFree(h)
}

func (b *Builder) Chain(src int) []int {
	return b.e.Chain(src)
}

func (b *Builder) MissingEdges() []graph.Edge {
	return b.e.MissingEdges()
}

func (b *Builder) IsSatisfied(src, other int) bool {
	return b.e.IsSatisfied(src, other)
}

// Assign adds free hardware node h to the chain of src.
func (b *Builder) Assign(h, src int) error {
	b.mustBeOpen()
	if h < 0 || h >= b.e.problem.Hardware.NodeCount() {
		return fmt.Errorf("hardware node %d out of range", h)
	}
	if !b.e.problem.Source.HasNode(src) {
		return fmt.Errorf("unknown source node %d", src)
	}
	if owner, used := b.e.owner[h]; used {
		return fmt.Errorf("hardware node %d already used by source node %d", h, owner)
	}
	chain := b.e.chains[src]
	idx := sort.SearchInts(chain, h)
	chain = append(chain, 0)
	copy(chain[idx+1:], chain[idx:])
	chain[idx] = h
	b.e.chains[src] = chain
	b.e.owner[h] = src
	return nil
}

// Release frees hardware node h and drops every claimed edge touching it.
func (b *Builder) Release(h int) {
	b.mustBeOpen()
	src, used := b.e.owner[h]
	if !used {
		return
	}
	chain := b.e.chains[src]
	idx := sort.SearchInts(chain, h)
	if idx < len(chain) && chain[idx] == h {
		chain = append(chain[:idx], chain[idx+1:]...)
	}
	if len(chain) == 0 {
		delete(b.e.chains, src)
	} else {
		b.e.chains[src] = chain
	}
	delete(b.e.owner, h)
	for edge := range b.e.claimed {
		if edge.U == h || edge.V == h {
			delete(b.e.claimed, edge)
		}
	}
}

// Claim records hardware edge u-v as realising the required edge between
// the chains that own u and v.
func (b *Builder) Claim(u, v int) error {
	b.mustBeOpen()
	if !b.e.problem.Hardware.HasEdge(u, v) {
		return fmt.Errorf("hardware edge %d-%d does not exist", u, v)
	}
	a, okA := b.e.owner[u]
	c, okB := b.e.owner[v]
	if !okA || !okB {
		return fmt.Errorf("hardware edge %d-%d touches a free node", u, v)
	}
	if a == c {
		return fmt.Errorf("hardware edge %d-%d lies inside chain %d", u, v, a)
	}
	if !containsInt(b.e.problem.Source.Neighbors(a), c) {
		return fmt.Errorf("source edge %d-%d is not required", a, c)
	}
	b.e.claimed[graph.NewEdge(u, v)] = struct{}{}
	return nil
}

func (b *Builder) Unclaim(u, v int) {
	b.mustBeOpen()
	delete(b.e.claimed, graph.NewEdge(u, v))
}

// Build seals the builder and returns the new embedding.
func (b *Builder) Build() *Embedding {
	b.mustBeOpen()
	b.built = true
	return b.e
}

func (b *Builder) mustBeOpen() {
	if b.built {
		panic("embedding: builder used after Build")
	}
}

func containsInt(values []int, target int) bool {
	idx := sort.SearchInts(values, target)
	return idx < len(values) && values[idx] == target
}
