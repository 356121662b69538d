package engine

import (
	"fmt"
	"math/rand"
	"sort"

	"chimeraevo/internal/embedding"
	"chimeraevo/internal/graph"
)

// Chimera is the chain-growing embedding engine used against Chimera
// lattices. It only relies on graph.Hardware, so any hardware graph works.
//
// All random choices draw from the injected source; an engine must not be
// shared between concurrent runs.
type Chimera struct {
	rng *rand.Rand
}

func NewChimera(rng *rand.Rand) (*Chimera, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	return &Chimera{rng: rng}, nil
}

// NewSeededChimera is a convenience for callers that only carry a seed.
func NewSeededChimera(seed int64) *Chimera {
	return &Chimera{rng: rand.New(rand.NewSource(seed))}
}

func (c *Chimera) Name() string {
	return "chimera_chain_growth"
}

// InitializeEmbedding places every source node, in source order, on a single
// free hardware node. Nodes next to already placed partners are preferred,
// then nodes next to any chain, then any free node.
func (c *Chimera) InitializeEmbedding(problem *embedding.Problem) (*embedding.Embedding, error) {
	if problem == nil {
		return nil, fmt.Errorf("problem is required")
	}
	hw := problem.Hardware
	b := embedding.NewBuilder(problem)
	for _, src := range problem.Source.Nodes() {
		partners := problem.Source.Neighbors(src)
		var nearPartner, nearAny, free []int
		for h := 0; h < hw.NodeCount(); h++ {
			if !b.IsFree(h) {
				continue
			}
			free = append(free, h)
			touchesPartner, touchesAny := false, false
			for _, nb := range hw.Neighbors(h) {
				owner, used := b.Owner(nb)
				if !used {
					continue
				}
				touchesAny = true
				if containsInt(partners, owner) {
					touchesPartner = true
				}
			}
			if touchesPartner {
				nearPartner = append(nearPartner, h)
			}
			if touchesAny {
				nearAny = append(nearAny, h)
			}
		}
		pool := nearPartner
		if len(pool) == 0 {
			pool = nearAny
		}
		if len(pool) == 0 {
			pool = free
		}
		if len(pool) == 0 {
			return nil, fmt.Errorf("no free hardware node for source node %d", src)
		}
		if err := b.Assign(pool[c.rng.Intn(len(pool))], src); err != nil {
			return nil, err
		}
	}
	if err := claimMissing(b); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

func (c *Chimera) IsValidEmbedding(e *embedding.Embedding) bool {
	return e != nil && e.IsValid()
}

// ExtendRandomSupernode grows one supernode with missing edges by a hardware
// node that touches the chain of a missing partner. The node is either free
// or taken from a chain that can spare it. When no such node exists the
// chain grows toward its partners through any free neighbour, or failing
// that a spare one, so that long gaps can be bridged over several
// generations.
func (c *Chimera) ExtendRandomSupernode(e *embedding.Embedding) (*embedding.Embedding, bool) {
	missing := e.MissingEdges()
	if len(missing) == 0 {
		return nil, false
	}
	srcs := endpoints(missing)
	src := srcs[c.rng.Intn(len(srcs))]
	wanted := missingPartners(missing, src)

	hw := e.Problem().Hardware
	targets := make([]int, 0)
	free := make([]int, 0)
	spare := make([]int, 0)
	seen := map[int]struct{}{}
	for _, h := range e.Chain(src) {
		for _, nb := range hw.Neighbors(h) {
			if _, done := seen[nb]; done {
				continue
			}
			seen[nb] = struct{}{}
			owner, used := e.Owner(nb)
			if used && (owner == src || containsInt(wanted, owner)) {
				continue
			}
			if used && !canSpare(e, owner, nb) {
				continue
			}
			switch {
			case touchesAnyChain(e, nb, wanted):
				targets = append(targets, nb)
			case !used:
				free = append(free, nb)
			default:
				spare = append(spare, nb)
			}
		}
	}
	for _, pool := range [][]int{targets, free, spare} {
		if len(pool) > 0 {
			sort.Ints(pool)
			return c.grow(e, src, pool[c.rng.Intn(len(pool))])
		}
	}
	return nil, false
}

// ExtendRandomSupernodeToFreeNeighbor grows a supernode onto a free
// neighbouring hardware node. Supernodes with missing edges are preferred.
func (c *Chimera) ExtendRandomSupernodeToFreeNeighbor(e *embedding.Embedding) (*embedding.Embedding, bool) {
	srcs := endpoints(e.MissingEdges())
	if len(srcs) == 0 {
		srcs = e.Problem().Source.Nodes()
	}
	src := srcs[c.rng.Intn(len(srcs))]

	hw := e.Problem().Hardware
	free := make([]int, 0)
	seen := map[int]struct{}{}
	for _, h := range e.Chain(src) {
		for _, nb := range hw.Neighbors(h) {
			if _, done := seen[nb]; done || !e.IsFree(nb) {
				continue
			}
			seen[nb] = struct{}{}
			free = append(free, nb)
		}
	}
	if len(free) == 0 {
		return nil, false
	}
	sort.Ints(free)
	return c.grow(e, src, free[c.rng.Intn(len(free))])
}

// RemoveRedundantSupernodeNodes drops chain nodes that neither hold their
// chain together nor carry a satisfied required edge. It is deterministic
// and returns an identical embedding when nothing can be dropped.
func (c *Chimera) RemoveRedundantSupernodeNodes(e *embedding.Embedding) *embedding.Embedding {
	b := e.Edit()
	for {
		removed := false
		current := b.Build()
		for _, src := range current.Problem().Source.Nodes() {
			chain := current.Chain(src)
			if len(chain) < 2 {
				continue
			}
			for _, h := range chain {
				if !canSpare(current, src, h) {
					continue
				}
				b = current.Edit()
				b.Release(h)
				if err := claimMissing(b); err != nil {
					panic(fmt.Sprintf("engine: reclaim after release: %v", err))
				}
				removed = true
				break
			}
			if removed {
				break
			}
		}
		if !removed {
			return current
		}
	}
}

// CountNewlyEmbeddableEdges counts required edges missing in baseline that
// candidate realises.
func (c *Chimera) CountNewlyEmbeddableEdges(baseline, candidate *embedding.Embedding) int {
	count := 0
	for _, edge := range baseline.MissingEdges() {
		if candidate.IsSatisfied(edge.U, edge.V) {
			count++
		}
	}
	return count
}

func (c *Chimera) grow(e *embedding.Embedding, src, h int) (*embedding.Embedding, bool) {
	b := e.Edit()
	b.Release(h)
	if err := b.Assign(h, src); err != nil {
		return nil, false
	}
	if err := claimMissing(b); err != nil {
		return nil, false
	}
	return b.Build(), true
}

// claimMissing claims one hardware edge for every required edge that is
// realisable but not yet claimed.
func claimMissing(b *embedding.Builder) error {
	hw := b.Problem().Hardware
	for _, edge := range b.MissingEdges() {
		if u, v, ok := findLink(hw, b.Chain(edge.U), edge.V, b.Owner, -1); ok {
			if err := b.Claim(u, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// canSpare reports whether h can leave the chain of owner: the chain keeps at
// least one node, stays connected, and every satisfied edge of owner still
// has a realising hardware edge that avoids h.
func canSpare(e *embedding.Embedding, owner, h int) bool {
	chain := e.Chain(owner)
	if len(chain) < 2 {
		return false
	}
	hw := e.Problem().Hardware
	if !connectedWithout(hw, chain, h) {
		return false
	}
	rest := make([]int, 0, len(chain)-1)
	for _, x := range chain {
		if x != h {
			rest = append(rest, x)
		}
	}
	for _, partner := range e.Problem().Source.Neighbors(owner) {
		if !e.IsSatisfied(owner, partner) {
			continue
		}
		if _, _, ok := findLink(hw, rest, partner, e.Owner, h); !ok {
			return false
		}
	}
	return true
}

func findLink(hw graph.Hardware, chain []int, partner int, ownerOf func(int) (int, bool), skip int) (int, int, bool) {
	for _, u := range chain {
		for _, v := range hw.Neighbors(u) {
			if v == skip {
				continue
			}
			if owner, used := ownerOf(v); used && owner == partner {
				return u, v, true
			}
		}
	}
	return 0, 0, false
}

func connectedWithout(hw graph.Hardware, chain []int, skip int) bool {
	members := make(map[int]struct{}, len(chain))
	for _, x := range chain {
		if x != skip {
			members[x] = struct{}{}
		}
	}
	if len(members) == 0 {
		return false
	}
	var start int
	for _, x := range chain {
		if x != skip {
			start = x
			break
		}
	}
	visited := map[int]struct{}{start: {}}
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range hw.Neighbors(cur) {
			if _, in := members[nb]; !in {
				continue
			}
			if _, ok := visited[nb]; ok {
				continue
			}
			visited[nb] = struct{}{}
			queue = append(queue, nb)
		}
	}
	return len(visited) == len(members)
}

func touchesAnyChain(e *embedding.Embedding, h int, srcs []int) bool {
	for _, nb := range e.Problem().Hardware.Neighbors(h) {
		if owner, used := e.Owner(nb); used && containsInt(srcs, owner) {
			return true
		}
	}
	return false
}

func endpoints(edges []graph.Edge) []int {
	set := map[int]struct{}{}
	for _, edge := range edges {
		set[edge.U] = struct{}{}
		set[edge.V] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for node := range set {
		out = append(out, node)
	}
	sort.Ints(out)
	return out
}

func missingPartners(edges []graph.Edge, src int) []int {
	out := make([]int, 0)
	for _, edge := range edges {
		switch src {
		case edge.U:
			out = append(out, edge.V)
		case edge.V:
			out = append(out, edge.U)
		}
	}
	sort.Ints(out)
	return out
}

func containsInt(values []int, target int) bool {
	idx := sort.SearchInts(values, target)
	return idx < len(values) && values[idx] == target
}
