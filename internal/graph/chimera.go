package graph

import (
	"fmt"
	"sort"
)

// Chimera is an M x N grid of K_{T,T} unit cells. Shore 0 qubits couple
// vertically to the same position in the cell below, shore 1 qubits couple
// horizontally to the same position in the cell to the right.
type Chimera struct {
	M int
	N int
	T int

	adj [][]int
}

func NewChimera(m, n, t int) (*Chimera, error) {
	if m <= 0 || n <= 0 || t <= 0 {
		return nil, fmt.Errorf("chimera dimensions must be > 0: m=%d n=%d t=%d", m, n, t)
	}
	c := &Chimera{M: m, N: n, T: t}
	c.adj = make([][]int, c.NodeCount())
	for node := range c.adj {
		c.adj[node] = c.computeNeighbors(node)
	}
	return c, nil
}

func (c *Chimera) NodeCount() int {
	return c.M * c.N * 2 * c.T
}

// Index maps lattice coordinates to the linear node index.
func (c *Chimera) Index(i, j, u, k int) int {
	return ((i*c.N+j)*2+u)*c.T + k
}

// Coordinates is the inverse of Index.
func (c *Chimera) Coordinates(node int) (i, j, u, k int) {
	k = node % c.T
	rest := node / c.T
	u = rest % 2
	rest /= 2
	j = rest % c.N
	i = rest / c.N
	return i, j, u, k
}

func (c *Chimera) Neighbors(node int) []int {
	if node < 0 || node >= len(c.adj) {
		return nil
	}
	return append([]int(nil), c.adj[node]...)
}

func (c *Chimera) HasEdge(a, b int) bool {
	if a == b || a < 0 || b < 0 || a >= len(c.adj) || b >= len(c.adj) {
		return false
	}
	ai, aj, au, ak := c.Coordinates(a)
	bi, bj, bu, bk := c.Coordinates(b)
	if ai == bi && aj == bj {
		return au != bu
	}
	if au != bu || ak != bk {
		return false
	}
	if au == 0 {
		return aj == bj && (ai-bi == 1 || bi-ai == 1)
	}
	return ai == bi && (aj-bj == 1 || bj-aj == 1)
}

func (c *Chimera) String() string {
	return fmt.Sprintf("chimera(%d,%d,%d)", c.M, c.N, c.T)
}

func (c *Chimera) computeNeighbors(node int) []int {
	i, j, u, k := c.Coordinates(node)
	out := make([]int, 0, c.T+2)
	if u == 0 && i > 0 {
		out = append(out, c.Index(i-1, j, 0, k))
	}
	if u == 1 && j > 0 {
		out = append(out, c.Index(i, j-1, 1, k))
	}
	for l := 0; l < c.T; l++ {
		out = append(out, c.Index(i, j, 1-u, l))
	}
	if u == 0 && i+1 < c.M {
		out = append(out, c.Index(i+1, j, 0, k))
	}
	if u == 1 && j+1 < c.N {
		out = append(out, c.Index(i, j+1, 1, k))
	}
	sort.Ints(out)
	return out
}
