package evo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chimeraevo/internal/embedding"
	"chimeraevo/internal/graph"
)

// scriptedEngine hands out distinct empty embeddings and lets each test
// decide which ones are valid and how mutations behave.
type scriptedEngine struct {
	problem *embedding.Problem
	initial *embedding.Embedding
	initErr error

	valid  map[*embedding.Embedding]bool
	scores map[*embedding.Embedding]int

	primary   func(call int, e *embedding.Embedding) (*embedding.Embedding, bool)
	secondary func(call int, e *embedding.Embedding) (*embedding.Embedding, bool)
	remove    func(e *embedding.Embedding) *embedding.Embedding

	primaryInputs   []*embedding.Embedding
	secondaryInputs []*embedding.Embedding
	removeInputs    []*embedding.Embedding
}

func newScriptedEngine(t *testing.T) *scriptedEngine {
	t.Helper()
	src, err := graph.Complete(2)
	require.NoError(t, err)
	return newScriptedEngineFor(t, src)
}

// newScriptedEngineFor places src on a four-node hardware path.
func newScriptedEngineFor(t *testing.T, src *graph.Source) *scriptedEngine {
	t.Helper()
	hw, err := graph.NewAdjacency(4, []graph.Edge{{U: 0, V: 1}, {U: 1, V: 2}, {U: 2, V: 3}})
	require.NoError(t, err)
	problem, err := embedding.NewProblem(src, hw)
	require.NoError(t, err)
	eng := &scriptedEngine{
		problem: problem,
		valid:   map[*embedding.Embedding]bool{},
		scores:  map[*embedding.Embedding]int{},
	}
	eng.initial = eng.fresh()
	return eng
}

func (f *scriptedEngine) fresh() *embedding.Embedding {
	return embedding.Empty(f.problem)
}

func (f *scriptedEngine) freshValid() *embedding.Embedding {
	e := f.fresh()
	f.valid[e] = true
	return e
}

func (f *scriptedEngine) InitializeEmbedding(*embedding.Problem) (*embedding.Embedding, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	return f.initial, nil
}

func (f *scriptedEngine) IsValidEmbedding(e *embedding.Embedding) bool {
	return f.valid[e]
}

func (f *scriptedEngine) ExtendRandomSupernode(e *embedding.Embedding) (*embedding.Embedding, bool) {
	call := len(f.primaryInputs)
	f.primaryInputs = append(f.primaryInputs, e)
	if f.primary == nil {
		return nil, false
	}
	return f.primary(call, e)
}

func (f *scriptedEngine) ExtendRandomSupernodeToFreeNeighbor(e *embedding.Embedding) (*embedding.Embedding, bool) {
	call := len(f.secondaryInputs)
	f.secondaryInputs = append(f.secondaryInputs, e)
	if f.secondary == nil {
		return nil, false
	}
	return f.secondary(call, e)
}

func (f *scriptedEngine) RemoveRedundantSupernodeNodes(e *embedding.Embedding) *embedding.Embedding {
	f.removeInputs = append(f.removeInputs, e)
	if f.remove != nil {
		return f.remove(e)
	}
	return f.fresh()
}

func (f *scriptedEngine) CountNewlyEmbeddableEdges(_, candidate *embedding.Embedding) int {
	return f.scores[candidate]
}

func (f *scriptedEngine) problemForTest() *embedding.Problem {
	return f.problem
}
