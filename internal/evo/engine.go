package evo

import "chimeraevo/internal/embedding"

// Engine supplies the structural mutation primitives and queries the search
// loop is built on. Mutations return new embeddings and never modify their
// input. The boolean result reports whether a legal mutation existed.
type Engine interface {
	InitializeEmbedding(problem *embedding.Problem) (*embedding.Embedding, error)
	IsValidEmbedding(e *embedding.Embedding) bool
	ExtendRandomSupernode(e *embedding.Embedding) (*embedding.Embedding, bool)
	ExtendRandomSupernodeToFreeNeighbor(e *embedding.Embedding) (*embedding.Embedding, bool)
	RemoveRedundantSupernodeNodes(e *embedding.Embedding) *embedding.Embedding
	CountNewlyEmbeddableEdges(baseline, candidate *embedding.Embedding) int
}

// Candidate is a mutated embedding with its improvement over the baseline.
type Candidate struct {
	Embedding *embedding.Embedding
	Score     int
}
