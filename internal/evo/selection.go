package evo

import (
	"fmt"

	"chimeraevo/internal/embedding"
)

// Selector picks the candidate that becomes the next baseline.
type Selector interface {
	Name() string
	Select(engine Engine, baseline *embedding.Embedding, population []*embedding.Embedding) (Candidate, int, error)
}

// MaxImprovementSelector scores every candidate by the number of missing
// edges it newly realises and keeps the first maximum.
type MaxImprovementSelector struct{}

func (MaxImprovementSelector) Name() string {
	return "max_improvement"
}

func (MaxImprovementSelector) Select(engine Engine, baseline *embedding.Embedding, population []*embedding.Embedding) (Candidate, int, error) {
	if engine == nil {
		return Candidate{}, -1, fmt.Errorf("engine is required")
	}
	if len(population) == 0 {
		return Candidate{}, -1, ErrEmptyPopulation
	}
	scores := make([]int, len(population))
	for i, candidate := range population {
		scores[i] = engine.CountNewlyEmbeddableEdges(baseline, candidate)
	}
	best := SelectBest(scores)
	return Candidate{Embedding: population[best], Score: scores[best]}, best, nil
}

// SelectBest returns the index of the first maximum, or -1 when scores is
// empty.
func SelectBest(scores []int) int {
	best := -1
	for i, score := range scores {
		if best < 0 || score > scores[best] {
			best = i
		}
	}
	return best
}
