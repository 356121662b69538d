package evo

import (
	"fmt"
	"math/rand"

	"chimeraevo/internal/embedding"
)

// Pruner optionally trims the selected candidate before commit.
type Pruner interface {
	Name() string
	Prune(rng *rand.Rand, engine Engine, e *embedding.Embedding) (*embedding.Embedding, bool)
}

// ProbabilisticPruner removes redundant chain nodes with the given
// probability.
type ProbabilisticPruner struct {
	Probability float64
}

func (ProbabilisticPruner) Name() string {
	return "probabilistic"
}

func (p ProbabilisticPruner) Validate() error {
	if p.Probability < 0 || p.Probability > 1 {
		return fmt.Errorf("prune probability must be in [0, 1]")
	}
	return nil
}

func (p ProbabilisticPruner) Prune(rng *rand.Rand, engine Engine, e *embedding.Embedding) (*embedding.Embedding, bool) {
	if p.Probability <= 0 || rng.Float64() >= p.Probability {
		return e, false
	}
	return engine.RemoveRedundantSupernodeNodes(e), true
}
