package evo

import (
	"math/rand"

	"chimeraevo/internal/embedding"
)

// mutateSlot spends up to MaxMutationTrials attempts producing one
// candidate. A successful secondary mutation becomes the working embedding
// for the remaining trials of this slot only.
func mutateSlot(engine Engine, rng *rand.Rand, baseline *embedding.Embedding, params EvolutionParams) (*embedding.Embedding, error) {
	fallback := params.EffectiveFallback()
	working := baseline
	for k := 0; k < params.MaxMutationTrials; k++ {
		if candidate, ok := engine.ExtendRandomSupernode(working); ok {
			return candidate, nil
		}
		if fallback.Activate(rng, k, params.MaxMutationTrials) {
			if grown, ok := engine.ExtendRandomSupernodeToFreeNeighbor(working); ok {
				working = grown
			}
		}
	}
	return nil, ErrMutationExhausted
}
