package evo

import (
	"fmt"

	"chimeraevo/internal/embedding"
)

type population struct {
	Candidates   []*embedding.Embedding
	Baseline     *embedding.Embedding
	SlotFailures int
	RescueFired  bool
}

// buildPopulation fills up to PopulationSize slots from baseline. The first
// failure after any success ends the generation early. A failure with
// nothing accumulated triggers one redundancy removal on the baseline and a
// retry of the same slot; a second such failure is fatal.
func (s *Search) buildPopulation(generation int, baseline *embedding.Embedding, params EvolutionParams) (population, error) {
	out := population{
		Candidates: make([]*embedding.Embedding, 0, params.PopulationSize),
		Baseline:   baseline,
	}
	for slot := 0; slot < params.PopulationSize; {
		candidate, err := mutateSlot(s.cfg.Engine, s.rng, out.Baseline, params)
		if err == nil {
			out.Candidates = append(out.Candidates, candidate)
			slot++
			continue
		}
		out.SlotFailures++
		s.cfg.Observer.SlotFailed(generation, slot, len(out.Candidates))
		if len(out.Candidates) > 0 {
			return out, nil
		}
		if out.RescueFired {
			return out, fmt.Errorf("generation %d slot %d: %w", generation, slot, ErrPopulationFailure)
		}
		out.Baseline = s.cfg.Engine.RemoveRedundantSupernodeNodes(out.Baseline)
		out.RescueFired = true
		s.cfg.Observer.RescueFired(generation, slot, out.Baseline)
	}
	return out, nil
}
