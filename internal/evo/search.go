package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"chimeraevo/internal/embedding"
)

type SearchConfig struct {
	Engine         Engine
	Params         ParamsSchedule
	Selector       Selector
	Pruner         Pruner
	Observer       Observer
	MaxGenerations int
	Seed           int64
	// PruneOnFound trims the final embedding once it is valid.
	PruneOnFound bool
}

// Search runs the generational mutate, select, prune and commit loop for a
// single problem. A Search is not safe for concurrent use; run independent
// searches for parallelism.
type Search struct {
	cfg SearchConfig
	rng *rand.Rand
}

func NewSearch(cfg SearchConfig) (*Search, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if cfg.Params == nil {
		return nil, fmt.Errorf("params schedule is required")
	}
	if cfg.MaxGenerations < 0 {
		return nil, fmt.Errorf("max generations must be >= 0")
	}
	if cfg.Selector == nil {
		cfg.Selector = MaxImprovementSelector{}
	}
	if cfg.Pruner == nil {
		cfg.Pruner = ProbabilisticPruner{Probability: DefaultPruneProbability}
	}
	if p, ok := cfg.Pruner.(ProbabilisticPruner); ok {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	return &Search{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Run searches for a valid embedding of problem. Found, Exhausted and
// Aborted are all normal results; an error is returned only for invalid
// parameters, a failed initialisation or a cancelled context.
func (s *Search) Run(ctx context.Context, problem *embedding.Problem) (Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	baseline, err := s.cfg.Engine.InitializeEmbedding(problem)
	if err != nil {
		return nil, fmt.Errorf("initialize embedding: %w", err)
	}
	if s.cfg.Engine.IsValidEmbedding(baseline) {
		return s.finish(s.found(0, baseline)), nil
	}

	for gen := 0; gen < s.cfg.MaxGenerations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		params := s.cfg.Params.Params(gen)
		if err := params.Validate(); err != nil {
			return nil, fmt.Errorf("generation %d params: %w", gen, err)
		}

		s.cfg.Observer.GenerationStarted(gen, baseline)
		pop, err := s.buildPopulation(gen, baseline, params)
		if err != nil {
			if errors.Is(err, ErrPopulationFailure) {
				return s.finish(Aborted{Generation: gen, Reason: err.Error()}), nil
			}
			return nil, err
		}

		best, idx, err := s.cfg.Selector.Select(s.cfg.Engine, pop.Baseline, pop.Candidates)
		if err != nil {
			return nil, fmt.Errorf("generation %d select: %w", gen, err)
		}
		next, pruned := s.cfg.Pruner.Prune(s.rng, s.cfg.Engine, best.Embedding)
		baseline = next
		s.cfg.Observer.Committed(gen, Commit{
			Candidates:   len(pop.Candidates),
			SlotFailures: pop.SlotFailures,
			RescueFired:  pop.RescueFired,
			Best:         best,
			BestIndex:    idx,
			Pruned:       pruned,
			Baseline:     baseline,
		})

		if s.cfg.Engine.IsValidEmbedding(baseline) {
			return s.finish(s.found(gen+1, baseline)), nil
		}
	}
	return s.finish(Exhausted{Generations: s.cfg.MaxGenerations}), nil
}

func (s *Search) found(generations int, e *embedding.Embedding) Found {
	if s.cfg.PruneOnFound {
		if trimmed := s.cfg.Engine.RemoveRedundantSupernodeNodes(e); s.cfg.Engine.IsValidEmbedding(trimmed) {
			e = trimmed
		}
	}
	return Found{GenerationsUsed: generations, Embedding: e}
}

func (s *Search) finish(result Result) Result {
	s.cfg.Observer.Finished(result)
	return result
}

// Run is the single-call entry point: default selector, default pruning and
// a seed of zero.
func Run(ctx context.Context, engine Engine, problem *embedding.Problem, params EvolutionParams, maxGenerations int) (Result, error) {
	search, err := NewSearch(SearchConfig{
		Engine:         engine,
		Params:         ConstParams{Value: params},
		MaxGenerations: maxGenerations,
	})
	if err != nil {
		return nil, err
	}
	return search.Run(ctx, problem)
}
