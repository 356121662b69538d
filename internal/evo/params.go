package evo

import (
	"fmt"
	"math/rand"
)

const (
	DefaultPopulationSize    = 7
	DefaultMaxMutationTrials = 30
	DefaultMaxGenerations    = 300
	DefaultPruneProbability  = 0.1
)

// EvolutionParams governs one generation: how many slots to fill, how many
// mutation attempts each slot may spend and when the secondary mutation
// joins in.
type EvolutionParams struct {
	PopulationSize    int
	MaxMutationTrials int
	Fallback          FallbackPolicy
}

func DefaultParams() EvolutionParams {
	return EvolutionParams{
		PopulationSize:    DefaultPopulationSize,
		MaxMutationTrials: DefaultMaxMutationTrials,
	}
}

func (p EvolutionParams) Validate() error {
	if p.PopulationSize <= 0 {
		return fmt.Errorf("population size must be > 0")
	}
	if p.MaxMutationTrials <= 0 {
		return fmt.Errorf("max mutation trials must be > 0")
	}
	if p.Fallback != nil {
		if err := p.Fallback.Validate(); err != nil {
			return fmt.Errorf("fallback policy %s: %w", p.Fallback.Name(), err)
		}
	}
	return nil
}

// EffectiveFallback returns the configured policy, defaulting to a threshold
// at half the trial budget.
func (p EvolutionParams) EffectiveFallback() FallbackPolicy {
	if p.Fallback == nil {
		return TrialThresholdFallback{After: p.MaxMutationTrials / 2}
	}
	return p.Fallback
}

// FallbackPolicy decides, per trial, whether the secondary mutation runs
// after a failed primary mutation.
type FallbackPolicy interface {
	Name() string
	Validate() error
	Activate(rng *rand.Rand, trial, maxTrials int) bool
}

// TrialThresholdFallback activates from trial index After onwards.
type TrialThresholdFallback struct {
	After int
}

func (TrialThresholdFallback) Name() string {
	return "threshold"
}

func (p TrialThresholdFallback) Validate() error {
	if p.After < 0 {
		return fmt.Errorf("threshold must be >= 0")
	}
	return nil
}

func (p TrialThresholdFallback) Activate(_ *rand.Rand, trial, _ int) bool {
	return trial >= p.After
}

// ProbabilityFallback activates independently on each trial.
type ProbabilityFallback struct {
	Probability float64
}

func (ProbabilityFallback) Name() string {
	return "probability"
}

func (p ProbabilityFallback) Validate() error {
	if p.Probability < 0 || p.Probability > 1 {
		return fmt.Errorf("probability must be in [0, 1]")
	}
	return nil
}

func (p ProbabilityFallback) Activate(rng *rand.Rand, _, _ int) bool {
	if p.Probability <= 0 {
		return false
	}
	return rng.Float64() < p.Probability
}

type NeverFallback struct{}

func (NeverFallback) Name() string {
	return "never"
}

func (NeverFallback) Validate() error {
	return nil
}

func (NeverFallback) Activate(_ *rand.Rand, _, _ int) bool {
	return false
}

// ParamsSchedule supplies the parameters for each generation. Parameters
// are read once per generation and stay fixed while it runs.
type ParamsSchedule interface {
	Params(generation int) EvolutionParams
}

type ConstParams struct {
	Value EvolutionParams
}

func (p ConstParams) Params(_ int) EvolutionParams {
	return p.Value
}

// ParamsFunc adapts a function to ParamsSchedule.
type ParamsFunc func(generation int) EvolutionParams

func (f ParamsFunc) Params(generation int) EvolutionParams {
	return f(generation)
}
