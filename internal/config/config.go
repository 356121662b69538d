package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"chimeraevo/internal/evo"
	"chimeraevo/internal/model"
)

const (
	FallbackThreshold   = "threshold"
	FallbackProbability = "probability"
	FallbackNever       = "never"
)

type HardwareConfig struct {
	M int `yaml:"m"`
	N int `yaml:"n"`
	T int `yaml:"t"`
}

// RunConfig describes one batch of independent runs with the same settings.
type RunConfig struct {
	Source            string         `yaml:"source"`
	Hardware          HardwareConfig `yaml:"hardware"`
	PopulationSize    int            `yaml:"population_size"`
	MaxMutationTrials int            `yaml:"max_mutation_trials"`
	// Fallback is a kind name ("never"), a bare probability, or a mapping
	// such as {kind: threshold, after: 15}.
	Fallback         any      `yaml:"fallback"`
	PruneProbability *float64 `yaml:"prune_probability"`
	PruneOnFound     bool     `yaml:"prune_on_found"`
	MaxGenerations   *int     `yaml:"max_generations"`
	Seed             int64    `yaml:"seed"`
	Runs             int      `yaml:"runs"`
	Workers          int      `yaml:"workers"`
}

// SweepConfig varies one parameter of Base across Values.
type SweepConfig struct {
	Name         string    `yaml:"name"`
	Parameter    string    `yaml:"parameter"`
	Values       []float64 `yaml:"values"`
	Linspace     *Linspace `yaml:"linspace"`
	IntRange     *IntRange `yaml:"range"`
	RunsPerValue int       `yaml:"runs_per_value"`
	Base         RunConfig `yaml:"base"`
}

type Linspace struct {
	Start float64 `yaml:"start"`
	Stop  float64 `yaml:"stop"`
	Num   int     `yaml:"num"`
}

type IntRange struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

func DefaultRunConfig() RunConfig {
	prune := evo.DefaultPruneProbability
	gens := evo.DefaultMaxGenerations
	return RunConfig{
		Source:            "k8",
		Hardware:          HardwareConfig{M: 5, N: 5, T: 4},
		PopulationSize:    evo.DefaultPopulationSize,
		MaxMutationTrials: evo.DefaultMaxMutationTrials,
		PruneProbability:  &prune,
		MaxGenerations:    &gens,
		Runs:              1,
		Workers:           1,
	}
}

// ApplyDefaults fills unset fields from DefaultRunConfig.
func (c RunConfig) ApplyDefaults() RunConfig {
	d := DefaultRunConfig()
	if c.Source == "" {
		c.Source = d.Source
	}
	if c.Hardware.M == 0 {
		c.Hardware.M = d.Hardware.M
	}
	if c.Hardware.N == 0 {
		c.Hardware.N = d.Hardware.N
	}
	if c.Hardware.T == 0 {
		c.Hardware.T = d.Hardware.T
	}
	if c.PopulationSize == 0 {
		c.PopulationSize = d.PopulationSize
	}
	if c.MaxMutationTrials == 0 {
		c.MaxMutationTrials = d.MaxMutationTrials
	}
	if c.PruneProbability == nil {
		c.PruneProbability = d.PruneProbability
	}
	if c.MaxGenerations == nil {
		c.MaxGenerations = d.MaxGenerations
	}
	if c.Runs == 0 {
		c.Runs = d.Runs
	}
	if c.Workers == 0 {
		c.Workers = d.Workers
	}
	return c
}

func LoadRun(path string) (RunConfig, error) {
	var cfg RunConfig
	if err := decodeFile(path, &cfg); err != nil {
		return RunConfig{}, err
	}
	return cfg.ApplyDefaults(), nil
}

func LoadSweep(path string) (SweepConfig, error) {
	var cfg SweepConfig
	if err := decodeFile(path, &cfg); err != nil {
		return SweepConfig{}, err
	}
	cfg.Base = cfg.Base.ApplyDefaults()
	if cfg.RunsPerValue == 0 {
		cfg.RunsPerValue = 1
	}
	return cfg, nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// FallbackSpec normalises the Fallback field.
func (c RunConfig) FallbackSpec() (model.FallbackSpec, error) {
	return ParseFallback(c.Fallback)
}

// ParseFallback accepts nil (default policy), a kind name, a bare number
// (probability) or a mapping decoded with mapstructure.
func ParseFallback(raw any) (model.FallbackSpec, error) {
	var spec model.FallbackSpec
	switch v := raw.(type) {
	case nil:
		return spec, nil
	case string:
		spec.Kind = strings.ToLower(strings.TrimSpace(v))
	case int:
		spec = model.FallbackSpec{Kind: FallbackProbability, Probability: float64(v)}
	case float64:
		spec = model.FallbackSpec{Kind: FallbackProbability, Probability: v}
	case map[string]any, map[any]any:
		if err := mapstructure.Decode(v, &spec); err != nil {
			return spec, fmt.Errorf("decode fallback: %w", err)
		}
		spec.Kind = strings.ToLower(strings.TrimSpace(spec.Kind))
	default:
		return spec, fmt.Errorf("invalid fallback definition type: %T", raw)
	}
	if _, err := FallbackPolicy(spec); err != nil {
		return model.FallbackSpec{}, err
	}
	return spec, nil
}

// FallbackPolicy builds the evo policy for spec. An empty kind yields nil,
// which the search reads as the default half-budget threshold.
func FallbackPolicy(spec model.FallbackSpec) (evo.FallbackPolicy, error) {
	var policy evo.FallbackPolicy
	switch spec.Kind {
	case "":
		return nil, nil
	case FallbackThreshold:
		policy = evo.TrialThresholdFallback{After: spec.After}
	case FallbackProbability:
		policy = evo.ProbabilityFallback{Probability: spec.Probability}
	case FallbackNever:
		policy = evo.NeverFallback{}
	default:
		return nil, fmt.Errorf("unsupported fallback kind: %q", spec.Kind)
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("fallback %s: %w", spec.Kind, err)
	}
	return policy, nil
}

// Points resolves the sweep values: explicit values, then linspace, then
// an inclusive integer range.
func (s SweepConfig) Points() ([]float64, error) {
	switch {
	case len(s.Values) > 0:
		return append([]float64(nil), s.Values...), nil
	case s.Linspace != nil:
		return LinspaceValues(s.Linspace.Start, s.Linspace.Stop, s.Linspace.Num)
	case s.IntRange != nil:
		if s.IntRange.To < s.IntRange.From {
			return nil, fmt.Errorf("range end %d before start %d", s.IntRange.To, s.IntRange.From)
		}
		out := make([]float64, 0, s.IntRange.To-s.IntRange.From+1)
		for v := s.IntRange.From; v <= s.IntRange.To; v++ {
			out = append(out, float64(v))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("sweep %q has no values", s.Name)
	}
}

// LinspaceValues returns num evenly spaced values over [start, stop].
func LinspaceValues(start, stop float64, num int) ([]float64, error) {
	if num <= 0 {
		return nil, fmt.Errorf("linspace count must be > 0")
	}
	if num == 1 {
		return []float64{start}, nil
	}
	step := (stop - start) / float64(num-1)
	out := make([]float64, num)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[num-1] = stop
	return out, nil
}
