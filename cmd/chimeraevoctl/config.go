package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"chimeraevo/internal/config"
)

// runFlags mirrors config.RunConfig; only flags the user set override the
// config file.
type runFlags struct {
	source           string
	m, n, t          int
	population       int
	trials           int
	generations      int
	pruneProbability float64
	pruneOnFound     bool
	fallback         string
	seed             int64
	runs             int
	workers          int
}

func addRunFlags(fs *pflag.FlagSet, f *runFlags) {
	d := config.DefaultRunConfig()
	fs.StringVar(&f.source, "source", d.Source, "source graph: k<n> or c<n>")
	fs.IntVar(&f.m, "m", d.Hardware.M, "chimera grid rows")
	fs.IntVar(&f.n, "n", d.Hardware.N, "chimera grid columns")
	fs.IntVar(&f.t, "t", d.Hardware.T, "chimera cell shore size")
	fs.IntVar(&f.population, "population", d.PopulationSize, "candidates per generation")
	fs.IntVar(&f.trials, "trials", d.MaxMutationTrials, "mutation trials per population slot")
	fs.IntVar(&f.generations, "generations", *d.MaxGenerations, "generation budget per run")
	fs.Float64Var(&f.pruneProbability, "prune-probability", *d.PruneProbability, "probability of pruning the selected candidate")
	fs.BoolVar(&f.pruneOnFound, "prune-on-found", false, "remove redundant chain nodes from the final embedding")
	fs.StringVar(&f.fallback, "fallback", "", "secondary mutation policy: never|threshold:<trial>|probability:<p>")
	fs.Int64Var(&f.seed, "seed", d.Seed, "seed of the first run; run i uses seed+i")
	fs.IntVar(&f.runs, "runs", d.Runs, "independent runs")
	fs.IntVar(&f.workers, "workers", d.Workers, "runs executed in parallel")
}

func applyRunFlags(fs *pflag.FlagSet, f runFlags, cfg config.RunConfig) (config.RunConfig, error) {
	set := func(name string) bool { return fs.Changed(name) }
	if set("source") {
		cfg.Source = f.source
	}
	if set("m") {
		cfg.Hardware.M = f.m
	}
	if set("n") {
		cfg.Hardware.N = f.n
	}
	if set("t") {
		cfg.Hardware.T = f.t
	}
	if set("population") {
		cfg.PopulationSize = f.population
	}
	if set("trials") {
		cfg.MaxMutationTrials = f.trials
	}
	if set("generations") {
		gens := f.generations
		cfg.MaxGenerations = &gens
	}
	if set("prune-probability") {
		p := f.pruneProbability
		cfg.PruneProbability = &p
	}
	if set("prune-on-found") {
		cfg.PruneOnFound = f.pruneOnFound
	}
	if set("fallback") {
		fallback, err := parseFallbackFlag(f.fallback)
		if err != nil {
			return cfg, err
		}
		cfg.Fallback = fallback
	}
	if set("seed") {
		cfg.Seed = f.seed
	}
	if set("runs") {
		cfg.Runs = f.runs
	}
	if set("workers") {
		cfg.Workers = f.workers
	}
	return cfg.ApplyDefaults(), nil
}

// parseFallbackFlag turns "kind[:value]" into the mapping form the config
// loader accepts.
func parseFallbackFlag(value string) (map[string]any, error) {
	kind, arg, hasArg := strings.Cut(strings.TrimSpace(value), ":")
	kind = strings.ToLower(kind)
	out := map[string]any{"kind": kind}
	switch kind {
	case config.FallbackNever:
		if hasArg {
			return nil, fmt.Errorf("fallback never takes no argument")
		}
	case config.FallbackThreshold:
		if !hasArg {
			return nil, fmt.Errorf("fallback threshold requires a trial index")
		}
		after, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("fallback threshold %q: %w", arg, err)
		}
		out["after"] = after
	case config.FallbackProbability:
		if !hasArg {
			return nil, fmt.Errorf("fallback probability requires a value")
		}
		p, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("fallback probability %q: %w", arg, err)
		}
		out["probability"] = p
	default:
		return nil, fmt.Errorf("unsupported fallback kind: %q", kind)
	}
	if _, err := config.ParseFallback(out); err != nil {
		return nil, err
	}
	return out, nil
}

// parseLinspace reads "start:stop:num".
func parseLinspace(value string) (*config.Linspace, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("linspace must be start:stop:num, got %q", value)
	}
	start, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, fmt.Errorf("linspace start: %w", err)
	}
	stop, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, fmt.Errorf("linspace stop: %w", err)
	}
	num, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil, fmt.Errorf("linspace num: %w", err)
	}
	return &config.Linspace{Start: start, Stop: stop, Num: num}, nil
}

// parseRange reads "from:to", both inclusive.
func parseRange(value string) (*config.IntRange, error) {
	from, to, ok := strings.Cut(value, ":")
	if !ok {
		return nil, fmt.Errorf("range must be from:to, got %q", value)
	}
	lo, err := strconv.Atoi(from)
	if err != nil {
		return nil, fmt.Errorf("range start: %w", err)
	}
	hi, err := strconv.Atoi(to)
	if err != nil {
		return nil, fmt.Errorf("range end: %w", err)
	}
	return &config.IntRange{From: lo, To: hi}, nil
}
