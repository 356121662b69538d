package evo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"chimeraevo/internal/embedding"
)

// BatchConfig describes independent runs over one problem, one per seed.
type BatchConfig struct {
	// Search is the template for every run. Engine and Seed are replaced
	// per run, Observer by NewObserver when set.
	Search      SearchConfig
	NewEngine   func(seed int64) Engine
	NewObserver func(index int, seed int64) Observer
	Problem     *embedding.Problem
	Seeds       []int64
	Workers     int
}

type BatchOutcome struct {
	Index    int
	Seed     int64
	Result   Result
	Err      error
	Duration time.Duration
}

// RunBatch executes every seed as an isolated search with its own engine,
// random source and baseline. Per-run failures are recorded in the
// outcome; only cancellation of ctx stops the batch. Outcomes are indexed
// like Seeds but callers should not read meaning into completion order.
func RunBatch(ctx context.Context, cfg BatchConfig) ([]BatchOutcome, error) {
	if cfg.NewEngine == nil {
		return nil, fmt.Errorf("engine factory is required")
	}
	if cfg.Problem == nil {
		return nil, fmt.Errorf("problem is required")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	outcomes := make([]BatchOutcome, len(cfg.Seeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, seed := range cfg.Seeds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			runCfg := cfg.Search
			runCfg.Engine = cfg.NewEngine(seed)
			runCfg.Seed = seed
			if cfg.NewObserver != nil {
				runCfg.Observer = cfg.NewObserver(i, seed)
			}

			start := time.Now()
			out := BatchOutcome{Index: i, Seed: seed}
			search, err := NewSearch(runCfg)
			if err == nil {
				out.Result, err = search.Run(gctx, cfg.Problem)
			}
			out.Duration = time.Since(start)
			if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return err
			}
			out.Err = err
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}
