package chimeraevo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"chimeraevo/internal/config"
	"chimeraevo/internal/embedding"
	"chimeraevo/internal/engine"
	"chimeraevo/internal/evo"
	"chimeraevo/internal/graph"
	"chimeraevo/internal/logging"
	"chimeraevo/internal/metrics"
	"chimeraevo/internal/model"
	"chimeraevo/internal/stats"
	"chimeraevo/internal/storage"
)

const (
	defaultArtifactsDir = "artifacts"
	defaultExportsDir   = "exports"
	defaultDBPath       = "chimeraevo.db"
	histogramBinWidth   = 10
)

const (
	ParamPopulationSize      = "population_size"
	ParamMaxMutationTrials   = "max_mutation_trials"
	ParamFallbackProbability = "fallback_probability"
	ParamPruneProbability    = "prune_probability"
)

type Options struct {
	StoreKind     string
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	ArtifactsDir  string
	ExportsDir    string
	// Logger defaults to a no-op logger.
	Logger *slog.Logger
	// Metrics is optional; every run reports to it when set.
	Metrics *metrics.Collector
}

type Client struct {
	store   storage.Store
	logger  *slog.Logger
	metrics *metrics.Collector

	artifactsDir string
	exportsDir   string

	initMu      sync.Mutex
	initialized bool
}

type RunResult struct {
	RunID             string
	Seed              int64
	Outcome           string
	GenerationsUsed   int
	AbortReason       string
	HardwareNodesUsed int
	ArtifactsDir      string
	Duration          time.Duration
}

type RunSummary struct {
	Runs []RunResult
	// Generations holds one value per run, -1 for runs that did not find an
	// embedding.
	Generations []int
	Summary     stats.GenerationsSummary
	// Convergence is the mean missing-edge count per generation across runs.
	Convergence []stats.CurvePoint
}

type SweepPoint struct {
	Value           string
	Generations     []int
	Summary         stats.GenerationsSummary
	Convergence     []stats.CurvePoint
	Histogram       []stats.HistogramBin
	File            string
	ConvergenceFile string
}

type SweepSummary struct {
	SweepID string
	Points  []SweepPoint
}

type RunsRequest struct {
	Limit   int
	SweepID string
}

type RunItem struct {
	RunID             string
	SweepID           string
	CreatedAtUTC      string
	Source            string
	Hardware          model.HardwareSpec
	Seed              int64
	PopulationSize    int
	Outcome           string
	GenerationsUsed   int
	HardwareNodesUsed int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	store, err := storage.NewStore(storage.Options{
		Kind:          opts.StoreKind,
		SQLitePath:    dbPath,
		RedisAddr:     opts.RedisAddr,
		RedisPassword: opts.RedisPassword,
		RedisDB:       opts.RedisDB,
		RedisPrefix:   opts.RedisPrefix,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		logger:       logger,
		metrics:      opts.Metrics,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// Run executes cfg.Runs independent searches with seeds cfg.Seed,
// cfg.Seed+1, ... and persists every run.
func (c *Client) Run(ctx context.Context, cfg config.RunConfig) (RunSummary, error) {
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}
	return c.runBatch(ctx, cfg.ApplyDefaults(), "")
}

// Sweep runs the base configuration once per sweep value, varying a single
// parameter, and writes one generations file per value.
func (c *Client) Sweep(ctx context.Context, cfg config.SweepConfig) (SweepSummary, error) {
	if cfg.Name == "" {
		return SweepSummary{}, errors.New("sweep name is required")
	}
	points, err := cfg.Points()
	if err != nil {
		return SweepSummary{}, err
	}
	runsPerValue := cfg.RunsPerValue
	if runsPerValue <= 0 {
		runsPerValue = 1
	}
	base := cfg.Base.ApplyDefaults()
	base.Runs = runsPerValue

	// Reject bad values before spending time on any run.
	runCfgs := make([]config.RunConfig, len(points))
	for i, v := range points {
		runCfgs[i], err = applySweepValue(base, cfg.Parameter, v)
		if err != nil {
			return SweepSummary{}, err
		}
	}
	if err := c.Init(ctx); err != nil {
		return SweepSummary{}, err
	}

	sweep := model.SweepRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              uuid.NewString(),
		Name:            cfg.Name,
		Parameter:       cfg.Parameter,
		RunsPerValue:    runsPerValue,
		CreatedAtUTC:    model.FormatTimestamp(time.Now()),
	}
	sweepDir := filepath.Join(c.artifactsDir, "sweeps", sweep.ID)
	if err := os.MkdirAll(sweepDir, 0o755); err != nil {
		return SweepSummary{}, err
	}

	logger := c.logger.With("sweep_id", sweep.ID, "sweep", cfg.Name, "parameter", cfg.Parameter)
	out := SweepSummary{SweepID: sweep.ID, Points: make([]SweepPoint, 0, len(points))}
	for i, v := range points {
		value := formatSweepValue(v)
		logger.Info("sweep value started", "value", value, "runs", runsPerValue)

		summary, err := c.runBatch(ctx, runCfgs[i], sweep.ID)
		if err != nil {
			return out, fmt.Errorf("sweep value %s: %w", value, err)
		}
		for _, run := range summary.Runs {
			sweep.RunIDs = append(sweep.RunIDs, run.RunID)
		}
		sweep.Values = append(sweep.Values, value)

		name := fmt.Sprintf("%s_%s_%s", base.Source, cfg.Name, value)
		file := filepath.Join(sweepDir, stats.GenerationsFileName(base.Hardware.M, base.Hardware.N, runsPerValue, *base.MaxGenerations, name))
		if err := writeGenerations(file, summary.Generations); err != nil {
			return out, err
		}
		histogram, err := stats.GenerationsHistogram(summary.Generations, histogramBinWidth)
		if err != nil {
			return out, err
		}
		convergenceFile := filepath.Join(sweepDir, "convergence_"+name+".json")
		if err := stats.WriteConvergenceCurve(convergenceFile, summary.Convergence); err != nil {
			return out, err
		}
		out.Points = append(out.Points, SweepPoint{
			Value:           value,
			Generations:     summary.Generations,
			Summary:         summary.Summary,
			Convergence:     summary.Convergence,
			Histogram:       histogram,
			File:            file,
			ConvergenceFile: convergenceFile,
		})
		if err := c.store.SaveSweep(ctx, sweep); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx, req.SweepID)
	if err != nil {
		return nil, err
	}

	out := make([]RunItem, 0, min(len(runs), req.Limit))
	for i := len(runs) - 1; i >= 0 && len(out) < req.Limit; i-- {
		r := runs[i]
		out = append(out, RunItem{
			RunID:             r.ID,
			SweepID:           r.SweepID,
			CreatedAtUTC:      r.CreatedAtUTC,
			Source:            r.Source,
			Hardware:          r.Hardware,
			Seed:              r.Seed,
			PopulationSize:    r.PopulationSize,
			Outcome:           r.Outcome,
			GenerationsUsed:   r.GenerationsUsed,
			HardwareNodesUsed: r.HardwareNodesUsed,
		})
	}
	return out, nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	if req.RunID != "" && req.Latest {
		return nil, errors.New("use either run id or latest")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	runID := req.RunID
	if req.Latest {
		runs, err := c.store.ListRuns(ctx, "")
		if err != nil {
			return nil, err
		}
		if len(runs) == 0 {
			return nil, errors.New("no runs available")
		}
		runID = runs[len(runs)-1].ID
	}
	if runID == "" {
		return nil, errors.New("diagnostics requires run id or latest")
	}

	diagnostics, ok, err := c.store.GetDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id %s: %w", runID, storage.ErrNotFound)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	return diagnostics, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = entries[0].RunID
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) runBatch(ctx context.Context, cfg config.RunConfig, sweepID string) (RunSummary, error) {
	problem, err := buildProblem(cfg)
	if err != nil {
		return RunSummary{}, err
	}
	fallback, err := cfg.FallbackSpec()
	if err != nil {
		return RunSummary{}, err
	}
	policy, err := config.FallbackPolicy(fallback)
	if err != nil {
		return RunSummary{}, err
	}
	params := evo.EvolutionParams{
		PopulationSize:    cfg.PopulationSize,
		MaxMutationTrials: cfg.MaxMutationTrials,
		Fallback:          policy,
	}
	if err := params.Validate(); err != nil {
		return RunSummary{}, err
	}
	if cfg.Runs <= 0 {
		return RunSummary{}, errors.New("runs must be > 0")
	}

	seeds := make([]int64, cfg.Runs)
	ids := make([]string, cfg.Runs)
	for i := range seeds {
		seeds[i] = cfg.Seed + int64(i)
		ids[i] = uuid.NewString()
	}
	recorders := make([]*evo.DiagnosticsRecorder, cfg.Runs)

	outcomes, err := evo.RunBatch(ctx, evo.BatchConfig{
		Search: evo.SearchConfig{
			Params:         evo.ConstParams{Value: params},
			Pruner:         evo.ProbabilisticPruner{Probability: *cfg.PruneProbability},
			MaxGenerations: *cfg.MaxGenerations,
			PruneOnFound:   cfg.PruneOnFound,
		},
		NewEngine: func(seed int64) evo.Engine {
			return engine.NewSeededChimera(seed)
		},
		NewObserver: func(index int, seed int64) evo.Observer {
			recorders[index] = evo.NewDiagnosticsRecorder()
			observers := evo.Observers{
				recorders[index],
				evo.NewLogObserver(c.logger.With("run_id", ids[index], "seed", seed)),
			}
			if c.metrics != nil {
				observers = append(observers, c.metrics.Observer())
			}
			return observers
		},
		Problem: problem,
		Seeds:   seeds,
		Workers: cfg.Workers,
	})
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{
		Runs:        make([]RunResult, 0, len(outcomes)),
		Generations: make([]int, 0, len(outcomes)),
	}
	series := make([][]float64, 0, len(outcomes))
	for _, out := range outcomes {
		if out.Err != nil {
			return summary, fmt.Errorf("run with seed %d: %w", out.Seed, out.Err)
		}
		var diagnostics []model.GenerationDiagnostics
		if recorders[out.Index] != nil {
			diagnostics = recorders[out.Index].Diagnostics()
		}
		run := runRecord(ids[out.Index], sweepID, cfg, fallback, out, diagnostics)

		if err := c.store.SaveRun(ctx, run); err != nil {
			return summary, err
		}
		if err := c.store.SaveDiagnostics(ctx, run.ID, diagnostics); err != nil {
			return summary, err
		}
		runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{Run: run, Diagnostics: diagnostics})
		if err != nil {
			return summary, err
		}
		if err := stats.AppendRunIndex(c.artifactsDir, stats.IndexEntryFor(run)); err != nil {
			return summary, err
		}

		summary.Runs = append(summary.Runs, RunResult{
			RunID:             run.ID,
			Seed:              run.Seed,
			Outcome:           run.Outcome,
			GenerationsUsed:   run.GenerationsUsed,
			AbortReason:       run.AbortReason,
			HardwareNodesUsed: run.HardwareNodesUsed,
			ArtifactsDir:      runDir,
			Duration:          out.Duration,
		})
		summary.Generations = append(summary.Generations, evo.GenerationsOrFailure(out.Result))
		series = append(series, stats.MissingEdgesSeries(diagnostics))
	}
	summary.Summary = stats.SummarizeGenerations(summary.Generations)
	summary.Convergence = stats.BuildConvergenceCurve(series)
	return summary, nil
}

func runRecord(id, sweepID string, cfg config.RunConfig, fallback model.FallbackSpec, out evo.BatchOutcome, diagnostics []model.GenerationDiagnostics) model.RunRecord {
	run := model.RunRecord{
		VersionedRecord:   storage.CurrentVersion(),
		ID:                id,
		SweepID:           sweepID,
		Source:            cfg.Source,
		Hardware:          model.HardwareSpec{M: cfg.Hardware.M, N: cfg.Hardware.N, T: cfg.Hardware.T},
		Seed:              out.Seed,
		PopulationSize:    cfg.PopulationSize,
		MaxMutationTrials: cfg.MaxMutationTrials,
		Fallback:          fallback,
		PruneProbability:  *cfg.PruneProbability,
		MaxGenerations:    *cfg.MaxGenerations,
		Outcome:           string(out.Result.Outcome()),
		GenerationsUsed:   evo.GenerationsOrFailure(out.Result),
		DurationMS:        out.Duration.Milliseconds(),
		CreatedAtUTC:      model.FormatTimestamp(time.Now()),
	}
	if len(diagnostics) > 0 {
		run.HardwareNodesUsed = diagnostics[len(diagnostics)-1].HardwareNodesUsed
	}
	switch result := out.Result.(type) {
	case evo.Found:
		rec := embedding.ToRecord(result.Embedding)
		rec.VersionedRecord = storage.CurrentVersion()
		run.Embedding = &rec
		run.HardwareNodesUsed = result.Embedding.NodeCount()
	case evo.Exhausted:
		run.GenerationsUsed = result.Generations
	case evo.Aborted:
		run.GenerationsUsed = result.Generation
		run.AbortReason = result.Reason
	}
	return run
}

func buildProblem(cfg config.RunConfig) (*embedding.Problem, error) {
	source, err := graph.ParseSource(cfg.Source)
	if err != nil {
		return nil, err
	}
	hardware, err := graph.NewChimera(cfg.Hardware.M, cfg.Hardware.N, cfg.Hardware.T)
	if err != nil {
		return nil, err
	}
	return embedding.NewProblem(source, hardware)
}

func applySweepValue(base config.RunConfig, parameter string, v float64) (config.RunConfig, error) {
	cfg := base
	switch parameter {
	case ParamPopulationSize, ParamMaxMutationTrials:
		if v != math.Trunc(v) || v < 1 {
			return cfg, fmt.Errorf("%s must be a positive integer, got %v", parameter, v)
		}
		if parameter == ParamPopulationSize {
			cfg.PopulationSize = int(v)
		} else {
			cfg.MaxMutationTrials = int(v)
		}
	case ParamFallbackProbability:
		if v < 0 || v > 1 {
			return cfg, fmt.Errorf("%s must be in [0,1], got %v", parameter, v)
		}
		cfg.Fallback = map[string]any{"kind": config.FallbackProbability, "probability": v}
	case ParamPruneProbability:
		if v < 0 || v > 1 {
			return cfg, fmt.Errorf("%s must be in [0,1], got %v", parameter, v)
		}
		p := v
		cfg.PruneProbability = &p
	default:
		return cfg, fmt.Errorf("unsupported sweep parameter: %q", parameter)
	}
	return cfg, nil
}

func formatSweepValue(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}

func writeGenerations(path string, values []int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := stats.WriteGenerationsFile(f, values); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
