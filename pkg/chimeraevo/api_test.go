package chimeraevo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chimeraevo/internal/config"
	"chimeraevo/internal/metrics"
	"chimeraevo/internal/model"
	"chimeraevo/internal/stats"
	"chimeraevo/internal/storage"
)

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()
	base := t.TempDir()
	client, err := New(Options{
		StoreKind:    storage.KindMemory,
		ArtifactsDir: filepath.Join(base, "artifacts"),
		ExportsDir:   filepath.Join(base, "exports"),
		Metrics:      metrics.NewCollector(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, base
}

func smallRun(runs int) config.RunConfig {
	gens := 40
	return config.RunConfig{
		Source:         "c4",
		Hardware:       config.HardwareConfig{M: 2, N: 2, T: 4},
		MaxGenerations: &gens,
		Seed:           11,
		Runs:           runs,
		Workers:        2,
	}
}

func TestClientRunRunsDiagnosticsAndExport(t *testing.T) {
	client, base := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, smallRun(3))
	require.NoError(t, err)
	require.Len(t, summary.Runs, 3)
	require.Len(t, summary.Generations, 3)
	assert.Equal(t, 3, summary.Summary.Runs)

	for i, run := range summary.Runs {
		assert.NotEmpty(t, run.RunID)
		assert.Equal(t, int64(11+i), run.Seed)
		assert.Contains(t, []string{model.OutcomeFound, model.OutcomeExhausted, model.OutcomeAborted}, run.Outcome)
		if run.Outcome == model.OutcomeFound {
			assert.Equal(t, run.GenerationsUsed, summary.Generations[i])
			assert.Positive(t, run.HardwareNodesUsed)
		} else {
			assert.Equal(t, -1, summary.Generations[i])
		}
		assert.FileExists(t, filepath.Join(run.ArtifactsDir, "run.json"))
	}

	items, err := client.Runs(ctx, RunsRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "c4", items[0].Source)
	assert.Equal(t, model.HardwareSpec{M: 2, N: 2, T: 4}, items[0].Hardware)
	assert.Equal(t, 7, items[0].PopulationSize)

	latest, err := client.Diagnostics(ctx, DiagnosticsRequest{Latest: true})
	require.NoError(t, err)
	byID, err := client.Diagnostics(ctx, DiagnosticsRequest{RunID: items[0].RunID})
	require.NoError(t, err)
	assert.Equal(t, latest, byID)

	_, err = client.Diagnostics(ctx, DiagnosticsRequest{RunID: "missing"})
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = client.Diagnostics(ctx, DiagnosticsRequest{RunID: "x", Latest: true})
	require.Error(t, err)

	exported, err := client.Export(ctx, ExportRequest{RunID: summary.Runs[0].RunID})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "exports", summary.Runs[0].RunID), exported.Directory)
	assert.FileExists(t, filepath.Join(exported.Directory, "dp.csv"))

	latestExport, err := client.Export(ctx, ExportRequest{Latest: true, OutDir: filepath.Join(base, "out")})
	require.NoError(t, err)
	assert.NotEmpty(t, latestExport.RunID)

	_, err = client.Export(ctx, ExportRequest{})
	require.Error(t, err)
}

func TestClientRunStoresFoundEmbedding(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	// A single-edge source is valid as soon as both chains are adjacent.
	cfg := smallRun(1)
	cfg.Source = "k2"
	summary, err := client.Run(ctx, cfg)
	require.NoError(t, err)
	require.Len(t, summary.Runs, 1)
	require.Equal(t, model.OutcomeFound, summary.Runs[0].Outcome)

	run, ok, err := client.store.GetRun(ctx, summary.Runs[0].RunID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, run.Embedding)
	assert.Len(t, run.Embedding.Mapping, 2)
	assert.Len(t, run.Embedding.ClaimedEdges, 1)
	assert.Equal(t, storage.CurrentVersion(), run.Embedding.VersionedRecord)
}

func TestClientRunRejectsBadConfig(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	cfg := smallRun(1)
	cfg.Source = "q3"
	_, err := client.Run(ctx, cfg)
	require.Error(t, err)

	cfg = smallRun(1)
	cfg.Fallback = map[string]any{"kind": "probability", "probability": 3.0}
	_, err = client.Run(ctx, cfg)
	require.Error(t, err)

	cfg = smallRun(1)
	cfg.Source = "k40"
	_, err = client.Run(ctx, cfg)
	require.Error(t, err)
}

func TestClientSweepWritesGenerationFiles(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Sweep(ctx, config.SweepConfig{
		Name:         "extend_to_free",
		Parameter:    ParamFallbackProbability,
		Linspace:     &config.Linspace{Start: 0, Stop: 1, Num: 3},
		RunsPerValue: 2,
		Base:         smallRun(1),
	})
	require.NoError(t, err)
	require.NotEmpty(t, summary.SweepID)
	require.Len(t, summary.Points, 3)
	assert.Equal(t, []string{"0", "0.5", "1"}, []string{summary.Points[0].Value, summary.Points[1].Value, summary.Points[2].Value})

	for _, point := range summary.Points {
		assert.Len(t, point.Generations, 2)
		f, err := os.Open(point.File)
		require.NoError(t, err)
		values, err := stats.ReadGenerationsFile(f)
		require.NoError(t, f.Close())
		require.NoError(t, err)
		assert.Equal(t, point.Generations, values)
		assert.FileExists(t, point.ConvergenceFile)
		for _, cp := range point.Convergence {
			assert.LessOrEqual(t, cp.Runs, 2)
		}
	}
	assert.Equal(t, "how_many_generations_2x2_2_40_max_gen_c4_extend_to_free_0.5.txt", filepath.Base(summary.Points[1].File))

	sweep, ok, err := client.store.GetSweep(ctx, summary.SweepID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, sweep.RunIDs, 6)
	assert.Equal(t, []string{"0", "0.5", "1"}, sweep.Values)

	runs, err := client.Runs(ctx, RunsRequest{SweepID: summary.SweepID, Limit: 100})
	require.NoError(t, err)
	assert.Len(t, runs, 6)
}

func TestClientSweepPopulationRange(t *testing.T) {
	client, _ := newTestClient(t)

	summary, err := client.Sweep(context.Background(), config.SweepConfig{
		Name:      "popsize",
		Parameter: ParamPopulationSize,
		IntRange:  &config.IntRange{From: 1, To: 2},
		Base:      smallRun(1),
	})
	require.NoError(t, err)
	require.Len(t, summary.Points, 2)
	assert.Equal(t, "1", summary.Points[0].Value)
	assert.Equal(t, "2", summary.Points[1].Value)
	for _, point := range summary.Points {
		binned := 0
		for _, bin := range point.Histogram {
			binned += bin.Count
		}
		assert.Equal(t, point.Summary.Found, binned)
	}
}

func TestClientSweepValidation(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	_, err := client.Sweep(ctx, config.SweepConfig{Parameter: ParamPopulationSize, Values: []float64{1}})
	require.Error(t, err)

	_, err = client.Sweep(ctx, config.SweepConfig{Name: "bad", Parameter: ParamPopulationSize, Values: []float64{1.5}})
	require.Error(t, err)

	_, err = client.Sweep(ctx, config.SweepConfig{Name: "bad", Parameter: "mutation_rate", Values: []float64{1}})
	require.Error(t, err)

	_, err = client.Sweep(ctx, config.SweepConfig{Name: "bad", Parameter: ParamPruneProbability, Values: []float64{2}})
	require.Error(t, err)
}

func TestClientRunCancelled(t *testing.T) {
	client, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Run(ctx, smallRun(2))
	require.ErrorIs(t, err, context.Canceled)
}
