package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chimeraevo/internal/model"
)

func sampleRun(id, sweepID, created string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord:   CurrentVersion(),
		ID:                id,
		SweepID:           sweepID,
		Source:            "k8",
		Hardware:          model.HardwareSpec{M: 5, N: 5, T: 4},
		Seed:              11,
		PopulationSize:    7,
		MaxMutationTrials: 30,
		Fallback:          model.FallbackSpec{Kind: "threshold", After: 15},
		PruneProbability:  0.1,
		MaxGenerations:    300,
		Outcome:           model.OutcomeFound,
		GenerationsUsed:   12,
		HardwareNodesUsed: 20,
		Embedding: &model.EmbeddingRecord{
			VersionedRecord: CurrentVersion(),
			Mapping:         map[int][]int{0: {0, 4}, 1: {1}},
			ClaimedEdges:    [][2]int{{0, 1}},
		},
		CreatedAtUTC: created,
	}
}

// runStoreContract exercises behaviour every backend must share.
func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))

	_, ok, err := store.GetRun(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	runs := []model.RunRecord{
		sampleRun("run-b", "sweep-1", "2026-01-02T00:00:00Z"),
		sampleRun("run-a", "sweep-1", "2026-01-01T00:00:00Z"),
		sampleRun("run-c", "", "2026-01-03T00:00:00Z"),
	}
	for _, run := range runs {
		require.NoError(t, store.SaveRun(ctx, run))
	}

	got, ok, err := store.GetRun(ctx, "run-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, runs[1], got)

	all, err := store.ListRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"run-a", "run-b", "run-c"}, runIDs(all))

	inSweep, err := store.ListRuns(ctx, "sweep-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"run-a", "run-b"}, runIDs(inSweep))

	updated := runs[2]
	updated.Outcome = model.OutcomeExhausted
	updated.GenerationsUsed = 0
	updated.Embedding = nil
	require.NoError(t, store.SaveRun(ctx, updated))
	got, ok, err = store.GetRun(ctx, "run-c")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.OutcomeExhausted, got.Outcome)
	assert.Nil(t, got.Embedding)

	sweep := model.SweepRecord{
		VersionedRecord: CurrentVersion(),
		ID:              "sweep-1",
		Name:            "population",
		Parameter:       "population_size",
		Values:          []string{"1", "2"},
		RunsPerValue:    1,
		RunIDs:          []string{"run-a", "run-b"},
		CreatedAtUTC:    "2026-01-01T00:00:00Z",
	}
	require.NoError(t, store.SaveSweep(ctx, sweep))
	gotSweep, ok, err := store.GetSweep(ctx, "sweep-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sweep, gotSweep)

	sweeps, err := store.ListSweeps(ctx)
	require.NoError(t, err)
	require.Len(t, sweeps, 1)

	require.NoError(t, store.SaveRun(ctx, sampleRun("sub-late", "sweep-2", "2026-01-04T00:00:00.12Z")))
	require.NoError(t, store.SaveRun(ctx, sampleRun("sub-early", "sweep-2", "2026-01-04T00:00:00.1Z")))
	subsecond, err := store.ListRuns(ctx, "sweep-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub-early", "sub-late"}, runIDs(subsecond))

	diags := []model.GenerationDiagnostics{
		{Generation: 0, PopulationSize: 7, BestScore: 2, BestIndex: 1, HardwareNodesUsed: 9, MissingEdges: 20, DegreePercentages: []float64{0.5, 0.25}},
		{Generation: 1, PopulationSize: 3, SlotFailures: 1, RescueFired: true, BestIndex: 0, Pruned: true},
	}
	require.NoError(t, store.SaveDiagnostics(ctx, "run-a", diags))
	gotDiags, ok, err := store.GetDiagnostics(ctx, "run-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, diags, gotDiags)

	_, ok, err = store.GetDiagnostics(ctx, "run-b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func runIDs(runs []model.RunRecord) []string {
	out := make([]string, len(runs))
	for i, run := range runs {
		out[i] = run.ID
	}
	return out
}
