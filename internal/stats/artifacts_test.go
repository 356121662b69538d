package stats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chimeraevo/internal/model"
)

func sampleRun(id, created string) model.RunRecord {
	return model.RunRecord{
		ID:              id,
		Source:          "k8",
		Hardware:        model.HardwareSpec{M: 5, N: 5, T: 4},
		Seed:            3,
		PopulationSize:  7,
		Outcome:         model.OutcomeFound,
		GenerationsUsed: 4,
		CreatedAtUTC:    created,
	}
}

func TestWriteReadAndExportRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "exports")

	artifacts := RunArtifacts{
		Run: sampleRun("run-123", "2026-01-01T00:00:00Z"),
		Diagnostics: []model.GenerationDiagnostics{
			{Generation: 0, BestScore: 3, DegreePercentages: []float64{0.5, 1}},
			{Generation: 1, BestScore: 1, DegreePercentages: []float64{1, 1}},
		},
	}

	runDir, err := WriteRunArtifacts(baseDir, artifacts)
	require.NoError(t, err)
	for _, file := range artifactFiles {
		assert.FileExists(t, filepath.Join(runDir, file))
	}

	dp, err := os.ReadFile(filepath.Join(runDir, "dp.csv"))
	require.NoError(t, err)
	assert.Equal(t, "0,0.50,1.00\n1,1.00,1.00\n", string(dp))

	loaded, ok, err := ReadRunArtifacts(baseDir, "run-123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, artifacts, loaded)

	_, ok, err = ReadRunArtifacts(baseDir, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	exported, err := ExportRunArtifacts(baseDir, "run-123", outDir)
	require.NoError(t, err)
	for _, file := range artifactFiles {
		assert.FileExists(t, filepath.Join(exported, file))
	}
}

func TestWriteRunArtifactsRequiresID(t *testing.T) {
	_, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{})
	require.Error(t, err)
}

func TestRunIndexNewestFirstAndReplace(t *testing.T) {
	baseDir := t.TempDir()

	entries, err := ListRunIndex(baseDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, AppendRunIndex(baseDir, IndexEntryFor(sampleRun("a", "2026-01-01T00:00:00Z"))))
	require.NoError(t, AppendRunIndex(baseDir, IndexEntryFor(sampleRun("b", "2026-01-02T00:00:00Z"))))
	replaced := IndexEntryFor(sampleRun("a", "2026-01-01T00:00:00Z"))
	replaced.Outcome = model.OutcomeAborted
	require.NoError(t, AppendRunIndex(baseDir, replaced))

	entries, err = ListRunIndex(baseDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].RunID)
	assert.Equal(t, "a", entries[1].RunID)
	assert.Equal(t, model.OutcomeAborted, entries[1].Outcome)
	assert.Equal(t, "5x5x4", entries[0].Hardware)

	require.Error(t, AppendRunIndex(baseDir, RunIndexEntry{}))
}

func TestRunIndexOrdersSubsecondStampsByTime(t *testing.T) {
	baseDir := t.TempDir()
	require.NoError(t, AppendRunIndex(baseDir, IndexEntryFor(sampleRun("later", "2026-01-01T00:00:00.12Z"))))
	require.NoError(t, AppendRunIndex(baseDir, IndexEntryFor(sampleRun("earlier", "2026-01-01T00:00:00.1Z"))))

	entries, err := ListRunIndex(baseDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "later", entries[0].RunID)
	assert.Equal(t, "earlier", entries[1].RunID)
}
