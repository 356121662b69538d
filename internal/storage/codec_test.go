package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chimeraevo/internal/model"
)

func TestRunCodecRoundTrip(t *testing.T) {
	run := sampleRun("run-1", "sweep-1", "2026-01-01T00:00:00Z")
	data, err := EncodeRun(run)
	require.NoError(t, err)

	decoded, err := DecodeRun(data)
	require.NoError(t, err)
	assert.Equal(t, run, decoded)
}

func TestRunCodecRejectsVersionMismatch(t *testing.T) {
	run := sampleRun("run-1", "", "2026-01-01T00:00:00Z")
	run.SchemaVersion = CurrentSchemaVersion + 1
	data, err := EncodeRun(run)
	require.NoError(t, err)
	_, err = DecodeRun(data)
	require.ErrorIs(t, err, ErrVersionMismatch)

	run = sampleRun("run-1", "", "2026-01-01T00:00:00Z")
	run.Embedding.CodecVersion = 0
	data, err = EncodeRun(run)
	require.NoError(t, err)
	_, err = DecodeRun(data)
	require.ErrorIs(t, err, ErrVersionMismatch)
}

func TestSweepCodecRejectsVersionMismatch(t *testing.T) {
	data, err := EncodeSweep(model.SweepRecord{ID: "s"})
	require.NoError(t, err)
	_, err = DecodeSweep(data)
	require.ErrorIs(t, err, ErrVersionMismatch)
}

func TestDiagnosticsCodecRoundTrip(t *testing.T) {
	in := []model.GenerationDiagnostics{{Generation: 3, BestScore: 1, DegreePercentages: []float64{1, 0.5}}}
	data, err := EncodeGenerationDiagnostics(in)
	require.NoError(t, err)
	out, err := DecodeGenerationDiagnostics(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSortRunsOrdersByTimeNotText(t *testing.T) {
	runs := []model.RunRecord{
		sampleRun("b", "", "2026-01-01T00:00:00.12Z"),
		sampleRun("a", "", "2026-01-01T00:00:00.1Z"),
		sampleRun("c", "", "2026-01-01T00:00:00Z"),
	}
	sortRuns(runs)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "a", runs[1].ID)
	assert.Equal(t, "b", runs[2].ID)
}

func TestSortSweepsOrdersByTimeNotText(t *testing.T) {
	sweeps := []model.SweepRecord{
		{ID: "b", CreatedAtUTC: "2026-01-01T00:00:00.12Z"},
		{ID: "a", CreatedAtUTC: "2026-01-01T00:00:00.1Z"},
	}
	sortSweeps(sweeps)
	assert.Equal(t, "a", sweeps[0].ID)
	assert.Equal(t, "b", sweeps[1].ID)
}
