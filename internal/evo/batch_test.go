package evo

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chimeraevo/internal/embedding"
	"chimeraevo/internal/engine"
	"chimeraevo/internal/graph"
)

func TestRunBatchIsolatesRuns(t *testing.T) {
	src, err := graph.Complete(4)
	require.NoError(t, err)
	hw, err := graph.NewChimera(2, 2, 4)
	require.NoError(t, err)
	problem, err := embedding.NewProblem(src, hw)
	require.NoError(t, err)

	var mu sync.Mutex
	recorders := map[int64]*DiagnosticsRecorder{}
	outcomes, err := RunBatch(context.Background(), BatchConfig{
		Search: SearchConfig{
			Params:         ConstParams{Value: DefaultParams()},
			MaxGenerations: 40,
		},
		NewEngine: func(seed int64) Engine {
			return engine.NewSeededChimera(seed)
		},
		NewObserver: func(_ int, seed int64) Observer {
			rec := NewDiagnosticsRecorder()
			mu.Lock()
			recorders[seed] = rec
			mu.Unlock()
			return rec
		},
		Problem: problem,
		Seeds:   []int64{1, 2, 3, 4, 5, 6},
		Workers: 3,
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 6)

	for i, out := range outcomes {
		assert.Equal(t, i, out.Index)
		assert.Equal(t, int64(i+1), out.Seed)
		require.NoError(t, out.Err)
		require.NotNil(t, out.Result)
		if found, ok := out.Result.(Found); ok {
			assert.True(t, found.Embedding.IsValid())
			assert.True(t, found.Embedding.ChainsDisjoint())
			assert.Len(t, recorders[out.Seed].Diagnostics(), found.GenerationsUsed)
		}
	}
}

func TestRunBatchSameSeedIsReproducible(t *testing.T) {
	src, err := graph.Complete(5)
	require.NoError(t, err)
	hw, err := graph.NewChimera(3, 3, 4)
	require.NoError(t, err)
	problem, err := embedding.NewProblem(src, hw)
	require.NoError(t, err)

	outcomes, err := RunBatch(context.Background(), BatchConfig{
		Search: SearchConfig{
			Params:         ConstParams{Value: DefaultParams()},
			MaxGenerations: 25,
		},
		NewEngine: func(seed int64) Engine { return engine.NewSeededChimera(seed) },
		Problem:   problem,
		Seeds:     []int64{9, 9},
		Workers:   2,
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, outcomes[0].Result.Outcome(), outcomes[1].Result.Outcome())
	assert.Equal(t, GenerationsOrFailure(outcomes[0].Result), GenerationsOrFailure(outcomes[1].Result))
}

func TestRunBatchRecordsPerRunErrors(t *testing.T) {
	eng := newScriptedEngine(t)
	outcomes, err := RunBatch(context.Background(), BatchConfig{
		Search:    SearchConfig{MaxGenerations: 1},
		NewEngine: func(int64) Engine { return eng },
		Problem:   eng.problemForTest(),
		Seeds:     []int64{1},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.Error(t, outcomes[0].Err, "missing params schedule")
}

func TestRunBatchStopsOnCancellation(t *testing.T) {
	eng := newScriptedEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunBatch(ctx, BatchConfig{
		Search:    SearchConfig{Params: ConstParams{Value: DefaultParams()}, MaxGenerations: 1},
		NewEngine: func(int64) Engine { return eng },
		Problem:   eng.problemForTest(),
		Seeds:     []int64{1, 2},
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunBatchValidation(t *testing.T) {
	_, err := RunBatch(context.Background(), BatchConfig{})
	require.Error(t, err)
}
