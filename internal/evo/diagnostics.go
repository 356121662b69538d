package evo

import (
	"chimeraevo/internal/embedding"
	"chimeraevo/internal/model"
)

// DiagnosticsRecorder keeps one record per attempted generation, including
// a final partial record when a generation aborts.
type DiagnosticsRecorder struct {
	records []model.GenerationDiagnostics
	current *model.GenerationDiagnostics
}

func NewDiagnosticsRecorder() *DiagnosticsRecorder {
	return &DiagnosticsRecorder{}
}

func (r *DiagnosticsRecorder) GenerationStarted(generation int, _ *embedding.Embedding) {
	r.flush()
	r.current = &model.GenerationDiagnostics{Generation: generation, BestIndex: -1}
}

func (r *DiagnosticsRecorder) SlotFailed(_, _, _ int) {
	if r.current != nil {
		r.current.SlotFailures++
	}
}

func (r *DiagnosticsRecorder) RescueFired(_, _ int, _ *embedding.Embedding) {
	if r.current != nil {
		r.current.RescueFired = true
	}
}

func (r *DiagnosticsRecorder) Committed(generation int, commit Commit) {
	if r.current == nil {
		r.current = &model.GenerationDiagnostics{Generation: generation}
	}
	r.current.PopulationSize = commit.Candidates
	r.current.BestScore = commit.Best.Score
	r.current.BestIndex = commit.BestIndex
	r.current.Pruned = commit.Pruned
	r.current.HardwareNodesUsed = commit.Baseline.NodeCount()
	r.current.MissingEdges = len(commit.Baseline.MissingEdges())
	r.current.DegreePercentages = commit.Baseline.DegreePercentages()
	r.flush()
}

func (r *DiagnosticsRecorder) Finished(Result) {
	r.flush()
}

func (r *DiagnosticsRecorder) Diagnostics() []model.GenerationDiagnostics {
	r.flush()
	out := make([]model.GenerationDiagnostics, len(r.records))
	copy(out, r.records)
	return out
}

func (r *DiagnosticsRecorder) flush() {
	if r.current == nil {
		return
	}
	r.records = append(r.records, *r.current)
	r.current = nil
}
