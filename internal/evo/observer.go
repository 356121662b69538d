package evo

import (
	"log/slog"

	"chimeraevo/internal/embedding"
)

// Commit describes one completed generation.
type Commit struct {
	Candidates   int
	SlotFailures int
	RescueFired  bool
	Best         Candidate
	BestIndex    int
	Pruned       bool
	Baseline     *embedding.Embedding
}

// Observer receives progress callbacks from a single search run. Calls are
// made synchronously from the run's goroutine.
type Observer interface {
	GenerationStarted(generation int, baseline *embedding.Embedding)
	SlotFailed(generation, slot, accumulated int)
	RescueFired(generation, slot int, baseline *embedding.Embedding)
	Committed(generation int, commit Commit)
	Finished(result Result)
}

type NopObserver struct{}

func (NopObserver) GenerationStarted(int, *embedding.Embedding) {}
func (NopObserver) SlotFailed(int, int, int)                    {}
func (NopObserver) RescueFired(int, int, *embedding.Embedding)  {}
func (NopObserver) Committed(int, Commit)                       {}
func (NopObserver) Finished(Result)                             {}

// Observers fans every callback out in order.
type Observers []Observer

func (o Observers) GenerationStarted(generation int, baseline *embedding.Embedding) {
	for _, obs := range o {
		obs.GenerationStarted(generation, baseline)
	}
}

func (o Observers) SlotFailed(generation, slot, accumulated int) {
	for _, obs := range o {
		obs.SlotFailed(generation, slot, accumulated)
	}
}

func (o Observers) RescueFired(generation, slot int, baseline *embedding.Embedding) {
	for _, obs := range o {
		obs.RescueFired(generation, slot, baseline)
	}
}

func (o Observers) Committed(generation int, commit Commit) {
	for _, obs := range o {
		obs.Committed(generation, commit)
	}
}

func (o Observers) Finished(result Result) {
	for _, obs := range o {
		obs.Finished(result)
	}
}

// LogObserver narrates a run through slog.
type LogObserver struct {
	Logger *slog.Logger
}

func NewLogObserver(logger *slog.Logger) LogObserver {
	return LogObserver{Logger: logger}
}

func (o LogObserver) GenerationStarted(generation int, baseline *embedding.Embedding) {
	o.Logger.Debug("generation started",
		"generation", generation,
		"nodes_used", baseline.NodeCount(),
		"missing_edges", len(baseline.MissingEdges()),
	)
}

func (o LogObserver) SlotFailed(generation, slot, accumulated int) {
	o.Logger.Debug("slot failed", "generation", generation, "slot", slot, "accumulated", accumulated)
}

func (o LogObserver) RescueFired(generation, slot int, baseline *embedding.Embedding) {
	o.Logger.Info("rescue fired",
		"generation", generation,
		"slot", slot,
		"nodes_used", baseline.NodeCount(),
	)
}

func (o LogObserver) Committed(generation int, commit Commit) {
	o.Logger.Debug("generation committed",
		"generation", generation,
		"candidates", commit.Candidates,
		"best_index", commit.BestIndex,
		"best_score", commit.Best.Score,
		"pruned", commit.Pruned,
		"nodes_used", commit.Baseline.NodeCount(),
	)
}

func (o LogObserver) Finished(result Result) {
	switch r := result.(type) {
	case Found:
		o.Logger.Info("embedding found", "generations", r.GenerationsUsed, "nodes_used", r.Embedding.NodeCount())
	case Exhausted:
		o.Logger.Info("generation budget exhausted", "generations", r.Generations)
	case Aborted:
		o.Logger.Warn("search aborted", "generation", r.Generation, "reason", r.Reason)
	}
}
