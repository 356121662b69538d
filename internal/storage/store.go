package storage

import (
	"context"
	"errors"

	"chimeraevo/internal/model"
)

var (
	ErrNotFound       = errors.New("record not found")
	errNotInitialized = errors.New("store is not initialized")
)

// Store persists finished runs, sweeps and per-generation diagnostics.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns runs ordered by creation time; an empty sweepID
	// lists every run.
	ListRuns(ctx context.Context, sweepID string) ([]model.RunRecord, error)
	SaveSweep(ctx context.Context, sweep model.SweepRecord) error
	GetSweep(ctx context.Context, id string) (model.SweepRecord, bool, error)
	ListSweeps(ctx context.Context) ([]model.SweepRecord, error)
	SaveDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
}
