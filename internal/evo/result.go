package evo

import (
	"chimeraevo/internal/embedding"
	"chimeraevo/internal/model"
)

type Outcome string

const (
	OutcomeFound     Outcome = model.OutcomeFound
	OutcomeExhausted Outcome = model.OutcomeExhausted
	OutcomeAborted   Outcome = model.OutcomeAborted
)

// Result is one of Found, Exhausted or Aborted.
type Result interface {
	Outcome() Outcome
	isResult()
}

// Found carries the valid embedding and the generations it took. Zero means
// the initial embedding was already valid.
type Found struct {
	GenerationsUsed int
	Embedding       *embedding.Embedding
}

// Exhausted means the generation budget ran out without a valid embedding.
type Exhausted struct {
	Generations int
}

// Aborted means a generation could not produce any candidate.
type Aborted struct {
	Generation int
	Reason     string
}

func (Found) Outcome() Outcome     { return OutcomeFound }
func (Exhausted) Outcome() Outcome { return OutcomeExhausted }
func (Aborted) Outcome() Outcome   { return OutcomeAborted }

func (Found) isResult()     {}
func (Exhausted) isResult() {}
func (Aborted) isResult()   {}

// GenerationsOrFailure reports generations used for Found and -1 otherwise,
// the value sweep files record per run.
func GenerationsOrFailure(r Result) int {
	if found, ok := r.(Found); ok {
		return found.GenerationsUsed
	}
	return -1
}
