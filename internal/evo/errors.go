package evo

import "errors"

var (
	// ErrMutationExhausted means one slot spent its whole trial budget.
	ErrMutationExhausted = errors.New("mutation trials exhausted")
	// ErrPopulationFailure means no candidate could be produced even after
	// the rescue.
	ErrPopulationFailure = errors.New("no candidates producible")
	ErrEmptyPopulation   = errors.New("empty population")
)
