package embedding

import (
	"fmt"

	"chimeraevo/internal/model"
)

// ToRecord converts e into its persisted form. Version fields are left for
// the storage layer to stamp.
func ToRecord(e *Embedding) model.EmbeddingRecord {
	rec := model.EmbeddingRecord{
		Mapping:      e.Mapping(),
		ClaimedEdges: make([][2]int, 0, len(e.claimed)),
	}
	for _, edge := range e.ClaimedEdges() {
		rec.ClaimedEdges = append(rec.ClaimedEdges, [2]int{edge.U, edge.V})
	}
	return rec
}

// FromRecord rebuilds an embedding against problem, rejecting records that
// reference unknown nodes, overlap chains or claim missing hardware edges.
func FromRecord(problem *Problem, rec model.EmbeddingRecord) (*Embedding, error) {
	b := NewBuilder(problem)
	for src, chain := range rec.Mapping {
		for _, h := range chain {
			if err := b.Assign(h, src); err != nil {
				return nil, fmt.Errorf("restore chain %d: %w", src, err)
			}
		}
	}
	for _, pair := range rec.ClaimedEdges {
		if err := b.Claim(pair[0], pair[1]); err != nil {
			return nil, fmt.Errorf("restore claimed edge: %w", err)
		}
	}
	return b.Build(), nil
}
