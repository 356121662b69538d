package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Outcome names mirror evo.Outcome so persisted runs stay readable without
// importing the search package.
const (
	OutcomeFound     = "found"
	OutcomeExhausted = "exhausted"
	OutcomeAborted   = "aborted"
)

type EmbeddingRecord struct {
	VersionedRecord
	Mapping      map[int][]int `json:"mapping"`
	ClaimedEdges [][2]int      `json:"claimed_edges"`
}

type HardwareSpec struct {
	M int `json:"m"`
	N int `json:"n"`
	T int `json:"t"`
}

type FallbackSpec struct {
	Kind        string  `json:"kind" yaml:"kind" mapstructure:"kind"`
	After       int     `json:"after,omitempty" yaml:"after,omitempty" mapstructure:"after"`
	Probability float64 `json:"probability,omitempty" yaml:"probability,omitempty" mapstructure:"probability"`
}

type RunRecord struct {
	VersionedRecord
	ID                string           `json:"id"`
	SweepID           string           `json:"sweep_id,omitempty"`
	Source            string           `json:"source"`
	Hardware          HardwareSpec     `json:"hardware"`
	Seed              int64            `json:"seed"`
	PopulationSize    int              `json:"population_size"`
	MaxMutationTrials int              `json:"max_mutation_trials"`
	Fallback          FallbackSpec     `json:"fallback"`
	PruneProbability  float64          `json:"prune_probability"`
	MaxGenerations    int              `json:"max_generations"`
	Outcome           string           `json:"outcome"`
	GenerationsUsed   int              `json:"generations_used"`
	AbortReason       string           `json:"abort_reason,omitempty"`
	HardwareNodesUsed int              `json:"hardware_nodes_used"`
	Embedding         *EmbeddingRecord `json:"embedding,omitempty"`
	DurationMS        int64            `json:"duration_ms"`
	CreatedAtUTC      string           `json:"created_at_utc"`
}

type SweepRecord struct {
	VersionedRecord
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Parameter    string   `json:"parameter"`
	Values       []string `json:"values"`
	RunsPerValue int      `json:"runs_per_value"`
	RunIDs       []string `json:"run_ids"`
	CreatedAtUTC string   `json:"created_at_utc"`
}

type GenerationDiagnostics struct {
	Generation        int       `json:"generation"`
	PopulationSize    int       `json:"population_size"`
	SlotFailures      int       `json:"slot_failures"`
	RescueFired       bool      `json:"rescue_fired"`
	BestScore         int       `json:"best_score"`
	BestIndex         int       `json:"best_index"`
	Pruned            bool      `json:"pruned"`
	HardwareNodesUsed int       `json:"hardware_nodes_used"`
	MissingEdges      int       `json:"missing_edges"`
	DegreePercentages []float64 `json:"degree_percentages,omitempty"`
}
