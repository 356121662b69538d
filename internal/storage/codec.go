package storage

import (
	"encoding/json"
	"errors"
	"sort"

	"chimeraevo/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// CurrentVersion is the version stamp new records are written with.
func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRun(run model.RunRecord) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	if run.Embedding != nil {
		if err := checkVersion(run.Embedding.VersionedRecord); err != nil {
			return model.RunRecord{}, err
		}
	}
	return run, nil
}

func EncodeSweep(sweep model.SweepRecord) ([]byte, error) {
	return json.Marshal(sweep)
}

func DecodeSweep(data []byte) (model.SweepRecord, error) {
	var sweep model.SweepRecord
	if err := json.Unmarshal(data, &sweep); err != nil {
		return model.SweepRecord{}, err
	}
	if err := checkVersion(sweep.VersionedRecord); err != nil {
		return model.SweepRecord{}, err
	}
	return sweep, nil
}

func EncodeGenerationDiagnostics(diagnostics []model.GenerationDiagnostics) ([]byte, error) {
	return json.Marshal(diagnostics)
}

func DecodeGenerationDiagnostics(data []byte) ([]model.GenerationDiagnostics, error) {
	var diagnostics []model.GenerationDiagnostics
	if err := json.Unmarshal(data, &diagnostics); err != nil {
		return nil, err
	}
	return diagnostics, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

func sortRuns(runs []model.RunRecord) {
	sort.Slice(runs, func(i, j int) bool {
		if c := model.CompareTimestamps(runs[i].CreatedAtUTC, runs[j].CreatedAtUTC); c != 0 {
			return c < 0
		}
		return runs[i].ID < runs[j].ID
	})
}

func sortSweeps(sweeps []model.SweepRecord) {
	sort.Slice(sweeps, func(i, j int) bool {
		if c := model.CompareTimestamps(sweeps[i].CreatedAtUTC, sweeps[j].CreatedAtUTC); c != 0 {
			return c < 0
		}
		return sweeps[i].ID < sweeps[j].ID
	})
}

func cloneRun(run model.RunRecord) model.RunRecord {
	if run.Embedding == nil {
		return run
	}
	emb := *run.Embedding
	emb.Mapping = make(map[int][]int, len(run.Embedding.Mapping))
	for src, chain := range run.Embedding.Mapping {
		emb.Mapping[src] = append([]int(nil), chain...)
	}
	emb.ClaimedEdges = append([][2]int(nil), run.Embedding.ClaimedEdges...)
	run.Embedding = &emb
	return run
}

func cloneSweep(sweep model.SweepRecord) model.SweepRecord {
	sweep.Values = append([]string(nil), sweep.Values...)
	sweep.RunIDs = append([]string(nil), sweep.RunIDs...)
	return sweep
}

func cloneDiagnostics(diagnostics []model.GenerationDiagnostics) []model.GenerationDiagnostics {
	out := make([]model.GenerationDiagnostics, len(diagnostics))
	for i, d := range diagnostics {
		d.DegreePercentages = append([]float64(nil), d.DegreePercentages...)
		out[i] = d
	}
	return out
}
