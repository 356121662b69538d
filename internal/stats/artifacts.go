package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"chimeraevo/internal/model"
)

const runIndexFile = "run_index.json"

type RunArtifacts struct {
	Run         model.RunRecord
	Diagnostics []model.GenerationDiagnostics
}

type RunIndexEntry struct {
	RunID           string `json:"run_id"`
	SweepID         string `json:"sweep_id,omitempty"`
	Source          string `json:"source"`
	Hardware        string `json:"hardware"`
	PopulationSize  int    `json:"population_size"`
	Seed            int64  `json:"seed"`
	Outcome         string `json:"outcome"`
	GenerationsUsed int    `json:"generations_used"`
	CreatedAtUTC    string `json:"created_at_utc"`
}

func IndexEntryFor(run model.RunRecord) RunIndexEntry {
	return RunIndexEntry{
		RunID:           run.ID,
		SweepID:         run.SweepID,
		Source:          run.Source,
		Hardware:        fmt.Sprintf("%dx%dx%d", run.Hardware.M, run.Hardware.N, run.Hardware.T),
		PopulationSize:  run.PopulationSize,
		Seed:            run.Seed,
		Outcome:         run.Outcome,
		GenerationsUsed: run.GenerationsUsed,
		CreatedAtUTC:    run.CreatedAtUTC,
	}
}

var artifactFiles = []string{"run.json", "generation_diagnostics.json", "dp.csv"}

// WriteRunArtifacts writes the run record, its diagnostics and the degree
// percentage table into baseDir/<run id>.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "run.json"), artifacts.Run); err != nil {
		return "", err
	}
	diagnostics := artifacts.Diagnostics
	if diagnostics == nil {
		diagnostics = []model.GenerationDiagnostics{}
	}
	if err := writeJSON(filepath.Join(runDir, "generation_diagnostics.json"), diagnostics); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, "dp.csv"))
	if err != nil {
		return "", err
	}
	if err := WriteDegreePercentagesCSV(f, diagnostics); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	return runDir, nil
}

func ReadRunArtifacts(baseDir, runID string) (RunArtifacts, bool, error) {
	runDir := filepath.Join(baseDir, runID)
	data, err := os.ReadFile(filepath.Join(runDir, "run.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return RunArtifacts{}, false, nil
		}
		return RunArtifacts{}, false, err
	}
	var out RunArtifacts
	if err := json.Unmarshal(data, &out.Run); err != nil {
		return RunArtifacts{}, false, err
	}
	data, err = os.ReadFile(filepath.Join(runDir, "generation_diagnostics.json"))
	if err != nil && !os.IsNotExist(err) {
		return RunArtifacts{}, false, err
	}
	if err == nil {
		if err := json.Unmarshal(data, &out.Diagnostics); err != nil {
			return RunArtifacts{}, false, err
		}
	}
	return out, true, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if c := model.CompareTimestamps(indexed[i].entry.CreatedAtUTC, indexed[j].entry.CreatedAtUTC); c != 0 {
			return c > 0
		}
		return indexed[i].idx > indexed[j].idx
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies a run's artifact directory into outDir.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range artifactFiles {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
