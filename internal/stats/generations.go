package stats

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// GenerationsFileName names a sweep output file, e.g. how_many_generations_5x5_100_300_max_gen_k8_popsize_7.txt.
func GenerationsFileName(m, n, runs, maxGenerations int, name string) string {
	return fmt.Sprintf("how_many_generations_%dx%d_%d_%d_max_gen_%s.txt", m, n, runs, maxGenerations, name)
}

// WriteGenerationsFile writes one value per line: generations used, or -1
// for a run that did not find an embedding.
func WriteGenerationsFile(w io.Writer, values []int) error {
	bw := bufio.NewWriter(w)
	for _, v := range values {
		if _, err := bw.WriteString(strconv.Itoa(v) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func ReadGenerationsFile(r io.Reader) ([]int, error) {
	values := make([]int, 0)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		v, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		values = append(values, v)
	}
	return values, scanner.Err()
}

type GenerationsSummary struct {
	Runs        int     `json:"runs"`
	Found       int     `json:"found"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
	Mean        float64 `json:"mean"`
	Median      float64 `json:"median"`
	StdDev      float64 `json:"std_dev"`
	Min         int     `json:"min"`
	Max         int     `json:"max"`
}

// SummarizeGenerations describes the successful runs; negative values
// count as failures.
func SummarizeGenerations(values []int) GenerationsSummary {
	summary := GenerationsSummary{Runs: len(values)}
	found := make([]int, 0, len(values))
	for _, v := range values {
		if v < 0 {
			summary.Failed++
			continue
		}
		found = append(found, v)
	}
	summary.Found = len(found)
	if summary.Runs > 0 {
		summary.SuccessRate = float64(summary.Found) / float64(summary.Runs)
	}
	if len(found) == 0 {
		return summary
	}

	sort.Ints(found)
	summary.Min = found[0]
	summary.Max = found[len(found)-1]
	sum := 0.0
	for _, v := range found {
		sum += float64(v)
	}
	summary.Mean = sum / float64(len(found))
	mid := len(found) / 2
	if len(found)%2 == 0 {
		summary.Median = float64(found[mid-1]+found[mid]) / 2
	} else {
		summary.Median = float64(found[mid])
	}
	variance := 0.0
	for _, v := range found {
		d := float64(v) - summary.Mean
		variance += d * d
	}
	summary.StdDev = math.Sqrt(variance / float64(len(found)))
	return summary
}

type HistogramBin struct {
	Lower int `json:"lower"`
	Upper int `json:"upper"`
	Count int `json:"count"`
}

// GenerationsHistogram buckets successful runs into bins of width
// binWidth starting at zero. Empty trailing bins are not emitted.
func GenerationsHistogram(values []int, binWidth int) ([]HistogramBin, error) {
	if binWidth <= 0 {
		return nil, fmt.Errorf("bin width must be > 0")
	}
	maxValue := -1
	for _, v := range values {
		if v > maxValue {
			maxValue = v
		}
	}
	if maxValue < 0 {
		return []HistogramBin{}, nil
	}
	bins := make([]HistogramBin, maxValue/binWidth+1)
	for i := range bins {
		bins[i] = HistogramBin{Lower: i * binWidth, Upper: (i+1)*binWidth - 1}
	}
	for _, v := range values {
		if v < 0 {
			continue
		}
		bins[v/binWidth].Count++
	}
	return bins, nil
}
