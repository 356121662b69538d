package stats

import (
	"math"

	"chimeraevo/internal/model"
)

// CurvePoint is the mean of one generation across the runs still active at
// that generation.
type CurvePoint struct {
	Generation int     `json:"generation"`
	Runs       int     `json:"runs"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
}

// MissingEdgesSeries extracts the missing-edge count of every committed
// generation.
func MissingEdgesSeries(diagnostics []model.GenerationDiagnostics) []float64 {
	series := make([]float64, 0, len(diagnostics))
	for _, d := range diagnostics {
		if d.BestIndex < 0 {
			continue
		}
		series = append(series, float64(d.MissingEdges))
	}
	return series
}

// BuildConvergenceCurve averages ragged per-run series position by position.
// Runs drop out of the average once their series ends.
func BuildConvergenceCurve(series [][]float64) []CurvePoint {
	longest := 0
	for _, s := range series {
		longest = max(longest, len(s))
	}
	points := make([]CurvePoint, 0, longest)
	for gen := 0; gen < longest; gen++ {
		values := make([]float64, 0, len(series))
		for _, s := range series {
			if gen < len(s) {
				values = append(values, s[gen])
			}
		}
		mean, std := avgStd(values)
		points = append(points, CurvePoint{Generation: gen, Runs: len(values), Mean: mean, StdDev: std})
	}
	return points
}

func avgStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / float64(len(values)))
}

// WriteConvergenceCurve stores points as indented JSON at path.
func WriteConvergenceCurve(path string, points []CurvePoint) error {
	if points == nil {
		points = []CurvePoint{}
	}
	return writeJSON(path, points)
}
