package stats

import (
	"encoding/csv"
	"io"
	"strconv"

	"chimeraevo/internal/model"
)

// WriteDegreePercentagesCSV writes one row per generation: the generation
// followed by each supernode's degree percentage rounded to two places.
func WriteDegreePercentagesCSV(w io.Writer, diagnostics []model.GenerationDiagnostics) error {
	cw := csv.NewWriter(w)
	for _, d := range diagnostics {
		if len(d.DegreePercentages) == 0 {
			continue
		}
		row := make([]string, 0, len(d.DegreePercentages)+1)
		row = append(row, strconv.Itoa(d.Generation))
		for _, p := range d.DegreePercentages {
			row = append(row, strconv.FormatFloat(p, 'f', 2, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
