package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"chainstats/internal/dashboard"
)

// WriteCSV writes the snapshot in long form: one section,metric,value row per
// scalar, then the cohort, puzzle and trend tables keyed as section rows.
func WriteCSV(w io.Writer, snap *dashboard.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"section", "metric", "value"}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, m := range Metrics(snap) {
		if err := cw.Write([]string{m.Section, m.Name, m.Value}); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	for _, c := range snap.Retention.Cohorts {
		row := cohortRow(c)
		for i := 2; i < len(cohortHeader); i++ {
			if err := cw.Write([]string{"cohort:" + c.WeekStart, cohortHeader[i], row[i]}); err != nil {
				return fmt.Errorf("writing csv row: %w", err)
			}
		}
	}
	for _, p := range snap.Puzzles.ByPuzzle {
		row := puzzleRow(p)
		for i := 2; i < len(puzzleHeader); i++ {
			if err := cw.Write([]string{"puzzle:" + p.Key, puzzleHeader[i], row[i]}); err != nil {
				return fmt.Errorf("writing csv row: %w", err)
			}
		}
	}
	for _, row := range trendRows(snap) {
		for i := 2; i < len(trendHeader); i++ {
			if err := cw.Write([]string{"trend:" + row[0], trendHeader[i], row[i]}); err != nil {
				return fmt.Errorf("writing csv row: %w", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
