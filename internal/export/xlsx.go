package export

import (
	"fmt"
	"io"

	"chainstats/internal/dashboard"

	"github.com/xuri/excelize/v2"
)

const (
	SheetOverview  = "Overview"
	SheetRetention = "Retention"
	SheetPuzzles   = "Puzzles"
	SheetTrends    = "Trends"
)

// WriteXLSX writes the snapshot as a workbook: scalar metrics on the first
// sheet, then one sheet per table.
func WriteXLSX(w io.Writer, snap *dashboard.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetOverview)

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	overview := [][]string{{"section", "metric", "value"}}
	for _, m := range Metrics(snap) {
		overview = append(overview, []string{m.Section, m.Name, m.Value})
	}
	if err := writeTable(f, SheetOverview, overview, header); err != nil {
		return err
	}

	cohorts := [][]string{cohortHeader}
	for _, c := range snap.Retention.Cohorts {
		cohorts = append(cohorts, cohortRow(c))
	}
	puzzles := [][]string{puzzleHeader}
	for _, p := range snap.Puzzles.ByPuzzle {
		puzzles = append(puzzles, puzzleRow(p))
	}
	trends := append([][]string{trendHeader}, trendRows(snap)...)

	for _, s := range []struct {
		name string
		rows [][]string
	}{
		{SheetRetention, cohorts},
		{SheetPuzzles, puzzles},
		{SheetTrends, trends},
	} {
		if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", s.name, err)
		}
		if err := writeTable(f, s.name, s.rows, header); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, rows [][]string, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("addressing %s row %d: %w", sheet, i+1, err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) > 0 {
		if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
			return fmt.Errorf("styling %s header: %w", sheet, err)
		}
	}
	return nil
}
