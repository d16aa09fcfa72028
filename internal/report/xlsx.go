// Package report exports evaluations and stored runs to spreadsheets.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/runner"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/storage"
)

// Sheet names used in exported workbooks.
const (
	SheetSummary  = "Summary"
	SheetEpisodes = "Episodes"
	SheetRuns     = "Runs"
	SheetNodes    = "Nodes"
)

// Workbook gathers what goes into an export. Empty parts produce no sheet,
// except Summary which is written when Report is set.
type Workbook struct {
	Report *runner.Report
	Runs   []storage.RunEntry
	Nodes  []storage.NodeStat
}

var episodeHeader = []string{
	"Episode", "Run ID", "Seed", "Outcome", "Progress", "Nodes", "Wins", "Battles",
	"Survivors", "Roster", "Steps", "Reward", "Duration (s)",
}

var runHeader = []string{
	"Run ID", "Gauntlet", "Policy", "Seed", "Outcome", "Progress", "Nodes", "Wins",
	"Survivors", "Reward", "Played At",
}

var nodeHeader = []string{
	"#", "Node", "Name", "Battles", "Wins", "Win %", "Deaths", "Avg Turns",
}

// WriteXLSX writes the workbook to path, creating parent directories.
func WriteXLSX(path string, wb Workbook) error {
	if wb.Report == nil && len(wb.Runs) == 0 && len(wb.Nodes) == 0 {
		return fmt.Errorf("report: nothing to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	w := &writer{f: f}
	if err := w.init(); err != nil {
		return err
	}

	if wb.Report != nil {
		if err := w.summary(*wb.Report); err != nil {
			return err
		}
		if len(wb.Report.Results) > 0 {
			if err := w.episodes(wb.Report.Results); err != nil {
				return err
			}
		}
	}
	if len(wb.Runs) > 0 {
		if err := w.runs(wb.Runs); err != nil {
			return err
		}
	}
	if len(wb.Nodes) > 0 {
		if err := w.nodes(wb.Nodes); err != nil {
			return err
		}
	}

	if idx, err := f.GetSheetIndex(w.first); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: cannot create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: cannot save %s: %w", path, err)
	}
	return nil
}

type writer struct {
	f      *excelize.File
	header int
	pct    int
	first  string // first sheet written; it takes over Sheet1
}

func (w *writer) init() error {
	var err error
	w.header, err = w.f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	// 1.0 => 100%
	w.pct, err = w.f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// sheet creates (or claims the default sheet as) name.
func (w *writer) sheet(name string) error {
	if w.first == "" {
		w.first = name
		if err := w.f.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("report: %w", err)
		}
		return nil
	}
	if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

func (w *writer) row(sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

func (w *writer) headerRow(sheet string, header []string) error {
	values := make([]any, len(header))
	for i, h := range header {
		values[i] = h
	}
	if err := w.row(sheet, 1, values); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := w.f.SetCellStyle(sheet, "A1", last, w.header); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return w.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (w *writer) percent(sheet string, col, from, to int) error {
	if to < from {
		return nil
	}
	start, _ := excelize.CoordinatesToCellName(col, from)
	end, _ := excelize.CoordinatesToCellName(col, to)
	if err := w.f.SetCellStyle(sheet, start, end, w.pct); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

func (w *writer) summary(rep runner.Report) error {
	if err := w.sheet(SheetSummary); err != nil {
		return err
	}
	rows := [][]any{
		{"Gauntlet", rep.GauntletID},
		{"Policy", rep.Policy},
		{"Episodes", rep.Episodes},
		{"Victories", rep.Victories},
		{"Losses", rep.Losses},
		{"Wipes", rep.Wipes},
		{"Truncated", rep.Truncated},
		{"Win Rate", rep.WinRate},
		{"Avg Progress", rep.AvgProgress},
		{"Avg Survivors", rep.AvgSurvivors},
		{"Avg Reward", rep.AvgReward},
		{"Avg Steps", rep.AvgSteps},
		{"Run Time (s)", rep.Duration.Seconds()},
	}
	for i, r := range rows {
		if err := w.row(SheetSummary, i+1, r); err != nil {
			return err
		}
	}
	if err := w.f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", len(rows)), w.header); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := w.f.SetCellStyle(SheetSummary, "B8", "B8", w.pct); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return w.f.SetColWidth(SheetSummary, "A", "A", 16)
}

func (w *writer) episodes(results []runner.RunResult) error {
	if err := w.sheet(SheetEpisodes); err != nil {
		return err
	}
	if err := w.headerRow(SheetEpisodes, episodeHeader); err != nil {
		return err
	}
	for i, r := range results {
		if err := w.row(SheetEpisodes, i+2, []any{
			r.Episode, r.RunID, r.Seed, string(r.Outcome), r.Progress, r.NodeCount, r.Wins, r.Battles,
			r.Survivors, r.RosterSize, r.Steps, r.TotalReward, r.Duration.Seconds(),
		}); err != nil {
			return err
		}
	}
	return w.f.SetColWidth(SheetEpisodes, "B", "B", 38)
}

func (w *writer) runs(entries []storage.RunEntry) error {
	if err := w.sheet(SheetRuns); err != nil {
		return err
	}
	if err := w.headerRow(SheetRuns, runHeader); err != nil {
		return err
	}
	for i, e := range entries {
		if err := w.row(SheetRuns, i+2, []any{
			e.RunID, e.GauntletID, e.Policy, e.Seed, string(e.Outcome), e.Progress, e.NodeCount, e.Wins,
			e.Survivors, e.TotalReward, e.CreatedAt.Format("2006-01-02 15:04"),
		}); err != nil {
			return err
		}
	}
	return w.f.SetColWidth(SheetRuns, "A", "A", 38)
}

func (w *writer) nodes(stats []storage.NodeStat) error {
	if err := w.sheet(SheetNodes); err != nil {
		return err
	}
	if err := w.headerRow(SheetNodes, nodeHeader); err != nil {
		return err
	}
	for i, n := range stats {
		var rate float64
		if n.Battles > 0 {
			rate = float64(n.Wins) / float64(n.Battles)
		}
		if err := w.row(SheetNodes, i+2, []any{
			n.TrainerIndex + 1, n.NodeID, n.NodeName, n.Battles, n.Wins, rate, n.Deaths, n.AvgTurns,
		}); err != nil {
			return err
		}
	}
	return w.percent(SheetNodes, 6, 2, len(stats)+1)
}
