package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/platform/tui"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/report"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/storage"
)

var (
	flagRunsLimit  int
	flagRunsRecent bool
	flagRunsTUI    bool
	flagRunsExport string
	flagRunsClear  bool
	flagRunID      string
)

var runsCmd = &cobra.Command{
	Use:   "runs [gauntlet]",
	Short: "Show recorded runs",
	Long: `Display recorded runs from the runs database.

Without a gauntlet, prints per-gauntlet statistics and the latest runs.
With a gauntlet, prints its statistics and best runs (ranked by progress,
then reward).

Examples:
  gauntlet runs
  gauntlet runs kanto_leaders --limit 25
  gauntlet runs kanto_leaders --recent
  gauntlet runs --run 5f0c...              # battles of one run
  gauntlet runs kanto_leaders --export kanto.xlsx
  gauntlet runs --tui`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 10, "Number of runs to show")
	runsCmd.Flags().BoolVar(&flagRunsRecent, "recent", false, "Show latest runs instead of best")
	runsCmd.Flags().BoolVar(&flagRunsTUI, "tui", false, "Open the interactive runs board")
	runsCmd.Flags().StringVar(&flagRunsExport, "export", "", "Export runs and node statistics to an .xlsx workbook")
	runsCmd.Flags().BoolVar(&flagRunsClear, "clear", false, "Delete all runs of the gauntlet")
	runsCmd.Flags().StringVar(&flagRunID, "run", "", "Show the battles of one run")
}

func runRuns(_ *cobra.Command, args []string) {
	a := setup()
	gauntletID := ""
	if len(args) == 1 {
		gauntletID = args[0]
		requireGauntlet(gauntletID)
	}

	store := a.openStore()
	defer store.Close()

	switch {
	case flagRunsTUI:
		width, height := terminalSize()
		if _, err := tui.RunRuns(store, width, height); err != nil {
			fatalf("%v", err)
		}
	case flagRunID != "":
		printRun(store, flagRunID)
	case flagRunsClear:
		if gauntletID == "" {
			fatalf("--clear needs a gauntlet")
		}
		if err := store.ClearRuns(gauntletID); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("Cleared runs of %s\n", gauntletID)
	case flagRunsExport != "":
		exportRuns(store, gauntletID, flagRunsExport)
	case gauntletID == "":
		printAllStats(store)
	default:
		printGauntletRuns(store, gauntletID)
	}
}

func printAllStats(store *storage.Store) {
	all, err := store.GetAllGauntletStats()
	if err != nil {
		fatalf("%v", err)
	}
	if len(all) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Run 'gauntlet evaluate <id>' or 'gauntlet play <id>' to record some.")
		return
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("  %-18s  %6s  %8s  %8s  %8s  %s\n", "Gauntlet", "Runs", "Win %", "Best", "Avg Rwd", "Last Played")
	fmt.Printf("  %-18s  %6s  %8s  %8s  %8s  %s\n", "--------", "----", "-----", "----", "-------", "-----------")
	for _, id := range ids {
		st := all[id]
		fmt.Printf("  %-18s  %6d  %7.1f%%  %8d  %8.2f  %s\n",
			id, st.Runs, st.WinRate()*100, st.BestProgress, st.AvgReward, st.LastPlayed.Format("2006-01-02 15:04"))
	}

	recent, err := store.RecentRuns("", flagRunsLimit)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Println()
	fmt.Println("Latest runs")
	fmt.Println()
	printRunTable(recent, true)
}

func printGauntletRuns(store *storage.Store, gauntletID string) {
	st, err := store.GetGauntletStats(gauntletID)
	if err != nil {
		fatalf("%v", err)
	}

	title := "Best runs"
	var entries []storage.RunEntry
	if flagRunsRecent {
		title = "Latest runs"
		entries, err = store.RecentRuns(gauntletID, flagRunsLimit)
	} else {
		entries, err = store.TopRuns(gauntletID, flagRunsLimit)
	}
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Printf("%s - %s\n\n", title, gauntletID)
	if len(entries) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Printf("Run 'gauntlet play %s' to record the first one!\n", gauntletID)
		return
	}
	printRunTable(entries, false)

	fmt.Println()
	fmt.Printf("Runs: %d  Victories: %d (%.1f%%)  Best progress: %d  Avg reward: %.2f\n",
		st.Runs, st.Victories, st.WinRate()*100, st.BestProgress, st.AvgReward)
}

func printRunTable(entries []storage.RunEntry, withGauntlet bool) {
	if withGauntlet {
		fmt.Printf("  %-4s  %-16s  %-10s  %-8s  %8s  %-8s  %s\n", "Rank", "Gauntlet", "Outcome", "Progress", "Reward", "Policy", "Date")
	} else {
		fmt.Printf("  %-4s  %-10s  %-8s  %8s  %-8s  %s\n", "Rank", "Outcome", "Progress", "Reward", "Policy", "Date")
	}
	for i, e := range entries {
		progress := fmt.Sprintf("%d/%d", e.Progress, e.NodeCount)
		date := e.CreatedAt.Format("2006-01-02 15:04")
		if withGauntlet {
			fmt.Printf("  %-4d  %-16s  %-10s  %-8s  %8.2f  %-8s  %s\n",
				i+1, e.GauntletID, e.Outcome, progress, e.TotalReward, e.Policy, date)
		} else {
			fmt.Printf("  %-4d  %-10s  %-8s  %8.2f  %-8s  %s\n",
				i+1, e.Outcome, progress, e.TotalReward, e.Policy, date)
		}
	}
}

func printRun(store *storage.Store, runID string) {
	run, err := store.RunByID(runID)
	if err != nil {
		fatalf("%v", err)
	}
	if run == nil {
		fmt.Fprintf(os.Stderr, "Error: no run %q\n", runID)
		os.Exit(1)
	}

	fmt.Printf("Run %s - %s (%s, seed %d)\n", run.RunID, run.GauntletID, run.Policy, run.Seed)
	fmt.Printf("Outcome: %s  Progress: %d/%d  Survivors: %d/%d  Reward: %.2f  Steps: %d\n\n",
		run.Outcome, run.Progress, run.NodeCount, run.Survivors, run.RosterSize, run.TotalReward, run.Steps)

	battles, err := store.BattlesForRun(runID)
	if err != nil {
		fatalf("%v", err)
	}
	if len(battles) == 0 {
		fmt.Println("No battles recorded.")
		return
	}
	fmt.Printf("  %-3s  %-18s  %-6s  %5s  %6s  %6s  %7s\n", "#", "Trainer", "Result", "Turns", "KOs", "Deaths", "Reward")
	for _, b := range battles {
		result := "lost"
		switch {
		case b.Truncated:
			result = "timeout"
		case b.Won:
			result = "won"
		}
		name := b.NodeName
		if name == "" {
			name = b.NodeID
		}
		fmt.Printf("  %-3d  %-18s  %-6s  %5d  %6d  %6d  %7.2f\n",
			b.TrainerIndex+1, name, result, b.Turns, b.OpponentFainted, b.Deaths, b.Reward)
		if b.SimError != "" {
			fmt.Printf("       simulator error: %s\n", b.SimError)
		}
	}
}

func exportRuns(store *storage.Store, gauntletID, path string) {
	const exportLimit = 10000

	var wb report.Workbook
	var err error
	if gauntletID == "" {
		wb.Runs, err = store.RecentRuns("", exportLimit)
	} else {
		wb.Runs, err = store.TopRuns(gauntletID, exportLimit)
		if err == nil {
			wb.Nodes, err = store.NodeStats(gauntletID)
		}
	}
	if err != nil {
		fatalf("%v", err)
	}

	if err := report.WriteXLSX(path, wb); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Exported %d runs to %s\n", len(wb.Runs), path)
}
