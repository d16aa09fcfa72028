package main

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/policy"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/random"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/report"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/runner"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/storage"
)

var (
	flagEpisodes     int
	flagWorkers      int
	flagPolicy       string
	flagEvalMaxSteps int
	flagEvalXLSX     string
	flagNoSave       bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <gauntlet>",
	Short: "Run a policy over many episodes",
	Long: `Play many runs of a gauntlet with a built-in policy and print a report.

Runs are played in parallel; run i uses a seed derived from --seed, so an
evaluation with a fixed seed is reproducible. Every run and its battles are
saved to the runs database unless --no-save is given.

Examples:
  gauntlet evaluate kanto_leaders
  gauntlet evaluate kanto_leaders --policy greedy --episodes 1000 --workers 8
  gauntlet evaluate indigo_league --seed 7 --xlsx ./reports/indigo.xlsx`,
	Args: cobra.ExactArgs(1),
	Run:  runEvaluate,
}

func init() {
	defaults := runner.DefaultCoordinatorConfig()
	evaluateCmd.Flags().IntVar(&flagEpisodes, "episodes", defaults.Episodes, "Number of runs")
	evaluateCmd.Flags().IntVar(&flagWorkers, "workers", defaults.Workers, "Runs played in parallel")
	evaluateCmd.Flags().StringVar(&flagPolicy, "policy", defaults.Policy, "Policy: "+strings.Join(policy.Names(), ", "))
	evaluateCmd.Flags().IntVar(&flagEvalMaxSteps, "max-steps", 0, "Step cap per run (0 = config default)")
	evaluateCmd.Flags().StringVar(&flagEvalXLSX, "xlsx", "", "Write the report to an .xlsx workbook")
	evaluateCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "Do not record runs in the database")
}

func runEvaluate(_ *cobra.Command, args []string) {
	a := setup()
	id := args[0]
	requireGauntlet(id)

	cfg := runner.CoordinatorConfig{
		Episodes: flagEpisodes,
		Workers:  flagWorkers,
		Seed:     random.Resolve(flagSeed),
		Policy:   flagPolicy,
		MaxSteps: flagEvalMaxSteps,
	}

	coord := runner.NewCoordinator(cfg, func(seed int64) (runner.Env, error) {
		return a.newEnv(id, seed)
	}, a.logger)

	var store *storage.Store
	if !flagNoSave {
		store = a.openStore()
		defer store.Close()
		coord.SetResultSaver(store)
	}

	var finished atomic.Int64
	coord.OnResult(func(runner.RunResult) {
		n := finished.Add(1)
		if n%50 == 0 || int(n) == cfg.Episodes {
			a.logger.Info("progress", "runs", n, "of", cfg.Episodes)
		}
	})

	ctx, cancel := signalContext()
	defer cancel()

	a.logger.Info("evaluating", "gauntlet", id, "policy", cfg.Policy,
		"episodes", cfg.Episodes, "workers", cfg.Workers, "seed", cfg.Seed)
	rep, err := coord.Run(ctx)
	if err != nil {
		a.logger.Error("evaluation stopped", "err", err)
	}
	rep.GauntletID = id

	printReport(rep)

	if flagEvalXLSX != "" {
		wb := report.Workbook{Report: &rep}
		if store != nil {
			if nodes, nodeErr := store.NodeStats(id); nodeErr == nil {
				wb.Nodes = nodes
			}
		}
		if err := report.WriteXLSX(flagEvalXLSX, wb); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("\nReport written to %s\n", flagEvalXLSX)
	}
}

func printReport(rep runner.Report) {
	fmt.Printf("Evaluation - %s (%s)\n\n", rep.GauntletID, rep.Policy)
	if rep.Episodes == 0 {
		fmt.Println("No runs finished.")
		return
	}
	fmt.Printf("  %-14s %d\n", "Runs", rep.Episodes)
	fmt.Printf("  %-14s %d\n", "Victories", rep.Victories)
	fmt.Printf("  %-14s %d\n", "Losses", rep.Losses)
	fmt.Printf("  %-14s %d\n", "Wipes", rep.Wipes)
	fmt.Printf("  %-14s %d\n", "Truncated", rep.Truncated)
	fmt.Printf("  %-14s %.1f%%\n", "Win rate", rep.WinRate*100)
	fmt.Printf("  %-14s %.2f\n", "Avg progress", rep.AvgProgress)
	fmt.Printf("  %-14s %.2f\n", "Avg survivors", rep.AvgSurvivors)
	fmt.Printf("  %-14s %.3f\n", "Avg reward", rep.AvgReward)
	fmt.Printf("  %-14s %.1f\n", "Avg steps", rep.AvgSteps)
	fmt.Printf("  %-14s %s\n", "Run time", rep.Duration.Round(time.Millisecond))
}
