package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/core"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/platform/tui"
)

var flagPlayMaxSteps int

var playCmd = &cobra.Command{
	Use:   "play <gauntlet>",
	Short: "Play a gauntlet by hand",
	Long: `Play the specified gauntlet in the terminal, choosing every action
the environment offers an agent.

Controls:
  Up/Down/j/k  - Move between legal actions
  Enter/Space  - Take the highlighted action
  R            - New run (after the run ends)
  Esc/B        - Leave
  Q/Ctrl+C     - Quit

Finished runs are saved to the runs database with policy "human".

Examples:
  gauntlet play kanto_leaders
  gauntlet play indigo_league --seed 42
  gauntlet play team_rocket --max-steps 200`,
	Args: cobra.ExactArgs(1),
	Run:  runPlay,
}

func init() {
	playCmd.Flags().IntVar(&flagPlayMaxSteps, "max-steps", 0, "Step cap per run (0 = config default)")
}

func runPlay(_ *cobra.Command, args []string) {
	a := setup()
	id := args[0]
	requireGauntlet(id)

	env, err := a.envFactory()(id)
	if err != nil {
		fatalf("cannot create gauntlet: %v", err)
	}

	width, height := terminalSize()
	cfg := core.RuntimeConfig{
		Seed:     flagSeed,
		MaxSteps: flagPlayMaxSteps,
	}

	// Continue without storage if the database is unavailable
	store := a.tryStore()
	_, runErr := tui.RunPlay(env, store, cfg, width, height)
	closeStore(store)

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running gauntlet: %v\n", runErr)
		os.Exit(1)
	}
}
