package main

import (
	"github.com/spf13/cobra"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/core"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/platform/tui"
)

// runMenu starts the interactive picker. It is the root command's action.
//
// Controls:
//
//	Up/Down/j/k  - Navigate
//	Enter/Space  - Play the selected gauntlet
//	Tab          - Best runs board
//	Q            - Quit
func runMenu(_ *cobra.Command, _ []string) {
	a := setup()
	store := a.tryStore()
	defer closeStore(store)

	width, height := terminalSize()
	cfg := core.RuntimeConfig{Seed: flagSeed}

	if err := tui.RunSession(store, a.envFactory(), cfg, width, height); err != nil {
		fatalf("%v", err)
	}
}
