// gauntlet is a Nuzlocke gauntlet environment for reinforcement learning
// agents, with tools to play, evaluate and serve it.
//
// Usage:
//
//	gauntlet                      - Interactive gauntlet picker
//	gauntlet list                 - List available gauntlets
//	gauntlet show <gauntlet>      - Show a gauntlet's trainers
//	gauntlet play <gauntlet>      - Play a gauntlet by hand
//	gauntlet evaluate <gauntlet>  - Run a policy over many episodes
//	gauntlet runs [gauntlet]      - Show recorded runs
//	gauntlet serve                - Start the HTTP environment API
//	gauntlet ssh                  - Start SSH server for remote play
//	gauntlet import <sheet>       - Build a gauntlet from a boss sheet
//
// Global flags:
//
//	--config <path> - Config file (default: search ~/.nuzlocke/configs, ./configs)
//	--seed <value>  - Set RNG seed for reproducible runs
//	--db <path>     - Set database path (default: storage.path from config)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Register the shipped gauntlets
	_ "github.com/vovakirdan/nuzlocke-gauntlet/internal/data"
)

var (
	// Global flags
	flagConfig  string
	flagSeed    int64
	flagDBPath  string
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gauntlet",
	Short: "Nuzlocke gauntlet - a trainer gauntlet environment for RL agents",
	Long: `Nuzlocke gauntlet is a turn-based environment where an agent drafts a
party from a permadeath roster and fights a graph of trainers.

Available commands:
  list      - Show all available gauntlets
  show      - Show the trainers of a gauntlet
  play      - Play a gauntlet by hand
  evaluate  - Run a policy over many episodes
  runs      - View recorded runs
  serve     - Start the HTTP environment API
  ssh       - Start SSH server for remote play
  import    - Build a gauntlet from a boss sheet

Run without a command to open the interactive picker.

Examples:
  gauntlet list
  gauntlet play kanto_leaders --seed 42
  gauntlet evaluate kanto_leaders --policy greedy --episodes 500
  gauntlet serve --addr :8080
  gauntlet runs kanto_leaders --export runs.xlsx`,
	Run: runMenu,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to runs database (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sshCmd)
	rootCmd.AddCommand(importCmd)
}

// fatalf prints an error and exits.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
