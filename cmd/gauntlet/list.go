package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available gauntlets",
	Long:  `Shows the shipped gauntlets and any found in ~/.nuzlocke/gauntlets.`,
	Run:   runList,
}

func runList(_ *cobra.Command, _ []string) {
	setup()
	gauntlets := registry.List()

	if len(gauntlets) == 0 {
		fmt.Println("No gauntlets available.")
		return
	}

	fmt.Println("Available gauntlets:")
	fmt.Println()

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, g := range gauntlets {
		maxIDLen = max(maxIDLen, len(g.ID))
	}

	fmt.Printf("  %-*s  %-8s  %s\n", maxIDLen, "ID", "Trainers", "Title")
	fmt.Printf("  %-*s  %-8s  %s\n", maxIDLen, "--", "--------", "-----")

	for _, g := range gauntlets {
		fmt.Printf("  %-*s  %-8d  %s\n", maxIDLen, g.ID, g.Nodes, g.Title)
	}

	fmt.Println()
	fmt.Println("Run 'gauntlet show <id>' to see its trainers or 'gauntlet play <id>' to play it.")
}
