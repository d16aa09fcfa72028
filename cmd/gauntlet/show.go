package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/registry"
)

var showCmd = &cobra.Command{
	Use:   "show <gauntlet>",
	Short: "Show the trainers of a gauntlet",
	Long: `Print every trainer of a gauntlet in order, with its level cap, team,
the locations it unlocks and the trainers that follow it.

Examples:
  gauntlet show kanto_leaders`,
	Args: cobra.ExactArgs(1),
	Run:  runShow,
}

func runShow(_ *cobra.Command, args []string) {
	setup()
	id := args[0]
	requireGauntlet(id)

	def, _ := registry.Lookup(id)
	g := def.Graph

	fmt.Printf("%s (%s)\n", def.Title, def.ID)
	if def.Description != "" {
		fmt.Println(def.Description)
	}
	fmt.Printf("%d trainers, %d encounter locations, start: %s\n\n", g.Len(), len(def.Encounters), g.Start())

	for i, n := range g.Nodes() {
		name := n.Name
		if name == "" {
			name = n.ID
		}
		fmt.Printf("%2d. %s [%s] cap %d\n", i+1, name, n.Kind, n.Cap())
		for _, s := range n.Team {
			fmt.Printf("      %s\n", teamLine(s))
		}
		if len(n.Unlocks) > 0 {
			fmt.Printf("      unlocks: %s\n", strings.Join(n.Unlocks, ", "))
		}
		if next := g.Successors(n.ID); len(next) > 1 {
			fmt.Printf("      next: %s\n", strings.Join(next, " | "))
		}
	}
}

func teamLine(s creature.Spec) string {
	line := fmt.Sprintf("Lv%-3d %s", s.Level, s.Species)
	if len(s.Moves) > 0 {
		line += "  (" + strings.Join(s.Moves, ", ") + ")"
	}
	return line
}
