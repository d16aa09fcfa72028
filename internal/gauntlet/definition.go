package gauntlet

import (
	"fmt"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/encounter"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/graph"
)

// Definition is a loaded gauntlet: its trainer graph, the encounter table
// for unlockable locations and any rule-based unlocks. Read-only during a run.
type Definition struct {
	ID          string
	Title       string
	Description string
	Graph       *graph.Graph
	Encounters  encounter.Table
	Rules       *encounter.RuleSet
	Starters    []creature.Spec // nil uses the default catalogue
}

// Validate checks the definition can drive a run.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("gauntlet: definition has no id")
	}
	if d.Graph == nil {
		return fmt.Errorf("gauntlet: %s has no graph", d.ID)
	}
	if err := d.Graph.Validate(); err != nil {
		return fmt.Errorf("gauntlet: %s: %w", d.ID, err)
	}
	for _, n := range d.Graph.Nodes() {
		if len(n.Team) == 0 {
			return fmt.Errorf("gauntlet: %s: node %s has an empty team", d.ID, n.ID)
		}
	}
	return nil
}

// starters returns the starter list for this gauntlet.
func (d *Definition) starters() []creature.Spec {
	if len(d.Starters) > 0 {
		return d.Starters
	}
	return starterCatalogue
}
