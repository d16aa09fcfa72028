// Package sim defines the battle simulator contract together with a local
// heuristic simulator, an HTTP client for a remote battle service and a
// bounded pool that hands out simulators per battle.
package sim

import (
	"context"
	"errors"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
)

// ErrSurvivorMismatch is returned when a simulator reports survival flags
// that do not line up with the submitted team.
var ErrSurvivorMismatch = errors.New("sim: survivor count does not match team")

// DefaultTurnCeiling is the turn count at which a battle is truncated.
const DefaultTurnCeiling = 300

// Metrics are per-battle statistics reported by the simulator.
type Metrics struct {
	Turns           int `json:"turns"`
	OpponentFainted int `json:"opponent_fainted"`
}

// Outcome is the result of one battle. A truncated battle is neither won
// nor lost and all survivors are true.
type Outcome struct {
	Won       bool    `json:"win"`
	Survivors []bool  `json:"survivors"`
	Truncated bool    `json:"truncated"`
	Metrics   Metrics `json:"metrics"`
}

// Deaths counts members that did not survive.
func (o Outcome) Deaths() int {
	n := 0
	for _, ok := range o.Survivors {
		if !ok {
			n++
		}
	}
	return n
}

// Simulator resolves a battle between two teams.
type Simulator interface {
	Simulate(ctx context.Context, mine, enemy []creature.Spec) (Outcome, error)
}

// check validates an outcome against the submitted team.
func check(o Outcome, mine []creature.Spec) (Outcome, error) {
	if len(o.Survivors) != len(mine) {
		return Outcome{}, ErrSurvivorMismatch
	}
	if o.Truncated {
		o.Won = false
		for i := range o.Survivors {
			o.Survivors[i] = true
		}
	}
	return o, nil
}
