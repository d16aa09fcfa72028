package gauntlet

import (
	"fmt"
	"slices"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/core"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/graph"
)

// ActionMask returns the legal actions for the current phase.
func (e *Env) ActionMask() core.ActionMask {
	n := e.opts.Env.ActionCount
	mask := core.NewActionMask(n)

	switch e.phase {
	case core.PhaseSelectStarter:
		limit := min(len(e.def.starters()), n)
		for i := 0; i < limit; i++ {
			mask.Allow(core.Action(i))
		}

	case core.PhaseStrategist:
		mask.Allow(core.ActionEngage)
		if node, ok := e.def.Graph.Node(e.node); ok && node.Optional() {
			mask.Allow(core.ActionSkip)
		}

	case core.PhaseDecision:
		if len(e.party) > 0 {
			mask.Allow(core.ActionFight)
		}
		mask.Allow(core.ActionRebuild)

	case core.PhaseBuildSpecies:
		for i, ok := range e.builder.Selectable() {
			if ok && i < n {
				mask.Allow(core.Action(i))
			}
		}

	case core.PhaseBuildMove:
		limit := min(len(e.builder.LegalMoves()), n-1)
		for i := 0; i < limit; i++ {
			mask.Allow(core.Action(i))
		}
		mask.Allow(e.stopAction())
	}

	return mask
}

// Observe builds the observation for the current state.
func (e *Env) Observe() core.Observation {
	obs := core.Observation{
		Phase:     e.phase,
		NodeIndex: e.def.Graph.Index(e.node),
		NodeCount: e.def.Graph.Len(),
		Mask:      e.ActionMask(),
	}
	if e.roster == nil {
		return obs
	}
	obs.AliveCount = e.roster.AliveCount()

	members := e.party
	if e.phase == core.PhaseBuildSpecies || e.phase == core.PhaseBuildMove {
		obs.BuildSlot = e.builder.Slot()
		members = e.builder.Members()
		if cur := e.builder.Current(); cur != nil {
			members = append(members, cur.ID)
		}
	}
	for i, id := range members {
		if i >= core.PartySize {
			break
		}
		if inst, ok := e.roster.Get(id); ok {
			obs.PartyLevels[i] = inst.Spec.Level
		}
	}

	if e.phase.Terminal() {
		return obs
	}
	if node, ok := e.def.Graph.Node(e.node); ok {
		for i, s := range node.Team {
			if i >= core.PartySize {
				break
			}
			obs.Opponent[i] = e.encodeOpponent(s)
		}
	}
	return obs
}

func (e *Env) encodeOpponent(s creature.Spec) core.OpponentSlot {
	d := e.opts.Dex
	slot := core.OpponentSlot{
		BaseStats: d.BaseStats(s.Species),
		Level:     s.Level,
	}
	for i, t := range d.Types(s.Species) {
		if i >= core.MaxTypes {
			break
		}
		slot.Types[i] = d.TypeTag(t)
	}
	ability := s.Ability
	if ability == "" {
		ability = d.DefaultAbility(s.Species)
	}
	slot.Ability = d.AbilityTag(ability)
	for i, m := range s.Moves {
		if i >= core.MaxMoves {
			break
		}
		slot.Moves[i] = d.MoveTag(m)
	}
	return slot
}

// State returns the episode summary.
func (e *Env) State() core.EpisodeState {
	st := e.state
	if e.roster != nil {
		st.Survivors = e.roster.AliveCount()
		st.RosterSize = e.roster.Len()
	}
	return st
}

// Phase returns the current phase.
func (e *Env) Phase() core.Phase {
	return e.phase
}

// Node returns the node the run is currently at.
func (e *Env) Node() *graph.Node {
	n, _ := e.def.Graph.Node(e.node)
	return n
}

// Definition returns the gauntlet being played.
func (e *Env) Definition() *Definition {
	return e.def
}

// Party returns the active party in battle order.
func (e *Env) Party() []*creature.Instance {
	out := make([]*creature.Instance, 0, len(e.party))
	for _, id := range e.party {
		if inst, ok := e.roster.Get(id); ok {
			out = append(out, inst)
		}
	}
	return out
}

// Roster returns every instance owned in the run, dead ones included.
func (e *Env) Roster() []*creature.Instance {
	if e.roster == nil {
		return nil
	}
	return e.roster.All()
}

// Unlocked returns the locations unlocked so far, in order.
func (e *Env) Unlocked() []string {
	return slices.Clone(e.unlocked)
}

// Battles returns a record of every battle fought in the run.
func (e *Env) Battles() []BattleRecord {
	return slices.Clone(e.battles)
}

// Rebuilds returns the consecutive rebuild counter.
func (e *Env) Rebuilds() int {
	return e.rebuilds
}

// Describe returns a short label for an action in the current phase.
func (e *Env) Describe(a core.Action) string {
	switch e.phase {
	case core.PhaseSelectStarter:
		starters := e.def.starters()
		if int(a) >= 0 && int(a) < len(starters) {
			return starters[a].Species
		}
	case core.PhaseStrategist:
		switch a {
		case core.ActionEngage:
			return "Engage"
		case core.ActionSkip:
			return "Skip"
		}
	case core.PhaseDecision:
		switch a {
		case core.ActionFight:
			return "Fight"
		case core.ActionRebuild:
			return "Rebuild party"
		}
	case core.PhaseBuildSpecies:
		alive := e.roster.AliveRoster()
		if int(a) >= 0 && int(a) < len(alive) {
			s := alive[a].Spec
			return fmt.Sprintf("%s Lv%d", s.Species, s.Level)
		}
	case core.PhaseBuildMove:
		if a == e.stopAction() {
			return "Done"
		}
		legal := e.builder.LegalMoves()
		if int(a) >= 0 && int(a) < len(legal) {
			return string(legal[a])
		}
	}
	return fmt.Sprintf("#%d", int(a))
}

// BuildLevel returns the level moves are checked against while building.
func (e *Env) BuildLevel() int {
	return e.builder.BuildLevel()
}

// Building returns the member in move selection and its chosen moves.
func (e *Env) Building() (*creature.Instance, []string) {
	if e.builder == nil {
		return nil, nil
	}
	return e.builder.Current(), e.builder.Chosen()
}
