// Package policy holds baseline agents that pick actions from an
// observation and its action mask.
package policy

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/core"
)

// Policy chooses the next action. Implementations only return actions the
// observation's mask allows, unless the mask allows none.
type Policy interface {
	Name() string
	Act(obs core.Observation) core.Action
}

// Factory creates a policy for one run.
type Factory func(seed int64) Policy

var factories = map[string]Factory{
	"random": func(seed int64) Policy { return NewRandom(seed) },
	"greedy": func(int64) Policy { return NewGreedy() },
}

// New creates the named policy.
func New(name string, seed int64) (Policy, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("policy: unknown policy %q", name)
	}
	return f(seed), nil
}

// Names lists the available policies.
func Names() []string {
	out := make([]string, 0, len(factories))
	for n := range factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Random picks uniformly among legal actions.
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a seeded random policy.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (p *Random) Name() string { return "random" }

// Act implements Policy.
func (p *Random) Act(obs core.Observation) core.Action {
	legal := obs.Mask.Actions()
	if len(legal) == 0 {
		return 0
	}
	return legal[p.rng.Intn(len(legal))]
}

// Greedy fights whenever it can, never skips, fills the party with the
// first legal members and takes the first legal moves.
type Greedy struct{}

// NewGreedy creates a greedy policy.
func NewGreedy() *Greedy { return &Greedy{} }

func (p *Greedy) Name() string { return "greedy" }

// Act implements Policy.
func (p *Greedy) Act(obs core.Observation) core.Action {
	legal := obs.Mask.Actions()
	if len(legal) == 0 {
		return 0
	}

	switch obs.Phase {
	case core.PhaseStrategist:
		return core.ActionEngage
	case core.PhaseDecision:
		if obs.Mask.Legal(core.ActionFight) && partyFilled(obs) {
			return core.ActionFight
		}
		return core.ActionRebuild
	}
	return legal[0]
}

// partyFilled reports whether the active party is as large as the living
// roster allows.
func partyFilled(obs core.Observation) bool {
	members := 0
	for _, l := range obs.PartyLevels {
		if l > 0 {
			members++
		}
	}
	return members >= min(obs.AliveCount, core.PartySize)
}
