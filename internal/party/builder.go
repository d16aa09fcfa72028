// Package party turns a sequence of discrete picks into a finalized party
// of prepared combatants drawn from the alive roster.
package party

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/core"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/dex"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/roster"
)

var (
	ErrAlreadySelected = errors.New("party: member already selected")
	ErrMemberPending   = errors.New("party: member still in move selection")
	ErrNoMember        = errors.New("party: no member in move selection")
	ErrIllegalMove     = errors.New("party: move not legal")
	ErrComplete        = errors.New("party: party already complete")
)

// DefaultFiller is the move given to a member finalized with no picks.
const DefaultFiller = "tackle"

// Builder accumulates party picks. It is reset with Begin before each build.
type Builder struct {
	roster *roster.Store
	dex    dex.Provider
	filler string
	window int // alive-roster indices beyond it cannot be picked; 0 is unlimited

	levelCap int
	members  []string // finalized instance ids, in pick order

	current *creature.Instance
	level   int // build level of current
	chosen  []string
}

// NewBuilder creates a builder over the roster. An empty filler uses DefaultFiller.
func NewBuilder(r *roster.Store, d dex.Provider, filler string) *Builder {
	if filler == "" {
		filler = DefaultFiller
	}
	return &Builder{roster: r, dex: d, filler: filler}
}

// SetWindow limits member picks to the first n alive-roster entries, the
// indices the action space can address. n <= 0 removes the limit.
func (b *Builder) SetWindow(n int) {
	b.window = max(n, 0)
}

// pickable returns the alive roster truncated to the window.
func (b *Builder) pickable() []*creature.Instance {
	alive := b.roster.AliveRoster()
	if b.window > 0 && len(alive) > b.window {
		alive = alive[:b.window]
	}
	return alive
}

// Begin clears the buffer and every in-party flag. levelCap is the current
// node's cap; members are built at max(level, levelCap).
func (b *Builder) Begin(levelCap int) {
	b.roster.ClearParty()
	b.levelCap = levelCap
	b.members = b.members[:0]
	b.current = nil
	b.chosen = nil
	b.level = 0
}

// Members returns the finalized instance ids in party order.
func (b *Builder) Members() []string {
	return slices.Clone(b.members)
}

// Slot is the index of the member currently being built.
func (b *Builder) Slot() int {
	return len(b.members)
}

// Building reports whether a member is in move selection.
func (b *Builder) Building() bool {
	return b.current != nil
}

// Current returns the member in move selection, if any.
func (b *Builder) Current() *creature.Instance {
	return b.current
}

// Complete reports whether the party is finished: six members built, or
// no alive and unselected instance left to pick inside the window.
func (b *Builder) Complete() bool {
	if b.current != nil {
		return false
	}
	if len(b.members) >= core.PartySize {
		return true
	}
	for _, inst := range b.pickable() {
		if !inst.InParty {
			return false
		}
	}
	return true
}

// Selectable returns, for each alive-roster index, whether it may be picked.
func (b *Builder) Selectable() []bool {
	alive := b.pickable()
	out := make([]bool, len(alive))
	if b.current != nil || len(b.members) >= core.PartySize {
		return out
	}
	for i, inst := range alive {
		out[i] = !inst.InParty
	}
	return out
}

// SelectMember picks the i-th alive instance and enters move selection.
// If the member has no legal moves it is finalized at once; the return
// value reports whether that happened.
func (b *Builder) SelectMember(i int) (bool, error) {
	if b.current != nil {
		return false, ErrMemberPending
	}
	if len(b.members) >= core.PartySize {
		return false, ErrComplete
	}
	if b.window > 0 && i >= b.window {
		return false, fmt.Errorf("%w: %d (window %d)", roster.ErrInvalidIndex, i, b.window)
	}
	inst, err := b.roster.AliveAt(i)
	if err != nil {
		return false, err
	}
	if inst.InParty {
		return false, fmt.Errorf("%w: %s", ErrAlreadySelected, inst.Spec.Species)
	}

	inst.InParty = true
	b.current = inst
	b.level = max(inst.Spec.Level, b.levelCap)
	b.chosen = b.chosen[:0]

	if len(b.LegalMoves()) == 0 {
		return true, b.finalize()
	}
	return false, nil
}

// BuildLevel returns the level moves are checked against for the current member.
func (b *Builder) BuildLevel() int {
	return b.level
}

// LegalMoves lists moves the current member may still pick, in learn order.
func (b *Builder) LegalMoves() []dex.MoveID {
	if b.current == nil {
		return nil
	}
	all := b.dex.LearnableMoves(b.current.Spec.Species, b.level)
	out := make([]dex.MoveID, 0, len(all))
	for _, m := range all {
		if !slices.Contains(b.chosen, string(m)) {
			out = append(out, m)
		}
	}
	return out
}

// Chosen returns the moves picked so far for the current member.
func (b *Builder) Chosen() []string {
	return slices.Clone(b.chosen)
}

// SelectMove adds a move to the current member. The member is finalized on
// its fourth move or when no legal moves remain; the return value reports
// whether that happened.
func (b *Builder) SelectMove(move dex.MoveID) (bool, error) {
	if b.current == nil {
		return false, ErrNoMember
	}
	if !slices.Contains(b.LegalMoves(), move) {
		return false, fmt.Errorf("%w: %s for %s at level %d", ErrIllegalMove, move, b.current.Spec.Species, b.level)
	}

	b.chosen = append(b.chosen, string(move))
	if len(b.chosen) >= creature.MaxMoves || len(b.LegalMoves()) == 0 {
		return true, b.finalize()
	}
	return false, nil
}

// Stop finalizes the current member with the moves chosen so far.
func (b *Builder) Stop() error {
	if b.current == nil {
		return ErrNoMember
	}
	return b.finalize()
}

// finalize writes a new spec value for the current member into the roster.
func (b *Builder) finalize() error {
	moves := slices.Clone(b.chosen)
	if len(moves) == 0 {
		moves = []string{b.filler}
	}

	spec := b.current.Spec.WithMoves(moves)
	if b.level > spec.Level {
		spec = spec.WithLevel(b.level)
	}
	if err := b.roster.ReplaceSpec(b.current.ID, spec); err != nil {
		return err
	}

	b.members = append(b.members, b.current.ID)
	b.current = nil
	b.chosen = nil
	return nil
}
