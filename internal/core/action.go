// Package core provides the environment contracts shared by every layer:
// actions and masks, phases, observations and step results. It contains no
// external dependencies so env logic stays pure and testable.
package core

// Action is a single discrete decision submitted to an environment step.
// Its meaning depends on the current phase: a starter index, a roster
// index, a move slot, or one of the fixed verbs below.
type Action int

// Fixed-meaning actions used by the STRATEGIST and DECISION phases.
const (
	ActionEngage  Action = 0 // STRATEGIST: fight the current node
	ActionSkip    Action = 1 // STRATEGIST: pass an optional node
	ActionFight   Action = 0 // DECISION: dispatch the battle with the current party
	ActionRebuild Action = 1 // DECISION: rebuild the party from the roster
)

// ActionMask marks which action values are currently legal.
// Index i corresponds to Action(i).
type ActionMask []bool

// NewActionMask creates an all-false mask of the given size.
func NewActionMask(size int) ActionMask {
	if size < 0 {
		size = 0
	}
	return make(ActionMask, size)
}

// Allow marks an action as legal. Out-of-range actions are ignored.
func (m ActionMask) Allow(a Action) {
	if int(a) >= 0 && int(a) < len(m) {
		m[a] = true
	}
}

// Legal returns true if the action is inside the mask and allowed.
func (m ActionMask) Legal(a Action) bool {
	if int(a) < 0 || int(a) >= len(m) {
		return false
	}
	return m[a]
}

// Actions returns the legal actions in ascending order.
func (m ActionMask) Actions() []Action {
	out := make([]Action, 0, len(m))
	for i, ok := range m {
		if ok {
			out = append(out, Action(i))
		}
	}
	return out
}

// Count returns the number of legal actions.
func (m ActionMask) Count() int {
	n := 0
	for _, ok := range m {
		if ok {
			n++
		}
	}
	return n
}

// Clone creates a copy of this mask.
func (m ActionMask) Clone() ActionMask {
	out := make(ActionMask, len(m))
	copy(out, m)
	return out
}
