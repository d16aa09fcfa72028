// Package creature defines the immutable creature specification and the
// mutable per-run instance that wraps it.
package creature

import "slices"

// MaxMoves is the largest number of moves a spec may carry.
const MaxMoves = 4

// Stat keys in display order, as used by EV/IV maps.
var StatKeys = []string{"HP", "Atk", "Def", "SpA", "SpD", "Spe"}

// Spec is a static creature configuration. Treat values as immutable:
// the With* helpers return modified copies and never touch the receiver.
type Spec struct {
	Species string         `yaml:"species" json:"species"`
	Level   int            `yaml:"level" json:"level"`
	Moves   []string       `yaml:"moves,omitempty" json:"moves,omitempty"`
	Ability string         `yaml:"ability,omitempty" json:"ability,omitempty"`
	Item    string         `yaml:"item,omitempty" json:"item,omitempty"`
	Nature  string         `yaml:"nature,omitempty" json:"nature,omitempty"`
	EVs     map[string]int `yaml:"evs,omitempty" json:"evs,omitempty"`
	IVs     map[string]int `yaml:"ivs,omitempty" json:"ivs,omitempty"`
}

// Clone returns a deep copy of the spec.
func (s Spec) Clone() Spec {
	out := s
	out.Moves = slices.Clone(s.Moves)
	out.EVs = cloneStats(s.EVs)
	out.IVs = cloneStats(s.IVs)
	return out
}

// WithLevel returns a copy with the given level.
func (s Spec) WithLevel(level int) Spec {
	out := s.Clone()
	out.Level = level
	return out
}

// WithMoves returns a copy carrying at most MaxMoves of the given moves.
func (s Spec) WithMoves(moves []string) Spec {
	out := s.Clone()
	if len(moves) > MaxMoves {
		moves = moves[:MaxMoves]
	}
	out.Moves = slices.Clone(moves)
	return out
}

// Equal reports whether two specs describe the same configuration.
func (s Spec) Equal(o Spec) bool {
	return s.Species == o.Species &&
		s.Level == o.Level &&
		s.Ability == o.Ability &&
		s.Item == o.Item &&
		s.Nature == o.Nature &&
		slices.Equal(s.Moves, o.Moves) &&
		statsEqual(s.EVs, o.EVs) &&
		statsEqual(s.IVs, o.IVs)
}

func cloneStats(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func statsEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}
