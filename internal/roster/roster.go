// Package roster holds every creature owned during a run, living or dead.
package roster

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
)

var (
	// ErrInvalidIndex is returned when an index falls outside the alive roster.
	ErrInvalidIndex = errors.New("roster: invalid index")
	// ErrUnknownInstance is returned for ids the roster does not hold.
	ErrUnknownInstance = errors.New("roster: unknown instance")
)

// Store owns the run's creature instances in insertion order.
// Instances are never removed; fainted ones remain as the graveyard.
type Store struct {
	instances []*creature.Instance
	byID      map[string]*creature.Instance
	applied   map[string]struct{} // battle ids already applied
}

// New creates an empty roster.
func New() *Store {
	return &Store{
		byID:    make(map[string]*creature.Instance),
		applied: make(map[string]struct{}),
	}
}

// Add appends an instance. Ids must be unique.
func (s *Store) Add(inst *creature.Instance) error {
	if inst == nil {
		return fmt.Errorf("roster: cannot add nil instance")
	}
	if _, exists := s.byID[inst.ID]; exists {
		return fmt.Errorf("roster: instance %s already present", inst.ID)
	}
	s.instances = append(s.instances, inst)
	s.byID[inst.ID] = inst
	return nil
}

// Get returns the instance with the given id.
func (s *Store) Get(id string) (*creature.Instance, bool) {
	inst, ok := s.byID[id]
	return inst, ok
}

// Len returns the number of instances ever owned, dead ones included.
func (s *Store) Len() int {
	return len(s.instances)
}

// All returns every instance in insertion order.
func (s *Store) All() []*creature.Instance {
	out := make([]*creature.Instance, len(s.instances))
	copy(out, s.instances)
	return out
}

// AliveRoster returns the living instances in insertion order.
// This is the only pool party selection may draw from.
func (s *Store) AliveRoster() []*creature.Instance {
	out := make([]*creature.Instance, 0, len(s.instances))
	for _, inst := range s.instances {
		if inst.Alive {
			out = append(out, inst)
		}
	}
	return out
}

// AliveAt returns the i-th living instance.
func (s *Store) AliveAt(i int) (*creature.Instance, error) {
	alive := s.AliveRoster()
	if i < 0 || i >= len(alive) {
		return nil, fmt.Errorf("%w: %d (alive %d)", ErrInvalidIndex, i, len(alive))
	}
	return alive[i], nil
}

// AliveCount returns the number of living instances.
func (s *Store) AliveCount() int {
	n := 0
	for _, inst := range s.instances {
		if inst.Alive {
			n++
		}
	}
	return n
}

// HasSpecies reports whether any instance, living or dead, is of the species.
func (s *Store) HasSpecies(species string) bool {
	for _, inst := range s.instances {
		if inst.Spec.Species == species {
			return true
		}
	}
	return false
}

// ClearParty drops every in-party flag.
func (s *Store) ClearParty() {
	for _, inst := range s.instances {
		inst.InParty = false
	}
}

// ReplaceSpec swaps an instance's spec for a new value.
func (s *Store) ReplaceSpec(id string, spec creature.Spec) error {
	inst, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInstance, id)
	}
	inst.Spec = spec.Clone()
	return nil
}

// RaiseLevel lifts an instance to at least level. Levels never go down.
// Reports whether the level changed.
func (s *Store) RaiseLevel(id string, level int) (bool, error) {
	inst, ok := s.byID[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownInstance, id)
	}
	if level <= inst.Spec.Level {
		return false, nil
	}
	inst.Spec = inst.Spec.WithLevel(level)
	return true, nil
}

// ApplyBattleResult marks party members dead where survivors[i] is false.
// party holds instance ids in battle order. Applying the same battle id
// twice is a no-op. Returns the number of members that died.
func (s *Store) ApplyBattleResult(battleID string, party []string, survivors []bool) (int, error) {
	if _, done := s.applied[battleID]; done {
		return 0, nil
	}
	if len(party) != len(survivors) {
		return 0, fmt.Errorf("roster: party of %d but %d survivor flags", len(party), len(survivors))
	}
	for _, id := range party {
		if _, ok := s.byID[id]; !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownInstance, id)
		}
	}

	deaths := 0
	for i, id := range party {
		inst := s.byID[id]
		if survivors[i] || !inst.Alive {
			continue
		}
		inst.Faint()
		deaths++
	}
	s.applied[battleID] = struct{}{}
	return deaths, nil
}
