// Package dex answers read-only species questions: legal moves at a level,
// base stats, types and default abilities. A Dex is built once and passed
// to every consumer as an explicit handle.
package dex

import (
	_ "embed"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/core"
)

//go:embed dex.yaml
var embeddedDex []byte

// MoveID is a normalised move name (lowercase, alphanumeric only).
type MoveID string

// NoAbility is reported for species the dex does not know.
const NoAbility = "noability"

// Provider is the moveset and species oracle used by the environment.
type Provider interface {
	LearnableMoves(species string, level int) []MoveID
	BaseStats(species string) [core.StatCount]int
	Types(species string) []string
	DefaultAbility(species string) string
	MoveTag(move string) int
	AbilityTag(ability string) int
	TypeTag(typ string) int
}

// Types in canonical order; tags are 1-based positions in this list.
var typeOrder = []string{
	"Normal", "Fire", "Water", "Electric", "Grass", "Ice",
	"Fighting", "Poison", "Ground", "Flying", "Psychic", "Bug",
	"Rock", "Ghost", "Dragon", "Dark", "Steel", "Fairy",
}

// TypeCount is the number of distinct type tags.
var TypeCount = len(typeOrder)

type speciesEntry struct {
	Name      string              `yaml:"name"`
	Types     []string            `yaml:"types"`
	Stats     [core.StatCount]int `yaml:"stats"`
	Abilities []string            `yaml:"abilities"`
	Learnset  map[string]int      `yaml:"learnset"`
}

type dexFile struct {
	Species map[string]speciesEntry `yaml:"species"`
}

type learnedMove struct {
	id    MoveID
	level int
}

type species struct {
	name      string
	types     []string
	stats     [core.StatCount]int
	abilities []string
	learnset  []learnedMove // sorted by level, then id
}

// Dex is an in-memory Provider.
type Dex struct {
	species  map[string]*species
	moveTags map[MoveID]int
	abiTags  map[string]int
	typeTags map[string]int
}

var _ Provider = (*Dex)(nil)

var (
	defaultOnce sync.Once
	defaultDex  *Dex
	defaultErr  error
)

// Default returns the dex built from the embedded data file.
func Default() (*Dex, error) {
	defaultOnce.Do(func() {
		defaultDex, defaultErr = Parse(embeddedDex)
	})
	return defaultDex, defaultErr
}

// Parse builds a Dex from YAML data.
func Parse(data []byte) (*Dex, error) {
	var f dexFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("dex: cannot parse data: %w", err)
	}
	if len(f.Species) == 0 {
		return nil, fmt.Errorf("dex: no species defined")
	}

	d := &Dex{
		species:  make(map[string]*species, len(f.Species)),
		moveTags: make(map[MoveID]int),
		abiTags:  make(map[string]int),
		typeTags: make(map[string]int, len(typeOrder)),
	}
	for i, t := range typeOrder {
		d.typeTags[ToID(t)] = i + 1
	}

	moveSet := make(map[MoveID]struct{})
	abilitySet := make(map[string]struct{})

	for key, e := range f.Species {
		sp := &species{
			name:      e.Name,
			types:     slices.Clone(e.Types),
			stats:     e.Stats,
			abilities: make([]string, 0, len(e.Abilities)),
		}
		if sp.name == "" {
			sp.name = key
		}
		for _, t := range e.Types {
			if _, ok := d.typeTags[ToID(t)]; !ok {
				return nil, fmt.Errorf("dex: species %q has unknown type %q", key, t)
			}
		}
		for _, a := range e.Abilities {
			id := ToID(a)
			sp.abilities = append(sp.abilities, id)
			abilitySet[id] = struct{}{}
		}
		for name, lvl := range e.Learnset {
			id := MoveID(ToID(name))
			sp.learnset = append(sp.learnset, learnedMove{id: id, level: lvl})
			moveSet[id] = struct{}{}
		}
		sort.Slice(sp.learnset, func(i, j int) bool {
			a, b := sp.learnset[i], sp.learnset[j]
			if a.level != b.level {
				return a.level < b.level
			}
			return a.id < b.id
		})
		d.species[ToID(key)] = sp
	}

	moves := make([]string, 0, len(moveSet))
	for m := range moveSet {
		moves = append(moves, string(m))
	}
	sort.Strings(moves)
	for i, m := range moves {
		d.moveTags[MoveID(m)] = i + 1
	}

	abilities := make([]string, 0, len(abilitySet))
	for a := range abilitySet {
		abilities = append(abilities, a)
	}
	sort.Strings(abilities)
	for i, a := range abilities {
		d.abiTags[a] = i + 1
	}

	return d, nil
}

// ToID normalises a display name to its id form.
func ToID(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// lookup resolves a species, falling back to the text before the first '-'.
func (d *Dex) lookup(name string) (*species, bool) {
	if sp, ok := d.species[ToID(name)]; ok {
		return sp, true
	}
	base, _, found := strings.Cut(name, "-")
	if !found {
		return nil, false
	}
	sp, ok := d.species[ToID(base)]
	return sp, ok
}

// Known reports whether the species (or its base form) is in the dex.
func (d *Dex) Known(name string) bool {
	_, ok := d.lookup(name)
	return ok
}

// Name returns the display name for a species, or the input if unknown.
func (d *Dex) Name(name string) string {
	if sp, ok := d.lookup(name); ok {
		return sp.name
	}
	return name
}

// LearnableMoves returns the moves learnable by level-up at or below level,
// ordered by learn level.
func (d *Dex) LearnableMoves(name string, level int) []MoveID {
	sp, ok := d.lookup(name)
	if !ok {
		return nil
	}
	out := make([]MoveID, 0, len(sp.learnset))
	for _, m := range sp.learnset {
		if m.level <= level {
			out = append(out, m.id)
		}
	}
	return out
}

// BaseStats returns [HP, Atk, Def, SpA, SpD, Spe]; zeros when unknown.
func (d *Dex) BaseStats(name string) [core.StatCount]int {
	if sp, ok := d.lookup(name); ok {
		return sp.stats
	}
	return [core.StatCount]int{}
}

// Types returns the species' types; empty when unknown.
func (d *Dex) Types(name string) []string {
	if sp, ok := d.lookup(name); ok {
		return slices.Clone(sp.types)
	}
	return nil
}

// DefaultAbility returns the first listed ability, or NoAbility.
func (d *Dex) DefaultAbility(name string) string {
	if sp, ok := d.lookup(name); ok && len(sp.abilities) > 0 {
		return sp.abilities[0]
	}
	return NoAbility
}

// MoveTag returns the 1-based id of a move over the sorted move list; 0 if unknown.
func (d *Dex) MoveTag(move string) int {
	return d.moveTags[MoveID(ToID(move))]
}

// AbilityTag returns the 1-based id of an ability; 0 if unknown.
func (d *Dex) AbilityTag(ability string) int {
	return d.abiTags[ToID(ability)]
}

// TypeTag returns the 1-based id of a type; 0 if unknown.
func (d *Dex) TypeTag(typ string) int {
	return d.typeTags[ToID(typ)]
}

// MoveCount is the size of the move vocabulary, excluding the empty tag.
func (d *Dex) MoveCount() int {
	return len(d.moveTags)
}

// SpeciesCount returns the number of species entries.
func (d *Dex) SpeciesCount() int {
	return len(d.species)
}
