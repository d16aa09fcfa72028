// Package encounter rolls wild creatures for unlocked locations and decides
// which locations a cleared node opens up.
package encounter

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/dex"
)

const (
	// DefaultLevel is used when an option's level cannot be parsed.
	DefaultLevel = 5
	// DupeRetries bounds how many rolls are spent avoiding owned species.
	DupeRetries = 10
)

// Option is one possible encounter at a location.
type Option struct {
	Species string  `yaml:"species" json:"species"`
	Rate    float64 `yaml:"rate" json:"rate"`
	Level   string  `yaml:"level" json:"level"` // "7" or a range like "2-4"
}

// Table maps location names to their encounter options.
type Table map[string][]Option

// Locations returns the number of locations with at least one option.
func (t Table) Locations() int {
	n := 0
	for _, opts := range t {
		if len(opts) > 0 {
			n++
		}
	}
	return n
}

// Roller draws encounters from a table with a run-owned RNG.
type Roller struct {
	table Table
	dex   dex.Provider
	rng   *rand.Rand
}

// NewRoller creates a roller seeded for deterministic runs.
func NewRoller(table Table, d dex.Provider, seed int64) *Roller {
	return &Roller{
		table: table,
		dex:   d,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Roll draws one encounter at location. Species for which owned returns
// true are re-rolled up to DupeRetries times; if every roll is a dupe, or
// the location is unknown or empty, nothing is caught.
func (r *Roller) Roll(location string, owned func(species string) bool) (*creature.Instance, bool) {
	opts := r.table[location]
	if len(opts) == 0 {
		return nil, false
	}

	for attempt := 0; attempt < DupeRetries; attempt++ {
		pick := r.pick(opts)
		if owned != nil && owned(pick.Species) {
			continue
		}
		spec := creature.Spec{
			Species: pick.Species,
			Level:   r.level(pick.Level),
			Ability: r.dex.DefaultAbility(pick.Species),
		}
		return creature.NewInstance(spec), true
	}
	return nil, false
}

// pick chooses an option weighted by rate, uniformly if no rate is set.
func (r *Roller) pick(opts []Option) Option {
	total := 0.0
	for _, o := range opts {
		if o.Rate > 0 {
			total += o.Rate
		}
	}
	if total <= 0 {
		return opts[r.rng.Intn(len(opts))]
	}

	x := r.rng.Float64() * total
	upto := 0.0
	for _, o := range opts {
		if o.Rate <= 0 {
			continue
		}
		upto += o.Rate
		if x < upto {
			return o
		}
	}
	return opts[len(opts)-1]
}

// level parses "7" or "2-4"; ranges are inclusive.
func (r *Roller) level(s string) int {
	s = strings.TrimSpace(s)
	lo, hi, isRange := strings.Cut(s, "-")
	if !isRange {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
		return DefaultLevel
	}

	a, errA := strconv.Atoi(strings.TrimSpace(lo))
	b, errB := strconv.Atoi(strings.TrimSpace(hi))
	if errA != nil || errB != nil || a <= 0 || b < a {
		return DefaultLevel
	}
	return a + r.rng.Intn(b-a+1)
}
