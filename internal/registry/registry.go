// Package registry provides a global registry of gauntlet definitions.
// The shipped gauntlets register themselves in init() (see internal/data),
// and user gauntlets are added at startup, so commands can discover and
// instantiate environments by id without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/gauntlet"
)

// Info contains metadata about a registered gauntlet.
type Info struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Nodes       int    `json:"nodes"`
}

var (
	defs = make(map[string]*gauntlet.Definition)
	mu   sync.RWMutex
)

// Register adds a definition to the registry.
// Typically called from an init() function.
// Panics if a gauntlet with the same ID is already registered.
func Register(def *gauntlet.Definition) {
	if err := Add(def); err != nil {
		panic(err.Error())
	}
}

// Add adds a definition, failing if its id is taken or it does not validate.
func Add(def *gauntlet.Definition) error {
	if def == nil {
		return fmt.Errorf("registry: nil definition")
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("registry: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if _, exists := defs[def.ID]; exists {
		return fmt.Errorf("registry: gauntlet %q already registered", def.ID)
	}
	defs[def.ID] = def
	return nil
}

// List returns information about all registered gauntlets, sorted by ID.
func List() []Info {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]Info, 0, len(defs))
	for id, d := range defs {
		result = append(result, Info{
			ID:          id,
			Title:       d.Title,
			Description: d.Description,
			Nodes:       d.Graph.Len(),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Lookup returns the definition registered under id.
func Lookup(id string) (*gauntlet.Definition, bool) {
	mu.RLock()
	defer mu.RUnlock()

	d, ok := defs[id]
	return d, ok
}

// Create instantiates a new environment for the gauntlet id.
// Returns an error if the id is not registered.
func Create(id string, opts gauntlet.Options) (*gauntlet.Env, error) {
	d, ok := Lookup(id)
	if !ok {
		return nil, fmt.Errorf("registry: unknown gauntlet %q", id)
	}
	return gauntlet.New(d, opts)
}

// Exists checks if a gauntlet with the given ID is registered.
func Exists(id string) bool {
	_, ok := Lookup(id)
	return ok
}
