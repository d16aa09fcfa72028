// Package data loads gauntlet definitions and encounter tables from YAML.
// The gauntlets and encounters shipped with the binary are embedded; user
// gauntlets live in ~/.nuzlocke/gauntlets.
package data

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/encounter"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/gauntlet"
	"github.com/vovakirdan/nuzlocke-gauntlet/internal/graph"
)

//go:embed gauntlets/*.yaml
var gauntletFS embed.FS

//go:embed encounters.yaml
var encountersYAML []byte

// File is the on-disk gauntlet layout. Without edges the nodes form a
// chain in file order; with edges the first node is the start unless
// Start names another.
type File struct {
	ID          string           `yaml:"id"`
	Title       string           `yaml:"title"`
	Description string           `yaml:"description,omitempty"`
	Start       string           `yaml:"start,omitempty"`
	Nodes       []*graph.Node    `yaml:"nodes"`
	Edges       [][]string       `yaml:"edges,omitempty"`
	Rules       []encounter.Rule `yaml:"rules,omitempty"`
	Starters    []creature.Spec  `yaml:"starters,omitempty"`
}

type encountersFile struct {
	Locations encounter.Table `yaml:"locations"`
}

var (
	encOnce  sync.Once
	encTable encounter.Table
	encErr   error
)

// Encounters returns the embedded encounter table.
func Encounters() (encounter.Table, error) {
	encOnce.Do(func() {
		encTable, encErr = ParseEncounters(encountersYAML)
	})
	return encTable, encErr
}

// ParseEncounters decodes an encounter table.
func ParseEncounters(data []byte) (encounter.Table, error) {
	var f encountersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("data: cannot parse encounters: %w", err)
	}
	for loc, opts := range f.Locations {
		for _, o := range opts {
			if o.Species == "" {
				return nil, fmt.Errorf("data: location %q has an option without species", loc)
			}
			if o.Rate < 0 {
				return nil, fmt.Errorf("data: location %q has a negative rate for %s", loc, o.Species)
			}
		}
	}
	return f.Locations, nil
}

// Parse decodes a gauntlet file and builds its definition.
func Parse(data []byte, table encounter.Table) (*gauntlet.Definition, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("data: cannot parse gauntlet: %w", err)
	}
	return f.Build(table)
}

// Build turns the file into a validated definition.
func (f *File) Build(table encounter.Table) (*gauntlet.Definition, error) {
	if f.ID == "" {
		return nil, fmt.Errorf("data: gauntlet has no id")
	}
	if len(f.Nodes) == 0 {
		return nil, fmt.Errorf("data: gauntlet %s has no nodes", f.ID)
	}

	g, err := f.graph()
	if err != nil {
		return nil, fmt.Errorf("data: gauntlet %s: %w", f.ID, err)
	}
	rules, err := encounter.CompileRules(f.Rules)
	if err != nil {
		return nil, fmt.Errorf("data: gauntlet %s: %w", f.ID, err)
	}

	title := f.Title
	if title == "" {
		title = f.ID
	}
	def := &gauntlet.Definition{
		ID:          f.ID,
		Title:       title,
		Description: f.Description,
		Graph:       g,
		Encounters:  table,
		Rules:       rules,
		Starters:    f.Starters,
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func (f *File) graph() (*graph.Graph, error) {
	if len(f.Edges) == 0 && f.Start == "" {
		return graph.Linear(f.Nodes)
	}

	g := graph.New()
	for _, n := range f.Nodes {
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, e := range f.Edges {
		if len(e) != 2 {
			return nil, fmt.Errorf("edge %v must name exactly two nodes", e)
		}
		if err := g.AddEdge(e[0], e[1]); err != nil {
			return nil, err
		}
	}
	if f.Start != "" {
		if err := g.SetStart(f.Start); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Marshal encodes a gauntlet file as YAML.
func Marshal(f *File) ([]byte, error) {
	out, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("data: cannot encode gauntlet %s: %w", f.ID, err)
	}
	return out, nil
}

// Embedded returns the gauntlets shipped with the binary, sorted by id.
func Embedded() ([]*gauntlet.Definition, error) {
	table, err := Encounters()
	if err != nil {
		return nil, err
	}
	entries, err := gauntletFS.ReadDir("gauntlets")
	if err != nil {
		return nil, fmt.Errorf("data: cannot list embedded gauntlets: %w", err)
	}

	defs := make([]*gauntlet.Definition, 0, len(entries))
	for _, e := range entries {
		raw, err := gauntletFS.ReadFile("gauntlets/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("data: cannot read %s: %w", e.Name(), err)
		}
		def, err := Parse(raw, table)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}

// LoadFile reads a single gauntlet file from disk.
func LoadFile(path string, table encounter.Table) (*gauntlet.Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("data: cannot read %s: %w", path, err)
	}
	def, err := Parse(raw, table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// LoadDir reads every *.yaml gauntlet in dir. A missing directory yields
// no gauntlets and no error.
func LoadDir(dir string, table encounter.Table) ([]*gauntlet.Definition, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("data: cannot list %s: %w", dir, err)
	}

	var defs []*gauntlet.Definition
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		def, err := LoadFile(filepath.Join(dir, e.Name()), table)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// UserDir returns ~/.nuzlocke/gauntlets, or empty if home is unavailable.
func UserDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".nuzlocke", "gauntlets")
}
