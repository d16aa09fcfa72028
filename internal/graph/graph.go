// Package graph models a gauntlet as a directed acyclic graph of trainer
// encounters with one designated start node.
package graph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vovakirdan/nuzlocke-gauntlet/internal/creature"
)

var (
	ErrCycle       = errors.New("graph: cycle detected")
	ErrUnknownNode = errors.New("graph: unknown node")
	ErrNoStart     = errors.New("graph: no start node")
)

// Kind classifies a node. Only optional kinds may be skipped.
type Kind string

const (
	KindGym   Kind = "gym"   // mandatory milestone
	KindBoss  Kind = "boss"  // mandatory story battle
	KindEvent Kind = "event" // optional battle
)

// Optional reports whether nodes of this kind may be skipped.
func (k Kind) Optional() bool {
	return k == KindEvent
}

// Node is a single trainer encounter. Nodes are immutable once added.
type Node struct {
	ID       string            `yaml:"id" json:"id"`
	Name     string            `yaml:"name" json:"name"`
	Kind     Kind              `yaml:"kind" json:"kind"`
	Team     []creature.Spec   `yaml:"team" json:"team"`
	LevelCap int               `yaml:"level_cap,omitempty" json:"level_cap,omitempty"`
	Unlocks  []string          `yaml:"unlocks,omitempty" json:"unlocks,omitempty"`
	Data     map[string]string `yaml:"data,omitempty" json:"data,omitempty"`
}

// Optional reports whether the node may be skipped.
func (n *Node) Optional() bool {
	return n.Kind.Optional()
}

// Cap returns the node's level cap, falling back to the team's highest level.
func (n *Node) Cap() int {
	if n.LevelCap > 0 {
		return n.LevelCap
	}
	top := 0
	for _, s := range n.Team {
		top = max(top, s.Level)
	}
	return top
}

// Graph holds nodes and successor lists. Read-only once validated.
type Graph struct {
	nodes map[string]*Node
	order []string // insertion order
	index map[string]int
	succ  map[string][]string
	pred  map[string]int
	start string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		index: make(map[string]int),
		succ:  make(map[string][]string),
		pred:  make(map[string]int),
	}
}

// AddNode adds a node. The first node added becomes the start unless
// SetStart is called.
func (g *Graph) AddNode(n *Node) error {
	if n == nil || n.ID == "" {
		return fmt.Errorf("graph: node must have an id")
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("graph: node %s already exists", n.ID)
	}
	if n.Kind == "" {
		n.Kind = KindGym
	}
	if n.Name == "" {
		n.Name = n.ID
	}

	g.index[n.ID] = len(g.order)
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	if g.start == "" {
		g.start = n.ID
	}
	return nil
}

// AddEdge adds a directed edge. Both ends must exist.
func (g *Graph) AddEdge(from, to string) error {
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("%w: source %s", ErrUnknownNode, from)
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("%w: target %s", ErrUnknownNode, to)
	}
	if slices.Contains(g.succ[from], to) {
		return nil
	}
	g.succ[from] = append(g.succ[from], to)
	g.pred[to]++
	return nil
}

// SetStart designates the start node.
func (g *Graph) SetStart(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	g.start = id
	return nil
}

// Start returns the start node id.
func (g *Graph) Start() string {
	return g.start
}

// Node returns a node by id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Index returns the insertion position of a node, or -1.
func (g *Graph) Index(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// Successors returns the successor ids of a node. Empty means the gauntlet
// is complete after this node.
func (g *Graph) Successors(id string) []string {
	return slices.Clone(g.succ[id])
}

// Validate checks there is exactly one start, every edge resolves and the
// graph has no cycles.
func (g *Graph) Validate() error {
	if len(g.order) == 0 || g.start == "" {
		return ErrNoStart
	}
	if _, ok := g.nodes[g.start]; !ok {
		return fmt.Errorf("%w: start %s", ErrUnknownNode, g.start)
	}

	for _, id := range g.order {
		if g.pred[id] == 0 && id != g.start {
			return fmt.Errorf("graph: node %s has no predecessors but is not the start", id)
		}
	}
	if g.pred[g.start] > 0 {
		return fmt.Errorf("graph: start node %s has predecessors", g.start)
	}

	for from, tos := range g.succ {
		for _, to := range tos {
			if _, ok := g.nodes[to]; !ok {
				return fmt.Errorf("%w: edge %s -> %s", ErrUnknownNode, from, to)
			}
		}
	}

	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(g.order))
	var visit func(id string) error
	visit = func(id string) error {
		color[id] = grey
		for _, next := range g.succ[id] {
			switch color[next] {
			case grey:
				return fmt.Errorf("%w: %s -> %s", ErrCycle, id, next)
			case white:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		color[id] = black
		return nil
	}
	for _, id := range g.order {
		if color[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// Linear builds a validated chain graph from an ordered node list.
func Linear(nodes []*Node) (*Graph, error) {
	g := New()
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for i := 1; i < len(nodes); i++ {
		if err := g.AddEdge(nodes[i-1].ID, nodes[i].ID); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
