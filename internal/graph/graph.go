package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/msalah0e/h2canvas/internal/plant"
)

var (
	ErrNotFound     = errors.New("component not found")
	ErrExists       = errors.New("component already exists")
	ErrNameRequired = errors.New("component name is required")
	ErrUnknownType  = errors.New("unknown component type")
)

// Component is a named, typed node of the plant.
type Component struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// Connection is a directed link between two components.
type Connection struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph holds the components and connections of one editing session.
// It is not safe for concurrent use.
type Graph struct {
	Components  map[string]*Component `json:"components"`
	Connections []*Connection         `json:"connections"`
}

// Stats holds summary counts.
type Stats struct {
	Components    int
	Connections   int
	Electrolyzers int
	Types         int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		Components:  make(map[string]*Component),
		Connections: make([]*Connection, 0),
	}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ─── CRUD ───

// AddComponent registers a component. Names are unique case-insensitively.
func (g *Graph) AddComponent(name, componentType string) error {
	key := normalize(name)
	if key == "" {
		return ErrNameRequired
	}
	if !plant.IsKnown(componentType) {
		return fmt.Errorf("%w: %s", ErrUnknownType, componentType)
	}
	if _, exists := g.Components[key]; exists {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	g.Components[key] = &Component{
		Name:      strings.TrimSpace(name),
		Type:      componentType,
		CreatedAt: time.Now(),
	}
	return nil
}

// Get returns a component by name (case-insensitive).
func (g *Graph) Get(name string) (*Component, error) {
	c, ok := g.Components[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return c, nil
}

// Connect links source to target. One end must be an electrolyzer and the
// other a power source or a storage tank. An electrolyzer keeps at most one
// power source and one storage tank; a new link replaces the previous one.
func (g *Graph) Connect(source, target string) (*Connection, error) {
	src, err := g.Get(source)
	if err != nil {
		return nil, err
	}
	dst, err := g.Get(target)
	if err != nil {
		return nil, err
	}
	if normalize(source) == normalize(target) {
		return nil, fmt.Errorf("cannot connect %s to itself", src.Name)
	}

	electrolyzer, peer := src, dst
	if dst.Type == plant.TypeElectrolyzer {
		electrolyzer, peer = dst, src
	}
	if electrolyzer.Type != plant.TypeElectrolyzer {
		return nil, fmt.Errorf("one end of a connection must be an %s", plant.TypeElectrolyzer)
	}
	role := roleOf(peer.Type)
	if role == "" {
		return nil, fmt.Errorf("cannot connect %s to %s", plant.TypeElectrolyzer, peer.Type)
	}

	for _, c := range g.Connections {
		if normalize(c.Source) == normalize(src.Name) && normalize(c.Target) == normalize(dst.Name) {
			return nil, fmt.Errorf("connection already exists: %s -> %s", src.Name, dst.Name)
		}
	}

	// Replace an existing link of the same role.
	filtered := make([]*Connection, 0, len(g.Connections)+1)
	for _, c := range g.Connections {
		other, ok := g.otherEnd(c, electrolyzer.Name)
		if ok && roleOf(other.Type) == role {
			continue
		}
		filtered = append(filtered, c)
	}

	conn := &Connection{Source: src.Name, Target: dst.Name}
	g.Connections = append(filtered, conn)
	return conn, nil
}

func roleOf(componentType string) string {
	switch {
	case plant.IsPowerSource(componentType):
		return "power"
	case componentType == plant.TypeStorage:
		return "storage"
	}
	return ""
}

// otherEnd returns the component across c from name, if name is an end of c.
func (g *Graph) otherEnd(c *Connection, name string) (*Component, bool) {
	key := normalize(name)
	var other string
	switch key {
	case normalize(c.Source):
		other = c.Target
	case normalize(c.Target):
		other = c.Source
	default:
		return nil, false
	}
	comp, err := g.Get(other)
	if err != nil {
		return nil, false
	}
	return comp, true
}

// Reset removes every component and connection.
func (g *Graph) Reset() {
	g.Components = make(map[string]*Component)
	g.Connections = make([]*Connection, 0)
}

// ─── Query ───

// Peers returns the components connected to name, in either direction.
func (g *Graph) Peers(name string) []*Component {
	var peers []*Component
	for _, c := range g.Connections {
		if other, ok := g.otherEnd(c, name); ok {
			peers = append(peers, other)
		}
	}
	return peers
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	out := New()
	for k, c := range g.Components {
		cp := *c
		out.Components[k] = &cp
	}
	for _, c := range g.Connections {
		cp := *c
		out.Connections = append(out.Connections, &cp)
	}
	return out
}

// GetStats returns summary statistics.
func (g *Graph) GetStats() Stats {
	types := make(map[string]bool)
	electrolyzers := 0
	for _, c := range g.Components {
		types[c.Type] = true
		if c.Type == plant.TypeElectrolyzer {
			electrolyzers++
		}
	}
	return Stats{
		Components:    len(g.Components),
		Connections:   len(g.Connections),
		Electrolyzers: electrolyzers,
		Types:         len(types),
	}
}

// Names returns a sorted list of component display names.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.Components))
	for _, c := range g.Components {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// ─── Export ───

// ExportJSON returns the graph as pretty-printed JSON.
func (g *Graph) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// ExportDOT returns the graph in Graphviz DOT format.
func (g *Graph) ExportDOT() string {
	var b strings.Builder
	b.WriteString("digraph h2canvas {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=rounded];\n\n")

	keys := make([]string, 0, len(g.Components))
	for k := range g.Components {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		c := g.Components[k]
		label := c.Name + "\\n(" + c.Type + ")"
		b.WriteString(fmt.Sprintf("  %q [label=%q];\n", k, label))
	}

	b.WriteString("\n")
	for _, c := range g.Connections {
		b.WriteString(fmt.Sprintf("  %q -> %q;\n", normalize(c.Source), normalize(c.Target)))
	}

	b.WriteString("}\n")
	return b.String()
}
