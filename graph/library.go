package graph

import (
	"fmt"
	"sort"
)

// Library stores baked graphs indexed by name and by an allocated numeric ID.
// IDs start at 1; 0 never identifies a graph.
type Library struct {
	byID   map[uint16]*Graph
	byName map[string]*Graph
	nextID uint16
}

// NewLibrary returns an empty registry.
func NewLibrary() *Library {
	return &Library{
		byID:   make(map[uint16]*Graph),
		byName: make(map[string]*Graph),
	}
}

// Register adds a baked graph and returns its allocated ID. Names are matched
// case-insensitively and must be unique within the library.
func (l *Library) Register(g *Graph) (uint16, error) {
	if g == nil {
		return 0, fmt.Errorf("graph: register nil graph")
	}
	name := foldName(g.Name())
	if name == "" {
		return 0, fmt.Errorf("graph: register unnamed graph")
	}
	if _, exists := l.byName[name]; exists {
		return 0, fmt.Errorf("graph: duplicate graph %q", g.Name())
	}
	id := l.allocateID()
	l.byID[id] = g
	l.byName[name] = g
	return id, nil
}

func (l *Library) allocateID() uint16 {
	l.nextID++
	if l.nextID == 0 {
		l.nextID++
	}
	return l.nextID
}

// ByID retrieves a registered graph by numeric ID.
func (l *Library) ByID(id uint16) *Graph {
	if l == nil {
		return nil
	}
	return l.byID[id]
}

// ByName retrieves a registered graph by name.
func (l *Library) ByName(name string) *Graph {
	if l == nil {
		return nil
	}
	return l.byName[foldName(name)]
}

// Names returns the registered graph names in sorted order.
func (l *Library) Names() []string {
	if l == nil {
		return nil
	}
	names := make([]string, 0, len(l.byName))
	for _, g := range l.byName {
		names = append(names, g.Name())
	}
	sort.Strings(names)
	return names
}
