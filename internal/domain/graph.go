package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyNodeID is returned for a node without an id
	ErrEmptyNodeID = errors.New("node has empty id")
	// ErrDuplicateNode is returned when two nodes share an id
	ErrDuplicateNode = errors.New("duplicate node id")
	// ErrDanglingLink is returned when a link endpoint names no node
	ErrDanglingLink = errors.New("link endpoint not found")
)

// Graph is one complete fabric topology
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Links []Link `json:"links" yaml:"links"`
}

// NewGraph creates an empty graph with initialized collections
func NewGraph() *Graph {
	return &Graph{
		Nodes: make([]Node, 0),
		Links: make([]Link, 0),
	}
}

// AddNode appends a node to the graph
func (g *Graph) AddNode(node Node) {
	g.Nodes = append(g.Nodes, node)
}

// AddLink appends a link to the graph
func (g *Graph) AddLink(link Link) {
	g.Links = append(g.Links, link)
}

// Validate checks node ids and the referential integrity of every link.
// The first violation found is returned.
func (g *Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.Nodes))
	for i, node := range g.Nodes {
		if node.ID == "" {
			return fmt.Errorf("node %d: %w", i, ErrEmptyNodeID)
		}
		if _, ok := seen[node.ID]; ok {
			return fmt.Errorf("node %d: %w: %q", i, ErrDuplicateNode, node.ID)
		}
		seen[node.ID] = struct{}{}
	}

	for i, link := range g.Links {
		if _, ok := seen[link.Source]; !ok {
			return fmt.Errorf("link %d: %w: source %q", i, ErrDanglingLink, link.Source)
		}
		if _, ok := seen[link.Target]; !ok {
			return fmt.Errorf("link %d: %w: target %q", i, ErrDanglingLink, link.Target)
		}
	}

	return nil
}

// Index returns a map from node id to its position in Nodes
func (g *Graph) Index() map[string]int {
	index := make(map[string]int, len(g.Nodes))
	for i, node := range g.Nodes {
		index[node.ID] = i
	}
	return index
}

// Node returns the node with the given id
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// ConnectedSet returns id plus every node with a link to or from it.
// An unknown id yields an empty set.
func (g *Graph) ConnectedSet(id string) map[string]struct{} {
	set := make(map[string]struct{})
	if _, ok := g.Node(id); !ok {
		return set
	}

	set[id] = struct{}{}
	for _, link := range g.Links {
		switch id {
		case link.Source:
			set[link.Target] = struct{}{}
		case link.Target:
			set[link.Source] = struct{}{}
		}
	}
	return set
}
