// Package scene binds graph entities to drawables and keeps them in step
// with the layout simulation.
package scene

import (
	"fabricview/internal/domain"
	"fabricview/internal/layout"
)

// Opacity levels used for highlighting
const (
	OpacityFull   = 1.0
	OpacityDimmed = 0.1
)

// IconResolver picks the icon for a node
type IconResolver interface {
	Icon(node *domain.Node) string
}

// NodeDrawable is the icon, label and tooltip group drawn for a node
type NodeDrawable struct {
	ID      string  `json:"id"`
	Icon    string  `json:"icon"`
	Label   string  `json:"label"`
	Tooltip string  `json:"tooltip"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Opacity float64 `json:"opacity"`
}

// LinkDrawable is the line drawn for a link
type LinkDrawable struct {
	Source  string  `json:"source"`
	Target  string  `json:"target"`
	Width   float64 `json:"width"`
	X1      float64 `json:"x1"`
	Y1      float64 `json:"y1"`
	X2      float64 `json:"x2"`
	Y2      float64 `json:"y2"`
	Opacity float64 `json:"opacity"`
}

// Frame is a point-in-time copy of every drawable
type Frame struct {
	Nodes []NodeDrawable `json:"nodes"`
	Links []LinkDrawable `json:"links"`
}

type linkBinding struct {
	drawable       LinkDrawable
	source, target *NodeDrawable
}

// Scene holds the drawables of one dataset. It is built once per dataset
// and never rebound; a dataset switch builds a new Scene.
type Scene struct {
	nodes []*NodeDrawable
	byID  map[string]*NodeDrawable
	links []*linkBinding
}

// Bind builds one drawable per node and per link of a validated graph
func Bind(g *domain.Graph, icons IconResolver) *Scene {
	s := &Scene{
		nodes: make([]*NodeDrawable, 0, len(g.Nodes)),
		byID:  make(map[string]*NodeDrawable, len(g.Nodes)),
		links: make([]*linkBinding, 0, len(g.Links)),
	}

	for i := range g.Nodes {
		node := &g.Nodes[i]
		d := &NodeDrawable{
			ID:      node.ID,
			Icon:    icons.Icon(node),
			Label:   Label(node.Desc),
			Tooltip: Tooltip(node.Type),
			Opacity: OpacityFull,
		}
		s.nodes = append(s.nodes, d)
		s.byID[node.ID] = d
	}

	for _, link := range g.Links {
		s.links = append(s.links, &linkBinding{
			drawable: LinkDrawable{
				Source:  link.Source,
				Target:  link.Target,
				Width:   Width(link.Value),
				Opacity: OpacityFull,
			},
			source: s.byID[link.Source],
			target: s.byID[link.Target],
		})
	}

	return s
}

// Refresh copies simulation positions onto the drawables
func (s *Scene) Refresh(sim *layout.Simulation) {
	for _, n := range sim.Nodes() {
		if d, ok := s.byID[n.ID]; ok {
			d.X, d.Y = n.X, n.Y
		}
	}

	for _, l := range s.links {
		if l.source == nil || l.target == nil {
			continue
		}
		l.drawable.X1, l.drawable.Y1 = l.source.X, l.source.Y
		l.drawable.X2, l.drawable.Y2 = l.target.X, l.target.Y
	}
}

// NodeCount returns the number of node drawables
func (s *Scene) NodeCount() int {
	return len(s.nodes)
}

// LinkCount returns the number of link drawables
func (s *Scene) LinkCount() int {
	return len(s.links)
}

// Node returns the drawable for a node id
func (s *Scene) Node(id string) (NodeDrawable, bool) {
	d, ok := s.byID[id]
	if !ok {
		return NodeDrawable{}, false
	}
	return *d, true
}

// SetNodeOpacity sets the opacity of one node drawable
func (s *Scene) SetNodeOpacity(id string, opacity float64) {
	if d, ok := s.byID[id]; ok {
		d.Opacity = opacity
	}
}

// SetLinkOpacity sets the opacity of the i-th link drawable
func (s *Scene) SetLinkOpacity(i int, opacity float64) {
	if i >= 0 && i < len(s.links) {
		s.links[i].drawable.Opacity = opacity
	}
}

// ResetOpacity makes every drawable fully opaque
func (s *Scene) ResetOpacity() {
	for _, d := range s.nodes {
		d.Opacity = OpacityFull
	}
	for _, l := range s.links {
		l.drawable.Opacity = OpacityFull
	}
}

// Frame copies the drawables for transport
func (s *Scene) Frame() Frame {
	f := Frame{
		Nodes: make([]NodeDrawable, len(s.nodes)),
		Links: make([]LinkDrawable, len(s.links)),
	}
	for i, d := range s.nodes {
		f.Nodes[i] = *d
	}
	for i, l := range s.links {
		f.Links[i] = l.drawable
	}
	return f
}
