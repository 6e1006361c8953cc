package interaction

import (
	"fabricview/internal/domain"
	"fabricview/internal/scene"
)

// Highlight is the opacity view derived from a selection
type Highlight struct {
	Nodes map[string]float64
	Links []float64
}

// ComputeHighlight derives opacities for a selected node id.
// Links touching the node and nodes in its connected set are fully opaque,
// everything else is dimmed.
func ComputeHighlight(g *domain.Graph, selected string) Highlight {
	connected := g.ConnectedSet(selected)

	h := Highlight{
		Nodes: make(map[string]float64, len(g.Nodes)),
		Links: make([]float64, len(g.Links)),
	}

	for _, node := range g.Nodes {
		if _, ok := connected[node.ID]; ok {
			h.Nodes[node.ID] = scene.OpacityFull
		} else {
			h.Nodes[node.ID] = scene.OpacityDimmed
		}
	}

	for i := range g.Links {
		if g.Links[i].Touches(selected) {
			h.Links[i] = scene.OpacityFull
		} else {
			h.Links[i] = scene.OpacityDimmed
		}
	}

	return h
}
