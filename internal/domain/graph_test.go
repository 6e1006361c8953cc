package domain

import (
	"errors"
	"testing"
)

func sampleGraph() *Graph {
	g := NewGraph()
	g.AddNode(*NewNode("sw1", NodeTypeSwitch, "switch one"))
	g.AddNode(*NewNode("sw2", NodeTypeSwitch, "switch two"))
	g.AddNode(*NewNode("n1", NodeTypeHCA, "node1 HCA-1"))
	g.AddNode(*NewNode("n2", NodeTypeHCA, "node2 HCA-1"))
	g.AddLink(*NewLink("sw1", "sw2"))
	g.AddLink(*NewLink("n1", "sw1"))
	g.AddLink(*NewLink("sw2", "n2"))
	return g
}

func TestNewGraph(t *testing.T) {
	graph := NewGraph()

	if graph.Nodes == nil || len(graph.Nodes) != 0 {
		t.Error("expected empty initialized Nodes")
	}
	if graph.Links == nil || len(graph.Links) != 0 {
		t.Error("expected empty initialized Links")
	}
	if err := graph.Validate(); err != nil {
		t.Errorf("expected empty graph to be valid, got %v", err)
	}
}

func TestGraphValidate(t *testing.T) {
	t.Run("valid graph", func(t *testing.T) {
		if err := sampleGraph().Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("dangling source", func(t *testing.T) {
		g := sampleGraph()
		g.AddLink(*NewLink("ghost", "sw1"))
		err := g.Validate()
		if !errors.Is(err, ErrDanglingLink) {
			t.Errorf("expected ErrDanglingLink, got %v", err)
		}
	})

	t.Run("dangling target", func(t *testing.T) {
		g := sampleGraph()
		g.AddLink(*NewLink("sw1", "ghost"))
		if err := g.Validate(); !errors.Is(err, ErrDanglingLink) {
			t.Errorf("expected ErrDanglingLink, got %v", err)
		}
	})

	t.Run("duplicate node", func(t *testing.T) {
		g := sampleGraph()
		g.AddNode(*NewNode("n1", NodeTypeHCA, "again"))
		if err := g.Validate(); !errors.Is(err, ErrDuplicateNode) {
			t.Errorf("expected ErrDuplicateNode, got %v", err)
		}
	})

	t.Run("empty id", func(t *testing.T) {
		g := sampleGraph()
		g.AddNode(Node{Desc: "nameless"})
		if err := g.Validate(); !errors.Is(err, ErrEmptyNodeID) {
			t.Errorf("expected ErrEmptyNodeID, got %v", err)
		}
	})
}

func TestGraphConnectedSet(t *testing.T) {
	g := sampleGraph()

	tests := []struct {
		id   string
		want []string
	}{
		{"sw1", []string{"sw1", "sw2", "n1"}},
		{"sw2", []string{"sw2", "sw1", "n2"}},
		{"n1", []string{"n1", "sw1"}},
		{"ghost", nil},
	}

	for _, tt := range tests {
		set := g.ConnectedSet(tt.id)
		if len(set) != len(tt.want) {
			t.Errorf("ConnectedSet(%q) has %d members, want %d", tt.id, len(set), len(tt.want))
			continue
		}
		for _, id := range tt.want {
			if _, ok := set[id]; !ok {
				t.Errorf("ConnectedSet(%q) missing %q", tt.id, id)
			}
		}
	}
}

func TestGraphIndex(t *testing.T) {
	g := sampleGraph()
	index := g.Index()

	if len(index) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(index))
	}
	if index["n2"] != 3 {
		t.Errorf("expected n2 at 3, got %d", index["n2"])
	}
}
