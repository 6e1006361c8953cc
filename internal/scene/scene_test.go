package scene

import (
	"testing"

	"fabricview/internal/classify"
	"fabricview/internal/domain"
	"fabricview/internal/layout"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"node42 HCA-1, Port 1", "node42"},
		{"node42 HCA-1", "node42"},
		{"storage3 HCA-12 mlx4_0", "storage3"},
		{"MF0;sw01:IS5030/U1", "MF0;sw01:IS5030/U1"},
		{"node42 HCA-x", "node42 HCA-x"},
		{"nodeHCA-1", "nodeHCA-1"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Label(tt.desc); got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.desc, got, tt.want)
		}
	}
}

func TestTooltip(t *testing.T) {
	tests := []struct {
		nodeType domain.NodeType
		want     string
	}{
		{domain.NodeTypeHCA, "HCA"},
		{domain.NodeTypeSwitch, "Switch"},
		{domain.NodeTypeRouter, "Router"},
		{domain.NodeTypeUnknown, UnknownNodeType},
		{domain.NodeType(9), UnknownNodeType},
	}

	for _, tt := range tests {
		if got := Tooltip(tt.nodeType); got != tt.want {
			t.Errorf("Tooltip(%d) = %q, want %q", int(tt.nodeType), got, tt.want)
		}
	}
}

func TestWidth(t *testing.T) {
	value := func(v float64) *float64 { return &v }

	tests := []struct {
		name  string
		value *float64
		want  float64
	}{
		{"absent", nil, 1},
		{"zero", value(0), 1},
		{"nine", value(9), 3},
		{"one", value(1), 1},
		{"quarter", value(0.25), 0.5},
		{"negative", value(-4), 1},
	}

	for _, tt := range tests {
		if got := Width(tt.value); got != tt.want {
			t.Errorf("%s: Width = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func testGraph() *domain.Graph {
	g := domain.NewGraph()
	g.AddNode(*domain.NewNode("sw1", domain.NodeTypeSwitch, "MF0;sw01:IS5030/U1"))
	g.AddNode(*domain.NewNode("n1", domain.NodeTypeHCA, "node1 HCA-1"))
	g.AddNode(*domain.NewNode("n2", domain.NodeTypeUnknown, "storage2 HCA-1"))
	g.AddLink(*domain.NewLink("n1", "sw1").WithValue(9))
	g.AddLink(*domain.NewLink("sw1", "n2"))
	return g
}

func TestBind(t *testing.T) {
	s := Bind(testGraph(), classify.Default())

	if s.NodeCount() != 3 {
		t.Fatalf("expected 3 node drawables, got %d", s.NodeCount())
	}
	if s.LinkCount() != 2 {
		t.Fatalf("expected 2 link drawables, got %d", s.LinkCount())
	}

	sw, ok := s.Node("sw1")
	if !ok {
		t.Fatal("expected drawable for sw1")
	}
	if sw.Icon != classify.IconSwitch || sw.Tooltip != "Switch" {
		t.Errorf("unexpected switch drawable %+v", sw)
	}

	n2, _ := s.Node("n2")
	if n2.Icon != classify.IconHDD {
		t.Errorf("expected hdd icon, got %s", n2.Icon)
	}
	if n2.Label != "storage2" {
		t.Errorf("expected label storage2, got %q", n2.Label)
	}
	if n2.Tooltip != UnknownNodeType {
		t.Errorf("expected unknown tooltip, got %q", n2.Tooltip)
	}

	f := s.Frame()
	if f.Links[0].Width != 3 || f.Links[1].Width != 1 {
		t.Errorf("unexpected widths %v, %v", f.Links[0].Width, f.Links[1].Width)
	}
	for _, n := range f.Nodes {
		if n.Opacity != OpacityFull {
			t.Errorf("node %s starts at opacity %v", n.ID, n.Opacity)
		}
	}
}

func TestRefreshFollowsSimulation(t *testing.T) {
	g := testGraph()
	sim, err := layout.FromGraph(g, layout.DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := Bind(g, classify.Default())
	sim.OnTick(func() { s.Refresh(sim) })

	for i := 0; i < 10; i++ {
		sim.Tick()
	}

	f := s.Frame()
	for _, d := range f.Nodes {
		n, _ := sim.Node(d.ID)
		if d.X != n.X || d.Y != n.Y {
			t.Errorf("drawable %s at (%v,%v), simulation at (%v,%v)", d.ID, d.X, d.Y, n.X, n.Y)
		}
	}

	n1, _ := sim.Node("n1")
	sw1, _ := sim.Node("sw1")
	l := f.Links[0]
	if l.X1 != n1.X || l.Y1 != n1.Y || l.X2 != sw1.X || l.Y2 != sw1.Y {
		t.Errorf("link endpoints not refreshed: %+v", l)
	}
}

func TestOpacity(t *testing.T) {
	s := Bind(testGraph(), classify.Default())

	s.SetNodeOpacity("n1", OpacityDimmed)
	s.SetLinkOpacity(1, OpacityDimmed)
	s.SetNodeOpacity("ghost", OpacityDimmed)
	s.SetLinkOpacity(99, OpacityDimmed)

	f := s.Frame()
	if f.Nodes[1].Opacity != OpacityDimmed {
		t.Errorf("expected n1 dimmed, got %v", f.Nodes[1].Opacity)
	}
	if f.Links[1].Opacity != OpacityDimmed {
		t.Errorf("expected link 1 dimmed, got %v", f.Links[1].Opacity)
	}

	s.ResetOpacity()
	f = s.Frame()
	for _, n := range f.Nodes {
		if n.Opacity != OpacityFull {
			t.Errorf("node %s not reset", n.ID)
		}
	}
	for i, l := range f.Links {
		if l.Opacity != OpacityFull {
			t.Errorf("link %d not reset", i)
		}
	}
}

func TestFrameIsACopy(t *testing.T) {
	s := Bind(testGraph(), classify.Default())
	f := s.Frame()
	f.Nodes[0].Opacity = 0

	if n, _ := s.Node(f.Nodes[0].ID); n.Opacity != OpacityFull {
		t.Error("mutating a frame must not change the scene")
	}
}
