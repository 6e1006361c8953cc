package layout

import (
	"fmt"
	"math"
	"math/rand"

	"fabricview/internal/domain"
)

// Config holds simulation parameters
type Config struct {
	Width          float64
	Height         float64
	LinkDistance   float64
	ChargeStrength float64
	// Seed drives the jiggle used to separate coincident nodes
	Seed int64
}

// DefaultConfig returns the FabricMon layout parameters
func DefaultConfig() Config {
	return Config{
		Width:          960,
		Height:         600,
		LinkDistance:   120,
		ChargeStrength: -80,
		Seed:           1,
	}
}

const (
	defaultAlphaMin      = 0.001
	defaultVelocityDecay = 0.6 // d3 keeps 1 - velocityDecay(0.4)

	// DragAlphaTarget is the reheat level used while a node is dragged
	DragAlphaTarget = 0.3
)

// Simulation is a force-directed layout over one graph
type Simulation struct {
	nodes  []*Node
	index  map[string]int
	forces []Force

	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	alphaTarget   float64
	velocityDecay float64

	stopped bool
	onTick  func()
	rnd     *rand.Rand
}

// New creates a simulation over the given node ids with no forces.
// Nodes start on a phyllotaxis spiral around the origin.
func New(ids []string, seed int64) *Simulation {
	s := &Simulation{
		nodes:         make([]*Node, len(ids)),
		index:         make(map[string]int, len(ids)),
		alpha:         1,
		alphaMin:      defaultAlphaMin,
		alphaDecay:    1 - math.Pow(defaultAlphaMin, 1.0/300),
		velocityDecay: defaultVelocityDecay,
		rnd:           rand.New(rand.NewSource(seed)),
	}

	for i, id := range ids {
		node := &Node{ID: id, Index: i}
		node.place(i)
		s.nodes[i] = node
		s.index[id] = i
	}

	return s
}

// FromGraph seeds a simulation with a validated graph and the configured forces
func FromGraph(g *domain.Graph, cfg Config) (*Simulation, error) {
	ids := make([]string, len(g.Nodes))
	for i, node := range g.Nodes {
		ids[i] = node.ID
	}

	s := New(ids, cfg.Seed)

	springs := make([]Spring, 0, len(g.Links))
	for i, link := range g.Links {
		src, ok := s.index[link.Source]
		if !ok {
			return nil, fmt.Errorf("link %d: %w: source %q", i, domain.ErrDanglingLink, link.Source)
		}
		dst, ok := s.index[link.Target]
		if !ok {
			return nil, fmt.Errorf("link %d: %w: target %q", i, domain.ErrDanglingLink, link.Target)
		}
		springs = append(springs, Spring{Source: src, Target: dst})
	}

	s.AddForce(NewLinkForce(springs, cfg.LinkDistance))
	s.AddForce(NewManyBody(cfg.ChargeStrength))
	s.AddForce(NewCenter(cfg.Width/2, cfg.Height/2))

	return s, nil
}

// AddForce registers a force; forces run in registration order
func (s *Simulation) AddForce(f Force) {
	f.Initialize(s.nodes, s.rnd)
	s.forces = append(s.forces, f)
}

// OnTick sets the callback invoked once at the end of every tick
func (s *Simulation) OnTick(fn func()) {
	s.onTick = fn
}

// Tick advances the simulation by one step
func (s *Simulation) Tick() {
	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay

	for _, f := range s.forces {
		f.Apply(s.alpha)
	}

	for _, node := range s.nodes {
		if node.Pinned {
			node.X, node.Y = node.FX, node.FY
			node.VX, node.VY = 0, 0
			continue
		}
		node.VX *= s.velocityDecay
		node.VY *= s.velocityDecay
		node.X += node.VX
		node.Y += node.VY
	}

	if s.alpha < s.alphaMin {
		s.stopped = true
	}

	if s.onTick != nil {
		s.onTick()
	}
}

// Running reports whether ticks should still be scheduled
func (s *Simulation) Running() bool {
	return !s.stopped
}

// Restart resumes ticking without changing alpha
func (s *Simulation) Restart() {
	s.stopped = false
}

// Stop halts ticking until Restart
func (s *Simulation) Stop() {
	s.stopped = true
}

// Alpha returns the current energy
func (s *Simulation) Alpha() float64 {
	return s.alpha
}

// SetAlpha sets the current energy
func (s *Simulation) SetAlpha(alpha float64) {
	s.alpha = alpha
}

// AlphaTarget returns the level alpha decays towards
func (s *Simulation) AlphaTarget() float64 {
	return s.alphaTarget
}

// SetAlphaTarget sets the level alpha decays towards
func (s *Simulation) SetAlphaTarget(target float64) {
	s.alphaTarget = target
}

// Nodes returns the simulation nodes in graph order
func (s *Simulation) Nodes() []*Node {
	return s.nodes
}

// Node returns the simulation node for an id
func (s *Simulation) Node(id string) (*Node, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.nodes[i], true
}

// Pin fixes a node at (x, y). It reports false for an unknown id.
func (s *Simulation) Pin(id string, x, y float64) bool {
	node, ok := s.Node(id)
	if !ok {
		return false
	}
	node.Pinned = true
	node.FX, node.FY = x, y
	return true
}

// Unpin releases a pinned node back to the forces
func (s *Simulation) Unpin(id string) {
	if node, ok := s.Node(id); ok {
		node.Pinned = false
	}
}
