package layout

import (
	"math"
	"math/rand"
)

// Force contributes velocity (or position, for centering) each tick
type Force interface {
	// Initialize is called once the node set is known
	Initialize(nodes []*Node, rnd *rand.Rand)
	// Apply runs the force at the given alpha
	Apply(alpha float64)
}

// jiggle returns a tiny random offset used to separate coincident points
func jiggle(rnd *rand.Rand) float64 {
	return (rnd.Float64() - 0.5) * 1e-6
}

// ManyBody applies pairwise repulsion (negative strength) or attraction
// between every pair of nodes. Work is O(n²), fine for fabrics of a few
// hundred nodes.
type ManyBody struct {
	Strength    float64
	DistanceMin float64

	nodes []*Node
	rnd   *rand.Rand
}

// NewManyBody creates a many-body force with the given strength
func NewManyBody(strength float64) *ManyBody {
	return &ManyBody{Strength: strength, DistanceMin: 1}
}

func (f *ManyBody) Initialize(nodes []*Node, rnd *rand.Rand) {
	f.nodes = nodes
	f.rnd = rnd
}

func (f *ManyBody) Apply(alpha float64) {
	distanceMin2 := f.DistanceMin * f.DistanceMin

	for _, node := range f.nodes {
		for _, other := range f.nodes {
			if other == node {
				continue
			}

			x := other.X - node.X
			y := other.Y - node.Y
			l := x*x + y*y

			if x == 0 {
				x = jiggle(f.rnd)
				l += x * x
			}
			if y == 0 {
				y = jiggle(f.rnd)
				l += y * y
			}
			if l < distanceMin2 {
				l = math.Sqrt(distanceMin2 * l)
			}

			w := f.Strength * alpha / l
			node.VX += x * w
			node.VY += y * w
		}
	}
}

// Spring is a link between two node indices
type Spring struct {
	Source, Target int
}

// LinkForce pulls linked nodes towards Distance. Strength defaults to
// 1/min(degree(source), degree(target)) per link, and the correction is
// split between the endpoints in proportion to their degree.
type LinkForce struct {
	Distance   float64
	Iterations int

	springs   []Spring
	nodes     []*Node
	strengths []float64
	bias      []float64
	rnd       *rand.Rand
}

// NewLinkForce creates a link force over the given springs
func NewLinkForce(springs []Spring, distance float64) *LinkForce {
	return &LinkForce{
		Distance:   distance,
		Iterations: 1,
		springs:    springs,
	}
}

func (f *LinkForce) Initialize(nodes []*Node, rnd *rand.Rand) {
	f.nodes = nodes
	f.rnd = rnd

	count := make([]int, len(nodes))
	for _, s := range f.springs {
		count[s.Source]++
		count[s.Target]++
	}

	f.strengths = make([]float64, len(f.springs))
	f.bias = make([]float64, len(f.springs))
	for i, s := range f.springs {
		cs, ct := count[s.Source], count[s.Target]
		f.strengths[i] = 1 / float64(min(cs, ct))
		f.bias[i] = float64(cs) / float64(cs+ct)
	}
}

func (f *LinkForce) Apply(alpha float64) {
	for k := 0; k < f.Iterations; k++ {
		for i, s := range f.springs {
			source, target := f.nodes[s.Source], f.nodes[s.Target]

			x := target.X + target.VX - source.X - source.VX
			if x == 0 {
				x = jiggle(f.rnd)
			}
			y := target.Y + target.VY - source.Y - source.VY
			if y == 0 {
				y = jiggle(f.rnd)
			}

			l := math.Sqrt(x*x + y*y)
			l = (l - f.Distance) / l * alpha * f.strengths[i]
			x *= l
			y *= l

			b := f.bias[i]
			target.VX -= x * b
			target.VY -= y * b
			source.VX += x * (1 - b)
			source.VY += y * (1 - b)
		}
	}
}

// Center translates all nodes so that their mean position is (X, Y)
type Center struct {
	X, Y     float64
	Strength float64

	nodes []*Node
}

// NewCenter creates a centering force at (x, y)
func NewCenter(x, y float64) *Center {
	return &Center{X: x, Y: y, Strength: 1}
}

func (f *Center) Initialize(nodes []*Node, _ *rand.Rand) {
	f.nodes = nodes
}

func (f *Center) Apply(_ float64) {
	n := len(f.nodes)
	if n == 0 {
		return
	}

	var sx, sy float64
	for _, node := range f.nodes {
		sx += node.X
		sy += node.Y
	}

	sx = (sx/float64(n) - f.X) * f.Strength
	sy = (sy/float64(n) - f.Y) * f.Strength
	for _, node := range f.nodes {
		node.X -= sx
		node.Y -= sy
	}
}
