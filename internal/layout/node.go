package layout

import "math"

const (
	initialRadius = 10.0
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Node is the simulation state of one graph node
type Node struct {
	ID     string
	Index  int
	X, Y   float64
	VX, VY float64

	// Pinned nodes sit at (FX, FY) and are not moved by forces
	Pinned bool
	FX, FY float64
}

// place puts the i-th node on a phyllotaxis spiral around the origin
func (n *Node) place(i int) {
	radius := initialRadius * math.Sqrt(0.5+float64(i))
	angle := float64(i) * initialAngle
	n.X = radius * math.Cos(angle)
	n.Y = radius * math.Sin(angle)
}
