// Package interaction implements the drag and selection state machine of
// the topology view.
//
// Dragging and selection are tracked independently: a drag never selects
// a node, and pinning a node during a drag leaves the selection alone.
// State reports Dragging while a drag is in progress, otherwise Selected
// while a node is selected, otherwise Idle.
package interaction

import (
	"fabricview/internal/devices"
	"fabricview/internal/domain"
	"fabricview/internal/layout"
)

// State of the controller
type State int

const (
	StateIdle State = iota
	StateDragging
	StateSelected
)

func (s State) String() string {
	switch s {
	case StateDragging:
		return "dragging"
	case StateSelected:
		return "selected"
	default:
		return "idle"
	}
}

// Simulation is the part of the layout engine the controller drives
type Simulation interface {
	Pin(id string, x, y float64) bool
	Unpin(id string)
	SetAlphaTarget(target float64)
	Restart()
}

// Scene is the part of the scene the controller highlights
type Scene interface {
	SetNodeOpacity(id string, opacity float64)
	SetLinkOpacity(i int, opacity float64)
	ResetOpacity()
}

// Controller handles pointer input for one dataset
type Controller struct {
	graph   *domain.Graph
	sim     Simulation
	scene   Scene
	devices devices.Lookuper

	// drag sub-state
	dragging    string
	activeDrags int
	moved       bool
	swallowNext bool

	// selection sub-state
	selected string
	details  Details
}

// New creates a controller in the Idle state
func New(g *domain.Graph, sim Simulation, sc Scene, lookup devices.Lookuper) *Controller {
	return &Controller{
		graph:   g,
		sim:     sim,
		scene:   sc,
		devices: lookup,
		details: EmptyDetails(),
	}
}

// State returns the current controller state
func (c *Controller) State() State {
	switch {
	case c.dragging != "":
		return StateDragging
	case c.selected != "":
		return StateSelected
	default:
		return StateIdle
	}
}

// Selected returns the selected node id, or "" when nothing is selected
func (c *Controller) Selected() string {
	return c.selected
}

// Details returns the detail panel content
func (c *Controller) Details() Details {
	return c.details
}

// PointerDown starts dragging the node under the pointer
func (c *Controller) PointerDown(id string, x, y float64) {
	if c.dragging != "" {
		return
	}
	if !c.sim.Pin(id, x, y) {
		// Not over a node
		return
	}

	if c.activeDrags == 0 {
		c.sim.SetAlphaTarget(layout.DragAlphaTarget)
		c.sim.Restart()
	}
	c.activeDrags++
	c.dragging = id
	c.moved = false
	c.swallowNext = false
}

// PointerMove moves the pin of the dragged node
func (c *Controller) PointerMove(x, y float64) {
	if c.dragging == "" {
		return
	}
	c.sim.Pin(c.dragging, x, y)
	c.moved = true
}

// PointerUp ends the drag and lets the layout cool down
func (c *Controller) PointerUp() {
	if c.dragging == "" {
		return
	}

	c.sim.Unpin(c.dragging)
	c.activeDrags--
	if c.activeDrags == 0 {
		c.sim.SetAlphaTarget(0)
	}

	// The click that closes a drag gesture must not select anything
	c.swallowNext = c.moved
	c.dragging = ""
	c.moved = false
}

// clickEvent carries one click through the node and background handlers
type clickEvent struct {
	target  string
	stopped bool
}

func (e *clickEvent) stopPropagation() {
	e.stopped = true
}

// Click dispatches a click. target is the node under the pointer, or ""
// for the background. Node handlers run first and stop propagation, so a
// node click never reaches the background handler.
func (c *Controller) Click(target string) {
	ev := &clickEvent{target: target}

	if c.swallowNext {
		c.swallowNext = false
		ev.stopPropagation()
		return
	}

	c.onNodeClick(ev)
	if !ev.stopped {
		c.onBackgroundClick(ev)
	}
}

func (c *Controller) onNodeClick(ev *clickEvent) {
	if ev.target == "" {
		return
	}
	node, ok := c.graph.Node(ev.target)
	if !ok {
		return
	}
	ev.stopPropagation()
	c.selectNode(node)
}

func (c *Controller) onBackgroundClick(_ *clickEvent) {
	c.deselect()
}

// selectNode recomputes the highlight from scratch for a node
func (c *Controller) selectNode(node *domain.Node) {
	c.selected = node.ID

	h := ComputeHighlight(c.graph, node.ID)
	for id, opacity := range h.Nodes {
		c.scene.SetNodeOpacity(id, opacity)
	}
	for i, opacity := range h.Links {
		c.scene.SetLinkOpacity(i, opacity)
	}

	c.details = DetailsFor(node, c.devices)
}

func (c *Controller) deselect() {
	c.selected = ""
	c.scene.ResetOpacity()
	c.details = EmptyDetails()
}

// Reset drops any drag and selection, restoring full opacity
func (c *Controller) Reset() {
	if c.dragging != "" {
		c.sim.Unpin(c.dragging)
		c.sim.SetAlphaTarget(0)
	}
	c.dragging = ""
	c.activeDrags = 0
	c.moved = false
	c.swallowNext = false
	c.deselect()
}
