// Package session owns the viewer state of one operator session: the
// loaded graph, its layout simulation, its scene and the interaction
// controller. Every mutation happens on the goroutine running Run, so none
// of that state is locked.
//
// Dataset switches are latest-wins. Each switch request bumps a generation
// counter and starts a load in the background; a load result is installed
// only if its generation is still the latest when it arrives.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"time"

	"fabricview/internal/classify"
	"fabricview/internal/devices"
	"fabricview/internal/domain"
	"fabricview/internal/interaction"
	"fabricview/internal/layout"
	"fabricview/internal/loader"
	"fabricview/internal/metrics"
	"fabricview/internal/scene"
)

// DefaultTickInterval paces the layout at roughly 60 ticks per second
const DefaultTickInterval = 16 * time.Millisecond

// ErrStopped is returned by requests made after Run has returned
var ErrStopped = errors.New("session stopped")

// Loader produces validated graphs from source references
type Loader interface {
	Load(ctx context.Context, source string) (*domain.Graph, error)
	LocalPath(source string) (string, bool)
}

// Options configures a Session
type Options struct {
	Layout       layout.Config
	Icons        scene.IconResolver
	Devices      devices.Lookuper
	TickInterval time.Duration
	// Initial is loaded when Run starts
	Initial string
}

type loadResult struct {
	generation uint64
	source     string
	graph      *domain.Graph
	err        error
}

type topologyReply struct {
	source string
	graph  *domain.Graph
}

// Session is the single event loop driving one view
type Session struct {
	loader Loader
	opts   Options
	bus    *EventBus

	switches   chan string
	reloads    chan struct{}
	refreshes  chan struct{}
	changes    chan string
	inputs     chan Input
	results    chan loadResult
	snapshots  chan chan Frame
	topologies chan chan topologyReply
	done       chan struct{}

	// Owned by the Run goroutine
	requested  string
	source     string
	generation uint64
	settled    uint64
	graph      *domain.Graph
	sim        *layout.Simulation
	scene      *scene.Scene
	controller *interaction.Controller
	notice     string
	lastErr    string
}

// New creates a session. Nothing is loaded until Switch is called.
func New(l Loader, opts Options) *Session {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Layout == (layout.Config{}) {
		opts.Layout = layout.DefaultConfig()
	}
	if opts.Icons == nil {
		opts.Icons = classify.Default()
	}

	return &Session{
		loader:     l,
		opts:       opts,
		bus:        NewEventBus(),
		switches:   make(chan string, 16),
		reloads:    make(chan struct{}, 1),
		refreshes:  make(chan struct{}, 1),
		changes:    make(chan string, 16),
		inputs:     make(chan Input, 256),
		results:    make(chan loadResult),
		snapshots:  make(chan chan Frame),
		topologies: make(chan chan topologyReply),
		done:       make(chan struct{}),
		notice:     NoDatasetNotice,
	}
}

// Bus returns the event bus frames are published on
func (s *Session) Bus() *EventBus {
	return s.bus
}

// Run processes requests, load results and layout ticks until ctx is done
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	if s.opts.Initial != "" {
		s.startLoad(ctx, s.opts.Initial)
	} else {
		log.Print(NoDatasetNotice)
	}

	for {
		var tick <-chan time.Time
		if s.sim != nil && s.sim.Running() {
			tick = ticker.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case source := <-s.switches:
			s.startLoad(ctx, source)

		case <-s.reloads:
			s.startLoad(ctx, s.requested)

		case <-s.refreshes:
			if _, local := s.loader.LocalPath(s.requested); s.requested != "" && !local {
				s.startLoad(ctx, s.requested)
			}

		case path := <-s.changes:
			if local, ok := s.loader.LocalPath(s.requested); ok && sameFile(local, path) {
				log.Printf("Dataset %s changed on disk, reloading", s.requested)
				s.startLoad(ctx, s.requested)
			}

		case res := <-s.results:
			s.finishLoad(res)

		case in := <-s.inputs:
			if s.dispatch(in) {
				s.publish()
			}

		case <-tick:
			s.sim.Tick()
			metrics.TicksTotal.Inc()
			s.publish()

		case reply := <-s.snapshots:
			reply <- s.frame()

		case reply := <-s.topologies:
			reply <- topologyReply{source: s.source, graph: s.graph}
		}
	}
}

// Switch requests a dataset. An empty source is ignored and keeps the
// current view.
func (s *Session) Switch(ctx context.Context, source string) error {
	select {
	case s.switches <- source:
		return nil
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reload re-requests the most recently requested dataset
func (s *Session) Reload() {
	select {
	case s.reloads <- struct{}{}:
	default:
		// A reload is already queued
	}
}

// Refresh re-fetches the current dataset if it is remote. Local files are
// covered by FileChanged.
func (s *Session) Refresh() {
	select {
	case s.refreshes <- struct{}{}:
	default:
	}
}

// FileChanged reloads the current dataset if it is the local file at path
func (s *Session) FileChanged(path string) {
	select {
	case s.changes <- path:
	case <-s.done:
	}
}

// Dispatch queues a pointer input
func (s *Session) Dispatch(in Input) error {
	select {
	case s.inputs <- in:
		return nil
	case <-s.done:
		return ErrStopped
	default:
		return fmt.Errorf("input queue full, dropping %s", in.Type)
	}
}

// Snapshot returns the current frame
func (s *Session) Snapshot(ctx context.Context) (Frame, error) {
	reply := make(chan Frame, 1)
	select {
	case s.snapshots <- reply:
	case <-s.done:
		return Frame{}, ErrStopped
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
	return <-reply, nil
}

// Topology returns the installed graph and its source. The graph is never
// modified after installation and must be treated as read-only.
func (s *Session) Topology(ctx context.Context) (*domain.Graph, string, error) {
	reply := make(chan topologyReply, 1)
	select {
	case s.topologies <- reply:
	case <-s.done:
		return nil, "", ErrStopped
	case <-ctx.Done():
		return nil, "", ctx.Err()
	}
	r := <-reply
	return r.graph, r.source, nil
}

func (s *Session) startLoad(ctx context.Context, source string) {
	if source == "" {
		return
	}

	s.generation++
	s.requested = source
	gen := s.generation

	log.Printf("Loading dataset %s (generation %d)", source, gen)
	s.publish()

	go func() {
		graph, err := s.loader.Load(ctx, source)
		select {
		case s.results <- loadResult{generation: gen, source: source, graph: graph, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (s *Session) finishLoad(res loadResult) {
	if res.generation != s.generation {
		log.Printf("Discarding stale load of %s (generation %d, latest %d)", res.source, res.generation, s.generation)
		metrics.DatasetSwitchesTotal.WithLabelValues("stale").Inc()
		return
	}
	s.settled = res.generation

	if res.err == nil && res.graph == nil {
		res.err = loader.ErrNoSource
	}

	var (
		sim *layout.Simulation
		err = res.err
	)
	if err == nil {
		sim, err = layout.FromGraph(res.graph, s.opts.Layout)
	}
	if err != nil {
		log.Printf("Failed to load dataset %s: %v", res.source, err)
		metrics.DatasetSwitchesTotal.WithLabelValues("failed").Inc()
		s.lastErr = err.Error()
		s.publish()
		return
	}

	previous := s.source
	if previous == res.source && reflect.DeepEqual(s.graph, res.graph) {
		// Same document again: keep the layout and selection as they are
		metrics.DatasetSwitchesTotal.WithLabelValues("unchanged").Inc()
		s.lastErr = ""
		s.publish()
		return
	}

	reselect := ""
	if s.controller != nil && previous == res.source {
		reselect = s.controller.Selected()
	}

	s.teardown()
	s.install(res.source, res.graph, sim)

	if reselect != "" {
		s.controller.Click(reselect)
	}

	log.Printf("Displaying dataset %s: %d nodes, %d links", res.source, len(res.graph.Nodes), len(res.graph.Links))
	metrics.DatasetSwitchesTotal.WithLabelValues("installed").Inc()
	s.publish()
}

// teardown discards the current dataset completely
func (s *Session) teardown() {
	if s.controller != nil {
		s.controller.Reset()
	}
	if s.sim != nil {
		s.sim.Stop()
		s.sim.OnTick(nil)
	}
	s.controller = nil
	s.scene = nil
	s.sim = nil
	s.graph = nil
	s.source = ""
	metrics.DisplayedNodes.Set(0)
}

func (s *Session) install(source string, graph *domain.Graph, sim *layout.Simulation) {
	sc := scene.Bind(graph, s.opts.Icons)
	sim.OnTick(func() { sc.Refresh(sim) })
	sc.Refresh(sim)

	s.graph = graph
	s.sim = sim
	s.scene = sc
	s.controller = interaction.New(graph, sim, sc, s.opts.Devices)
	s.source = source
	s.notice = ""
	s.lastErr = ""

	sim.Restart()
	metrics.DisplayedNodes.Set(float64(len(graph.Nodes)))
}

// dispatch applies an input and reports whether the view changed
func (s *Session) dispatch(in Input) bool {
	if s.controller == nil {
		return false
	}

	switch in.Type {
	case InputPointerDown:
		s.controller.PointerDown(in.Node, in.X, in.Y)
	case InputPointerMove:
		s.controller.PointerMove(in.X, in.Y)
	case InputPointerUp:
		s.controller.PointerUp()
	case InputClick:
		s.controller.Click(in.Node)
	case InputBackground:
		s.controller.Click("")
	default:
		log.Printf("Ignoring unknown input type %q", in.Type)
		return false
	}
	return true
}

func (s *Session) frame() Frame {
	f := Frame{
		Dataset:    s.source,
		Generation: s.generation,
		Loading:    s.settled != s.generation,
		Nodes:      []scene.NodeDrawable{},
		Links:      []scene.LinkDrawable{},
		State:      interaction.StateIdle.String(),
		Details:    interaction.EmptyDetails(),
		Notice:     s.notice,
		Error:      s.lastErr,
	}

	if s.scene != nil {
		sf := s.scene.Frame()
		f.Nodes = sf.Nodes
		f.Links = sf.Links
	}
	if s.controller != nil {
		f.Selected = s.controller.Selected()
		f.State = s.controller.State().String()
		f.Details = s.controller.Details()
	}
	if s.sim != nil {
		f.Alpha = s.sim.Alpha()
	}

	return f
}

func (s *Session) publish() {
	s.bus.Publish(Event{Type: EventFrame, Payload: s.frame()})
}
