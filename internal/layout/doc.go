// Package layout implements the force-directed layout simulation.
//
// The simulation follows d3-force semantics so that layouts match browser
// force graphs: pairwise many-body repulsion, spring links pulling towards
// a fixed distance, and a centering force.
// Each Tick decays the energy parameter alpha towards alphaTarget; once
// alpha falls below alphaMin the simulation reports itself stopped and
// callers stop scheduling ticks until Restart.
//
// A Simulation is not safe for concurrent use. The viewer session drives
// it from a single goroutine.
package layout
