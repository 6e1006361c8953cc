// Package domain defines the core types for the fabricview topology viewer.
//
// A topology document describes an InfiniBand style fabric: host channel
// adapters, switches and routers (Nodes) and the cables between them (Links).
//
// # Core Types
//
// Node is a fabric participant identified by a string id (usually the 64-bit
// node GUID in hex) with a NodeType, a free-form description as reported by
// the subnet manager, and optional vendor and device ids.
//
// Link connects two nodes by id and may carry a numeric weight.
//
// Graph is one complete topology. A Graph is only usable once Validate has
// accepted it: every link endpoint must name a node in the same Graph.
//
// # Design Principles
//
// - Plain value types with json and yaml tags
// - No rendering, layout or transport concerns
// - Node identity only has meaning within a single Graph
package domain
