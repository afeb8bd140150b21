// Package domain defines the core types of the command center's live concept graph.
//
// The graph is built incrementally from kernel telemetry and relaxed every tick into a
// 2D layout that a front-end can draw directly.
//
// # Core Types
//
// Node is a concept emitted by the kernel. Its type tag (ACTION, IDENTITY, EPISODIC or
// the CONCEPT catch-all) fixes its display radius and color when the node is created.
//
// Edge is a directed relation between two node ids. Edges never dangle: adding one
// creates any missing endpoint as a CONCEPT node.
//
// Graph owns nodes and edges and advances the force-directed layout with Simulate.
// A Graph is not safe for concurrent use; the session coordinator owns it and hands
// immutable GraphSnapshot values to everyone else.
//
// # Events
//
// GraphEvent is the closed set of mutations the telemetry classifier can produce:
// NodeAdded, EdgeAdded and Activation.
//
// # Design Principles
//
// - Mutations are idempotent where the model says so (re-adding a node is a no-op)
// - No I/O, no goroutines, no external dependencies
// - Snapshots are values; holding one never races with the coordinator
package domain
