// Package session runs the per-tick loop that turns kernel output into a laid-out graph.
//
// A Session drains the kernel sink, classifies each line, applies the resulting
// events to the graph, advances the physics and publishes an immutable frame.
// The graph is owned by the goroutine calling Tick; every other method is safe
// for concurrent use.
package session
