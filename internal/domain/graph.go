package domain

import "math/rand/v2"

const (
	// activationFloor is the level below which an activation is cleared
	activationFloor = 0.01
	// ActivationDecay is the per-tick multiplier applied to node activation
	ActivationDecay = 0.95
)

// Graph is the live concept graph plus its layout state.
//
// Node iteration follows insertion order so force accumulation is deterministic
// for a given sequence of mutations and random source.
type Graph struct {
	nodes   map[string]*Node
	order   []string
	edges   []Edge
	physics Physics
	rng     *rand.Rand
	ticks   uint64
}

// GraphOption configures a Graph
type GraphOption func(*Graph)

// WithRand sets the random source used for initial node placement
func WithRand(r *rand.Rand) GraphOption {
	return func(g *Graph) {
		g.rng = r
	}
}

// WithPhysics overrides the layout constants
func WithPhysics(p Physics) GraphOption {
	return func(g *Graph) {
		g.physics = p
	}
}

// NewGraph creates an empty graph
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		nodes:   make(map[string]*Node),
		order:   make([]string, 0),
		edges:   make([]Edge, 0),
		physics: DefaultPhysics(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g
}

// AddNode creates a node with a random spawn position.
// Re-adding an existing id is a no-op, even with a different type.
func (g *Graph) AddNode(id string, nodeType NodeType) {
	if _, ok := g.nodes[id]; ok {
		return
	}

	lo, hi := g.physics.SpawnMin, g.physics.SpawnMax
	pos := Vec2{
		X: lo.X + g.rng.Float64()*(hi.X-lo.X),
		Y: lo.Y + g.rng.Float64()*(hi.Y-lo.Y),
	}

	g.nodes[id] = NewNode(id, nodeType, pos)
	g.order = append(g.order, id)
}

// AddEdge appends a source->target edge, creating missing endpoints as CONCEPT nodes
func (g *Graph) AddEdge(source, target string) {
	g.AddRelation(source, target, "")
}

// AddRelation is AddEdge with a relation label
func (g *Graph) AddRelation(source, target, relation string) {
	g.AddNode(source, NodeTypeConcept)
	g.AddNode(target, NodeTypeConcept)
	g.edges = append(g.edges, NewEdge(source, target, relation))
}

// Activate raises the display activation of an existing node.
// Unknown ids are ignored and reported with false.
func (g *Graph) Activate(id string, level float64) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	if level > n.Activation {
		n.Activation = min(level, 1)
	}
	return true
}

// Node returns the node with the given id
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edges returns the edges in insertion order. The slice must not be modified.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Ticks returns the number of Simulate calls so far
func (g *Graph) Ticks() uint64 {
	return g.ticks
}

// Physics returns the current layout constants
func (g *Graph) Physics() Physics {
	return g.physics
}

// SetPhysics replaces the layout constants. Existing positions and velocities are kept.
func (g *Graph) SetPhysics(p Physics) {
	g.physics = p
}

// Simulate advances the layout by one tick of length dt.
//
// Forces: pairwise inverse-square repulsion, Hooke springs along edges, and a
// spring to the shared center. Integration is semi-implicit Euler with velocity damping.
// Repulsion is O(n²); it is the bottleneck once node counts leave the low hundreds.
func (g *Graph) Simulate(dt float64) {
	p := g.physics
	forces := make([]Vec2, len(g.order))
	index := make(map[string]int, len(g.order))
	for i, id := range g.order {
		index[id] = i
	}

	// 1. Repulsion
	for i := 0; i < len(g.order); i++ {
		n1 := g.nodes[g.order[i]]
		for j := i + 1; j < len(g.order); j++ {
			n2 := g.nodes[g.order[j]]
			delta := n1.Pos.Sub(n2.Pos)
			distSq := max(delta.LenSq(), p.MinDistanceSq)
			force := delta.Normalized().Scale(p.Repulsion / distSq)
			forces[i] = forces[i].Add(force)
			forces[j] = forces[j].Sub(force)
		}
	}

	// 2. Springs
	for _, e := range g.edges {
		si, ok1 := index[e.Source]
		ti, ok2 := index[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		delta := g.nodes[e.Target].Pos.Sub(g.nodes[e.Source].Pos)
		dist := max(delta.Len(), p.MinSpringDist)
		force := delta.Normalized().Scale((dist - p.SpringLength) * p.SpringK)
		forces[si] = forces[si].Add(force)
		forces[ti] = forces[ti].Sub(force)
	}

	// 3. Integration with center gravity
	for i, id := range g.order {
		n := g.nodes[id]
		toCenter := p.Center.Sub(n.Pos).Scale(p.Gravity)
		n.Vel = n.Vel.Add(forces[i].Add(toCenter).Scale(dt))
		n.Vel = n.Vel.Scale(p.Damping)
		n.Pos = n.Pos.Add(n.Vel.Scale(dt))
	}

	g.ticks++
}

// DecayActivations fades every node's activation by ActivationDecay
func (g *Graph) DecayActivations() {
	for _, n := range g.nodes {
		if n.Activation == 0 {
			continue
		}
		n.Activation *= ActivationDecay
		if n.Activation < activationFloor {
			n.Activation = 0
		}
	}
}
