package domain

// GraphSnapshot is an immutable copy of the graph for drawing and export
type GraphSnapshot struct {
	Tick  uint64     `json:"tick" yaml:"tick"`
	Nodes []NodeView `json:"nodes" yaml:"nodes"`
	Edges []EdgeView `json:"edges" yaml:"edges"`
}

// NodeView is the drawable state of a node
type NodeView struct {
	ID         string   `json:"id" yaml:"id"`
	Type       NodeType `json:"type" yaml:"type"`
	Pos        Vec2     `json:"pos" yaml:"pos"`
	Radius     float64  `json:"radius" yaml:"radius"`
	Color      Color    `json:"color" yaml:"color"`
	Activation float64  `json:"activation,omitempty" yaml:"activation,omitempty"`
}

// EdgeView is the drawable state of an edge with resolved endpoint positions
type EdgeView struct {
	Source   string  `json:"source" yaml:"source"`
	Target   string  `json:"target" yaml:"target"`
	Relation string  `json:"relation,omitempty" yaml:"relation,omitempty"`
	Weight   float64 `json:"weight" yaml:"weight"`
	From     Vec2    `json:"from" yaml:"from"`
	To       Vec2    `json:"to" yaml:"to"`
}

// Snapshot copies the current graph state
func (g *Graph) Snapshot() *GraphSnapshot {
	s := &GraphSnapshot{
		Tick:  g.ticks,
		Nodes: make([]NodeView, 0, len(g.order)),
		Edges: make([]EdgeView, 0, len(g.edges)),
	}

	for _, id := range g.order {
		n := g.nodes[id]
		s.Nodes = append(s.Nodes, NodeView{
			ID:         n.ID,
			Type:       n.Type,
			Pos:        n.Pos,
			Radius:     n.Radius,
			Color:      n.Color,
			Activation: n.Activation,
		})
	}

	for _, e := range g.edges {
		s.Edges = append(s.Edges, EdgeView{
			Source:   e.Source,
			Target:   e.Target,
			Relation: e.Relation,
			Weight:   e.Weight,
			From:     g.nodes[e.Source].Pos,
			To:       g.nodes[e.Target].Pos,
		})
	}

	return s
}
