package domain

// RelationTriggers labels edges learned from teaching telemetry
const RelationTriggers = "TRIGGERS"

// DefaultEdgeWeight is the weight every edge carries.
// Weight is reserved for future force modulation and is not read by Simulate.
const DefaultEdgeWeight = 1.0

// Edge is a directed relation between two node ids.
// Duplicate and self edges are allowed and accumulate independently.
type Edge struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Relation string  `json:"relation,omitempty"`
	Weight   float64 `json:"weight"`
}

// NewEdge creates an edge with the default weight
func NewEdge(source, target, relation string) Edge {
	return Edge{
		Source:   source,
		Target:   target,
		Relation: relation,
		Weight:   DefaultEdgeWeight,
	}
}
