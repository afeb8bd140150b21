package domain

// GraphEvent is a structured mutation extracted from one telemetry line.
// The variant set is closed: NodeAdded, EdgeAdded and Activation.
type GraphEvent interface {
	graphEvent()
}

// NodeAdded announces a concept node
type NodeAdded struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	NodeType NodeType `json:"node_type"`
}

// EdgeAdded announces a learned relation
type EdgeAdded struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// Activation announces that a concept became the focus of attention
type Activation struct {
	ID    string  `json:"id"`
	Level float64 `json:"level"`
}

func (NodeAdded) graphEvent()  {}
func (EdgeAdded) graphEvent()  {}
func (Activation) graphEvent() {}

// EventKind returns a stable name for the event variant
func EventKind(e GraphEvent) string {
	switch e.(type) {
	case NodeAdded:
		return "node_added"
	case EdgeAdded:
		return "edge_added"
	case Activation:
		return "activation"
	default:
		return "unknown"
	}
}
