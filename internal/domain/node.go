package domain

// NodeType is the type tag the kernel attaches to a concept.
// The set is open: unknown tags are kept verbatim and rendered like CONCEPT.
type NodeType string

const (
	NodeTypeAction   NodeType = "ACTION"
	NodeTypeIdentity NodeType = "IDENTITY"
	NodeTypeEpisodic NodeType = "EPISODIC"
	NodeTypeConcept  NodeType = "CONCEPT" // default / catch-all
)

// Color is an opaque RGB display color
type Color struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

// Appearance is the display attributes derived from a node type
type Appearance struct {
	Radius float64
	Color  Color
}

var (
	colorAction   = Color{R: 255, G: 100, B: 50}  // orange
	colorIdentity = Color{R: 255, G: 255, B: 255} // white
	colorEpisodic = Color{R: 200, G: 100, B: 255} // purple
	colorDefault  = Color{R: 0, G: 200, B: 255}   // cyan
)

// AppearanceFor returns the fixed radius and color for a node type.
// The result depends only on the tag, never on call order or randomness.
func AppearanceFor(t NodeType) Appearance {
	a := Appearance{Radius: 4, Color: colorDefault}
	switch t {
	case NodeTypeIdentity:
		a.Radius = 8
		a.Color = colorIdentity
	case NodeTypeAction:
		a.Radius = 6
		a.Color = colorAction
	case NodeTypeEpisodic:
		a.Color = colorEpisodic
	}
	return a
}

// Node is a concept in the live graph
type Node struct {
	ID     string   `json:"id"`
	Type   NodeType `json:"type"`
	Pos    Vec2     `json:"pos"`
	Vel    Vec2     `json:"vel"`
	Radius float64  `json:"radius"`
	Color  Color    `json:"color"`

	// Activation is a display-only highlight level in [0,1] raised by curiosity
	// activations and decayed every tick. It never feeds the physics.
	Activation float64 `json:"activation"`
}

// NewNode creates a node at pos with zero velocity and the appearance of nodeType
func NewNode(id string, nodeType NodeType, pos Vec2) *Node {
	a := AppearanceFor(nodeType)
	return &Node{
		ID:     id,
		Type:   nodeType,
		Pos:    pos,
		Radius: a.Radius,
		Color:  a.Color,
	}
}
