package codec

import (
	"fmt"
	"io"

	"commandcenter/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the MIME type of the output
func (c *YAMLCodec) ContentType() string {
	return "application/yaml"
}

// yamlGraph keeps the export readable: adjacency is listed without the
// resolved endpoint positions that only matter for drawing
type yamlGraph struct {
	Tick  uint64     `yaml:"tick"`
	Nodes []yamlNode `yaml:"nodes"`
	Edges []yamlEdge `yaml:"edges"`
}

type yamlNode struct {
	ID         string       `yaml:"id"`
	Type       string       `yaml:"type"`
	Pos        [2]float64   `yaml:"pos,flow"`
	Radius     float64      `yaml:"radius"`
	Color      domain.Color `yaml:"color,flow"`
	Activation float64      `yaml:"activation,omitempty"`
}

type yamlEdge struct {
	Source   string  `yaml:"source"`
	Target   string  `yaml:"target"`
	Relation string  `yaml:"relation,omitempty"`
	Weight   float64 `yaml:"weight"`
}

// Export writes the snapshot as YAML
func (c *YAMLCodec) Export(snapshot *domain.GraphSnapshot, w io.Writer) error {
	yg := yamlGraph{
		Tick:  snapshot.Tick,
		Nodes: make([]yamlNode, 0, len(snapshot.Nodes)),
		Edges: make([]yamlEdge, 0, len(snapshot.Edges)),
	}

	for _, n := range snapshot.Nodes {
		yg.Nodes = append(yg.Nodes, yamlNode{
			ID:         n.ID,
			Type:       string(n.Type),
			Pos:        [2]float64{n.Pos.X, n.Pos.Y},
			Radius:     n.Radius,
			Color:      n.Color,
			Activation: n.Activation,
		})
	}

	for _, e := range snapshot.Edges {
		yg.Edges = append(yg.Edges, yamlEdge{
			Source:   e.Source,
			Target:   e.Target,
			Relation: e.Relation,
			Weight:   e.Weight,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(yg); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return encoder.Close()
}
