package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppearanceFor(t *testing.T) {
	tests := []struct {
		nodeType NodeType
		radius   float64
		color    Color
	}{
		{NodeTypeIdentity, 8, Color{255, 255, 255}},
		{NodeTypeAction, 6, Color{255, 100, 50}},
		{NodeTypeEpisodic, 4, Color{200, 100, 255}},
		{NodeTypeConcept, 4, Color{0, 200, 255}},
		{NodeType("WHATEVER"), 4, Color{0, 200, 255}},
		{NodeType(""), 4, Color{0, 200, 255}},
	}

	for _, tt := range tests {
		t.Run(string(tt.nodeType), func(t *testing.T) {
			a := AppearanceFor(tt.nodeType)
			assert.Equal(t, tt.radius, a.Radius)
			assert.Equal(t, tt.color, a.Color)
		})
	}
}

func TestAppearanceRadiusOrdering(t *testing.T) {
	identity := AppearanceFor(NodeTypeIdentity).Radius
	action := AppearanceFor(NodeTypeAction).Radius
	concept := AppearanceFor(NodeTypeConcept).Radius

	assert.Greater(t, identity, action)
	assert.Greater(t, action, concept)
}

func TestNewNode(t *testing.T) {
	node := NewNode("Fire", NodeTypeAction, Vec2{X: 10, Y: 20})

	assert.Equal(t, "Fire", node.ID)
	assert.Equal(t, NodeTypeAction, node.Type)
	assert.Equal(t, Vec2{X: 10, Y: 20}, node.Pos)
	assert.Equal(t, Vec2{}, node.Vel)
	assert.Equal(t, 6.0, node.Radius)
	assert.Equal(t, colorAction, node.Color)
	assert.Zero(t, node.Activation)
}
