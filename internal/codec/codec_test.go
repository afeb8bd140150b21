package codec

import (
	"bytes"
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"commandcenter/internal/domain"
)

func testSnapshot() *domain.GraphSnapshot {
	g := domain.NewGraph(domain.WithRand(rand.New(rand.NewPCG(1, 2))))
	g.AddNode("Fire", domain.NodeTypeAction)
	g.AddRelation("spark", "Fire", domain.RelationTriggers)
	g.Simulate(0.016)
	return g.Snapshot()
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   string
	}{
		{"default", "", "json"},
		{"json", "json", "json"},
		{"yaml", "yaml", "yaml"},
		{"yml alias", "YML", "yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := ForFormat(tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, exp.Format())
		})
	}

	_, err := ForFormat("ansible")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestJSONExport(t *testing.T) {
	snap := testSnapshot()

	var buf bytes.Buffer
	require.NoError(t, NewJSONCodec().Export(snap, &buf))

	var got domain.GraphSnapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, *snap, got)
}

func TestYAMLExport(t *testing.T) {
	snap := testSnapshot()

	var buf bytes.Buffer
	require.NoError(t, NewYAMLCodec().Export(snap, &buf))
	assert.Contains(t, buf.String(), "relation: TRIGGERS")

	var got yamlGraph
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, uint64(1), got.Tick)
	require.Len(t, got.Nodes, 2)
	assert.Equal(t, "Fire", got.Nodes[0].ID)
	assert.Equal(t, "ACTION", got.Nodes[0].Type)
	assert.Equal(t, snap.Nodes[0].Pos.X, got.Nodes[0].Pos[0])
	assert.Equal(t, domain.Color{R: 255, G: 100, B: 50}, got.Nodes[0].Color)
	require.Len(t, got.Edges, 1)
	assert.Equal(t, "spark", got.Edges[0].Source)
	assert.Equal(t, 1.0, got.Edges[0].Weight)
}
