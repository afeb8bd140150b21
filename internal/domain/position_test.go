package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec2Arithmetic(t *testing.T) {
	a := Vec2{X: 3, Y: 4}
	b := Vec2{X: 1, Y: -2}

	assert.Equal(t, Vec2{X: 4, Y: 2}, a.Add(b))
	assert.Equal(t, Vec2{X: 2, Y: 6}, a.Sub(b))
	assert.Equal(t, Vec2{X: 6, Y: 8}, a.Scale(2))
	assert.Equal(t, 25.0, a.LenSq())
	assert.Equal(t, 5.0, a.Len())
}

func TestVec2Normalized(t *testing.T) {
	t.Run("unit length", func(t *testing.T) {
		n := Vec2{X: 3, Y: 4}.Normalized()
		assert.InDelta(t, 1.0, n.Len(), 1e-12)
		assert.InDelta(t, 0.6, n.X, 1e-12)
	})

	t.Run("zero vector stays zero", func(t *testing.T) {
		n := Vec2{}.Normalized()
		assert.Equal(t, Vec2{}, n)
		assert.True(t, n.IsFinite())
	})
}

func TestVec2IsFinite(t *testing.T) {
	assert.True(t, Vec2{X: 1, Y: -1}.IsFinite())
	assert.False(t, Vec2{X: math.NaN()}.IsFinite())
	assert.False(t, Vec2{Y: math.Inf(1)}.IsFinite())
}
