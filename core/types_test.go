package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ssao-engine/math"
)

func TestTransformMatrixScalesBeforeTranslating(t *testing.T) {
	tr := NewTransform()
	tr.Position = math.NewVec3(0, 0, -4)
	tr.Scale = math.NewVec3(2, 2, 2)

	p := tr.GetMatrix().MulVec3(math.NewVec3(0.5, 0, 0))
	assert.InDelta(t, 1, p.X, 1e-6)
	assert.InDelta(t, -4, p.Z, 1e-6)
}

func TestTransformAxes(t *testing.T) {
	tr := NewTransform()
	assert.Equal(t, math.Vec3Back, tr.GetForward(), "looks down -Z by default")

	tr.Rotation = math.QuaternionFromAxisAngle(math.Vec3Up, math.Pi/2)
	f := tr.GetForward()
	assert.InDelta(t, -1, f.X, 1e-6)
	assert.InDelta(t, 0, f.Z, 1e-6)
}

func TestColorOps(t *testing.T) {
	c := NewColor(0.5, 1, 0.25, 0.8).Mul(ColorGray)
	assert.Equal(t, Color{0.25, 0.5, 0.125, 0.8}, c)
	assert.Equal(t, Color{1, 1, 1, 0.5}, Color{0.5, 0.5, 0.5, 0.5}.Scale(2))
}
