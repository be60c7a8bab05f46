package raster

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssao-engine/core"
	"ssao-engine/math"
	"ssao-engine/scene"
)

func TestNewTextureValidation(t *testing.T) {
	_, err := NewTexture(0, 4, FormatRGBA8)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewTexture(4, 4, Format(7))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = NewRenderTarget("bad", 4, -1, TargetOptions{})
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewFloatTexture(2, 2, make([]float32, 3))
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestTextureQuantization(t *testing.T) {
	q, err := NewTexture(1, 1, FormatRGBA8)
	require.NoError(t, err)
	q.Set(0, 0, math.Vec4{X: 0.3, Y: 1.7, Z: -2, W: 0.5})
	got := q.At(0, 0)
	assert.InDelta(t, 77.0/255, got.X, 1e-6)
	assert.Equal(t, float32(1), got.Y)
	assert.Equal(t, float32(0), got.Z)

	f, err := NewTexture(1, 1, FormatRGBAFloat)
	require.NoError(t, err)
	f.Set(0, 0, math.Vec4{X: 0.3, Y: 1.7, Z: -2, W: 0.5})
	assert.Equal(t, math.Vec4{X: 0.3, Y: 1.7, Z: -2, W: 0.5}, f.At(0, 0))
}

func TestTextureSampling(t *testing.T) {
	tex, err := NewFloatTexture(2, 1, []float32{
		0, 0, 0, 1,
		1, 1, 1, 1,
	})
	require.NoError(t, err)

	tex.Filter = FilterNearest
	assert.Equal(t, float32(0), tex.Sample(math.Vec2{X: 0.25, Y: 0.5}).X)
	assert.Equal(t, float32(1), tex.Sample(math.Vec2{X: 0.75, Y: 0.5}).X)

	tex.Wrap = WrapClamp
	assert.Equal(t, float32(1), tex.Sample(math.Vec2{X: 1.25, Y: 0.5}).X, "clamp holds the edge")
	tex.Wrap = WrapRepeat
	assert.Equal(t, float32(0), tex.Sample(math.Vec2{X: 1.25, Y: 0.5}).X, "repeat wraps around")
	assert.Equal(t, float32(1), tex.Sample(math.Vec2{X: -0.25, Y: 0.5}).X)

	tex.Filter = FilterLinear
	tex.Wrap = WrapClamp
	assert.InDelta(t, 0.5, tex.Sample(math.Vec2{X: 0.5, Y: 0.5}).X, 1e-6, "halfway between texel centers")
}

func TestClearAndAutoClear(t *testing.T) {
	r, err := NewRenderer(4, 4)
	require.NoError(t, err)
	rt, err := NewRenderTarget("rt", 4, 4, TargetOptions{Format: FormatRGBAFloat, Depth: true})
	require.NoError(t, err)

	r.SetRenderTarget(rt)
	r.SetClearColor(core.Color{R: 0.25, G: 0.5, B: 0.75}, 0.5)
	require.NoError(t, r.Clear(true, true))
	assert.Equal(t, math.Vec4{X: 0.25, Y: 0.5, Z: 0.75, W: 0.5}, rt.Texture.At(3, 3))
	assert.Equal(t, float32(1), rt.Depth.At(0, 0))

	// With auto-clear off, a program that writes nothing visible keeps the clear color.
	r.SetAutoClear(false)
	keep := ProgramFunc(func(f Fragment) math.Vec4 { return rt.Texture.At(f.X, f.Y) })
	require.NoError(t, r.DrawQuad(keep, BlendNone))
	assert.Equal(t, math.Vec4{X: 0.25, Y: 0.5, Z: 0.75, W: 0.5}, rt.Texture.At(1, 2))
}

func TestDrawQuadFragments(t *testing.T) {
	r, err := NewRenderer(8, 4)
	require.NoError(t, err)
	r.SetWorkers(3)

	uv := ProgramFunc(func(f Fragment) math.Vec4 { return math.Vec4{X: f.UV.X, Y: f.UV.Y, W: 1} })
	rt, err := NewRenderTarget("uv", 8, 4, TargetOptions{Format: FormatRGBAFloat})
	require.NoError(t, err)
	r.SetRenderTarget(rt)
	require.NoError(t, r.DrawQuad(uv, BlendNone))

	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			v := rt.Texture.At(x, y)
			assert.Equal(t, (float32(x)+0.5)/8, v.X)
			assert.Equal(t, (float32(y)+0.5)/4, v.Y)
		}
	}
}

func TestMultiplyBlend(t *testing.T) {
	r, err := NewRenderer(2, 2)
	require.NoError(t, err)
	rt, err := NewRenderTarget("rt", 2, 2, TargetOptions{Format: FormatRGBAFloat})
	require.NoError(t, err)
	r.SetRenderTarget(rt)
	r.SetAutoClear(false)
	rt.Texture.Fill(math.Vec4{X: 0.5, Y: 1, Z: 0.2, W: 0.8})

	half := ProgramFunc(func(Fragment) math.Vec4 { return math.Vec4{X: 0.5, Y: 0.5, Z: 0.5, W: 0.1} })
	require.NoError(t, r.DrawQuad(half, BlendMultiply))
	assert.Equal(t, math.Vec4{X: 0.25, Y: 0.5, Z: 0.1, W: 0.8}, rt.Texture.At(0, 1))
}

func TestStateRoundTrip(t *testing.T) {
	r, err := NewRenderer(2, 2)
	require.NoError(t, err)
	saved := r.State()
	assert.Nil(t, saved.Target, "screen bound by default")
	assert.True(t, saved.AutoClear)

	rt, err := NewRenderTarget("rt", 2, 2, TargetOptions{})
	require.NoError(t, err)
	r.SetRenderTarget(rt)
	r.SetAutoClear(false)
	r.SetClearColor(core.ColorRed, 0)

	r.SetState(saved)
	assert.Equal(t, saved, r.State())
	assert.Nil(t, r.RenderTarget())
}

func TestDisposedTarget(t *testing.T) {
	r, err := NewRenderer(2, 2)
	require.NoError(t, err)
	rt, err := NewRenderTarget("rt", 2, 2, TargetOptions{})
	require.NoError(t, err)
	rt.Dispose()
	assert.True(t, rt.Disposed())

	r.SetRenderTarget(rt)
	err = r.DrawQuad(ProgramFunc(func(Fragment) math.Vec4 { return math.Vec4{} }), BlendNone)
	assert.True(t, errors.Is(err, ErrDisposed))
	assert.ErrorIs(t, rt.SetSize(4, 4), ErrDisposed)
	_, err = rt.Image()
	assert.ErrorIs(t, err, ErrDisposed)
}

func TestImageFlipsRows(t *testing.T) {
	rt, err := NewRenderTarget("rt", 1, 2, TargetOptions{Format: FormatRGBA8})
	require.NoError(t, err)
	rt.Texture.Set(0, 0, math.Vec4{X: 1, W: 1}) // bottom
	rt.Texture.Set(0, 1, math.Vec4{Z: 1, W: 1}) // top

	img, err := rt.Image()
	require.NoError(t, err)
	assert.Equal(t, uint8(255), img.RGBAAt(0, 0).B, "top row first")
	assert.Equal(t, uint8(255), img.RGBAAt(0, 1).R)
}

// cubeScene is a unit cube centered at z = -4 seen from the origin.
func cubeScene(t *testing.T) (*scene.Scene, *scene.Camera) {
	t.Helper()
	s := scene.NewScene()
	s.Lights = nil
	s.Ambient = core.ColorWhite
	cube := scene.NewMeshNode("cube", scene.CreateCube(1), math.NewVec3(0, 0, -4))
	cube.Mesh.Material = scene.NewMaterial("red", core.ColorRed)
	s.AddNode(cube)
	return s, scene.NewCamera(math.Radians(45), 1, 1, 10)
}

func TestRenderSceneDepthAndColor(t *testing.T) {
	s, cam := cubeScene(t)
	r, err := NewRenderer(32, 32)
	require.NoError(t, err)
	require.NoError(t, r.RenderScene(s, cam, nil))

	screen := r.Screen()
	// window depth of z = -3.5 with near 1, far 10
	n, f, z := float32(1), float32(10), float32(-3.5)
	want := ((f+n)/(f-n)+2*f*n/((f-n)*z))*0.5 + 0.5
	assert.InDelta(t, want, screen.Depth.At(16, 16), 1e-4)
	assert.Equal(t, float32(1), screen.Depth.At(0, 0), "background keeps the cleared depth")

	assert.Equal(t, math.Vec4{X: 1, Y: 0, Z: 0, W: 1}, screen.Texture.At(16, 16), "ambient-lit albedo")
	assert.Equal(t, math.Vec4{X: 0, Y: 0, Z: 0, W: 1}, screen.Texture.At(0, 0), "clear color")
}

func TestRenderSceneNormalOverride(t *testing.T) {
	s, cam := cubeScene(t)
	r, err := NewRenderer(32, 32)
	require.NoError(t, err)
	rt, err := NewRenderTarget("normal", 32, 32, TargetOptions{Format: FormatRGBAFloat, Depth: true})
	require.NoError(t, err)
	r.SetRenderTarget(rt)
	require.NoError(t, r.RenderScene(s, cam, NormalMaterial{}))

	n := rt.Texture.At(16, 16)
	assert.InDelta(t, 0.5, n.X, 1e-5)
	assert.InDelta(t, 0.5, n.Y, 1e-5)
	assert.InDelta(t, 1, n.Z, 1e-5, "front face points at the camera")

	mat := s.Root.Find("cube").Mesh.Material
	assert.Equal(t, core.ColorRed, mat.Albedo, "scene materials untouched")
}

func TestBackFacesCulled(t *testing.T) {
	s := scene.NewScene()
	quad := scene.NewMeshNode("quad", scene.CreateQuad(), math.NewVec3(0, 0, -3))
	quad.SetScale(math.NewVec3(4, 4, 1))
	s.AddNode(quad)
	cam := scene.NewCamera(math.Radians(60), 1, 1, 10)

	r, err := NewRenderer(16, 16)
	require.NoError(t, err)
	require.NoError(t, r.RenderScene(s, cam, NormalMaterial{}))
	assert.Less(t, r.Screen().Depth.At(8, 8), float32(1), "facing the camera")

	quad.SetRotation(math.QuaternionFromAxisAngle(math.Vec3Up, math.Pi))
	require.NoError(t, r.RenderScene(s, cam, NormalMaterial{}))
	assert.Equal(t, float32(1), r.Screen().Depth.At(8, 8), "turned away")
}

func TestNearPlaneClipping(t *testing.T) {
	// A floor running from behind the camera into the distance.
	s := scene.NewScene()
	floor := scene.NewMeshNode("floor", scene.CreatePlane(20, 20, 1), math.NewVec3(0, -1, 0))
	s.AddNode(floor)
	cam := scene.NewCamera(math.Radians(90), 1, 0.5, 50)

	r, err := NewRenderer(16, 16)
	require.NoError(t, err)
	require.NoError(t, r.RenderScene(s, cam, nil))
	assert.Less(t, r.Screen().Depth.At(8, 0), float32(1), "floor covers the bottom row")
	assert.Equal(t, float32(1), r.Screen().Depth.At(8, 15), "sky above the horizon")
}

func TestCopyProgram(t *testing.T) {
	src, err := NewFloatTexture(2, 2, []float32{
		0.1, 0.2, 0.3, 1,
		0.4, 0.5, 0.6, 1,
		0.7, 0.8, 0.9, 1,
		1, 1, 1, 1,
	})
	require.NoError(t, err)

	same, err := NewRenderTarget("same", 2, 2, TargetOptions{Format: FormatRGBAFloat})
	require.NoError(t, err)
	r, err := NewRenderer(2, 2)
	require.NoError(t, err)
	r.SetRenderTarget(same)
	require.NoError(t, r.DrawQuad(CopyProgram{Source: src, Opacity: 0.5}, BlendNone))
	assert.Equal(t, math.Vec4{X: 0.4, Y: 0.5, Z: 0.6, W: 0.5}, same.Texture.At(1, 0))

	src.Filter = FilterNearest
	big, err := NewRenderTarget("big", 4, 4, TargetOptions{Format: FormatRGBAFloat})
	require.NoError(t, err)
	r.SetRenderTarget(big)
	require.NoError(t, r.DrawQuad(CopyProgram{Source: src, Opacity: 1}, BlendNone))
	assert.Equal(t, src.At(1, 1), big.Texture.At(3, 3), "sampled through uv when sizes differ")
}
