package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssao-engine/core"
	"ssao-engine/math"
	"ssao-engine/raster"
	"ssao-engine/scene"
	"ssao-engine/ssao"
)

// fillPass writes a constant color and records where it was asked to draw.
type fillPass struct {
	color    math.Vec4
	targets  []*raster.RenderTarget
	resized  [2]int
	disposed bool
}

func (p *fillPass) Render(r *raster.Renderer, target *raster.RenderTarget) error {
	p.targets = append(p.targets, target)
	prev := r.RenderTarget()
	defer r.SetRenderTarget(prev)
	r.SetRenderTarget(target)
	return r.DrawQuad(raster.ProgramFunc(func(raster.Fragment) math.Vec4 { return p.color }), raster.BlendNone)
}

func (p *fillPass) Resize(w, h int) error {
	p.resized = [2]int{w, h}
	return nil
}

func (p *fillPass) Dispose() error {
	p.disposed = true
	return nil
}

func TestComposerPingPong(t *testing.T) {
	r, err := raster.NewRenderer(4, 4)
	require.NoError(t, err)
	c, err := NewComposer(r, 4, 4)
	require.NoError(t, err)

	first := &fillPass{color: math.Vec4{X: 1, W: 1}}
	second := &fillPass{color: math.Vec4{Y: 1, W: 1}}
	c.AddPass(first)
	c.AddPass(second)
	c.AddPass(NewCopyPass(1))
	require.NoError(t, c.Render())

	require.Len(t, first.targets, 1)
	require.Len(t, second.targets, 1)
	assert.NotNil(t, first.targets[0])
	assert.NotNil(t, second.targets[0])
	assert.NotSame(t, first.targets[0], second.targets[0], "buffers swap between passes")

	assert.Equal(t, math.Vec4{Y: 1, W: 1}, r.Screen().Texture.At(2, 2), "last pass copies the latest output to the screen")
	assert.Nil(t, r.RenderTarget(), "binding restored")
}

func TestComposerResizeAndDispose(t *testing.T) {
	r, err := raster.NewRenderer(4, 4)
	require.NoError(t, err)
	c, err := NewComposer(r, 4, 4)
	require.NoError(t, err)
	p := &fillPass{}
	c.AddPass(p)

	require.NoError(t, c.SetSize(8, 2))
	assert.Equal(t, [2]int{8, 2}, p.resized)
	assert.Equal(t, 8, c.read.Width())
	assert.Equal(t, 2, c.write.Height())

	require.NoError(t, c.Dispose())
	assert.True(t, p.disposed)
	assert.True(t, c.read.Disposed())
}

func TestCopyPassNeedsInput(t *testing.T) {
	r, err := raster.NewRenderer(2, 2)
	require.NoError(t, err)
	assert.ErrorIs(t, NewCopyPass(1).Render(r, nil), errNoInput)
}

func testScene() (*scene.Scene, *scene.Camera) {
	s := scene.NewScene()
	wall := scene.NewMeshNode("wall", scene.CreateQuad(), math.NewVec3(0, 0, -4.5))
	wall.SetScale(math.NewVec3(20, 20, 1))
	s.AddNode(wall)
	s.AddNode(scene.NewMeshNode("cube", scene.CreateCube(1), math.NewVec3(0, 0, -4)))
	s.AddLight(&scene.Light{Type: scene.LightTypeDirectional, Direction: math.Vec3Back, Color: core.ColorWhite, Intensity: 1})
	return s, scene.NewCamera(math.Radians(45), 1, 1, 10)
}

func TestRenderEngine(t *testing.T) {
	s, cam := testScene()
	cfg := ssao.DefaultConfig()
	cfg.KernelSize = 16
	cfg.Params.Output = ssao.OutputBeauty
	re, err := NewRenderEngine(s, cam, 32, 32, cfg)
	require.NoError(t, err)

	require.NoError(t, re.Render())
	assert.Equal(t, re.SSAO().Targets().Beauty.Texture.Pix(), re.Screen().Texture.Pix())

	objects, triangles, _ := re.DrawStats()
	assert.Equal(t, 2, objects)
	assert.Equal(t, 2+12, triangles)

	require.NoError(t, re.Resize(48, 24))
	assert.Equal(t, float32(2), cam.AspectRatio)
	assert.Equal(t, 48, re.Screen().Width())
	w, h := re.SSAO().Size()
	assert.Equal(t, 48, w)
	assert.Equal(t, 24, h)
	require.NoError(t, re.Render())

	require.NoError(t, re.Destroy())
	assert.ErrorIs(t, re.Render(), ssao.ErrDisposed)
}

func TestNewRenderEngineRejectsBadConfig(t *testing.T) {
	s, cam := testScene()
	cfg := ssao.DefaultConfig()
	cfg.KernelSize = 0
	_, err := NewRenderEngine(s, cam, 8, 8, cfg)
	assert.ErrorIs(t, err, ssao.ErrInvalidKernelSize)

	_, err = NewRenderEngine(nil, cam, 8, 8, ssao.DefaultConfig())
	assert.Error(t, err)
}
