package ssao

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssao-engine/core"
	"ssao-engine/math"
	"ssao-engine/raster"
	"ssao-engine/scene"
)

const testSize = 64

// wallScene is a large wall at z = -4.5 facing a camera at the origin,
// optionally with a unit cube standing in front of it at z = -4.
func wallScene(withCube bool) (*scene.Scene, *scene.Camera) {
	s := scene.NewScene()
	s.Lights = nil
	s.Ambient = core.ColorWhite

	wall := scene.NewMeshNode("wall", scene.CreateQuad(), math.NewVec3(0, 0, -4.5))
	wall.SetScale(math.NewVec3(20, 20, 1))
	s.AddNode(wall)
	if withCube {
		s.AddNode(scene.NewMeshNode("cube", scene.CreateCube(1), math.NewVec3(0, 0, -4)))
	}
	return s, scene.NewCamera(math.Radians(45), 1, 1, 10)
}

func newTestPass(t *testing.T, withCube bool) (*Pass, *raster.Renderer) {
	t.Helper()
	s, cam := wallScene(withCube)
	p, err := New(s, cam, testSize, testSize, DefaultConfig())
	require.NoError(t, err)
	r, err := raster.NewRenderer(testSize, testSize)
	require.NoError(t, err)
	return p, r
}

func TestNewValidatesConfig(t *testing.T) {
	s, cam := wallScene(false)

	cfg := DefaultConfig()
	cfg.KernelSize = 0
	_, err := New(s, cam, 8, 8, cfg)
	assert.ErrorIs(t, err, ErrInvalidKernelSize)

	cfg.KernelSize = MaxKernelSize + 1
	_, err = New(s, cam, 8, 8, cfg)
	assert.ErrorIs(t, err, ErrInvalidKernelSize)

	cfg = DefaultConfig()
	cfg.NoiseSize = 0
	_, err = New(s, cam, 8, 8, cfg)
	assert.ErrorIs(t, err, ErrInvalidNoiseSize)

	_, err = New(s, cam, 0, 8, DefaultConfig())
	assert.ErrorIs(t, err, raster.ErrInvalidSize)
}

func TestNewDrawsKernelBeforeNoise(t *testing.T) {
	p, _ := newTestPass(t, false)

	rng := NewRandom(DefaultSeed)
	kernel := GenerateKernel(32, rng)
	noise, err := GenerateNoise(4, 4, rng)
	require.NoError(t, err)

	assert.Equal(t, kernel, p.Kernel())
	assert.Equal(t, noise.Texture().Pix(), p.Noise().Texture().Pix())

	k := p.Kernel()
	k[0] = math.Vec3{}
	assert.NotEqual(t, k[0], p.Kernel()[0], "Kernel returns a copy")
}

func TestFlatWallIsUnoccluded(t *testing.T) {
	p, r := newTestPass(t, false)
	p.SetOutput(OutputSSAO)
	require.NoError(t, p.Render(r, nil))

	occlusion := p.Targets().Occlusion.Texture
	for y := 0; y < testSize; y++ {
		for x := 0; x < testSize; x++ {
			require.InDelta(t, 1, occlusion.At(x, y).X, 1e-3, "pixel %d,%d", x, y)
		}
	}
}

// silhouetteRing returns the wall pixels that share an edge with a cube
// pixel. The cube's front face sits at z=-3.5 and the wall at z=-4.5.
func silhouetteRing(t *testing.T, p *Pass) [][2]int {
	t.Helper()
	depth := p.Targets().Beauty.Depth
	u := p.Uniforms()
	onCube := func(x, y int) bool {
		if x < 0 || y < 0 || x >= testSize || y >= testSize {
			return false
		}
		d := depth.At(x, y)
		return d < 1 && u.linearizeDepth(d) > -4
	}

	var ring [][2]int
	for y := 0; y < testSize; y++ {
		for x := 0; x < testSize; x++ {
			if depth.At(x, y) >= 1 || onCube(x, y) {
				continue
			}
			if onCube(x-1, y) || onCube(x+1, y) || onCube(x, y-1) || onCube(x, y+1) {
				ring = append(ring, [2]int{x, y})
			}
		}
	}
	require.NotEmpty(t, ring, "cube silhouette")
	return ring
}

func TestCubeOnWallOccludesSilhouette(t *testing.T) {
	p, r := newTestPass(t, true)
	require.NoError(t, p.Render(r, nil))
	ring := silhouetteRing(t, p)

	for _, radius := range []float32{0.1, 0.25, 0.5, 1.0} {
		params := p.Params()
		params.KernelRadius = radius
		params.Output = OutputSSAO
		p.SetParams(params)
		require.NoError(t, p.Render(r, nil))

		occlusion := p.Targets().Occlusion.Texture
		center := occlusion.At(testSize/2, testSize/2).X
		var sum float32
		for _, px := range ring {
			sum += occlusion.At(px[0], px[1]).X
		}
		avg := sum / float32(len(ring))
		assert.Less(t, avg, center, "radius %v: crease next to the cube is darker than its face", radius)
	}

	// The composited output carries the contrast onto the wall.
	params := p.Params()
	params.KernelRadius = 1
	params.Output = OutputComplete
	p.SetParams(params)
	require.NoError(t, p.Render(r, nil))
	screen := r.Screen().Texture
	blurred := p.Targets().Blurred.Texture
	var ringLit float32
	for _, px := range ring {
		ringLit += blurred.At(px[0], px[1]).X
	}
	assert.Less(t, ringLit/float32(len(ring)), blurred.At(1, 1).X, "blurred crease")
	assert.LessOrEqual(t, screen.At(ring[0][0], ring[0][1]).X, p.Targets().Beauty.Texture.At(ring[0][0], ring[0][1]).X)
}

func TestBeautyOutputMatchesBeautyBuffer(t *testing.T) {
	p, r := newTestPass(t, true)
	p.SetOutput(OutputBeauty)
	out, err := raster.NewRenderTarget("out", testSize, testSize, raster.TargetOptions{Format: raster.FormatRGBA8})
	require.NoError(t, err)

	require.NoError(t, p.Render(r, out))
	assert.Equal(t, p.Targets().Beauty.Texture.Pix(), out.Texture.Pix())
}

func TestRenderRestoresRendererState(t *testing.T) {
	p, r := newTestPass(t, true)
	other, err := raster.NewRenderTarget("other", testSize, testSize, raster.TargetOptions{})
	require.NoError(t, err)
	r.SetRenderTarget(other)
	r.SetClearColor(core.ColorBlue, 0.25)
	r.SetAutoClear(true)
	before := r.State()

	require.NoError(t, p.Render(r, nil))
	assert.Equal(t, before, r.State())
}

func TestResizeRoundTrip(t *testing.T) {
	p, _ := newTestPass(t, false)
	orig := p.Uniforms()

	p.camera.UpdateAspectRatio(128, 32)
	require.NoError(t, p.Resize(128, 32))
	for _, target := range p.Targets().all() {
		assert.Equal(t, 128, target.Width(), target.Name)
		assert.Equal(t, 32, target.Height(), target.Name)
	}
	assert.Equal(t, float32(4), p.Uniforms().Aspect)
	assert.Equal(t, math.Vec2{X: 32, Y: 8}, p.occlusion.u.noiseScale)

	p.camera.UpdateAspectRatio(testSize, testSize)
	require.NoError(t, p.Resize(testSize, testSize))
	w, h := p.Size()
	assert.Equal(t, testSize, w)
	assert.Equal(t, testSize, h)
	assert.Equal(t, orig, p.Uniforms())
}

func TestResizeFailureKeepsBuffersConsistent(t *testing.T) {
	p, _ := newTestPass(t, true)
	p.targets.Blurred.Dispose()

	err := p.Resize(32, 32)
	require.ErrorIs(t, err, raster.ErrDisposed)

	for _, target := range []*raster.RenderTarget{p.targets.Beauty, p.targets.Normal, p.targets.Occlusion} {
		assert.Equal(t, testSize, target.Width(), target.Name)
		assert.Equal(t, testSize, target.Height(), target.Name)
	}
	w, h := p.Size()
	assert.Equal(t, testSize, w)
	assert.Equal(t, testSize, h)
	assert.Same(t, p.targets.Beauty.Depth, p.occlusion.u.depth)
	assert.Same(t, p.targets.Normal.Texture, p.occlusion.u.normal)
	assert.Same(t, p.targets.Occlusion.Texture, p.blur.u.source)
}

func TestDispose(t *testing.T) {
	p, r := newTestPass(t, false)
	targets := p.Targets()

	require.NoError(t, p.Dispose())
	for _, target := range targets.all() {
		assert.True(t, target.Disposed(), target.Name)
	}

	assert.ErrorIs(t, p.Render(r, nil), ErrDisposed)
	assert.ErrorIs(t, p.Resize(32, 32), ErrDisposed)
	assert.ErrorIs(t, p.Regenerate(DefaultSeed), ErrDisposed)
	assert.ErrorIs(t, p.Dispose(), ErrDisposed)
}

func TestRegenerate(t *testing.T) {
	p, r := newTestPass(t, true)
	before := p.Kernel()

	seed := Seed{1, 2, 3, 4}
	require.NoError(t, p.Regenerate(seed))
	assert.Equal(t, seed, p.Seed())
	assert.NotEqual(t, before, p.Kernel())
	assert.Equal(t, GenerateKernel(32, NewRandom(seed)), p.Kernel())
	require.NoError(t, p.Render(r, nil))
}

func TestParamsConcurrentUpdates(t *testing.T) {
	p, _ := newTestPass(t, false)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			params := p.Params()
			params.KernelRadius = 0.25
			p.SetParams(params)
			p.SetOutput(OutputBlur)
		}()
	}
	wg.Wait()

	got := p.Params()
	assert.Equal(t, float32(0.25), got.KernelRadius)
	assert.Equal(t, OutputBlur, got.Output)
}

func TestUpdateParamsKeepsConcurrentFields(t *testing.T) {
	p, _ := newTestPass(t, false)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.UpdateParams(func(params *Params) { params.PowerFactor += 1 })
		}()
		go func() {
			defer wg.Done()
			p.SetOutput(OutputSSAO)
		}()
	}
	wg.Wait()

	got := p.Params()
	assert.Equal(t, DefaultParams().PowerFactor+50, got.PowerFactor)
	assert.Equal(t, OutputSSAO, got.Output)
}

func TestWithPassState(t *testing.T) {
	r, err := raster.NewRenderer(4, 4)
	require.NoError(t, err)
	rt, err := raster.NewRenderTarget("rt", 4, 4, raster.TargetOptions{Format: raster.FormatRGBAFloat, Depth: true})
	require.NoError(t, err)
	before := r.State()

	t.Run("success", func(t *testing.T) {
		err := withPassState(r, rt, &clearValue{core.ColorGreen, 0.5}, func() error {
			assert.Same(t, rt, r.RenderTarget())
			assert.False(t, r.AutoClear())
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, math.Vec4{Y: 1, W: 0.5}, rt.Texture.At(0, 0))
		assert.Equal(t, before, r.State())
	})

	t.Run("error", func(t *testing.T) {
		boom := errors.New("boom")
		err := withPassState(r, rt, nil, func() error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, before, r.State())
	})

	t.Run("panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = withPassState(r, rt, nil, func() error { panic("draw failed") })
		})
		assert.Equal(t, before, r.State())
	})

	t.Run("disposed target", func(t *testing.T) {
		gone, err := raster.NewRenderTarget("gone", 4, 4, raster.TargetOptions{})
		require.NoError(t, err)
		gone.Dispose()
		err = withPassState(r, gone, &clearValue{core.ColorBlack, 1}, func() error { return nil })
		assert.ErrorIs(t, err, raster.ErrDisposed)
		assert.Equal(t, before, r.State())
	})
}
