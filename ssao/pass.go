package ssao

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"ssao-engine/core"
	"ssao-engine/math"
	"ssao-engine/raster"
	"ssao-engine/scene"
)

// encodedFacingNormal is +Z encoded as color, the normal buffer's background.
var encodedFacingNormal = core.Color{R: 0.5, G: 0.5, B: 1, A: 1}

// Targets are the intermediate buffers a Pass renders into.
type Targets struct {
	Beauty    *raster.RenderTarget // lit scene, RGBA8 with depth
	Normal    *raster.RenderTarget // encoded view-space normals
	Occlusion *raster.RenderTarget // raw visibility
	Blurred   *raster.RenderTarget // box-filtered visibility
}

func (t Targets) all() []*raster.RenderTarget {
	return []*raster.RenderTarget{t.Beauty, t.Normal, t.Occlusion, t.Blurred}
}

// Pass renders a scene with screen-space ambient occlusion applied. All
// methods except Params, SetParams and SetOutput must be called from the
// render goroutine.
type Pass struct {
	scene  *scene.Scene
	camera *scene.Camera
	cfg    Config

	params atomic.Pointer[Params]

	kernel   []math.Vec3
	noise    *NoiseTile
	targets  Targets
	uniforms CameraUniforms

	occlusion *occlusionProgram
	blur      *blurProgram

	width, height int
	disposed      bool
}

// New allocates the pass buffers at width×height and compiles its programs.
// The kernel and noise tile are drawn from cfg.Seed, kernel first.
func New(s *scene.Scene, camera *scene.Camera, width, height int, cfg Config) (*Pass, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("ssao: new pass: %w", err)
	}

	p := &Pass{
		scene:  s,
		camera: camera,
		cfg:    cfg,
		width:  width,
		height: height,
	}
	params := cfg.Params
	p.params.Store(&params)

	if err := p.generate(cfg.Seed); err != nil {
		return nil, fmt.Errorf("ssao: new pass: %w", err)
	}
	if err := p.allocTargets(width, height); err != nil {
		return nil, fmt.Errorf("ssao: new pass: %w", err)
	}
	p.updateUniforms()
	if err := p.compile(); err != nil {
		p.releaseTargets()
		return nil, err
	}

	slog.Debug("ssao pass created",
		"width", width, "height", height,
		"kernel", cfg.KernelSize, "noise", cfg.NoiseSize)
	return p, nil
}

func (p *Pass) generate(seed Seed) error {
	rng := NewRandom(seed)
	kernel := GenerateKernel(p.cfg.KernelSize, rng)
	noise, err := GenerateNoise(p.cfg.NoiseSize, p.cfg.NoiseSize, rng)
	if err != nil {
		return err
	}
	p.kernel = kernel
	p.noise = noise
	return nil
}

func (p *Pass) allocTargets(width, height int) error {
	floatOpts := raster.TargetOptions{Format: raster.FormatRGBAFloat, Filter: raster.FilterNearest, Wrap: raster.WrapClamp}

	beauty, err := raster.NewRenderTarget("beauty", width, height, raster.TargetOptions{
		Format: raster.FormatRGBA8,
		Filter: raster.FilterLinear,
		Depth:  true,
	})
	if err != nil {
		return err
	}
	normal, err := raster.NewRenderTarget("normal", width, height, raster.TargetOptions{
		Format: raster.FormatRGBAFloat,
		Filter: raster.FilterNearest,
		Depth:  true,
	})
	if err != nil {
		beauty.Dispose()
		return err
	}
	occlusion, err := raster.NewRenderTarget("occlusion", width, height, floatOpts)
	if err != nil {
		beauty.Dispose()
		normal.Dispose()
		return err
	}
	blurred, err := raster.NewRenderTarget("occlusion-blurred", width, height, floatOpts)
	if err != nil {
		beauty.Dispose()
		normal.Dispose()
		occlusion.Dispose()
		return err
	}

	p.targets = Targets{Beauty: beauty, Normal: normal, Occlusion: occlusion, Blurred: blurred}
	return nil
}

func (p *Pass) releaseTargets() {
	for _, t := range p.targets.all() {
		if t != nil && !t.Disposed() {
			t.Dispose()
		}
	}
}

func (p *Pass) updateUniforms() {
	c := p.camera
	proj := c.GetProjectionMatrix()
	p.uniforms = CameraUniforms{
		Near:              c.NearPlane,
		Far:               c.FarPlane,
		Aspect:            c.AspectRatio,
		TanHalfFov:        math.Tan(c.FOV / 2),
		Projection:        proj,
		InverseProjection: proj.Inverse(),
	}
}

// compile binds the current textures, kernel and uniforms into fresh
// programs. It runs after anything they reference is replaced.
func (p *Pass) compile() error {
	occlusion, err := compileOcclusion(occlusionUniforms{
		camera:     p.uniforms,
		depth:      p.targets.Beauty.Depth,
		normal:     p.targets.Normal.Texture,
		noise:      p.noise.Texture(),
		noiseScale: p.noise.Scale(p.width, p.height),
		kernel:     p.kernel,
		params:     *p.params.Load(),
	})
	if err != nil {
		return err
	}
	blur, err := compileBlur(blurUniforms{
		source:    p.targets.Occlusion.Texture,
		texelSize: math.Vec2{X: 1 / float32(p.width), Y: 1 / float32(p.height)},
	})
	if err != nil {
		return err
	}
	p.occlusion = occlusion
	p.blur = blur
	return nil
}

// Render draws one frame into target, or into the renderer's screen when
// target is nil. The renderer state is the same after Render as before it.
func (p *Pass) Render(r *raster.Renderer, target *raster.RenderTarget) error {
	if p.disposed {
		return ErrDisposed
	}
	params := *p.params.Load()
	p.occlusion.u.params = params

	err := withPassState(r, p.targets.Beauty, &clearValue{p.scene.Background, 1}, func() error {
		return r.RenderScene(p.scene, p.camera, nil)
	})
	if err != nil {
		return fmt.Errorf("ssao: beauty: %w", err)
	}

	err = withPassState(r, p.targets.Normal, &clearValue{encodedFacingNormal, 1}, func() error {
		return r.RenderScene(p.scene, p.camera, raster.NormalMaterial{})
	})
	if err != nil {
		return fmt.Errorf("ssao: normals: %w", err)
	}

	err = withPassState(r, p.targets.Occlusion, &clearValue{core.ColorWhite, 1}, func() error {
		return r.DrawQuad(p.occlusion, raster.BlendNone)
	})
	if err != nil {
		return fmt.Errorf("ssao: occlusion: %w", err)
	}

	err = withPassState(r, p.targets.Blurred, nil, func() error {
		return r.DrawQuad(p.blur, raster.BlendNone)
	})
	if err != nil {
		return fmt.Errorf("ssao: blur: %w", err)
	}

	if err := withPassState(r, target, nil, func() error {
		return p.composite(r, params.Output)
	}); err != nil {
		return fmt.Errorf("ssao: composite %s: %w", params.Output, err)
	}
	return nil
}

func (p *Pass) composite(r *raster.Renderer, output Output) error {
	switch output {
	case OutputBeauty:
		return r.DrawQuad(raster.CopyProgram{Source: p.targets.Beauty.Texture, Opacity: 1}, raster.BlendNone)
	case OutputSSAO:
		return r.DrawQuad(raster.CopyProgram{Source: p.targets.Occlusion.Texture, Opacity: 1}, raster.BlendNone)
	case OutputBlur:
		return r.DrawQuad(raster.CopyProgram{Source: p.targets.Blurred.Texture, Opacity: 1}, raster.BlendNone)
	case OutputComplete:
		if err := r.DrawQuad(raster.CopyProgram{Source: p.targets.Beauty.Texture, Opacity: 1}, raster.BlendNone); err != nil {
			return err
		}
		return r.DrawQuad(raster.CopyProgram{Source: p.targets.Blurred.Texture, Opacity: 1}, raster.BlendMultiply)
	default:
		return fmt.Errorf("unknown output %d", int(output))
	}
}

// Resize reallocates every buffer at width×height and refreshes the values
// derived from the camera. Callers update the camera aspect first.
func (p *Pass) Resize(width, height int) error {
	if p.disposed {
		return ErrDisposed
	}
	targets := p.targets.all()
	for i, t := range targets {
		if err := t.SetSize(width, height); err != nil {
			// Put the resized targets back so the programs and Size agree.
			for _, done := range targets[:i] {
				if rerr := done.SetSize(p.width, p.height); rerr != nil {
					err = errors.Join(err, rerr)
				}
			}
			if cerr := p.compile(); cerr != nil {
				err = errors.Join(err, cerr)
			}
			return fmt.Errorf("ssao: resize: %w", err)
		}
	}
	p.width, p.height = width, height
	p.updateUniforms()
	if err := p.compile(); err != nil {
		return err
	}
	slog.Debug("ssao pass resized", "width", width, "height", height)
	return nil
}

// Dispose releases the buffers. Later calls to Dispose, Render, Resize and
// Regenerate return ErrDisposed.
func (p *Pass) Dispose() error {
	if p.disposed {
		return ErrDisposed
	}
	p.disposed = true
	p.releaseTargets()
	p.occlusion = nil
	p.blur = nil
	slog.Debug("ssao pass disposed")
	return nil
}

// Regenerate replaces the kernel and noise tile with ones drawn from seed.
func (p *Pass) Regenerate(seed Seed) error {
	if p.disposed {
		return ErrDisposed
	}
	if err := p.generate(seed); err != nil {
		return fmt.Errorf("ssao: regenerate: %w", err)
	}
	p.cfg.Seed = seed
	if err := p.compile(); err != nil {
		return err
	}
	slog.Debug("ssao kernel regenerated", "seed", seed)
	return nil
}

// Params returns the tunables the next Render will use. Safe for
// concurrent use.
func (p *Pass) Params() Params {
	return *p.params.Load()
}

// SetParams replaces the tunables for the next Render. Safe for concurrent use.
func (p *Pass) SetParams(params Params) {
	p.params.Store(&params)
}

// UpdateParams applies fn to the current tunables as one atomic update, so
// concurrent callers never lose each other's changes.
func (p *Pass) UpdateParams(fn func(*Params)) {
	for {
		old := p.params.Load()
		next := *old
		fn(&next)
		if p.params.CompareAndSwap(old, &next) {
			return
		}
	}
}

// SetOutput changes only the output selection. Safe for concurrent use.
func (p *Pass) SetOutput(o Output) {
	p.UpdateParams(func(params *Params) { params.Output = o })
}

// Kernel returns a copy of the sample kernel.
func (p *Pass) Kernel() []math.Vec3 {
	return append([]math.Vec3(nil), p.kernel...)
}

func (p *Pass) Noise() *NoiseTile { return p.noise }

func (p *Pass) Targets() Targets { return p.targets }

// Uniforms are the camera-derived values as of construction or the last Resize.
func (p *Pass) Uniforms() CameraUniforms { return p.uniforms }

// Seed is the seed the current kernel and noise were drawn from.
func (p *Pass) Seed() Seed { return p.cfg.Seed }

// Size is the current buffer size.
func (p *Pass) Size() (width, height int) { return p.width, p.height }
