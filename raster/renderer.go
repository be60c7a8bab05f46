package raster

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"ssao-engine/core"
	"ssao-engine/math"
)

// State is the renderer-global state a pass may change and must put back.
type State struct {
	ClearColor core.Color // RGB used by Clear; the A channel is ignored
	ClearAlpha float32
	AutoClear  bool          // DrawQuad and RenderScene clear the bound target first
	Target     *RenderTarget // nil means the screen
}

// Blend selects how a draw combines its output with the bound target.
type Blend int

const (
	BlendNone     Blend = iota // overwrite
	BlendMultiply              // rgb = src·dst, alpha = dst alpha
)

// Fragment is the input of a full-screen program invocation.
type Fragment struct {
	X, Y          int
	Width, Height int       // size of the bound target
	UV            math.Vec2 // pixel center, (0,0) bottom-left
}

// Program shades one full-screen fragment. Implementations hold their
// uniforms as fields and must be safe for concurrent Shade calls.
type Program interface {
	Shade(f Fragment) math.Vec4
}

// ProgramFunc adapts a function to Program.
type ProgramFunc func(f Fragment) math.Vec4

func (fn ProgramFunc) Shade(f Fragment) math.Vec4 { return fn(f) }

// Renderer draws full-screen programs and scenes into render targets,
// splitting the target rows into bands shaded in parallel.
type Renderer struct {
	state   State
	screen  *RenderTarget
	workers int
}

// NewRenderer creates a renderer whose screen is an RGBA8 target with depth.
func NewRenderer(width, height int) (*Renderer, error) {
	screen, err := NewRenderTarget("screen", width, height, TargetOptions{
		Format: FormatRGBA8,
		Filter: FilterLinear,
		Depth:  true,
	})
	if err != nil {
		return nil, err
	}
	return &Renderer{
		state: State{
			ClearColor: core.ColorBlack,
			ClearAlpha: 1,
			AutoClear:  true,
		},
		screen:  screen,
		workers: runtime.GOMAXPROCS(0),
	}, nil
}

// SetWorkers bounds the number of bands shaded concurrently. n < 1 means one.
func (r *Renderer) SetWorkers(n int) {
	r.workers = max(n, 1)
}

func (r *Renderer) State() State     { return r.state }
func (r *Renderer) SetState(s State) { r.state = s }

func (r *Renderer) SetClearColor(c core.Color, alpha float32) {
	r.state.ClearColor = c
	r.state.ClearAlpha = alpha
}

func (r *Renderer) ClearColor() core.Color { return r.state.ClearColor }
func (r *Renderer) ClearAlpha() float32    { return r.state.ClearAlpha }
func (r *Renderer) SetAutoClear(v bool)    { r.state.AutoClear = v }
func (r *Renderer) AutoClear() bool        { return r.state.AutoClear }

// SetRenderTarget binds t for subsequent draws; nil binds the screen.
func (r *Renderer) SetRenderTarget(t *RenderTarget) {
	r.state.Target = t
}

// RenderTarget returns the bound target, nil when the screen is bound.
func (r *Renderer) RenderTarget() *RenderTarget {
	return r.state.Target
}

// Screen is the default framebuffer.
func (r *Renderer) Screen() *RenderTarget {
	return r.screen
}

// SetSize resizes the screen.
func (r *Renderer) SetSize(width, height int) error {
	return r.screen.SetSize(width, height)
}

func (r *Renderer) bound() (*RenderTarget, error) {
	t := r.state.Target
	if t == nil {
		t = r.screen
	}
	if t.Disposed() {
		return nil, fmt.Errorf("bind %q: %w", t.Name, ErrDisposed)
	}
	return t, nil
}

// Clear fills the bound target with the clear color and alpha, and its
// depth attachment with 1.
func (r *Renderer) Clear(color, depth bool) error {
	t, err := r.bound()
	if err != nil {
		return err
	}
	if color {
		c := r.state.ClearColor
		t.Texture.Fill(math.Vec4{X: c.R, Y: c.G, Z: c.B, W: r.state.ClearAlpha})
	}
	if depth && t.Depth != nil {
		t.Depth.Clear(1)
	}
	return nil
}

// DrawQuad runs p once for every pixel of the bound target.
func (r *Renderer) DrawQuad(p Program, blend Blend) error {
	t, err := r.bound()
	if err != nil {
		return err
	}
	if r.state.AutoClear {
		if err := r.Clear(true, true); err != nil {
			return err
		}
	}

	tex := t.Texture
	w, h := tex.Width, tex.Height
	invW, invH := 1/float32(w), 1/float32(h)
	return r.forEachBand(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				f := Fragment{
					X:      x,
					Y:      y,
					Width:  w,
					Height: h,
					UV:     math.Vec2{X: (float32(x) + 0.5) * invW, Y: (float32(y) + 0.5) * invH},
				}
				src := p.Shade(f)
				if blend == BlendMultiply {
					dst := tex.At(x, y)
					src = math.Vec4{X: src.X * dst.X, Y: src.Y * dst.Y, Z: src.Z * dst.Z, W: dst.W}
				}
				tex.Set(x, y, src)
			}
		}
	})
}

// forEachBand splits [0, rows) into contiguous bands and runs fn on each in
// parallel. Bands never overlap, so fn may write its rows without locking.
func (r *Renderer) forEachBand(rows int, fn func(y0, y1 int)) error {
	bands := min(r.workers*4, rows)
	if bands <= 1 {
		fn(0, rows)
		return nil
	}

	var g errgroup.Group
	g.SetLimit(r.workers)
	per := (rows + bands - 1) / bands
	for y0 := 0; y0 < rows; y0 += per {
		y1 := min(y0+per, rows)
		g.Go(func() error {
			fn(y0, y1)
			return nil
		})
	}
	return g.Wait()
}
