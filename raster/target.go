package raster

import (
	"fmt"
	"image"
	"image/color"
)

// TargetOptions describe how a render target's color texture is stored and
// sampled, and whether it carries a depth attachment.
type TargetOptions struct {
	Format Format
	Filter Filter
	Wrap   Wrap
	Depth  bool
}

// RenderTarget is a color texture plus an optional depth texture that draws
// can be bound to.
type RenderTarget struct {
	Name    string
	Texture *Texture
	Depth   *DepthTexture // nil without a depth attachment

	opts     TargetOptions
	disposed bool
}

// NewRenderTarget allocates a target of the given size.
func NewRenderTarget(name string, width, height int, opts TargetOptions) (*RenderTarget, error) {
	rt := &RenderTarget{Name: name, opts: opts}
	if err := rt.alloc(width, height); err != nil {
		return nil, err
	}
	return rt, nil
}

func (rt *RenderTarget) alloc(width, height int) error {
	tex, err := NewTexture(width, height, rt.opts.Format)
	if err != nil {
		return fmt.Errorf("render target %q: %w", rt.Name, err)
	}
	tex.Filter = rt.opts.Filter
	tex.Wrap = rt.opts.Wrap
	rt.Texture = tex
	rt.Depth = nil
	if rt.opts.Depth {
		rt.Depth = newDepthTexture(width, height)
	}
	return nil
}

func (rt *RenderTarget) Width() int  { return rt.Texture.Width }
func (rt *RenderTarget) Height() int { return rt.Texture.Height }

// SetSize reallocates the attachments. Contents are discarded.
func (rt *RenderTarget) SetSize(width, height int) error {
	if rt.disposed {
		return fmt.Errorf("render target %q: %w", rt.Name, ErrDisposed)
	}
	if width == rt.Width() && height == rt.Height() {
		return nil
	}
	return rt.alloc(width, height)
}

// Dispose releases the attachments. The target is unusable afterwards.
func (rt *RenderTarget) Dispose() {
	rt.Texture = nil
	rt.Depth = nil
	rt.disposed = true
}

func (rt *RenderTarget) Disposed() bool {
	return rt.disposed
}

// Image converts the color texture to an 8-bit image with row 0 at the top.
func (rt *RenderTarget) Image() (*image.RGBA, error) {
	if rt.disposed {
		return nil, fmt.Errorf("render target %q: %w", rt.Name, ErrDisposed)
	}
	w, h := rt.Width(), rt.Height()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := quantize(rt.Texture.At(x, y))
			img.SetRGBA(x, h-1-y, color.RGBA{
				R: uint8(v.X*255 + 0.5),
				G: uint8(v.Y*255 + 0.5),
				B: uint8(v.Z*255 + 0.5),
				A: uint8(v.W*255 + 0.5),
			})
		}
	}
	return img, nil
}
