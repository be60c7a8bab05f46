package renderer

import (
	"errors"

	"ssao-engine/raster"
)

var errNoInput = errors.New("copy pass: no input")

// CopyPass draws its input with the given opacity.
type CopyPass struct {
	Opacity float32

	input *raster.Texture
}

func NewCopyPass(opacity float32) *CopyPass {
	return &CopyPass{Opacity: opacity}
}

func (p *CopyPass) SetInput(tex *raster.Texture) {
	p.input = tex
}

func (p *CopyPass) Render(r *raster.Renderer, target *raster.RenderTarget) error {
	if p.input == nil {
		return errNoInput
	}
	prev := r.RenderTarget()
	defer r.SetRenderTarget(prev)

	r.SetRenderTarget(target)
	return r.DrawQuad(raster.CopyProgram{Source: p.input, Opacity: p.Opacity}, raster.BlendNone)
}

func (p *CopyPass) Resize(width, height int) error { return nil }

func (p *CopyPass) Dispose() error {
	p.input = nil
	return nil
}
