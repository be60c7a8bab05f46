package renderer

import (
	"errors"
	"fmt"

	"ssao-engine/raster"
)

// Pass is one stage of a Composer chain. Render draws into target, or into
// the renderer's screen when target is nil.
type Pass interface {
	Render(r *raster.Renderer, target *raster.RenderTarget) error
	Resize(width, height int) error
	Dispose() error
}

// InputPass is a Pass that reads the previous pass's output.
type InputPass interface {
	Pass
	SetInput(tex *raster.Texture)
}

// Composer runs passes in order through a pair of ping-pong buffers. Every
// pass but the last writes the write buffer, which then becomes the read
// buffer; the last pass renders to the screen.
type Composer struct {
	renderer *raster.Renderer
	passes   []Pass
	read     *raster.RenderTarget
	write    *raster.RenderTarget
}

func NewComposer(r *raster.Renderer, width, height int) (*Composer, error) {
	opts := raster.TargetOptions{Format: raster.FormatRGBA8, Filter: raster.FilterLinear}
	read, err := raster.NewRenderTarget("composer-read", width, height, opts)
	if err != nil {
		return nil, err
	}
	write, err := raster.NewRenderTarget("composer-write", width, height, opts)
	if err != nil {
		read.Dispose()
		return nil, err
	}
	return &Composer{renderer: r, read: read, write: write}, nil
}

func (c *Composer) AddPass(p Pass) {
	c.passes = append(c.passes, p)
}

func (c *Composer) Passes() []Pass {
	return c.passes
}

// Render runs the chain once.
func (c *Composer) Render() error {
	for i, p := range c.passes {
		if in, ok := p.(InputPass); ok {
			in.SetInput(c.read.Texture)
		}
		var target *raster.RenderTarget
		last := i == len(c.passes)-1
		if !last {
			target = c.write
		}
		if err := p.Render(c.renderer, target); err != nil {
			return fmt.Errorf("composer: pass %d: %w", i, err)
		}
		if !last {
			c.read, c.write = c.write, c.read
		}
	}
	return nil
}

// SetSize resizes both buffers and every pass.
func (c *Composer) SetSize(width, height int) error {
	if err := c.read.SetSize(width, height); err != nil {
		return err
	}
	if err := c.write.SetSize(width, height); err != nil {
		return err
	}
	for i, p := range c.passes {
		if err := p.Resize(width, height); err != nil {
			return fmt.Errorf("composer: resize pass %d: %w", i, err)
		}
	}
	return nil
}

// Dispose releases the buffers and every pass, reporting all failures.
func (c *Composer) Dispose() error {
	var errs []error
	for _, p := range c.passes {
		errs = append(errs, p.Dispose())
	}
	c.read.Dispose()
	c.write.Dispose()
	return errors.Join(errs...)
}
