package ssao

import (
	"ssao-engine/core"
	"ssao-engine/raster"
)

// clearValue is the color a stage clears its target with before drawing.
type clearValue struct {
	color core.Color
	alpha float32
}

// withPassState binds target with auto-clear off, optionally clears it, and
// runs draw. The renderer state seen on entry is restored on every exit path,
// panics included.
func withPassState(r *raster.Renderer, target *raster.RenderTarget, clear *clearValue, draw func() error) error {
	saved := r.State()
	defer r.SetState(saved)

	r.SetRenderTarget(target)
	r.SetAutoClear(false)
	if clear != nil {
		r.SetClearColor(clear.color, clear.alpha)
		if err := r.Clear(true, true); err != nil {
			return err
		}
	}
	return draw()
}
