package raster

import "ssao-engine/math"

// CopyProgram draws Source with its alpha scaled by Opacity. When Source has
// the size of the bound target, texels are fetched directly so the copy is
// exact.
type CopyProgram struct {
	Source  *Texture
	Opacity float32
}

func (p CopyProgram) Shade(f Fragment) math.Vec4 {
	var t math.Vec4
	if f.Width == p.Source.Width && f.Height == p.Source.Height {
		t = p.Source.At(f.X, f.Y)
	} else {
		t = p.Source.Sample(f.UV)
	}
	t.W *= p.Opacity
	return t
}
