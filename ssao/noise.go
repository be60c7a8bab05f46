package ssao

import (
	"fmt"
	stdmath "math"

	"ssao-engine/math"
	"ssao-engine/raster"
)

// NoiseTile is a small repeat-wrapped texture of random unit 2D vectors used
// to rotate the kernel per pixel. Texels hold (x, y, 0, 1) unencoded.
type NoiseTile struct {
	Width  int
	Height int

	tex *raster.Texture
}

// GenerateNoise draws width×height unit vectors from rng.
func GenerateNoise(width, height int, rng *Random) (*NoiseTile, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidNoiseSize, width, height)
	}
	data := make([]float32, 0, width*height*4)
	for i := 0; i < width*height; i++ {
		var x, y, length float64
		for length == 0 {
			x = rng.Float64()*2 - 1
			y = rng.Float64()*2 - 1
			length = stdmath.Hypot(x, y)
		}
		data = append(data, float32(x/length), float32(y/length), 0, 1)
	}

	tex, err := raster.NewFloatTexture(width, height, data)
	if err != nil {
		return nil, err
	}
	tex.Filter = raster.FilterNearest
	tex.Wrap = raster.WrapRepeat
	return &NoiseTile{Width: width, Height: height, tex: tex}, nil
}

// Texture is the tile as a sampleable texture.
func (n *NoiseTile) Texture() *raster.Texture {
	return n.tex
}

// At returns the vector stored at texel (x, y).
func (n *NoiseTile) At(x, y int) math.Vec2 {
	v := n.tex.At(x, y)
	return math.Vec2{X: v.X, Y: v.Y}
}

// Scale maps screen uv to tile uv for a viewport of the given size.
func (n *NoiseTile) Scale(width, height int) math.Vec2 {
	return math.Vec2{X: float32(width) / float32(n.Width), Y: float32(height) / float32(n.Height)}
}
