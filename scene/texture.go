package scene

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"

	"ssao-engine/core"
	"ssao-engine/math"
)

// Texture holds CPU-side RGBA8 pixels, row-major with row 0 at the top.
type Texture struct {
	Name   string
	Width  int
	Height int
	Pixels []byte
}

// LoadTexture reads a PNG or JPEG file from disk.
func LoadTexture(path string) (*Texture, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	return NewTextureFromImage(path, img), nil
}

// NewTextureFromImage converts any image to RGBA8.
func NewTextureFromImage(name string, img image.Image) *Texture {
	rgba := clone.AsRGBA(img)
	b := rgba.Bounds()
	return &Texture{
		Name:   name,
		Width:  b.Dx(),
		Height: b.Dy(),
		Pixels: rgba.Pix,
	}
}

// NewSolidTexture creates a 1x1 texture with the given RGBA color values (0–255).
func NewSolidTexture(name string, r, g, b, a uint8) *Texture {
	return &Texture{
		Name:   name,
		Width:  1,
		Height: 1,
		Pixels: []byte{r, g, b, a},
	}
}

// Sample returns the nearest texel at uv with repeat wrapping. v = 0 is the
// bottom row.
func (t *Texture) Sample(uv math.Vec2) core.Color {
	if t == nil || t.Width == 0 || t.Height == 0 {
		return core.ColorWhite
	}
	u := uv.X - math.Floor(uv.X)
	v := uv.Y - math.Floor(uv.Y)
	x := min(int(u*float32(t.Width)), t.Width-1)
	y := min(int((1-v)*float32(t.Height)), t.Height-1)
	i := (y*t.Width + x) * 4
	p := t.Pixels[i : i+4 : i+4]
	return core.Color{
		R: float32(p[0]) / 255,
		G: float32(p[1]) / 255,
		B: float32(p[2]) / 255,
		A: float32(p[3]) / 255,
	}
}
