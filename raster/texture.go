package raster

import (
	"errors"
	"fmt"

	"ssao-engine/math"
)

var (
	ErrInvalidSize       = errors.New("raster: invalid size")
	ErrUnsupportedFormat = errors.New("raster: unsupported format")
	ErrDisposed          = errors.New("raster: use of disposed resource")
)

// Format is the texel storage of a color texture.
type Format int

const (
	FormatRGBA8     Format = iota // quantized to 8 bits per channel on write
	FormatRGBAFloat               // float32 per channel, unclamped
)

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "rgba8"
	case FormatRGBAFloat:
		return "rgba32f"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

type Wrap int

const (
	WrapClamp Wrap = iota
	WrapRepeat
)

// Texture is a 2D RGBA image. Row 0 is the bottom row and uv (0,0) is the
// bottom-left corner, as in GL.
type Texture struct {
	Width  int
	Height int
	Format Format
	Filter Filter
	Wrap   Wrap

	pix []float32 // 4 floats per texel
}

// NewTexture allocates a zeroed texture.
func NewTexture(width, height int, format Format) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if format != FormatRGBA8 && format != FormatRGBAFloat {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	return &Texture{
		Width:  width,
		Height: height,
		Format: format,
		pix:    make([]float32, width*height*4),
	}, nil
}

// NewFloatTexture wraps texel data, 4 floats per texel, without copying or
// quantizing it.
func NewFloatTexture(width, height int, data []float32) (*Texture, error) {
	if width <= 0 || height <= 0 || len(data) != width*height*4 {
		return nil, fmt.Errorf("%w: %dx%d with %d floats", ErrInvalidSize, width, height, len(data))
	}
	return &Texture{
		Width:  width,
		Height: height,
		Format: FormatRGBAFloat,
		pix:    data,
	}, nil
}

// Pix exposes the raw texel storage.
func (t *Texture) Pix() []float32 {
	return t.pix
}

// At returns the texel at (x, y) without filtering. Coordinates must be in range.
func (t *Texture) At(x, y int) math.Vec4 {
	i := (y*t.Width + x) * 4
	p := t.pix[i : i+4 : i+4]
	return math.Vec4{X: p[0], Y: p[1], Z: p[2], W: p[3]}
}

// Set stores v at (x, y), quantizing for RGBA8.
func (t *Texture) Set(x, y int, v math.Vec4) {
	if t.Format == FormatRGBA8 {
		v = quantize(v)
	}
	i := (y*t.Width + x) * 4
	p := t.pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = v.X, v.Y, v.Z, v.W
}

// Fill sets every texel to v.
func (t *Texture) Fill(v math.Vec4) {
	if t.Format == FormatRGBA8 {
		v = quantize(v)
	}
	for i := 0; i < len(t.pix); i += 4 {
		t.pix[i], t.pix[i+1], t.pix[i+2], t.pix[i+3] = v.X, v.Y, v.Z, v.W
	}
}

// Sample reads the texture at uv through its filter and wrap modes.
func (t *Texture) Sample(uv math.Vec2) math.Vec4 {
	if t.Filter == FilterNearest {
		x := t.wrap(int(math.Floor(uv.X*float32(t.Width))), t.Width)
		y := t.wrap(int(math.Floor(uv.Y*float32(t.Height))), t.Height)
		return t.At(x, y)
	}

	// Bilinear between the four nearest texel centers.
	fx := uv.X*float32(t.Width) - 0.5
	fy := uv.Y*float32(t.Height) - 0.5
	x0f, y0f := math.Floor(fx), math.Floor(fy)
	tx, ty := fx-x0f, fy-y0f
	x0, y0 := int(x0f), int(y0f)
	xa, xb := t.wrap(x0, t.Width), t.wrap(x0+1, t.Width)
	ya, yb := t.wrap(y0, t.Height), t.wrap(y0+1, t.Height)

	bottom := lerp4(t.At(xa, ya), t.At(xb, ya), tx)
	top := lerp4(t.At(xa, yb), t.At(xb, yb), tx)
	return lerp4(bottom, top, ty)
}

func (t *Texture) wrap(i, n int) int {
	if t.Wrap == WrapRepeat {
		i %= n
		if i < 0 {
			i += n
		}
		return i
	}
	return min(max(i, 0), n-1)
}

func lerp4(a, b math.Vec4, t float32) math.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}

func quantize(v math.Vec4) math.Vec4 {
	q := func(c float32) float32 {
		if !(c > 0) { // also catches NaN
			return 0
		}
		if c >= 1 {
			return 1
		}
		return math.Floor(c*255+0.5) / 255
	}
	return math.Vec4{X: q(v.X), Y: q(v.Y), Z: q(v.Z), W: q(v.W)}
}

// DepthTexture stores window-space depth in [0,1], sampled with nearest
// filtering and clamped coordinates.
type DepthTexture struct {
	Width  int
	Height int

	data []float32
}

func newDepthTexture(width, height int) *DepthTexture {
	d := &DepthTexture{Width: width, Height: height, data: make([]float32, width*height)}
	d.Clear(1)
	return d
}

func (d *DepthTexture) At(x, y int) float32 {
	return d.data[y*d.Width+x]
}

func (d *DepthTexture) Set(x, y int, z float32) {
	d.data[y*d.Width+x] = z
}

// Sample returns the depth at uv, nearest texel, clamped to the edges.
func (d *DepthTexture) Sample(uv math.Vec2) float32 {
	x := min(max(int(math.Floor(uv.X*float32(d.Width))), 0), d.Width-1)
	y := min(max(int(math.Floor(uv.Y*float32(d.Height))), 0), d.Height-1)
	return d.At(x, y)
}

func (d *DepthTexture) Clear(z float32) {
	for i := range d.data {
		d.data[i] = z
	}
}
