package math

import "github.com/chewxy/math32"

const Pi = math32.Pi

// Radians converts degrees to radians.
func Radians(deg float32) float32 {
	return deg * Pi / 180
}

func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Smoothstep is the GLSL smoothstep: Hermite interpolation of x between edge0
// and edge1, clamped to [0,1]. An infinite x saturates rather than producing NaN.
func Smoothstep(edge0, edge1, x float32) float32 {
	t := Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

func Abs(x float32) float32  { return math32.Abs(x) }
func Sqrt(x float32) float32 { return math32.Sqrt(x) }
func Tan(x float32) float32  { return math32.Tan(x) }
func Sin(x float32) float32  { return math32.Sin(x) }
func Cos(x float32) float32  { return math32.Cos(x) }
func Pow(x, y float32) float32 {
	return math32.Pow(x, y)
}
func Max(a, b float32) float32 { return math32.Max(a, b) }
func Min(a, b float32) float32 { return math32.Min(a, b) }
func Floor(x float32) float32  { return math32.Floor(x) }

// IsFinite reports whether x is neither NaN nor ±Inf.
func IsFinite(x float32) bool {
	return !math32.IsNaN(x) && !math32.IsInf(x, 0)
}
