package ssao

import (
	stdmath "math"

	"ssao-engine/math"
)

// MaxKernelSize bounds the number of samples the occlusion program accepts.
const MaxKernelSize = 128

// GenerateKernel draws size sample offsets in the +Z unit hemisphere. Each
// is normalized and then scaled by lerp(0.1, 1, t²) with t = i/size, so
// early samples stay close to the origin. Arithmetic is float64, rounded
// once per component.
func GenerateKernel(size int, rng *Random) []math.Vec3 {
	kernel := make([]math.Vec3, size)
	for i := range kernel {
		var x, y, z, length float64
		for length == 0 {
			x = rng.Float64()*2 - 1
			y = rng.Float64()*2 - 1
			z = rng.Float64()
			length = stdmath.Sqrt(x*x + y*y + z*z)
		}

		t := float64(i) / float64(size)
		scale := 0.1 + (1.0-0.1)*t*t
		f := scale / length
		kernel[i] = math.Vec3{X: float32(x * f), Y: float32(y * f), Z: float32(z * f)}
	}
	return kernel
}
