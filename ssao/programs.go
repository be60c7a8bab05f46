package ssao

import (
	"fmt"

	"ssao-engine/math"
	"ssao-engine/raster"
)

const epsilon = 1e-4

var white = math.Vec4{X: 1, Y: 1, Z: 1, W: 1}

// CameraUniforms are derived from the camera at construction and on resize.
type CameraUniforms struct {
	Near              float32
	Far               float32
	Aspect            float32
	TanHalfFov        float32
	Projection        math.Mat4
	InverseProjection math.Mat4
}

// linearizeDepth maps window depth in [0,1] to view-space z (negative in
// front of the camera). A vanishing denominator yields the far plane.
func (c CameraUniforms) linearizeDepth(depth float32) float32 {
	denom := (c.Far-c.Near)*depth - c.Far
	if math.Abs(denom) < 1e-8 {
		return -c.Far
	}
	return c.Near * c.Far / denom
}

// viewRay is the view-space direction through uv, scaled so z = -1.
func (c CameraUniforms) viewRay(uv math.Vec2) math.Vec3 {
	return math.Vec3{
		X: (uv.X*2 - 1) * c.TanHalfFov * c.Aspect,
		Y: (uv.Y*2 - 1) * c.TanHalfFov,
		Z: -1,
	}
}

// occlusionUniforms feed occlusionProgram. Textures are bound at compile
// time; params are refreshed per frame.
type occlusionUniforms struct {
	camera     CameraUniforms
	depth      *raster.DepthTexture
	normal     *raster.Texture
	noise      *raster.Texture
	noiseScale math.Vec2
	kernel     []math.Vec3
	params     Params
}

type occlusionProgram struct {
	u occlusionUniforms
}

func compileOcclusion(u occlusionUniforms) (*occlusionProgram, error) {
	switch {
	case len(u.kernel) < 1 || len(u.kernel) > MaxKernelSize:
		return nil, fmt.Errorf("ssao: compile occlusion program: %w: %d samples", ErrInvalidKernelSize, len(u.kernel))
	case u.noise == nil:
		return nil, fmt.Errorf("ssao: compile occlusion program: %w: no noise texture", ErrInvalidNoiseSize)
	case u.depth == nil || u.normal == nil:
		return nil, fmt.Errorf("ssao: compile occlusion program: missing depth or normal input")
	}
	return &occlusionProgram{u: u}, nil
}

// Shade returns (v, v, v, 1) where v is the fraction of kernel samples that
// found no occluder.
func (p *occlusionProgram) Shade(f raster.Fragment) math.Vec4 {
	u := &p.u
	depth := u.depth.Sample(f.UV)
	if depth >= 1 {
		return white
	}
	origin := u.camera.viewRay(f.UV).Mul(-u.camera.linearizeDepth(depth))

	enc := u.normal.Sample(f.UV)
	normal := math.Vec3{X: enc.X*2 - 1, Y: enc.Y*2 - 1, Z: enc.Z*2 - 1}
	if normal.LengthSqr() < epsilon {
		return white
	}
	normal = normal.Normalize()

	rnd := u.noise.Sample(f.UV.MulVec(u.noiseScale))
	tangent, bitangent := tangentFrame(normal, math.Vec3{X: rnd.X, Y: rnd.Y})

	radius := u.params.KernelRadius
	var occlusion float32
	for _, k := range u.kernel {
		offset := tangent.Mul(k.X).Add(bitangent.Mul(k.Y)).Add(normal.Mul(k.Z))
		sample := origin.Add(offset.Mul(radius))

		clip := u.camera.Projection.MulVec(sample.ToVec4(1))
		if clip.W <= 0 {
			continue
		}
		suv := math.Vec2{X: clip.X/clip.W*0.5 + 0.5, Y: clip.Y/clip.W*0.5 + 0.5}
		if suv.X < 0 || suv.X >= 1 || suv.Y < 0 || suv.Y >= 1 {
			continue
		}

		sceneZ := u.camera.linearizeDepth(u.depth.Sample(suv))
		delta := sceneZ - sample.Z
		if delta < u.params.MinDistance || delta >= u.params.MaxDistance {
			continue
		}
		dist := math.Max(math.Abs(sceneZ-origin.Z), epsilon)
		rangeCheck := math.Smoothstep(0, 1, math.Pow(radius/dist, u.params.PowerFactor))
		if math.IsFinite(rangeCheck) {
			occlusion += rangeCheck
		}
	}

	v := 1 - occlusion/float32(len(u.kernel))
	return math.Vec4{X: v, Y: v, Z: v, W: 1}
}

// tangentFrame orthogonalizes rnd against n. When rnd is (nearly) parallel
// to n, or zero, an axis least aligned with n is used instead.
func tangentFrame(n, rnd math.Vec3) (tangent, bitangent math.Vec3) {
	tangent = rnd.Sub(n.Mul(rnd.Dot(n)))
	if tangent.LengthSqr() < epsilon {
		axis := math.Vec3Right
		if math.Abs(n.X) > 0.9 {
			axis = math.Vec3Up
		}
		tangent = axis.Sub(n.Mul(axis.Dot(n)))
	}
	tangent = tangent.Normalize()
	return tangent, n.Cross(tangent)
}

// blurUniforms feed blurProgram.
type blurUniforms struct {
	source    *raster.Texture
	texelSize math.Vec2
}

// blurProgram is a 5×5 box filter over the red channel.
type blurProgram struct {
	u blurUniforms
}

func compileBlur(u blurUniforms) (*blurProgram, error) {
	if u.source == nil {
		return nil, fmt.Errorf("ssao: compile blur program: missing source")
	}
	return &blurProgram{u: u}, nil
}

func (p *blurProgram) Shade(f raster.Fragment) math.Vec4 {
	var sum float32
	for y := -2; y <= 2; y++ {
		for x := -2; x <= 2; x++ {
			offset := math.Vec2{X: float32(x), Y: float32(y)}.MulVec(p.u.texelSize)
			sum += p.u.source.Sample(f.UV.Add(offset)).X
		}
	}
	v := sum / 25
	return math.Vec4{X: v, Y: v, Z: v, W: 1}
}
