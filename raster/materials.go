package raster

import (
	"ssao-engine/core"
	"ssao-engine/math"
	"ssao-engine/scene"
)

// Surface is the interpolated input of a scene fragment.
type Surface struct {
	WorldPos    math.Vec3
	WorldNormal math.Vec3 // unit length
	ViewNormal  math.Vec3 // unit length
	UV          math.Vec2
	Color       core.Color // vertex color
	Material    *scene.Material
	Scene       *scene.Scene
}

// Material shades scene fragments. RenderScene takes one as an override for
// every mesh; the scene's own materials are read through Surface.Material.
type Material interface {
	Shade(s *Surface) math.Vec4
}

// StandardMaterial lights the mesh material's albedo with the scene ambient
// term plus Lambert diffuse from each light.
type StandardMaterial struct{}

func (StandardMaterial) Shade(s *Surface) math.Vec4 {
	mat := s.Material
	albedo := mat.Albedo.Mul(s.Color)
	if mat.AlbedoTexture != nil {
		albedo = albedo.Mul(mat.AlbedoTexture.Sample(s.UV))
	}
	if mat.Unlit {
		return math.Vec4{X: albedo.R, Y: albedo.G, Z: albedo.B, W: albedo.A}
	}

	light := s.Scene.Ambient
	light.A = 1
	for _, l := range s.Scene.Lights {
		var dir math.Vec3
		atten := l.Intensity
		switch l.Type {
		case scene.LightTypeDirectional:
			dir = l.Direction.Negate().Normalize()
		case scene.LightTypePoint:
			toLight := l.Position.Sub(s.WorldPos)
			dist := toLight.Length()
			if dist == 0 {
				continue
			}
			dir = toLight.Div(dist)
			if l.Range > 0 {
				falloff := math.Clamp(1-dist/l.Range, 0, 1)
				atten *= falloff * falloff
			}
		}
		ndotl := math.Max(s.WorldNormal.Dot(dir), 0)
		light = light.Add(l.Color.Scale(ndotl * atten))
	}

	c := albedo.Mul(light)
	return math.Vec4{X: c.R, Y: c.G, Z: c.B, W: albedo.A}
}

// NormalMaterial writes the view-space normal encoded as n·0.5 + 0.5.
type NormalMaterial struct{}

func (NormalMaterial) Shade(s *Surface) math.Vec4 {
	n := s.ViewNormal
	return math.Vec4{X: n.X*0.5 + 0.5, Y: n.Y*0.5 + 0.5, Z: n.Z*0.5 + 0.5, W: 1}
}
