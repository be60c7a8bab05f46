package scene

import "ssao-engine/core"

// Material describes surface appearance for the forward pass. Lighting is
// Lambert diffuse plus scene ambient.
type Material struct {
	Name   string
	Albedo core.Color // multiplied with AlbedoTexture and vertex color
	Unlit  bool       // output albedo without lighting

	// Optional albedo texture; if set, it is multiplied with Albedo.
	AlbedoTexture *Texture
}

// DefaultMaterial returns a plain white matte material.
func DefaultMaterial() *Material {
	return &Material{
		Name:   "Default",
		Albedo: core.ColorWhite,
	}
}

func NewMaterial(name string, albedo core.Color) *Material {
	return &Material{
		Name:   name,
		Albedo: albedo,
	}
}
