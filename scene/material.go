package scene

import "github.com/achilleasa/polaris-denoise/types"

type MaterialType uint8

const (
	DiffuseMaterial MaterialType = iota
	GlossyMaterial
	EmissiveMaterial
)

// Defines a scene material.
type Material struct {
	// The type of the material.
	Type MaterialType

	// Diffuse color.
	Diffuse types.Vec3

	// Specular reflectance (glossy materials only).
	Specular types.Vec3

	// Glossy lobe roughness in [0, 1].
	Roughness float32

	// Emissive color (if material is light).
	Emissive types.Vec3
}

// Create a lambertian material.
func NewDiffuse(color types.Vec3) *Material {
	return &Material{Type: DiffuseMaterial, Diffuse: color}
}

// Create a material with a diffuse base and a glossy specular layer.
func NewGlossy(diffuse, specular types.Vec3, roughness float32) *Material {
	return &Material{
		Type:      GlossyMaterial,
		Diffuse:   diffuse,
		Specular:  specular,
		Roughness: types.Clamp(roughness, 0, 1),
	}
}

// Create a light emitting material.
func NewEmissive(emissive types.Vec3) *Material {
	return &Material{Type: EmissiveMaterial, Emissive: emissive}
}
