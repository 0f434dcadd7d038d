package scene

import (
	"fmt"
	"math"

	"github.com/achilleasa/polaris-denoise/types"
)

// Hit information for the closest ray intersection.
type Hit struct {
	T         float32
	Point     types.Vec3
	Normal    types.Vec3
	Primitive *Primitive
}

type Scene struct {
	Camera *Camera

	Materials  []*Material
	Primitives []*Primitive

	BgColor types.Vec3
}

func NewScene() *Scene {
	return &Scene{
		Materials:  make([]*Material, 0),
		Primitives: make([]*Primitive, 0),
	}
}

// Attach a camera to the scene.
func (s *Scene) SetCamera(camera *Camera) {
	s.Camera = camera
}

// Add a material to the scene.
func (s *Scene) AddMaterial(material *Material) error {
	for _, mat := range s.Materials {
		if mat == material {
			return fmt.Errorf("scene: material already added")
		}
	}
	s.Materials = append(s.Materials, material)
	return nil
}

// Add a primitive to the scene.
func (s *Scene) AddPrimitive(primitive *Primitive) error {
	for _, prim := range s.Primitives {
		if prim == primitive {
			return fmt.Errorf("scene: primitive already added")
		}
	}
	if primitive.Material == nil {
		return fmt.Errorf("scene: no material assigned to primitive")
	}
	for _, mat := range s.Materials {
		if mat == primitive.Material {
			s.Primitives = append(s.Primitives, primitive)
			return nil
		}
	}

	return fmt.Errorf("scene: primitive references unknown material; ensure that the material is added to the scene before adding the primitive")
}

// Get the spherical primitives with an emissive material.
func (s *Scene) Lights() []*Primitive {
	lights := make([]*Primitive, 0)
	for _, prim := range s.Primitives {
		if prim.Type == SpherePrimitive && prim.Material.Type == EmissiveMaterial {
			lights = append(lights, prim)
		}
	}
	return lights
}

// Find the closest intersection of the ray (origin, dir) in (tMin, tMax).
func (s *Scene) Intersect(origin, dir types.Vec3, tMin, tMax float32) (Hit, bool) {
	var hit Hit
	found := false
	for _, prim := range s.Primitives {
		t, normal, ok := prim.Intersect(origin, dir, tMin, tMax)
		if !ok {
			continue
		}
		tMax = t
		hit = Hit{T: t, Normal: normal, Primitive: prim}
		found = true
	}
	if found {
		hit.Point = origin.Add(dir.Mul(hit.T))
	}
	return hit, found
}

// Check whether anything blocks the segment from origin along dir up to
// distance maxDist, ignoring the primitive skip.
func (s *Scene) Occluded(origin, dir types.Vec3, maxDist float32, skip *Primitive) bool {
	for _, prim := range s.Primitives {
		if prim == skip {
			continue
		}
		if _, _, ok := prim.Intersect(origin, dir, 1e-4, maxDist); ok {
			return true
		}
	}
	return false
}

// Build a small room with a diffuse and a glossy sphere, a box and a
// spherical area light.
func NewDemoScene(aspect float32) (*Scene, error) {
	s := NewScene()

	white := NewDiffuse(types.Vec3{0.75, 0.75, 0.75})
	red := NewDiffuse(types.Vec3{0.75, 0.2, 0.2})
	green := NewDiffuse(types.Vec3{0.2, 0.75, 0.2})
	glossy := NewGlossy(types.Vec3{0.1, 0.2, 0.6}, types.Vec3{0.9, 0.9, 0.9}, 0.2)
	light := NewEmissive(types.Vec3{12, 12, 10})

	for _, mat := range []*Material{white, red, green, glossy, light} {
		if err := s.AddMaterial(mat); err != nil {
			return nil, err
		}
	}

	prims := []*Primitive{
		NewPlane(types.Vec3{0, 1, 0}, -1, white),  // floor
		NewPlane(types.Vec3{0, -1, 0}, -3, white), // ceiling
		NewPlane(types.Vec3{0, 0, 1}, -4, white),  // back
		NewPlane(types.Vec3{1, 0, 0}, -2, red),    // left
		NewPlane(types.Vec3{-1, 0, 0}, -2, green), // right
		NewSphere(types.Vec3{-0.8, -0.4, -2.5}, 0.6, white),
		NewSphere(types.Vec3{0.7, -0.5, -1.8}, 0.5, glossy),
		NewBox(types.Vec3{0.6, -0.7, -3.2}, types.Vec3{0.4, 0.3, 0.4}, red),
		NewSphere(types.Vec3{0, 2.6, -2.2}, 0.35, light),
	}
	for _, prim := range prims {
		if err := s.AddPrimitive(prim); err != nil {
			return nil, err
		}
	}

	cam := NewCamera(55)
	cam.Position = types.Vec3{0, 0.5, 2}
	cam.LookAt = types.Vec3{0, 0, -2}
	cam.SetupProjection(aspect)
	s.SetCamera(cam)

	return s, nil
}

// Convert an angle in degrees to radians.
func Deg2Rad(deg float32) float32 {
	return deg * math.Pi / 180.0
}
