package scene

import (
	"math"

	"github.com/achilleasa/polaris-denoise/types"
)

type PrimitiveType uint32

const (
	PlanePrimitive PrimitiveType = iota
	SpherePrimitive
	BoxPrimitive
)

// Defines a scene primitive.
type Primitive struct {
	// The primitive type.
	Type PrimitiveType

	// The primitive origin. For planes this is the unit plane normal.
	Origin types.Vec3

	// Primitive dimensions. Stored as a Vec3 but the dimension component
	// count varies depending on primitive type: planes store their distance
	// from the origin, spheres their radius and boxes their half extents.
	Dimensions types.Vec3

	// The primitive material. Must be added to the scene before the primitive
	Material *Material
}

// Create new plane primitive
func NewPlane(normal types.Vec3, planeDist float32, material *Material) *Primitive {
	return &Primitive{
		Type:       PlanePrimitive,
		Origin:     normal.Normalize(),
		Dimensions: types.Vec3{planeDist},
		Material:   material,
	}
}

// Create new sphere primitive.
func NewSphere(origin types.Vec3, radius float32, material *Material) *Primitive {
	return &Primitive{
		Type:       SpherePrimitive,
		Origin:     origin,
		Dimensions: types.Vec3{radius},
		Material:   material,
	}
}

// Create new axis-aligned box primitive centered at origin.
func NewBox(origin types.Vec3, halfExtents types.Vec3, material *Material) *Primitive {
	return &Primitive{
		Type:       BoxPrimitive,
		Origin:     origin,
		Dimensions: halfExtents,
		Material:   material,
	}
}

// Intersect the ray (origin, dir) with the primitive. Returns the distance
// to the closest hit in (tMin, tMax) and the outward surface normal.
func (p *Primitive) Intersect(origin, dir types.Vec3, tMin, tMax float32) (float32, types.Vec3, bool) {
	switch p.Type {
	case PlanePrimitive:
		return p.intersectPlane(origin, dir, tMin, tMax)
	case SpherePrimitive:
		return p.intersectSphere(origin, dir, tMin, tMax)
	case BoxPrimitive:
		return p.intersectBox(origin, dir, tMin, tMax)
	}
	return 0, types.Vec3{}, false
}

func (p *Primitive) intersectPlane(origin, dir types.Vec3, tMin, tMax float32) (float32, types.Vec3, bool) {
	normal := p.Origin
	denom := normal.Dot(dir)
	if denom > -1e-6 && denom < 1e-6 {
		return 0, types.Vec3{}, false
	}
	t := (p.Dimensions[0] - normal.Dot(origin)) / denom
	if t <= tMin || t >= tMax {
		return 0, types.Vec3{}, false
	}
	return t, normal, true
}

func (p *Primitive) intersectSphere(origin, dir types.Vec3, tMin, tMax float32) (float32, types.Vec3, bool) {
	radius := p.Dimensions[0]
	oc := origin.Sub(p.Origin)
	a := dir.Dot(dir)
	halfB := oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return 0, types.Vec3{}, false
	}
	sqrtD := float32(math.Sqrt(float64(discriminant)))

	// Try the closer root first
	t := (-halfB - sqrtD) / a
	if t <= tMin || t >= tMax {
		t = (-halfB + sqrtD) / a
		if t <= tMin || t >= tMax {
			return 0, types.Vec3{}, false
		}
	}

	normal := origin.Add(dir.Mul(t)).Sub(p.Origin).Mul(1 / radius)
	return t, normal, true
}

// Slab test.
func (p *Primitive) intersectBox(origin, dir types.Vec3, tMin, tMax float32) (float32, types.Vec3, bool) {
	bmin := p.Origin.Sub(p.Dimensions)
	bmax := p.Origin.Add(p.Dimensions)

	tNear, tFar := float32(math.Inf(-1)), float32(math.Inf(1))
	nearAxis := -1
	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < bmin[axis] || origin[axis] > bmax[axis] {
				return 0, types.Vec3{}, false
			}
			continue
		}
		inv := 1 / dir[axis]
		t0 := (bmin[axis] - origin[axis]) * inv
		t1 := (bmax[axis] - origin[axis]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tNear {
			tNear, nearAxis = t0, axis
		}
		if t1 < tFar {
			tFar = t1
		}
		if tNear > tFar {
			return 0, types.Vec3{}, false
		}
	}

	t := tNear
	if t <= tMin {
		// Origin inside the box; report the exit point
		t = tFar
	}
	if t <= tMin || t >= tMax {
		return 0, types.Vec3{}, false
	}

	// Pick the face whose slab bounds the hit point
	hit := origin.Add(dir.Mul(t))
	var normal types.Vec3
	axis := nearAxis
	if t == tFar || axis < 0 {
		axis = dominantAxis(hit.Sub(p.Origin), p.Dimensions)
	}
	normal[axis] = 1
	if hit[axis] < p.Origin[axis] {
		normal[axis] = -1
	}
	return t, normal, true
}

// Get the axis along which point lies closest to the box surface.
func dominantAxis(local, halfExtents types.Vec3) int {
	best, bestRatio := 0, float32(-1)
	for axis := 0; axis < 3; axis++ {
		if halfExtents[axis] <= 0 {
			continue
		}
		ratio := local[axis] / halfExtents[axis]
		if ratio < 0 {
			ratio = -ratio
		}
		if ratio > bestRatio {
			best, bestRatio = axis, ratio
		}
	}
	return best
}
