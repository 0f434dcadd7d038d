package sampler

import (
	"fmt"
	"math"
	"time"

	"github.com/achilleasa/polaris-denoise/compute"
	"github.com/achilleasa/polaris-denoise/frame"
	"github.com/achilleasa/polaris-denoise/log"
	"github.com/achilleasa/polaris-denoise/scene"
	"github.com/achilleasa/polaris-denoise/types"
)

const (
	// Offset applied to secondary ray origins to avoid self intersection.
	rayEpsilon = 1e-3

	maxRayDist = 1e4
)

// A CPU sampler for analytic scenes. Each sample traces the pixel's
// primary ray, estimates direct lighting from the scene's spherical lights
// with one light sample per light, and traces one glossy reflection ray for
// glossy surfaces. Radiance is demodulated by the surface albedo and the
// specular reflectance.
type Procedural struct {
	logger log.Logger
	scene  *scene.Scene
	lights []*scene.Primitive
	kernel *compute.Kernel

	// Arguments for the frame in flight.
	cam        *scene.Camera
	spp        uint32
	frameIndex uint64
	out        *frame.SampleBuffer
}

// Create a procedural sampler for scn that executes on dev.
func NewProcedural(dev *compute.Device, logger log.Logger, scn *scene.Scene) (*Procedural, error) {
	if scn == nil {
		return nil, ErrSceneNotDefined
	}

	p := &Procedural{
		logger: logger,
		scene:  scn,
		lights: scn.Lights(),
	}
	if len(p.lights) == 0 {
		logger.Warning("scene defines no lights; only emissive surfaces will be visible")
	}
	p.kernel = dev.Kernel2D("samplePixel", p.samplePixel)
	return p, nil
}

// Implements Sampler.
func (p *Procedural) Sample(cam *scene.Camera, spp uint32, frameIndex uint64, out *frame.SampleBuffer) (time.Duration, error) {
	if cam == nil {
		return 0, ErrCameraNotDefined
	}
	if out == nil {
		return 0, ErrMissingBuffer
	}
	if spp == 0 {
		return 0, ErrInvalidSpp
	}
	if len(out.Samples) != out.Res.Pixels() {
		return 0, fmt.Errorf("sampler: buffer holds %d samples; expected %d for %s", len(out.Samples), out.Res.Pixels(), out.Res)
	}

	p.cam, p.spp, p.frameIndex, p.out = cam, spp, frameIndex, out
	defer func() {
		p.cam, p.out = nil, nil
	}()

	return p.kernel.Exec2D(0, 0, int(out.Res.Width), int(out.Res.Height), 0, 0)
}

func (p *Procedural) samplePixel(x, y int) {
	res := p.out.Res
	index := res.Index(x, y)
	rng := newPixelRNG(index, p.frameIndex)

	// Geometry is taken from the pixel center so it stays stable across
	// frames.
	u := (float32(x) + 0.5) / float32(res.Width)
	v := (float32(y) + 0.5) / float32(res.Height)
	dir := p.cam.RayDir(u, v)

	sample := frame.PixelSample{}
	hit, ok := p.scene.Intersect(p.cam.Position, dir, rayEpsilon, maxRayDist)
	if !ok {
		sample.DiffuseRadiance = p.scene.BgColor
		p.out.Samples[index] = sample
		return
	}

	normal := faceForward(hit.Normal, dir)
	mat := hit.Primitive.Material
	sample.HitPosition = hit.Point
	sample.Normal = normal
	sample.Depth = hit.T * dir.Dot(p.cam.Forward())

	if mat.Type == scene.EmissiveMaterial {
		sample.DiffuseRadiance = mat.Emissive
		sample.DiffuseAlbedo = types.Vec3{1, 1, 1}
		p.out.Samples[index] = sample
		return
	}

	sample.DiffuseAlbedo = mat.Diffuse
	if mat.Type == scene.GlossyMaterial {
		sample.SpecularWeight = mat.Specular
	}

	var diffuse, specular types.Vec3
	for s := uint32(0); s < p.spp; s++ {
		diffuse = diffuse.Add(p.directLight(&rng, hit.Point, normal))
		if mat.Type == scene.GlossyMaterial {
			specular = specular.Add(p.glossyReflection(&rng, hit.Point, normal, dir, mat.Roughness))
		}
	}
	inv := 1 / float32(p.spp)
	sample.DiffuseRadiance = diffuse.Mul(inv)
	sample.SpecularRadiance = specular.Mul(inv)
	p.out.Samples[index] = sample
}

// Estimate demodulated direct lighting at point by sampling one point on
// the visible hemisphere of each spherical light.
func (p *Procedural) directLight(rng *pixelRNG, point, normal types.Vec3) types.Vec3 {
	var radiance types.Vec3
	for _, light := range p.lights {
		center, radius := light.Origin, light.Dimensions[0]

		lightNormal := rng.UnitVec3()
		if lightNormal.Dot(point.Sub(center)) < 0 {
			lightNormal = lightNormal.Mul(-1)
		}
		lightPoint := center.Add(lightNormal.Mul(radius))

		wi := lightPoint.Sub(point)
		distSq := wi.LenSq()
		dist := float32(math.Sqrt(float64(distSq)))
		wi = wi.Mul(1 / dist)

		cosSurf := normal.Dot(wi)
		cosLight := -lightNormal.Dot(wi)
		if cosSurf <= 0 || cosLight <= 0 {
			continue
		}
		if p.scene.Occluded(point.Add(normal.Mul(rayEpsilon)), wi, dist-rayEpsilon, light) {
			continue
		}

		// Lambert BRDF (1/pi, albedo demodulated) over a hemisphere area
		// pdf of 1 / (2 pi r^2).
		radiance = radiance.Add(light.Material.Emissive.Mul(cosSurf * cosLight * 2 * radius * radius / distSq))
	}
	return radiance
}

// Trace a single ray around the mirror direction, jittered by roughness.
func (p *Procedural) glossyReflection(rng *pixelRNG, point, normal, dir types.Vec3, roughness float32) types.Vec3 {
	mirror := dir.Sub(normal.Mul(2 * dir.Dot(normal)))
	refl := mirror.Add(rng.UnitVec3().Mul(roughness)).Normalize()
	if refl.Dot(normal) <= 0 {
		return types.Vec3{}
	}

	origin := point.Add(normal.Mul(rayEpsilon))
	hit, ok := p.scene.Intersect(origin, refl, rayEpsilon, maxRayDist)
	if !ok {
		return p.scene.BgColor
	}

	mat := hit.Primitive.Material
	if mat.Type == scene.EmissiveMaterial {
		return mat.Emissive
	}
	return mat.Diffuse.MulVec(p.directLight(rng, hit.Point, faceForward(hit.Normal, refl)))
}

// Flip n so that it faces against the incoming direction.
func faceForward(n, dir types.Vec3) types.Vec3 {
	if n.Dot(dir) > 0 {
		return n.Mul(-1)
	}
	return n
}
