package sampler

import (
	"math"
	"math/rand/v2"

	"github.com/achilleasa/polaris-denoise/types"
)

// A per-pixel random stream. Seeding by pixel and frame keeps results
// independent of how pixels are distributed across workers.
type pixelRNG struct {
	pcg rand.PCG
}

func newPixelRNG(pixel int, frameIndex uint64) pixelRNG {
	var r pixelRNG
	r.pcg.Seed(uint64(pixel), frameIndex)
	return r
}

// Get a uniform float in [0, 1).
func (r *pixelRNG) Float32() float32 {
	return float32(r.pcg.Uint64()>>40) / (1 << 24)
}

// Get a uniformly distributed unit vector.
func (r *pixelRNG) UnitVec3() types.Vec3 {
	z := 1 - 2*r.Float32()
	rad := float32(math.Sqrt(math.Max(0, float64(1-z*z))))
	sin, cos := math.Sincos(2 * math.Pi * float64(r.Float32()))
	return types.Vec3{rad * float32(cos), rad * float32(sin), z}
}
