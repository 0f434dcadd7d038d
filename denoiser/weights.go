package denoiser

import (
	"math"

	"github.com/achilleasa/polaris-denoise/frame"
	"github.com/achilleasa/polaris-denoise/types"
)

// Keeps the depth and luminance weights finite when their scale collapses
// to zero.
const weightEpsilon = 1e-4

// B3 spline coefficients for the 5-tap à-trous kernel.
var kernelTaps = [5]float32{1.0 / 16.0, 1.0 / 4.0, 3.0 / 8.0, 1.0 / 4.0, 1.0 / 16.0}

// Edge-stopping functions used by the spatial filter.
type Weights struct {
	SigmaNormal    float32
	SigmaDepth     float32
	SigmaPosition  float32
	SigmaLuminance float32
}

// Weight two shading normals: max(0, n_p·n_q)^sigmaNormal.
func (w Weights) Normal(np, nq types.Vec3) float32 {
	d := np.Dot(nq)
	if d <= 0 {
		return 0
	}
	return float32(math.Pow(float64(d), float64(w.SigmaNormal)))
}

// Weight two linear depths separated by distance pixels.
func (w Weights) Depth(zp, zq, distance float32) float32 {
	return expf(-absf(zp-zq) / (w.SigmaDepth*distance + weightEpsilon))
}

// Weight two world-space hit positions.
func (w Weights) Position(xp, xq types.Vec3) float32 {
	return expf(-xp.Sub(xq).LenSq() / (w.SigmaPosition * w.SigmaPosition))
}

// Weight two luminance values given the variance estimate at p.
func (w Weights) Luminance(lp, lq, varianceP float32) float32 {
	if varianceP < 0 {
		varianceP = 0
	}
	return expf(-absf(lp-lq) / (w.SigmaLuminance*sqrtf(varianceP) + weightEpsilon))
}

// Get the combined geometric weight between pixels p and q that are
// distance pixels apart. Background pixels never share weight.
func (w Weights) EdgeWeight(p, q *frame.GeometrySample, distance float32) float32 {
	if p.IsMiss() || q.IsMiss() {
		return 0
	}
	return w.Normal(p.Normal, q.Normal) *
		w.Depth(p.Depth, q.Depth, distance) *
		w.Position(p.HitPosition, q.HitPosition)
}

func expf(v float32) float32 {
	return float32(math.Exp(float64(v)))
}

func sqrtf(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
