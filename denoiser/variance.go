package denoiser

import (
	"github.com/achilleasa/polaris-denoise/accumulator"
)

// Populate the first arena buffer with the accumulated radiance of the
// bound parity and a per-pixel variance estimate.
func (d *Denoiser) estimateVariance(x, y int) {
	res := d.parity.Res
	index := res.Index(x, y)
	cell := &d.parity.History[index]
	geom := &d.parity.Geometry[index]
	dst := d.arena[0]

	dst.diffuse[index] = cell.Diffuse
	dst.specular[index] = cell.Specular

	switch {
	case geom.IsMiss():
		dst.variance[index] = 0
	case cell.HistoryLength >= d.cfg.VarianceHistoryThreshold:
		dst.variance[index] = cell.Variance()
	default:
		dst.variance[index] = d.spatialVariance(x, y)
	}
}

// Estimate luminance variance from the geometry-weighted moments of the
// pixel's neighbourhood. Used while the temporal moments are still too
// short to be meaningful.
func (d *Denoiser) spatialVariance(x, y int) float32 {
	res := d.parity.Res
	radius := d.cfg.VarianceRadius
	centre := &d.parity.Geometry[res.Index(x, y)]

	var sumW, m1, m2 float32
	for dy := -radius; dy <= radius; dy++ {
		qy := y + dy
		if qy < 0 || qy >= int(res.Height) {
			continue
		}
		for dx := -radius; dx <= radius; dx++ {
			qx := x + dx
			if qx < 0 || qx >= int(res.Width) {
				continue
			}

			q := res.Index(qx, qy)
			var w float32 = 1
			if dx != 0 || dy != 0 {
				w = d.weights.EdgeWeight(centre, &d.parity.Geometry[q], chebyshev(dx, dy))
				if w <= 0 {
					continue
				}
			}

			cell := &d.parity.History[q]
			lum := accumulator.Luminance(cell.Diffuse, cell.Specular)
			sumW += w
			m1 += w * lum
			m2 += w * lum * lum
		}
	}

	m1 /= sumW
	m2 /= sumW
	if v := m2 - m1*m1; v > 0 {
		return v
	}
	return 0
}

func chebyshev(dx, dy int) float32 {
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return float32(max(dx, dy))
}
