package denoiser

import (
	"fmt"
	"time"

	"github.com/achilleasa/polaris-denoise/accumulator"
	"github.com/achilleasa/polaris-denoise/compute"
	"github.com/achilleasa/polaris-denoise/frame"
	"github.com/achilleasa/polaris-denoise/log"
	"github.com/achilleasa/polaris-denoise/types"
)

// Radiance and variance grids for one filter pass.
type passBuffer struct {
	diffuse  []types.Vec3
	specular []types.Vec3
	variance []float32
}

func newPassBuffer(res frame.Resolution) *passBuffer {
	return &passBuffer{
		diffuse:  make([]types.Vec3, res.Pixels()),
		specular: make([]types.Vec3, res.Pixels()),
		variance: make([]float32, res.Pixels()),
	}
}

// The filtered radiance produced by Denoise. The slices are owned by the
// denoiser and remain valid until the next call to Denoise.
type Output struct {
	Res frame.Resolution

	Diffuse  []types.Vec3
	Specular []types.Vec3
	Variance []float32

	// Time spent on each pass; index 0 is the variance estimation pass.
	PassTimes []time.Duration
}

// Get total filter time.
func (o *Output) ExecTime() time.Duration {
	var total time.Duration
	for _, t := range o.PassTimes {
		total += t
	}
	return total
}

// An edge-aware à-trous wavelet filter. Each pass reads one buffer of a
// two-buffer arena and writes the other; passes run sequentially on the
// compute device.
type Denoiser struct {
	logger  log.Logger
	cfg     Config
	weights Weights

	res   frame.Resolution
	arena [2]*passBuffer

	varianceKernel *compute.Kernel
	filterKernel   *compute.Kernel

	// Arguments for the pass in flight.
	parity   *frame.Parity
	src, dst *passBuffer
	step     int
}

// Create a new denoiser that executes on dev.
func New(dev *compute.Device, logger log.Logger, cfg Config) (*Denoiser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Denoiser{
		logger:  logger,
		cfg:     cfg,
		weights: cfg.Weights(),
	}
	d.varianceKernel = dev.Kernel2D("estimateVariance", d.estimateVariance)
	d.filterKernel = dev.Kernel2D("atrous", d.filterPixel)
	return d, nil
}

// Get filter settings.
func (d *Denoiser) Config() Config {
	return d.cfg
}

// Filter the accumulated radiance stored in parity.
func (d *Denoiser) Denoise(parity *frame.Parity) (*Output, error) {
	if parity == nil {
		return nil, ErrMissingParity
	}
	res := parity.Res
	if !res.Valid() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidResolution, res)
	}
	d.ensureArena(res)

	d.parity = parity
	defer func() {
		d.parity, d.src, d.dst = nil, nil, nil
	}()

	passTimes := make([]time.Duration, 0, d.cfg.PassCount+1)
	elapsed, err := d.varianceKernel.Exec2D(0, 0, int(res.Width), int(res.Height), 0, 0)
	if err != nil {
		return nil, err
	}
	passTimes = append(passTimes, elapsed)

	out := d.arena[0]
	for pass := 0; pass < d.cfg.PassCount; pass++ {
		d.src, d.dst = d.arena[pass%2], d.arena[(pass+1)%2]
		d.step = d.cfg.StepSize(pass)

		elapsed, err = d.filterKernel.Exec2D(0, 0, int(res.Width), int(res.Height), 0, 0)
		if err != nil {
			return nil, fmt.Errorf("pass %d: %w", pass, err)
		}
		passTimes = append(passTimes, elapsed)
		out = d.dst
	}

	return &Output{
		Res:       res,
		Diffuse:   out.diffuse,
		Specular:  out.specular,
		Variance:  out.variance,
		PassTimes: passTimes,
	}, nil
}

// Allocate the pass arena if the resolution changed.
func (d *Denoiser) ensureArena(res frame.Resolution) {
	if d.res == res && d.arena[0] != nil {
		return
	}

	d.logger.Debugf("allocating pass arena for %s", res)
	d.res = res
	d.arena[0] = newPassBuffer(res)
	d.arena[1] = newPassBuffer(res)
}

// Run one à-trous tap pattern around pixel (x, y).
func (d *Denoiser) filterPixel(x, y int) {
	res := d.parity.Res
	p := res.Index(x, y)
	src, dst := d.src, d.dst
	geomP := &d.parity.Geometry[p]

	if geomP.IsMiss() {
		dst.diffuse[p] = src.diffuse[p]
		dst.specular[p] = src.specular[p]
		dst.variance[p] = src.variance[p]
		return
	}

	varP := src.variance[p]
	lumP := accumulator.Luminance(src.diffuse[p], src.specular[p])

	wCentre := kernelTaps[2] * kernelTaps[2]
	sumW := wCentre
	sumVar := wCentre * wCentre * varP
	diffuse := src.diffuse[p].Mul(wCentre)
	specular := src.specular[p].Mul(wCentre)

	for ty := -2; ty <= 2; ty++ {
		qy := y + ty*d.step
		if qy < 0 || qy >= int(res.Height) {
			continue
		}
		for tx := -2; tx <= 2; tx++ {
			qx := x + tx*d.step
			if (tx == 0 && ty == 0) || qx < 0 || qx >= int(res.Width) {
				continue
			}

			q := res.Index(qx, qy)
			w := d.weights.EdgeWeight(geomP, &d.parity.Geometry[q], chebyshev(tx*d.step, ty*d.step))
			if w <= 0 {
				continue
			}
			lumQ := accumulator.Luminance(src.diffuse[q], src.specular[q])
			w *= kernelTaps[tx+2] * kernelTaps[ty+2] * d.weights.Luminance(lumP, lumQ, varP)
			if w <= 0 || !types.IsFinite(w) {
				continue
			}

			sumW += w
			sumVar += w * w * src.variance[q]
			diffuse = diffuse.Add(src.diffuse[q].Mul(w))
			specular = specular.Add(src.specular[q].Mul(w))
		}
	}

	invW := 1 / sumW
	dst.diffuse[p] = diffuse.Mul(invW)
	dst.specular[p] = specular.Mul(invW)

	// Never report more variance than the pass started with
	dst.variance[p] = types.Clamp(sumVar*invW*invW, 0, varP)
}
