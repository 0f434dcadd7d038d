package accumulator

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/achilleasa/polaris-denoise/compute"
	"github.com/achilleasa/polaris-denoise/frame"
	"github.com/achilleasa/polaris-denoise/log"
	"github.com/achilleasa/polaris-denoise/types"
)

// Upper bound for the luminance that enters the moment estimates. Its
// square is below math.MaxFloat32.
const maxMomentLuminance float32 = 1e19

// Temporal accumulation settings.
type Config struct {
	// Lower bound for the per-frame blend factor. A value of 0 yields a
	// cumulative moving average; larger values turn the average into an
	// exponential moving average so stale history is eventually forgotten.
	MinBlendFactor float32

	// Maximum tracked history length per pixel.
	HistoryCap uint32
}

// Get the default accumulation settings.
func DefaultConfig() Config {
	return Config{
		MinBlendFactor: 0.05,
		HistoryCap:     32,
	}
}

// Validate settings.
func (c Config) Validate() error {
	if !types.IsFinite(c.MinBlendFactor) || c.MinBlendFactor < 0 || c.MinBlendFactor > 1 {
		return fmt.Errorf("%w: got %f", ErrInvalidBlendFactor, c.MinBlendFactor)
	}
	if c.HistoryCap < 1 {
		return ErrInvalidHistoryCap
	}
	return nil
}

// Statistics for a single accumulation step.
type Stats struct {
	// True if the history was discarded this frame.
	Reset bool

	// History length after this frame.
	HistoryLength uint32

	// Number of pixels whose incoming sample contained non-finite values.
	RejectedSamples int

	// Time spent executing the accumulation kernel.
	ExecTime time.Duration
}

// Arguments bound to the accumulation kernel for the frame in flight.
type kernelArgs struct {
	samples []frame.PixelSample
	prev    *frame.Parity
	cur     *frame.Parity
	reset   bool
}

// Blends each frame's raw samples with the previous frame's history and
// maintains per-pixel luminance moments.
type Accumulator struct {
	logger log.Logger
	cfg    Config

	kernel   *compute.Kernel
	args     kernelArgs
	rejected atomic.Int64
}

// Create a new accumulator that executes on dev.
func New(dev *compute.Device, logger log.Logger, cfg Config) (*Accumulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Accumulator{
		logger: logger,
		cfg:    cfg,
	}
	a.kernel = dev.Kernel1D("accumulate", a.accumulatePixel)
	return a, nil
}

// Get accumulator settings.
func (a *Accumulator) Config() Config {
	return a.cfg
}

// Blend samples into the current parity of store using the previous parity
// as history. The dirty flag of state is consumed once; if it was set every
// pixel restarts from an empty history.
func (a *Accumulator) Accumulate(samples *frame.SampleBuffer, store *frame.HistoryStore, state *AccumulationState) (Stats, error) {
	if samples == nil {
		return Stats{}, ErrMissingSampleBuffer
	}
	res := store.Resolution()
	if samples.Res != res || len(samples.Samples) != res.Pixels() {
		return Stats{}, fmt.Errorf("%w: samples %s, store %s", ErrResolutionMismatch, samples.Res, res)
	}

	reset := state.consumeDirty()
	if reset {
		a.logger.Debug("discarding accumulated history")
	}

	a.args = kernelArgs{
		samples: samples.Samples,
		prev:    store.Previous(),
		cur:     store.Current(),
		reset:   reset,
	}
	a.rejected.Store(0)

	elapsed, err := a.kernel.Exec1D(0, res.Pixels(), 0)
	a.args = kernelArgs{}
	if err != nil {
		// Keep the pending reset for the next attempt
		if reset {
			state.Invalidate()
		}
		return Stats{}, err
	}

	state.advance(reset, a.cfg.HistoryCap)

	stats := Stats{
		Reset:           reset,
		HistoryLength:   state.HistoryLength(),
		RejectedSamples: int(a.rejected.Load()),
		ExecTime:        elapsed,
	}
	if stats.RejectedSamples > 0 {
		a.logger.Warningf("rejected %d non-finite samples", stats.RejectedSamples)
	}
	return stats, nil
}

func (a *Accumulator) accumulatePixel(index int) {
	sample := &a.args.samples[index]
	prev := &a.args.prev.History[index]

	var historyLength uint32
	if !a.args.reset {
		historyLength = prev.HistoryLength
	}

	diffuse, diffuseOk := sanitize(sample.DiffuseRadiance, prev.Diffuse, historyLength)
	specular, specularOk := sanitize(sample.SpecularRadiance, prev.Specular, historyLength)
	if !diffuseOk || !specularOk {
		a.rejected.Add(1)
	}

	var out frame.HistoryCell
	if historyLength == 0 {
		// No history; the blend factor is 1 and the sample is taken verbatim.
		out.Diffuse = diffuse
		out.Specular = specular
		lum := momentLuminance(out.Diffuse, out.Specular)
		out.Moment1 = lum
		out.Moment2 = lum * lum
	} else {
		alpha := BlendFactor(historyLength, a.cfg.MinBlendFactor)
		out.Diffuse = prev.Diffuse.Lerp(diffuse, alpha)
		out.Specular = prev.Specular.Lerp(specular, alpha)
		lum := momentLuminance(out.Diffuse, out.Specular)
		out.Moment1 = types.Lerp(prev.Moment1, lum, alpha)
		out.Moment2 = types.Lerp(prev.Moment2, lum*lum, alpha)
	}
	out.HistoryLength = min(historyLength+1, a.cfg.HistoryCap)

	a.args.cur.History[index] = out
	a.args.cur.Geometry[index] = sample.Geometry()
}

// Get the blend factor for a pixel with the given history length:
// max(1 / (historyLength + 1), minBlendFactor).
func BlendFactor(historyLength uint32, minBlendFactor float32) float32 {
	alpha := 1.0 / (float32(historyLength) + 1.0)
	if alpha < minBlendFactor {
		return minBlendFactor
	}
	return alpha
}

// Get the scalar luminance used for the moment estimates: the Rec. 709
// luminance of the combined diffuse and specular radiance.
func Luminance(diffuse, specular types.Vec3) float32 {
	return diffuse.Add(specular).Luminance()
}

// Get the luminance fed into the moment estimates, capped at
// maxMomentLuminance so that its square stays finite.
func momentLuminance(diffuse, specular types.Vec3) float32 {
	return min(Luminance(diffuse, specular), maxMomentLuminance)
}

// Replace non-finite radiance components with the pixel's history (or 0 if
// there is none) and clamp negative components to 0. The second return
// value is false if any component had to be replaced.
func sanitize(radiance, history types.Vec3, historyLength uint32) (types.Vec3, bool) {
	ok := true
	for i := 0; i < 3; i++ {
		if !types.IsFinite(radiance[i]) {
			ok = false
			radiance[i] = 0
			if historyLength > 0 {
				radiance[i] = history[i]
			}
		}
		if radiance[i] < 0 {
			radiance[i] = 0
		}
	}
	return radiance, ok
}
