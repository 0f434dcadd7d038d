package pipeline

import (
	"fmt"
	"time"

	"github.com/achilleasa/polaris-denoise/accumulator"
	"github.com/achilleasa/polaris-denoise/compositor"
	"github.com/achilleasa/polaris-denoise/denoiser"
	"github.com/achilleasa/polaris-denoise/frame"
	"github.com/achilleasa/polaris-denoise/log"
	"github.com/achilleasa/polaris-denoise/sampler"
	"github.com/achilleasa/polaris-denoise/scene"
)

// An alias for functions that can be used as part of the denoising pipeline.
type Stage func(p *Pipeline) (time.Duration, error)

type namedStage struct {
	name  string
	stage Stage
}

// The list of pluggable stages that process a frame. Stages run strictly
// in sequence; each one returns only after its work has completed for the
// entire frame.
type Stages struct {
	// Fill the pipeline's sample buffer. Skipped by ProcessFrame.
	Sample Stage

	// Blend the frame samples into the current history parity.
	Accumulate Stage

	// Filter the accumulated radiance.
	Denoise Stage

	// Produce the final linear image.
	Composite Stage

	// A set of post-processing stages that are executed after the frame
	// has been composited.
	PostProcess []Stage
}

func DefaultStages(debugFlags DebugFlag) *Stages {
	stages := &Stages{
		Sample:     SampleScene(),
		Accumulate: TemporalAccumulation(),
		Denoise:    AtrousFilter(),
		Composite:  CompositeOutput(),
	}

	if debugFlags != Off {
		stages.PostProcess = append(stages.PostProcess, DebugDump(debugFlags))
	}

	return stages
}

// Trace the frame samples using the pipeline sampler.
func SampleScene() Stage {
	return func(p *Pipeline) (time.Duration, error) {
		if p.sampler == nil {
			return 0, ErrSamplerNotDefined
		}
		return p.sampler.Sample(p.camera, p.opts.SamplesPerPixel, p.stats.Frame, p.frameSamples)
	}
}

// Blend the frame samples with the previous frame's history.
func TemporalAccumulation() Stage {
	return func(p *Pipeline) (time.Duration, error) {
		stats, err := p.accumulator.Accumulate(p.frameSamples, p.store, p.state)
		if err != nil {
			return 0, err
		}
		p.stats.Reset = stats.Reset
		p.stats.HistoryLength = stats.HistoryLength
		p.stats.RejectedSamples = stats.RejectedSamples
		return stats.ExecTime, nil
	}
}

// Apply the à-trous filter to the current history parity.
func AtrousFilter() Stage {
	return func(p *Pipeline) (time.Duration, error) {
		out, err := p.denoiser.Denoise(p.store.Current())
		if err != nil {
			return 0, err
		}
		p.filtered = out
		return out.ExecTime(), nil
	}
}

// Re-apply albedo to the filtered radiance.
func CompositeOutput() Stage {
	return func(p *Pipeline) (time.Duration, error) {
		return p.compositor.Composite(p.filtered, p.frameSamples, p.output)
	}
}

// A temporal and spatial denoising pipeline for a stream of noisy frames.
type Pipeline struct {
	ctx    *Context
	logger log.Logger
	opts   Options

	sampler sampler.Sampler
	stages  *Stages

	store   *frame.HistoryStore
	state   *accumulator.AccumulationState
	samples *frame.SampleBuffer
	output  *frame.LinearImage

	accumulator *accumulator.Accumulator
	denoiser    *denoiser.Denoiser
	compositor  *compositor.Compositor

	// Frame in flight.
	camera       *scene.Camera
	frameSamples *frame.SampleBuffer
	filtered     *denoiser.Output
	stats        FrameStats
}

// Create a new pipeline. The sampler may be nil if frames are only ever
// supplied through ProcessFrame.
func New(ctx *Context, smp sampler.Sampler, opts Options) (*Pipeline, error) {
	if ctx == nil || !ctx.Device.Initialized() {
		return nil, ErrContextClosed
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	store, err := frame.NewHistoryStore(opts.Resolution)
	if err != nil {
		return nil, err
	}

	acc, err := accumulator.New(ctx.Device, ctx.ComponentLogger("accumulator"), opts.Accumulation)
	if err != nil {
		return nil, err
	}
	den, err := denoiser.New(ctx.Device, ctx.ComponentLogger("denoiser"), opts.Denoise)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		ctx:         ctx,
		logger:      ctx.Logger,
		opts:        opts,
		sampler:     smp,
		stages:      DefaultStages(opts.DebugFlags),
		store:       store,
		state:       accumulator.NewAccumulationState(),
		samples:     frame.NewSampleBuffer(opts.Resolution),
		output:      frame.NewLinearImage(opts.Resolution),
		accumulator: acc,
		denoiser:    den,
		compositor:  compositor.New(ctx.Device, ctx.ComponentLogger("compositor")),
	}
	p.logger.Noticef("pipeline ready: %s, %d spp, %d denoise passes", opts.Resolution, opts.SamplesPerPixel, opts.Denoise.PassCount)
	return p, nil
}

// Replace the pipeline stages.
func (p *Pipeline) SetStages(stages *Stages) {
	p.stages = stages
}

// Get pipeline options.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Get the pipeline resolution.
func (p *Pipeline) Resolution() frame.Resolution {
	return p.store.Resolution()
}

// Get the accumulation state. Its Invalidate method may be called from
// any goroutine.
func (p *Pipeline) State() *accumulator.AccumulationState {
	return p.state
}

// Discard accumulated history at the next frame boundary.
func (p *Pipeline) Invalidate() {
	p.state.Invalidate()
}

// Get the current convergence phase.
func (p *Pipeline) Phase() accumulator.Phase {
	return p.state.Phase()
}

// Reallocate all frame buffers for a new resolution. Accumulated history is
// discarded.
func (p *Pipeline) Resize(res frame.Resolution) error {
	if res == p.store.Resolution() {
		return nil
	}
	if err := p.store.Allocate(res); err != nil {
		return err
	}

	p.opts.Resolution = res
	p.samples = frame.NewSampleBuffer(res)
	p.output = frame.NewLinearImage(res)
	p.filtered = nil
	p.state.Invalidate()
	p.logger.Noticef("resized frame buffers to %s", res)
	return nil
}

// Trace, accumulate, filter and composite a frame for the given camera.
func (p *Pipeline) RenderFrame(cam *scene.Camera) (*frame.LinearImage, error) {
	if p.sampler == nil {
		return nil, ErrSamplerNotDefined
	}
	if cam == nil {
		return nil, ErrCameraNotDefined
	}

	p.camera = cam
	defer func() { p.camera = nil }()
	return p.runFrame(p.samples, true)
}

// Accumulate, filter and composite an externally produced sample buffer.
func (p *Pipeline) ProcessFrame(samples *frame.SampleBuffer) (*frame.LinearImage, error) {
	if samples == nil {
		return nil, ErrMissingSamples
	}
	if samples.Res != p.store.Resolution() {
		return nil, fmt.Errorf("%w: got %s, expected %s", ErrResolutionMismatch, samples.Res, p.store.Resolution())
	}
	return p.runFrame(samples, false)
}

// Get the image produced by the last completed frame.
func (p *Pipeline) Output() *frame.LinearImage {
	return p.output
}

// Get the filtered radiance of the last completed frame. The buffers are
// overwritten by the next frame.
func (p *Pipeline) Filtered() *denoiser.Output {
	return p.filtered
}

// Get the history store. Custom stages may read the current parity while a
// frame is in flight.
func (p *Pipeline) History() *frame.HistoryStore {
	return p.store
}

// Get the sample buffer of the frame in flight.
func (p *Pipeline) FrameSamples() *frame.SampleBuffer {
	return p.frameSamples
}

// Get the stats of the last completed frame.
func (p *Pipeline) Stats() FrameStats {
	return p.stats
}

func (p *Pipeline) runFrame(samples *frame.SampleBuffer, withSampler bool) (*frame.LinearImage, error) {
	start := time.Now()
	p.frameSamples = samples
	defer func() { p.frameSamples = nil }()

	p.stats = FrameStats{
		Frame:  p.state.FrameCounter(),
		Stages: make([]StageStat, 0, 5),
	}

	stages := make([]namedStage, 0, 4+len(p.stages.PostProcess))
	if withSampler {
		stages = append(stages, namedStage{"sample", p.stages.Sample})
	}
	stages = append(stages,
		namedStage{"accumulate", p.stages.Accumulate},
		namedStage{"denoise", p.stages.Denoise},
		namedStage{"composite", p.stages.Composite},
	)
	for i, stage := range p.stages.PostProcess {
		stages = append(stages, namedStage{fmt.Sprintf("post-%d", i), stage})
	}

	for _, s := range stages {
		if s.stage == nil {
			continue
		}
		elapsed, err := s.stage(p)
		if err != nil {
			// History may be partially written; start over on the next frame
			p.state.Invalidate()
			return nil, fmt.Errorf("pipeline: %s stage: %w", s.name, err)
		}
		p.stats.Stages = append(p.stats.Stages, StageStat{Name: s.name, Time: elapsed})
	}

	// The current parity has been fully consumed
	p.store.Swap()

	p.stats.Phase = p.state.Phase()
	p.stats.RenderTime = time.Since(start)
	p.ctx.Metrics.observeFrame(p.stats)
	if p.stats.Reset {
		p.logger.Debugf("frame %d: history reset", p.stats.Frame)
	}
	return p.output, nil
}
