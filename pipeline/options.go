package pipeline

import (
	"fmt"

	"github.com/achilleasa/polaris-denoise/accumulator"
	"github.com/achilleasa/polaris-denoise/denoiser"
	"github.com/achilleasa/polaris-denoise/frame"
	"github.com/achilleasa/polaris-denoise/types"
)

type Options struct {
	// Frame dims.
	Resolution frame.Resolution

	// Number of samples traced per pixel and frame.
	SamplesPerPixel uint32

	// Temporal accumulation settings.
	Accumulation accumulator.Config

	// Spatial filter settings.
	Denoise denoiser.Config

	// Exposure for tonemapping.
	Exposure float32

	// Debug buffers to dump after each frame and the folder to write them to.
	DebugFlags DebugFlag
	DebugDir   string
}

// Get the default pipeline options.
func DefaultOptions() Options {
	return Options{
		Resolution:      frame.Resolution{Width: 512, Height: 512},
		SamplesPerPixel: 1,
		Accumulation:    accumulator.DefaultConfig(),
		Denoise:         denoiser.DefaultConfig(),
		Exposure:        1,
		DebugDir:        ".",
	}
}

// Validate options.
func (o Options) Validate() error {
	if !o.Resolution.Valid() {
		return fmt.Errorf("%w: got %s", frame.ErrInvalidResolution, o.Resolution)
	}
	if o.SamplesPerPixel < 1 {
		return ErrInvalidSpp
	}
	if !types.IsFinite(o.Exposure) || o.Exposure <= 0 {
		return fmt.Errorf("%w: got %f", ErrInvalidExposure, o.Exposure)
	}
	if err := o.Accumulation.Validate(); err != nil {
		return err
	}
	return o.Denoise.Validate()
}
