package compositor

import (
	"fmt"
	"time"

	"github.com/achilleasa/polaris-denoise/compute"
	"github.com/achilleasa/polaris-denoise/denoiser"
	"github.com/achilleasa/polaris-denoise/frame"
	"github.com/achilleasa/polaris-denoise/log"
	"github.com/achilleasa/polaris-denoise/types"
)

// Re-applies the surface albedo and specular BRDF weights to the filtered
// radiance and writes the final linear image.
type Compositor struct {
	logger log.Logger
	kernel *compute.Kernel

	// Arguments for the frame in flight.
	filtered *denoiser.Output
	samples  []frame.PixelSample
	out      []types.Vec3
}

// Create a compositor that executes on dev.
func New(dev *compute.Device, logger log.Logger) *Compositor {
	c := &Compositor{logger: logger}
	c.kernel = dev.Kernel1D("composite", c.compositePixel)
	return c
}

// Combine filtered radiance with the albedo buffers of samples into out.
func (c *Compositor) Composite(filtered *denoiser.Output, samples *frame.SampleBuffer, out *frame.LinearImage) (time.Duration, error) {
	if filtered == nil || samples == nil || out == nil {
		return 0, ErrMissingInput
	}
	res := out.Res
	if filtered.Res != res || samples.Res != res || len(out.Pix) != res.Pixels() {
		return 0, fmt.Errorf("%w: filtered %s, samples %s, output %s", ErrResolutionMismatch, filtered.Res, samples.Res, res)
	}

	c.filtered, c.samples, c.out = filtered, samples.Samples, out.Pix
	defer func() {
		c.filtered, c.samples, c.out = nil, nil, nil
	}()

	return c.kernel.Exec1D(0, res.Pixels(), 0)
}

func (c *Compositor) compositePixel(index int) {
	sample := &c.samples[index]
	diffuse := c.filtered.Diffuse[index]
	specular := c.filtered.Specular[index]

	// Background radiance was never demodulated
	if sample.IsMiss() {
		c.out[index] = diffuse.Add(specular)
		return
	}

	c.out[index] = sample.DiffuseAlbedo.MulVec(diffuse).Add(sample.SpecularWeight.MulVec(specular))
}
