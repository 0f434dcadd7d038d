package sampler

import (
	"time"

	"github.com/achilleasa/polaris-denoise/frame"
	"github.com/achilleasa/polaris-denoise/scene"
)

// A Sampler produces the raw noisy per-pixel samples consumed by the
// denoising pipeline. Implementations must fill every pixel of out.
type Sampler interface {
	// Trace spp samples per pixel for the given frame and store their
	// average into out.
	Sample(cam *scene.Camera, spp uint32, frameIndex uint64, out *frame.SampleBuffer) (time.Duration, error)
}
