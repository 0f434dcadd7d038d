package frame

import (
	"fmt"

	"github.com/achilleasa/polaris-denoise/types"
)

// Frame dimensions in pixels.
type Resolution struct {
	Width  uint32
	Height uint32
}

// Get the number of pixels covered by this resolution.
func (r Resolution) Pixels() int {
	return int(r.Width) * int(r.Height)
}

// Check that both dimensions are non-zero.
func (r Resolution) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// Get the linear index of pixel (x, y).
func (r Resolution) Index(x, y int) int {
	return y*int(r.Width) + x
}

// Implements Stringer.
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// A raw per-pixel sample produced by the sampler for the current frame. The
// radiance values are the sampler's estimate averaged over the configured
// samples per pixel and demodulated by the surface albedo; DiffuseAlbedo
// and SpecularWeight are re-applied by the compositor.
type PixelSample struct {
	DiffuseRadiance  types.Vec3
	SpecularRadiance types.Vec3

	// World-space position of the primary hit.
	HitPosition types.Vec3

	// Shading normal at the primary hit.
	Normal types.Vec3

	// Linear view depth of the primary hit. Non-positive or non-finite
	// values mark rays that missed the scene.
	Depth float32

	DiffuseAlbedo  types.Vec3
	SpecularWeight types.Vec3
}

// Check whether the primary ray for this pixel missed the scene.
func (s *PixelSample) IsMiss() bool {
	return isMissDepth(s.Depth)
}

// Extract the geometry attributes of this sample.
func (s *PixelSample) Geometry() GeometrySample {
	return GeometrySample{
		HitPosition: s.HitPosition,
		Normal:      s.Normal,
		Depth:       s.Depth,
	}
}

// A buffer of raw samples for one frame.
type SampleBuffer struct {
	Res     Resolution
	Samples []PixelSample
}

// Allocate a sample buffer for the given resolution.
func NewSampleBuffer(res Resolution) *SampleBuffer {
	return &SampleBuffer{
		Res:     res,
		Samples: make([]PixelSample, res.Pixels()),
	}
}

// Get the sample for pixel (x, y).
func (b *SampleBuffer) At(x, y int) *PixelSample {
	return &b.Samples[b.Res.Index(x, y)]
}

// Geometry attributes persisted alongside the history of each pixel.
type GeometrySample struct {
	HitPosition types.Vec3
	Normal      types.Vec3
	Depth       float32
}

// Check whether this geometry sample belongs to a background pixel.
func (g *GeometrySample) IsMiss() bool {
	return isMissDepth(g.Depth)
}

func isMissDepth(depth float32) bool {
	return depth <= 0 || !types.IsFinite(depth)
}

// A pre-tone-mapped linear RGB image.
type LinearImage struct {
	Res Resolution
	Pix []types.Vec3
}

// Allocate a linear image for the given resolution.
func NewLinearImage(res Resolution) *LinearImage {
	return &LinearImage{
		Res: res,
		Pix: make([]types.Vec3, res.Pixels()),
	}
}

// Get the value of pixel (x, y).
func (img *LinearImage) At(x, y int) types.Vec3 {
	return img.Pix[img.Res.Index(x, y)]
}
