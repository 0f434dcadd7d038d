package compositor

import (
	"errors"
	"math"
	"testing"

	"github.com/achilleasa/polaris-denoise/compute"
	"github.com/achilleasa/polaris-denoise/denoiser"
	"github.com/achilleasa/polaris-denoise/frame"
	"github.com/achilleasa/polaris-denoise/log"
	"github.com/achilleasa/polaris-denoise/types"
)

func TestComposite(t *testing.T) {
	res := frame.Resolution{Width: 3, Height: 1}
	filtered := &denoiser.Output{
		Res:      res,
		Diffuse:  []types.Vec3{{1, 2, 3}, {1, 1, 1}, {0.5, 0.5, 0.5}},
		Specular: []types.Vec3{{0, 1, 0}, {2, 2, 2}, {0.25, 0, 0}},
		Variance: make([]float32, 3),
	}
	samples := frame.NewSampleBuffer(res)
	samples.Samples[0] = frame.PixelSample{Depth: 1, DiffuseAlbedo: types.Vec3{0.5, 0.5, 0.5}, SpecularWeight: types.Vec3{1, 1, 1}}
	samples.Samples[1] = frame.PixelSample{Depth: 2, DiffuseAlbedo: types.Vec3{1, 0, 0}, SpecularWeight: types.Vec3{0, 0, 0.5}}
	// Background
	samples.Samples[2] = frame.PixelSample{Depth: 0, DiffuseAlbedo: types.Vec3{0, 0, 0}}

	expPix := []types.Vec3{
		{0.5, 2, 1.5},
		{1, 0, 1},
		{0.75, 0.5, 0.5},
	}

	dev := createTestDevice(t)
	defer dev.Close()
	c := New(dev, log.New("test"))
	out := frame.NewLinearImage(res)
	if _, err := c.Composite(filtered, samples, out); err != nil {
		t.Fatal(err)
	}
	for i, exp := range expPix {
		if !types.ApproxEqual(out.Pix[i], exp, 1e-6) {
			t.Fatalf("[spec %d] expected %v; got %v", i, exp, out.Pix[i])
		}
	}

	if _, err := c.Composite(filtered, frame.NewSampleBuffer(frame.Resolution{Width: 1, Height: 1}), out); !errors.Is(err, ErrResolutionMismatch) {
		t.Fatalf("expected ErrResolutionMismatch; got %v", err)
	}
	if _, err := c.Composite(nil, samples, out); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput; got %v", err)
	}
}

func TestTonemap(t *testing.T) {
	res := frame.Resolution{Width: 4, Height: 1}
	img := frame.NewLinearImage(res)
	img.Pix[0] = types.Vec3{0, 0, 0}
	img.Pix[1] = types.Vec3{1, 1, 1}
	img.Pix[2] = types.Vec3{1e6, 1e6, 1e6}
	img.Pix[3] = types.Vec3{float32(math.NaN()), -1, float32(math.Inf(1))}

	out := Tonemap(img, 1)
	type spec struct {
		x   int
		exp [4]uint8
	}
	specs := []spec{
		{0, [4]uint8{0, 0, 0, 255}},
		// reinhard(1) = 0.5 -> sRGB 188
		{1, [4]uint8{188, 188, 188, 255}},
		{2, [4]uint8{255, 255, 255, 255}},
		{3, [4]uint8{0, 0, 0, 255}},
	}
	for index, s := range specs {
		offset := out.PixOffset(s.x, 0)
		var got [4]uint8
		copy(got[:], out.Pix[offset:offset+4])
		if got != s.exp {
			t.Fatalf("[spec %d] expected %v; got %v", index, s.exp, got)
		}
	}
}

func createTestDevice(t *testing.T) *compute.Device {
	dev := compute.NewDevice("test", 2)
	if err := dev.Init(); err != nil {
		t.Fatal(err)
	}
	return dev
}
