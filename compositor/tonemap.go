package compositor

import (
	"image"
	"math"

	"github.com/achilleasa/polaris-denoise/frame"
	"github.com/achilleasa/polaris-denoise/types"
)

// Map a linear image to 8-bit sRGB using the simple Reinhard operator
// c' = c*e / (1 + c*e).
func Tonemap(img *frame.LinearImage, exposure float32) *image.RGBA {
	w, h := int(img.Res.Width), int(img.Res.Height)
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(x, y)
			offset := out.PixOffset(x, y)
			for ch := 0; ch < 3; ch++ {
				out.Pix[offset+ch] = encodeSRGB(reinhard(c[ch], exposure))
			}
			out.Pix[offset+3] = 255
		}
	}
	return out
}

func reinhard(v, exposure float32) float32 {
	if !types.IsFinite(v) || v <= 0 {
		return 0
	}
	v *= exposure
	return v / (1 + v)
}

// Apply the sRGB transfer function to a linear value in [0, 1] and
// quantize it to 8 bits.
func encodeSRGB(v float32) uint8 {
	v = types.Clamp(v, 0, 1)
	var s float64
	if v <= 0.0031308 {
		s = 12.92 * float64(v)
	} else {
		s = 1.055*math.Pow(float64(v), 1/2.4) - 0.055
	}
	return uint8(math.Round(s * 255))
}
