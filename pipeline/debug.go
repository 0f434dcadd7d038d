package pipeline

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/achilleasa/polaris-denoise/compositor"
	"github.com/achilleasa/polaris-denoise/frame"
	"github.com/achilleasa/polaris-denoise/types"
)

// Debug flags.
type DebugFlag uint16

const (
	Off           DebugFlag = 0
	Variance      DebugFlag = 1 << iota
	HistoryLength
	Normals
	Depth
	Accumulated
	Filtered
	FrameBuffer

	AllDebugBuffers = Variance | HistoryLength | Normals | Depth | Accumulated | Filtered | FrameBuffer
)

var debugFlagNames = []struct {
	flag DebugFlag
	name string
}{
	{Variance, "variance"},
	{HistoryLength, "history"},
	{Normals, "normals"},
	{Depth, "depth"},
	{Accumulated, "accumulated"},
	{Filtered, "filtered"},
	{FrameBuffer, "framebuffer"},
}

// Parse a debug buffer name.
func ParseDebugFlag(name string) (DebugFlag, error) {
	if name == "all" {
		return AllDebugBuffers, nil
	}
	for _, entry := range debugFlagNames {
		if entry.name == name {
			return entry.flag, nil
		}
	}
	return Off, fmt.Errorf("pipeline: unknown debug buffer %q", name)
}

// Get the names of all debug buffers.
func DebugFlagNames() []string {
	names := make([]string, len(debugFlagNames))
	for i, entry := range debugFlagNames {
		names[i] = entry.name
	}
	return names
}

// Dump the requested debug buffers for the frame that just completed.
func DebugDump(flags DebugFlag) Stage {
	return func(p *Pipeline) (time.Duration, error) {
		start := time.Now()
		res := p.store.Resolution()
		cur := p.store.Current()
		frameIndex := p.stats.Frame

		for _, entry := range debugFlagNames {
			if flags&entry.flag == 0 {
				continue
			}

			var im image.Image
			switch entry.flag {
			case Variance:
				im = heatmap(res, p.filtered.Variance)
			case HistoryLength:
				values := make([]float32, len(cur.History))
				for i := range cur.History {
					values[i] = float32(cur.History[i].HistoryLength)
				}
				im = heatmap(res, values)
			case Normals:
				im = normalMap(res, cur.Geometry)
			case Depth:
				values := make([]float32, len(cur.Geometry))
				for i := range cur.Geometry {
					if !cur.Geometry[i].IsMiss() {
						values[i] = cur.Geometry[i].Depth
					}
				}
				im = heatmap(res, values)
			case Accumulated:
				img := frame.NewLinearImage(res)
				for i := range cur.History {
					img.Pix[i] = cur.History[i].Diffuse.Add(cur.History[i].Specular)
				}
				im = compositor.Tonemap(img, p.opts.Exposure)
			case Filtered:
				img := frame.NewLinearImage(res)
				for i := range img.Pix {
					img.Pix[i] = p.filtered.Diffuse[i].Add(p.filtered.Specular[i])
				}
				im = compositor.Tonemap(img, p.opts.Exposure)
			case FrameBuffer:
				im = compositor.Tonemap(p.output, p.opts.Exposure)
			}

			imgFile := filepath.Join(p.opts.DebugDir, fmt.Sprintf("debug-%s-%05d.png", entry.name, frameIndex))
			if err := writePNG(imgFile, im); err != nil {
				return time.Since(start), err
			}
		}
		return time.Since(start), nil
	}
}

// Map values to a blue (low) to red (high) heat map normalized by the
// largest finite value.
func heatmap(res frame.Resolution, values []float32) *image.RGBA {
	var maxValue float32
	for _, v := range values {
		if types.IsFinite(v) && v > maxValue {
			maxValue = v
		}
	}

	im := image.NewRGBA(image.Rect(0, 0, int(res.Width), int(res.Height)))
	for i, v := range values {
		var t float64
		if maxValue > 0 && types.IsFinite(v) {
			t = float64(types.Clamp(v/maxValue, 0, 1))
		}
		r, g, b := colorful.Hsv(240*(1-t), 1, 1).Clamped().RGB255()
		setPixel(im, i, r, g, b)
	}
	return im
}

// Map unit normals to RGB; misses stay black.
func normalMap(res frame.Resolution, geometry []frame.GeometrySample) *image.RGBA {
	im := image.NewRGBA(image.Rect(0, 0, int(res.Width), int(res.Height)))
	for i := range geometry {
		if geometry[i].IsMiss() {
			setPixel(im, i, 0, 0, 0)
			continue
		}
		n := geometry[i].Normal.Mul(0.5).Add(types.Vec3{0.5, 0.5, 0.5})
		r, g, b := colorful.Color{R: float64(n[0]), G: float64(n[1]), B: float64(n[2])}.Clamped().RGB255()
		setPixel(im, i, r, g, b)
	}
	return im
}

func setPixel(im *image.RGBA, index int, r, g, b uint8) {
	offset := index * 4
	im.Pix[offset] = r
	im.Pix[offset+1] = g
	im.Pix[offset+2] = b
	im.Pix[offset+3] = 255
}

func writePNG(imgFile string, im image.Image) error {
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, im)
}
