package pipeline

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/achilleasa/polaris-denoise/accumulator"
	"github.com/achilleasa/polaris-denoise/frame"
	"github.com/achilleasa/polaris-denoise/sampler"
	"github.com/achilleasa/polaris-denoise/scene"
	"github.com/achilleasa/polaris-denoise/types"
)

func TestHotPixelIsSuppressed(t *testing.T) {
	res := frame.Resolution{Width: 4, Height: 4}
	opts := DefaultOptions()
	opts.Resolution = res
	opts.Denoise.PassCount = 1
	opts.Denoise.SigmaLuminance = 4

	ctx, p := createTestPipeline(t, nil, opts)
	defer ctx.Close()

	hotX, hotY := 1, 1
	samples := flatSamples(res, func(x, y int) types.Vec3 {
		if x == hotX && y == hotY {
			return types.Vec3{100, 100, 100}
		}
		return types.Vec3{1, 1, 1}
	})

	out, err := p.ProcessFrame(samples)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Stats().Reset {
		t.Fatal("expected the first frame to start from an empty history")
	}

	// Neighbourhood mean of the uniform pixels
	var neighbourMean float32 = 1
	hot := out.At(hotX, hotY)[1]
	if moved := (100 - hot) / (100 - neighbourMean); moved < 0.5 {
		t.Fatalf("expected hot pixel to move at least 50%% toward its neighbours; got %f (%.1f%%)", hot, moved*100)
	}

	// Pixels outside the hot pixel's variance footprint are untouched
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if x <= 2 && y <= 2 {
				continue
			}
			if got := out.At(x, y); !types.ApproxEqual(got, types.Vec3{1, 1, 1}, 0.01) {
				t.Fatalf("pixel (%d, %d): expected flat region to change by less than 1%%; got %v", x, y, got)
			}
		}
	}
}

func TestInvalidateRestartsAccumulation(t *testing.T) {
	res := frame.Resolution{Width: 6, Height: 4}
	opts := DefaultOptions()
	opts.Resolution = res
	opts.Accumulation.HistoryCap = 4

	ctx, p := createTestPipeline(t, nil, opts)
	defer ctx.Close()

	old := flatSamples(res, func(x, y int) types.Vec3 { return types.Vec3{5, 5, 5} })
	for f := 0; f < 6; f++ {
		if _, err := p.ProcessFrame(old); err != nil {
			t.Fatal(err)
		}
	}
	if p.Phase() != accumulator.Converged || p.Stats().HistoryLength != 4 {
		t.Fatalf("expected converged pipeline with history 4; got %s / %d", p.Phase(), p.Stats().HistoryLength)
	}

	p.Invalidate()
	fresh := flatSamples(res, func(x, y int) types.Vec3 { return types.Vec3{0.5, 0.25, 1} })
	out, err := p.ProcessFrame(fresh)
	if err != nil {
		t.Fatal(err)
	}

	stats := p.Stats()
	if !stats.Reset || stats.HistoryLength != 1 || stats.Phase != accumulator.WarmingUp {
		t.Fatalf("expected reset frame with history 1 while warming up; got %+v", stats)
	}
	for i, px := range out.Pix {
		if !types.ApproxEqual(px, types.Vec3{0.5, 0.25, 1}, 1e-5) {
			t.Fatalf("pixel %d: expected stale history to be discarded; got %v", i, px)
		}
	}
}

func TestResizeDiscardsHistory(t *testing.T) {
	opts := DefaultOptions()
	opts.Resolution = frame.Resolution{Width: 4, Height: 4}
	ctx, p := createTestPipeline(t, nil, opts)
	defer ctx.Close()

	samples := flatSamples(opts.Resolution, func(x, y int) types.Vec3 { return types.Vec3{1, 1, 1} })
	for f := 0; f < 3; f++ {
		if _, err := p.ProcessFrame(samples); err != nil {
			t.Fatalf("frame %d: %v", f, err)
		}
	}

	newRes := frame.Resolution{Width: 8, Height: 2}
	if err := p.Resize(newRes); err != nil {
		t.Fatal(err)
	}
	if p.Resolution() != newRes || p.Output().Res != newRes {
		t.Fatalf("expected buffers to be resized to %s", newRes)
	}

	if _, err := p.ProcessFrame(samples); !errors.Is(err, ErrResolutionMismatch) {
		t.Fatalf("expected ErrResolutionMismatch for stale sample buffer; got %v", err)
	}

	samples = flatSamples(newRes, func(x, y int) types.Vec3 { return types.Vec3{2, 2, 2} })
	if _, err := p.ProcessFrame(samples); err != nil {
		t.Fatal(err)
	}
	if !p.Stats().Reset || p.Stats().HistoryLength != 1 {
		t.Fatalf("expected resize to trigger a history reset; got %+v", p.Stats())
	}

	if err := p.Resize(frame.Resolution{}); !errors.Is(err, frame.ErrInvalidResolution) {
		t.Fatalf("expected ErrInvalidResolution; got %v", err)
	}
}

func TestRenderFrameStatsAndMetrics(t *testing.T) {
	opts := DefaultOptions()
	opts.Resolution = frame.Resolution{Width: 16, Height: 12}
	opts.Denoise.PassCount = 3

	scn, err := scene.NewDemoScene(16.0 / 12.0)
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := NewContext(2)
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Close()

	smp, err := sampler.NewProcedural(ctx.Device, ctx.ComponentLogger("sampler"), scn)
	if err != nil {
		t.Fatal(err)
	}
	p, err := New(ctx, smp, opts)
	if err != nil {
		t.Fatal(err)
	}

	if _, err = p.RenderFrame(nil); !errors.Is(err, ErrCameraNotDefined) {
		t.Fatalf("expected ErrCameraNotDefined; got %v", err)
	}

	for f := 0; f < 3; f++ {
		out, err := p.RenderFrame(scn.Camera)
		if err != nil {
			t.Fatal(err)
		}
		for i, px := range out.Pix {
			if !px.IsFinite() {
				t.Fatalf("[frame %d] pixel %d: non-finite output %v", f, i, px)
			}
		}

		stats := p.Stats()
		if stats.Frame != uint64(f) {
			t.Fatalf("[frame %d] expected stats for frame %d; got %d", f, f, stats.Frame)
		}
		expStages := []string{"sample", "accumulate", "denoise", "composite"}
		if len(stats.Stages) != len(expStages) {
			t.Fatalf("[frame %d] expected %d stages; got %+v", f, len(expStages), stats.Stages)
		}
		for i, name := range expStages {
			if stats.Stages[i].Name != name {
				t.Fatalf("[frame %d] expected stage %d to be %q; got %q", f, i, name, stats.Stages[i].Name)
			}
		}
		if stats.RenderTime < stats.StageTime("denoise") {
			t.Fatalf("[frame %d] expected frame time to include stage times", f)
		}
	}

	values, err := ctx.Metrics.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	exp := map[string]float64{
		"denoise_frames_total":                                      3,
		"denoise_history_resets_total":                              1,
		"denoise_history_length":                                    3,
		`denoise_stage_duration_seconds_count{stage="accumulate"}`: 3,
		`denoise_stage_duration_seconds_count{stage="sample"}`:     3,
	}
	found := 0
	for _, v := range values {
		if expValue, ok := exp[v.Name]; ok {
			found++
			if v.Value != expValue {
				t.Fatalf("expected metric %s to be %f; got %f", v.Name, expValue, v.Value)
			}
		}
	}
	if found != len(exp) {
		t.Fatalf("expected %d metrics in snapshot; found %d in %+v", len(exp), found, values)
	}
}

func TestFailedStageForcesReset(t *testing.T) {
	opts := DefaultOptions()
	opts.Resolution = frame.Resolution{Width: 4, Height: 4}
	ctx, p := createTestPipeline(t, nil, opts)
	defer ctx.Close()

	samples := flatSamples(opts.Resolution, func(x, y int) types.Vec3 { return types.Vec3{1, 1, 1} })
	if _, err := p.ProcessFrame(samples); err != nil {
		t.Fatal(err)
	}
	parity := p.History().CurrentIndex()

	stages := DefaultStages(Off)
	stages.PostProcess = []Stage{
		func(*Pipeline) (time.Duration, error) { return 0, errors.New("boom") },
	}
	p.SetStages(stages)

	if _, err := p.ProcessFrame(samples); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected stage error to be returned; got %v", err)
	}
	if p.History().CurrentIndex() != parity {
		t.Fatal("expected parity not to be swapped after a failed frame")
	}
	if !p.State().Dirty() {
		t.Fatal("expected failed frame to request a history reset")
	}
}

func TestDebugDump(t *testing.T) {
	opts := DefaultOptions()
	opts.Resolution = frame.Resolution{Width: 5, Height: 3}
	opts.DebugFlags = AllDebugBuffers
	opts.DebugDir = t.TempDir()

	ctx, p := createTestPipeline(t, nil, opts)
	defer ctx.Close()

	samples := flatSamples(opts.Resolution, func(x, y int) types.Vec3 { return types.Vec3{float32(x), 1, float32(y)} })
	if _, err := p.ProcessFrame(samples); err != nil {
		t.Fatal(err)
	}

	for _, name := range DebugFlagNames() {
		f, err := os.Open(filepath.Join(opts.DebugDir, "debug-"+name+"-00000.png"))
		if err != nil {
			t.Fatalf("expected %s debug buffer to be written: %v", name, err)
		}
		im, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("could not decode %s debug buffer: %v", name, err)
		}
		if b := im.Bounds(); b.Dx() != 5 || b.Dy() != 3 {
			t.Fatalf("expected %s debug buffer to be 5x3; got %v", name, b)
		}
	}

	if _, err := ParseDebugFlag("nope"); err == nil {
		t.Fatal("expected unknown debug buffer name to be rejected")
	}
	if flag, _ := ParseDebugFlag("normals"); flag != Normals {
		t.Fatalf("expected normals flag; got %d", flag)
	}
}

func TestOptionsValidate(t *testing.T) {
	invalid := []func(*Options){
		func(o *Options) { o.Resolution = frame.Resolution{Width: 0, Height: 4} },
		func(o *Options) { o.SamplesPerPixel = 0 },
		func(o *Options) { o.Exposure = 0 },
		func(o *Options) { o.Accumulation.HistoryCap = 0 },
		func(o *Options) { o.Denoise.PassCount = -1 },
	}
	for index, mutate := range invalid {
		opts := DefaultOptions()
		mutate(&opts)
		if err := opts.Validate(); err == nil {
			t.Fatalf("[spec %d] expected options to be rejected", index)
		}
	}
}

func TestIndependentContexts(t *testing.T) {
	a, err := NewContext(1)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := NewContext(1)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if a.ID == b.ID || a.Device == b.Device || a.Metrics.Registry == b.Metrics.Registry {
		t.Fatal("expected contexts to share no state")
	}
}

func createTestPipeline(t *testing.T, smp sampler.Sampler, opts Options) (*Context, *Pipeline) {
	ctx, err := NewContext(2)
	if err != nil {
		t.Fatal(err)
	}
	p, err := New(ctx, smp, opts)
	if err != nil {
		ctx.Close()
		t.Fatal(err)
	}
	return ctx, p
}

// Build a sample buffer for a camera-facing plane with white albedo.
func flatSamples(res frame.Resolution, radiance func(x, y int) types.Vec3) *frame.SampleBuffer {
	buf := frame.NewSampleBuffer(res)
	for y := 0; y < int(res.Height); y++ {
		for x := 0; x < int(res.Width); x++ {
			*buf.At(x, y) = frame.PixelSample{
				DiffuseRadiance: radiance(x, y),
				HitPosition:     types.Vec3{float32(x) * 0.01, 0, float32(y) * 0.01},
				Normal:          types.Vec3{0, 1, 0},
				Depth:           1,
				DiffuseAlbedo:   types.Vec3{1, 1, 1},
			}
		}
	}
	return buf
}
