package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"os"
	"sort"
	"time"

	"github.com/achilleasa/polaris-denoise/accumulator"
	"github.com/achilleasa/polaris-denoise/compositor"
	"github.com/achilleasa/polaris-denoise/frame"
	"github.com/achilleasa/polaris-denoise/pipeline"
	"github.com/achilleasa/polaris-denoise/sampler"
	"github.com/achilleasa/polaris-denoise/scene"
	"github.com/achilleasa/polaris-denoise/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
	"gonum.org/v1/gonum/stat"
)

// The outcome of rendering a frame sequence.
type sequence struct {
	stats   []pipeline.FrameStats
	output  *frame.LinearImage
	metrics []pipeline.MetricValue
}

// Render a sequence of frames of the demo scene and write the last one.
func RenderFrames(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := pipelineOptions(ctx)
	if err != nil {
		return err
	}

	seq, err := renderSequence(ctx, opts)
	if err != nil {
		return err
	}

	imgFile := ctx.String("out")
	if err = writeFrame(imgFile, seq.output, opts.Exposure); err != nil {
		return err
	}
	logger.Noticef("wrote frame %d to %s", len(seq.stats)-1, imgFile)

	displayFrameStats(seq.stats)
	displayMetrics(seq.metrics)
	displaySequenceReport(seq)
	return nil
}

// Render the requested number of frames while optionally orbiting the
// camera. History is invalidated whenever the view changes.
func renderSequence(ctx *cli.Context, opts pipeline.Options) (*sequence, error) {
	frames := ctx.Int("frames")
	if frames <= 0 {
		return nil, errors.New("frame count must be positive")
	}

	pctx, err := pipeline.NewContext(ctx.Int("workers"))
	if err != nil {
		return nil, err
	}
	defer pctx.Close()

	sc, err := scene.NewDemoScene(float32(opts.Resolution.Width) / float32(opts.Resolution.Height))
	if err != nil {
		return nil, err
	}

	smp, err := sampler.NewProcedural(pctx.Device, pctx.ComponentLogger("sampler"), sc)
	if err != nil {
		return nil, err
	}

	p, err := pipeline.New(pctx, smp, opts)
	if err != nil {
		return nil, err
	}

	cam := sc.Camera
	orbit := scene.Deg2Rad(float32(ctx.Float64("orbit")))
	seq := &sequence{
		stats: make([]pipeline.FrameStats, 0, frames),
	}

	var prevCam *scene.Camera
	logger.Noticef("rendering %d frames at %s", frames, opts.Resolution)
	for i := 0; i < frames; i++ {
		if i > 0 && orbit != 0 {
			cam.Orbit(orbit)
		}
		if prevCam != nil && !cam.ViewEquals(prevCam) {
			p.Invalidate()
		}
		prevCam = cam.Clone()

		if _, err = p.RenderFrame(cam); err != nil {
			return nil, err
		}
		stats := p.Stats()
		logger.Infof("frame %d: %s (history %d, %s)", stats.Frame, stats.RenderTime, stats.HistoryLength, stats.Phase)
		seq.stats = append(seq.stats, stats)
	}

	seq.output = p.Output()
	if seq.metrics, err = pctx.Metrics.Snapshot(); err != nil {
		return nil, err
	}
	return seq, nil
}

func writeFrame(imgFile string, img *frame.LinearImage, exposure float32) error {
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, compositor.Tonemap(img, exposure))
}

func displayFrameStats(stats []pipeline.FrameStats) {
	stageNames := []string{"sample", "accumulate", "denoise", "composite"}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(append(append([]string{"Frame", "Reset", "History", "Phase", "Rejected"}, stageNames...), "Render time"))

	var total time.Duration
	for _, s := range stats {
		row := []string{
			fmt.Sprintf("%d", s.Frame),
			fmt.Sprintf("%t", s.Reset),
			fmt.Sprintf("%d", s.HistoryLength),
			s.Phase.String(),
			fmt.Sprintf("%d", s.RejectedSamples),
		}
		for _, name := range stageNames {
			row = append(row, s.StageTime(name).String())
		}
		table.Append(append(row, s.RenderTime.String()))
		total += s.RenderTime
	}
	table.SetFooter([]string{"", "", "", "", "", "", "", "", "TOTAL", total.String()})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}

func displayMetrics(metrics []pipeline.MetricValue) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Metric", "Value"})
	for _, m := range metrics {
		table.Append([]string{m.Name, fmt.Sprintf("%g", m.Value)})
	}

	table.Render()
	logger.Noticef("pipeline metrics\n%s", buf.String())
}

// Summarize frame times and the luminance distribution of the final frame.
func displaySequenceReport(seq *sequence) {
	frameTimes := make([]float64, len(seq.stats))
	for i, s := range seq.stats {
		frameTimes[i] = float64(s.RenderTime) / float64(time.Millisecond)
	}
	sort.Float64s(frameTimes)
	meanTime, stdTime := stat.MeanStdDev(frameTimes, nil)
	p95Time := stat.Quantile(0.95, stat.Empirical, frameTimes, nil)

	lum := make([]float64, len(seq.output.Pix))
	for i, v := range seq.output.Pix {
		lum[i] = float64(accumulator.Luminance(v, types.Vec3{}))
	}
	meanLum, stdLum := stat.MeanStdDev(lum, nil)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Quantity", "Mean", "Std dev", "P95"})
	table.Append([]string{
		"frame time (ms)",
		fmt.Sprintf("%.2f", meanTime),
		fmt.Sprintf("%.2f", stdTime),
		fmt.Sprintf("%.2f", p95Time),
	})
	table.Append([]string{
		"output luminance",
		fmt.Sprintf("%.4f", meanLum),
		fmt.Sprintf("%.4f", stdLum),
		"",
	})

	table.Render()
	logger.Noticef("sequence report\n%s", buf.String())
}
