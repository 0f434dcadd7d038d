package cmd

import (
	"github.com/achilleasa/polaris-denoise/accumulator"
	"github.com/achilleasa/polaris-denoise/denoiser"
	"github.com/achilleasa/polaris-denoise/frame"
	"github.com/achilleasa/polaris-denoise/pipeline"
	"github.com/urfave/cli"
)

// Flags shared by all commands that run the denoising pipeline.
func PipelineFlags() []cli.Flag {
	acc := accumulator.DefaultConfig()
	den := denoiser.DefaultConfig()

	return []cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Value: 512,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 512,
			Usage: "frame height",
		},
		cli.IntFlag{
			Name:  "spp",
			Value: 1,
			Usage: "samples per pixel and frame",
		},
		cli.IntFlag{
			Name:  "frames, n",
			Value: 16,
			Usage: "number of frames to render",
		},
		cli.IntFlag{
			Name:  "workers",
			Value: 0,
			Usage: "number of compute workers (0 = GOMAXPROCS)",
		},
		cli.Float64Flag{
			Name:  "exposure",
			Value: 1.0,
			Usage: "camera exposure for tone-mapping",
		},
		cli.Float64Flag{
			Name:  "orbit",
			Value: 0,
			Usage: "rotate the camera around its target by this many degrees per frame",
		},
		cli.Float64Flag{
			Name:  "min-blend",
			Value: float64(acc.MinBlendFactor),
			Usage: "minimum temporal blend factor (0 = cumulative average)",
		},
		cli.IntFlag{
			Name:  "history-cap",
			Value: int(acc.HistoryCap),
			Usage: "maximum temporal history length",
		},
		cli.IntFlag{
			Name:  "passes",
			Value: den.PassCount,
			Usage: "number of a-trous filter passes",
		},
		cli.IntSliceFlag{
			Name:  "step",
			Value: &cli.IntSlice{},
			Usage: "tap spacing for each filter pass (defaults to 1, 2, 4, ...)",
		},
		cli.Float64Flag{
			Name:  "sigma-normal",
			Value: float64(den.SigmaNormal),
			Usage: "normal edge-stopping exponent",
		},
		cli.Float64Flag{
			Name:  "sigma-depth",
			Value: float64(den.SigmaDepth),
			Usage: "depth edge-stopping scale",
		},
		cli.Float64Flag{
			Name:  "sigma-position",
			Value: float64(den.SigmaPosition),
			Usage: "world position edge-stopping scale",
		},
		cli.Float64Flag{
			Name:  "sigma-luminance",
			Value: float64(den.SigmaLuminance),
			Usage: "luminance edge-stopping scale",
		},
	}
}

// Map command line flags to pipeline options.
func pipelineOptions(ctx *cli.Context) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	opts.Resolution = frame.Resolution{
		Width:  uint32(ctx.Int("width")),
		Height: uint32(ctx.Int("height")),
	}
	opts.SamplesPerPixel = uint32(ctx.Int("spp"))
	opts.Exposure = float32(ctx.Float64("exposure"))

	opts.Accumulation.MinBlendFactor = float32(ctx.Float64("min-blend"))
	opts.Accumulation.HistoryCap = uint32(ctx.Int("history-cap"))

	opts.Denoise.PassCount = ctx.Int("passes")
	if steps := ctx.IntSlice("step"); len(steps) != 0 {
		opts.Denoise.StepSizes = steps
	}
	opts.Denoise.SigmaNormal = float32(ctx.Float64("sigma-normal"))
	opts.Denoise.SigmaDepth = float32(ctx.Float64("sigma-depth"))
	opts.Denoise.SigmaPosition = float32(ctx.Float64("sigma-position"))
	opts.Denoise.SigmaLuminance = float32(ctx.Float64("sigma-luminance"))

	return opts, opts.Validate()
}
