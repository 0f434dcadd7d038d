package cmd

import (
	"os"
	"strings"

	"github.com/achilleasa/polaris-denoise/pipeline"
	"github.com/urfave/cli"
)

// Render a frame sequence and dump intermediate pipeline buffers for
// every frame.
func Debug(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := pipelineOptions(ctx)
	if err != nil {
		return err
	}

	names := ctx.StringSlice("buffer")
	if len(names) == 0 {
		names = []string{"all"}
	}
	for _, name := range names {
		flag, err := pipeline.ParseDebugFlag(name)
		if err != nil {
			return err
		}
		opts.DebugFlags |= flag
	}

	opts.DebugDir = ctx.String("dir")
	if err = os.MkdirAll(opts.DebugDir, 0755); err != nil {
		return err
	}

	seq, err := renderSequence(ctx, opts)
	if err != nil {
		return err
	}
	logger.Noticef("dumped debug buffers [%s] for %d frames to %s", strings.Join(names, ", "), len(seq.stats), opts.DebugDir)

	displayFrameStats(seq.stats)
	return nil
}
