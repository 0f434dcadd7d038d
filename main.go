package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/achilleasa/polaris-denoise/cmd"
	"github.com/achilleasa/polaris-denoise/pipeline"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "polaris-denoise"
	app.Usage = "denoise path traced frame sequences using temporal accumulation and a-trous filtering"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "list-devices",
			Usage: "list available compute devices",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "workers",
					Value: 0,
					Usage: "number of compute workers (0 = GOMAXPROCS)",
				},
			},
			Action: cmd.ListDevices,
		},
		{
			Name:  "render",
			Usage: "render and denoise a frame sequence",
			Description: `
Trace a sequence of low sample count frames of the built-in demo scene, feed
them through temporal accumulation and the a-trous filter and write the last
composited frame as a PNG image.

Accumulated history is discarded whenever the camera moves (see --orbit).`,
			Flags: append(cmd.PipelineFlags(),
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the last rendered frame",
				},
			),
			Action: cmd.RenderFrames,
		},
		{
			Name:  "debug",
			Usage: "render a frame sequence and dump intermediate buffers",
			Flags: append(cmd.PipelineFlags(),
				cli.StringSliceFlag{
					Name:  "buffer, b",
					Value: &cli.StringSlice{},
					Usage: fmt.Sprintf("debug buffer to dump (%s or all)", strings.Join(pipeline.DebugFlagNames(), ", ")),
				},
				cli.StringFlag{
					Name:  "dir, d",
					Value: "debug",
					Usage: "output folder for debug images",
				},
			),
			Action: cmd.Debug,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
