package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/polaris-denoise/compute"
	"github.com/urfave/cli"
)

// List the compute device that the pipeline would run on.
func ListDevices(ctx *cli.Context) error {
	setupLogging(ctx)

	dev := compute.NewDevice("cpu", ctx.Int("workers"))
	if err := dev.Init(); err != nil {
		return err
	}
	defer dev.Close()

	var buf bytes.Buffer
	buf.WriteString("\nSystem provides 1 compute device:\n\n")
	buf.WriteString(fmt.Sprintf("[Device 00]\n%s\n", dev.Info()))

	logger.Notice(buf.String())
	return nil
}
