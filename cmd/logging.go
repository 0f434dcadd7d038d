package cmd

import (
	"github.com/achilleasa/polaris-denoise/log"
	"github.com/urfave/cli"
)

var logger = log.New("polaris-denoise")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
