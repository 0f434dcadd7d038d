package denoiser

import (
	"fmt"

	"github.com/achilleasa/polaris-denoise/types"
)

const maxPassCount = 16

// Spatial filter settings.
type Config struct {
	// Number of à-trous passes.
	PassCount int

	// Tap spacing for each pass. Passes without an explicit entry use
	// 1 << pass.
	StepSizes []int

	// Edge-stopping parameters.
	SigmaNormal    float32
	SigmaDepth     float32
	SigmaPosition  float32
	SigmaLuminance float32

	// Pixels whose history length is below this threshold get a spatial
	// variance estimate instead of the temporal one.
	VarianceHistoryThreshold uint32

	// Neighbourhood radius for the spatial variance estimate.
	VarianceRadius int
}

// Get the default filter settings.
func DefaultConfig() Config {
	return Config{
		PassCount:                5,
		StepSizes:                []int{1, 2, 4, 8, 16},
		SigmaNormal:              128,
		SigmaDepth:               1,
		SigmaPosition:            1,
		SigmaLuminance:           4,
		VarianceHistoryThreshold: 4,
		VarianceRadius:           1,
	}
}

// Get the tap spacing for the given pass.
func (c Config) StepSize(pass int) int {
	if pass < len(c.StepSizes) {
		return c.StepSizes[pass]
	}
	return 1 << uint(pass)
}

// Get the edge-stopping weights described by this config.
func (c Config) Weights() Weights {
	return Weights{
		SigmaNormal:    c.SigmaNormal,
		SigmaDepth:     c.SigmaDepth,
		SigmaPosition:  c.SigmaPosition,
		SigmaLuminance: c.SigmaLuminance,
	}
}

// Validate settings.
func (c Config) Validate() error {
	if c.PassCount < 0 || c.PassCount > maxPassCount {
		return fmt.Errorf("%w: got %d", ErrInvalidPassCount, c.PassCount)
	}
	for pass := 0; pass < c.PassCount; pass++ {
		if c.StepSize(pass) < 1 {
			return fmt.Errorf("%w: pass %d has step %d", ErrInvalidStepSize, pass, c.StepSize(pass))
		}
	}

	if !types.IsFinite(c.SigmaNormal) || c.SigmaNormal < 0 {
		return fmt.Errorf("%w: normal sigma %f", ErrInvalidSigma, c.SigmaNormal)
	}
	for name, sigma := range map[string]float32{
		"depth":     c.SigmaDepth,
		"position":  c.SigmaPosition,
		"luminance": c.SigmaLuminance,
	} {
		if !types.IsFinite(sigma) || sigma <= 0 {
			return fmt.Errorf("%w: %s sigma %f", ErrInvalidSigma, name, sigma)
		}
	}

	if c.VarianceRadius < 0 || c.VarianceRadius > 3 {
		return fmt.Errorf("%w: got %d", ErrInvalidRadius, c.VarianceRadius)
	}
	return nil
}
