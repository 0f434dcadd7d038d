package pipeline

import (
	"time"

	"github.com/achilleasa/polaris-denoise/accumulator"
)

type StageStat struct {
	// The stage name.
	Name string

	// Time spent executing the stage.
	Time time.Duration
}

type FrameStats struct {
	// Frame counter value when the frame started.
	Frame uint64

	// True if accumulated history was discarded this frame.
	Reset bool

	// History length and convergence phase after the frame.
	HistoryLength uint32
	Phase         accumulator.Phase

	// Number of non-finite samples rejected by the accumulator.
	RejectedSamples int

	// Individual stage stats in execution order.
	Stages []StageStat

	// Total render time for entire frame.
	RenderTime time.Duration
}

// Get the time spent in the named stage.
func (s FrameStats) StageTime(name string) time.Duration {
	for _, stage := range s.Stages {
		if stage.Name == name {
			return stage.Time
		}
	}
	return 0
}
