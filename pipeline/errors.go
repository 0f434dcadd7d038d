package pipeline

import "errors"

var (
	ErrSamplerNotDefined  = errors.New("pipeline: no sampler defined")
	ErrCameraNotDefined   = errors.New("pipeline: no camera defined")
	ErrMissingSamples     = errors.New("pipeline: no sample buffer supplied")
	ErrResolutionMismatch = errors.New("pipeline: sample buffer resolution does not match the pipeline")
	ErrInvalidSpp         = errors.New("pipeline: samples per pixel must be at least 1")
	ErrInvalidExposure    = errors.New("pipeline: exposure must be positive")
	ErrContextClosed      = errors.New("pipeline: context is closed")
)
