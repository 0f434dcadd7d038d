package sampler

import "errors"

var (
	ErrSceneNotDefined  = errors.New("sampler: no scene defined")
	ErrCameraNotDefined = errors.New("sampler: no camera defined")
	ErrMissingBuffer    = errors.New("sampler: no sample buffer supplied")
	ErrInvalidSpp       = errors.New("sampler: samples per pixel must be at least 1")
)
