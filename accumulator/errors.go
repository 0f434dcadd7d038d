package accumulator

import "errors"

var (
	ErrInvalidBlendFactor  = errors.New("accumulator: min blend factor must be in [0, 1]")
	ErrInvalidHistoryCap   = errors.New("accumulator: history cap must be at least 1")
	ErrResolutionMismatch  = errors.New("accumulator: sample buffer resolution does not match history store")
	ErrMissingSampleBuffer = errors.New("accumulator: no sample buffer supplied")
)
