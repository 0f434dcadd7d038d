package frame

import "errors"

var (
	ErrInvalidResolution = errors.New("frame: resolution must be non-zero in both dimensions")
	ErrNotAllocated      = errors.New("frame: history store not allocated")
)
