package compositor

import "errors"

var (
	ErrMissingInput       = errors.New("compositor: filtered radiance, samples and output image are required")
	ErrResolutionMismatch = errors.New("compositor: input and output resolutions do not match")
)
