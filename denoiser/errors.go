package denoiser

import "errors"

var (
	ErrInvalidPassCount  = errors.New("denoiser: pass count must be between 0 and 16")
	ErrInvalidStepSize   = errors.New("denoiser: step sizes must be positive")
	ErrInvalidSigma      = errors.New("denoiser: invalid edge-stopping sigma")
	ErrInvalidRadius     = errors.New("denoiser: variance estimation radius must be between 0 and 3")
	ErrMissingParity     = errors.New("denoiser: no history parity supplied")
	ErrInvalidResolution = errors.New("denoiser: parity resolution is not valid")
)
