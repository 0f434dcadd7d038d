package compute

import "errors"

var (
	ErrDeviceNotInitialized = errors.New("compute device: device not initialized or already closed")
	ErrInvalidWorkSize      = errors.New("compute device: invalid work size")
	ErrKernelDimensions     = errors.New("compute device: kernel dimensions do not match exec call")
)
