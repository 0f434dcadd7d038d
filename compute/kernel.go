package compute

import (
	"fmt"
	"time"
)

// A kernel function invoked once per work item of a 1D range.
type Func1D func(index int)

// A kernel function invoked once per work item of a 2D range.
type Func2D func(x, y int)

// A named kernel bound to a device. Kernel arguments are captured by the
// kernel function's closure; callers update them before each Exec call.
type Kernel struct {
	device *Device
	name   string

	fn1D Func1D
	fn2D Func2D
}

// Create a kernel that operates on a 1D work range.
func (d *Device) Kernel1D(name string, fn Func1D) *Kernel {
	return &Kernel{device: d, name: name, fn1D: fn}
}

// Create a kernel that operates on a 2D work range.
func (d *Device) Kernel2D(name string, fn Func2D) *Kernel {
	return &Kernel{device: d, name: name, fn2D: fn}
}

// Get kernel name.
func (k *Kernel) Name() string {
	return k.name
}

// Execute 1D kernel over [offset, offset+globalWorkSize). The range is split
// into chunks of localWorkSize items; if localWorkSize is 0 the device picks
// a chunk size based on its worker count.
func (k *Kernel) Exec1D(offset, globalWorkSize, localWorkSize int) (time.Duration, error) {
	if k.fn1D == nil {
		return 0, fmt.Errorf("%w: kernel %s is not a 1D kernel", ErrKernelDimensions, k.name)
	}
	if offset < 0 || globalWorkSize < 0 || localWorkSize < 0 {
		return 0, fmt.Errorf("%w: kernel %s offset=%d global=%d local=%d", ErrInvalidWorkSize, k.name, offset, globalWorkSize, localWorkSize)
	}
	if globalWorkSize == 0 {
		return 0, nil
	}
	if localWorkSize == 0 {
		localWorkSize = k.autoChunk(globalWorkSize)
	}

	items := make([]func(), 0, (globalWorkSize+localWorkSize-1)/localWorkSize)
	end := offset + globalWorkSize
	for start := offset; start < end; start += localWorkSize {
		from, to := start, start+localWorkSize
		if to > end {
			to = end
		}
		items = append(items, func() {
			for index := from; index < to; index++ {
				k.fn1D(index)
			}
		})
	}

	tick := time.Now()
	if err := k.device.dispatch(items); err != nil {
		return 0, fmt.Errorf("kernel %s: %w", k.name, err)
	}
	return time.Since(tick), nil
}

// Execute 2D kernel over the rectangle starting at (offsetX, offsetY). Work
// is split into tiles of localWorkSizeX x localWorkSizeY items. If either
// local size is 0, tiles span full rows and the device picks the number of
// rows per tile.
func (k *Kernel) Exec2D(offsetX, offsetY, globalWorkSizeX, globalWorkSizeY, localWorkSizeX, localWorkSizeY int) (time.Duration, error) {
	if k.fn2D == nil {
		return 0, fmt.Errorf("%w: kernel %s is not a 2D kernel", ErrKernelDimensions, k.name)
	}
	if offsetX < 0 || offsetY < 0 || globalWorkSizeX < 0 || globalWorkSizeY < 0 || localWorkSizeX < 0 || localWorkSizeY < 0 {
		return 0, fmt.Errorf(
			"%w: kernel %s offset=(%d, %d) global=(%d, %d) local=(%d, %d)",
			ErrInvalidWorkSize, k.name, offsetX, offsetY, globalWorkSizeX, globalWorkSizeY, localWorkSizeX, localWorkSizeY,
		)
	}
	if globalWorkSizeX == 0 || globalWorkSizeY == 0 {
		return 0, nil
	}
	if localWorkSizeX == 0 || localWorkSizeY == 0 {
		localWorkSizeX = globalWorkSizeX
		localWorkSizeY = k.autoChunk(globalWorkSizeY)
	}

	endX, endY := offsetX+globalWorkSizeX, offsetY+globalWorkSizeY
	items := make([]func(), 0)
	for tileY := offsetY; tileY < endY; tileY += localWorkSizeY {
		for tileX := offsetX; tileX < endX; tileX += localWorkSizeX {
			x0, y0 := tileX, tileY
			x1, y1 := min(x0+localWorkSizeX, endX), min(y0+localWorkSizeY, endY)
			items = append(items, func() {
				for y := y0; y < y1; y++ {
					for x := x0; x < x1; x++ {
						k.fn2D(x, y)
					}
				}
			})
		}
	}

	tick := time.Now()
	if err := k.device.dispatch(items); err != nil {
		return 0, fmt.Errorf("kernel %s: %w", k.name, err)
	}
	return time.Since(tick), nil
}

// Pick a chunk size that yields a few work items per worker.
func (k *Kernel) autoChunk(workSize int) int {
	chunks := k.device.numWorkers * workItemsPerWorker
	chunk := (workSize + chunks - 1) / chunks
	if chunk < 1 {
		chunk = 1
	}
	return chunk
}
