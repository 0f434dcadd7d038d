package compute

import (
	"fmt"
	"runtime"
)

// Information about the host and a compute device running on it.
type Info struct {
	Name       string
	Workers    int
	NumCPU     int
	GoMaxProcs int
	GOOS       string
	GOARCH     string
}

// Implements Stringer.
func (i Info) String() string {
	return fmt.Sprintf(
		"Name: %s\nWorkers: %d\nHost: %s/%s, %d CPUs, GOMAXPROCS=%d",
		i.Name,
		i.Workers,
		i.GOOS,
		i.GOARCH,
		i.NumCPU,
		i.GoMaxProcs,
	)
}

// Get information about this device.
func (d *Device) Info() Info {
	return Info{
		Name:       d.Name,
		Workers:    d.numWorkers,
		NumCPU:     runtime.NumCPU(),
		GoMaxProcs: runtime.GOMAXPROCS(0),
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
	}
}
