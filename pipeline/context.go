package pipeline

import (
	"github.com/google/uuid"

	"github.com/achilleasa/polaris-denoise/compute"
	"github.com/achilleasa/polaris-denoise/log"
)

// Shared resources for a single pipeline instance. A context is built once
// and handed to every component that needs the compute device, a logger or
// the metrics registry.
type Context struct {
	// A unique id for this pipeline instance.
	ID string

	Device  *compute.Device
	Logger  log.Logger
	Metrics *Metrics
}

// Create a context backed by a compute device with the given number of
// workers (0 selects GOMAXPROCS).
func NewContext(workers int) (*Context, error) {
	id := uuid.New().String()
	dev := compute.NewDevice("cpu", workers)
	if err := dev.Init(); err != nil {
		return nil, err
	}

	ctx := &Context{
		ID:      id,
		Device:  dev,
		Logger:  log.NewForInstance("pipeline", id),
		Metrics: NewMetrics(id),
	}
	ctx.Logger.Debugf("created context on %s", dev.Info())
	return ctx, nil
}

// Get a logger for a named component of this instance.
func (c *Context) ComponentLogger(component string) log.Logger {
	return log.NewForInstance(component, c.ID)
}

// Shut down the compute device.
func (c *Context) Close() {
	c.Device.Close()
}
