package compute

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/achilleasa/polaris-denoise/log"
)

// The number of queued work items per worker. Keeping a few items per
// worker in flight hides the channel hand-off latency.
const workItemsPerWorker = 4

// A unit of work scheduled on one of the device workers.
type workItem struct {
	run func()

	// Signaled when run returns.
	done *sync.WaitGroup

	// Receives the recovered value if run panics.
	panicked *panicRecord
}

type panicRecord struct {
	sync.Mutex
	value interface{}
}

// A data-parallel compute device backed by a pool of worker goroutines.
// Kernels submitted to the device are split into work items that execute
// concurrently; every Exec call returns only after all of its items have
// completed, so consecutive Exec calls are separated by a full barrier.
type Device struct {
	logger log.Logger

	sync.Mutex
	wg sync.WaitGroup

	// A name for identifying the device.
	Name string

	// Number of worker goroutines.
	numWorkers int

	// Work item queue.
	workChan chan workItem

	// A channel for signaling the workers to exit.
	closeChan chan struct{}
}

// Create a new device that uses numWorkers goroutines. If numWorkers is
// 0 or negative, GOMAXPROCS is used.
func NewDevice(name string, numWorkers int) *Device {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	return &Device{
		logger:     log.New(fmt.Sprintf("compute device (%s)", name)),
		Name:       name,
		numWorkers: numWorkers,
	}
}

// Get the number of worker goroutines.
func (d *Device) NumWorkers() int {
	return d.numWorkers
}

// Initialize device and start its workers. Calling Init on an already
// initialized device is a no-op.
func (d *Device) Init() error {
	d.Lock()
	defer d.Unlock()

	if d.closeChan != nil {
		return nil
	}

	d.workChan = make(chan workItem, d.numWorkers*workItemsPerWorker)
	d.closeChan = make(chan struct{})

	var started sync.WaitGroup
	started.Add(d.numWorkers)
	d.wg.Add(d.numWorkers)
	for i := 0; i < d.numWorkers; i++ {
		go d.worker(&started)
	}

	// Wait for workers to start
	started.Wait()
	d.logger.Debugf("started %d workers", d.numWorkers)
	return nil
}

// Shutdown device and wait for its workers to exit. Close must not be
// called while an Exec call is in flight.
func (d *Device) Close() {
	d.Lock()
	defer d.Unlock()

	if d.closeChan == nil {
		return
	}

	close(d.closeChan)
	d.wg.Wait()
	d.closeChan = nil
	d.workChan = nil
}

// Check whether the device workers are running.
func (d *Device) Initialized() bool {
	d.Lock()
	defer d.Unlock()
	return d.closeChan != nil
}

func (d *Device) worker(started *sync.WaitGroup) {
	defer d.wg.Done()
	started.Done()

	workChan, closeChan := d.workChan, d.closeChan
	for {
		select {
		case item := <-workChan:
			d.runItem(item)
		case <-closeChan:
			return
		}
	}
}

func (d *Device) runItem(item workItem) {
	defer item.done.Done()
	defer func() {
		if r := recover(); r != nil {
			item.panicked.Lock()
			if item.panicked.value == nil {
				item.panicked.value = r
			}
			item.panicked.Unlock()
		}
	}()
	item.run()
}

// Submit a batch of work items and block until all of them complete. A
// panic inside any item is re-raised on the caller's goroutine once the
// batch has drained.
func (d *Device) dispatch(items []func()) error {
	d.Lock()
	workChan := d.workChan
	d.Unlock()

	if workChan == nil {
		return ErrDeviceNotInitialized
	}

	var done sync.WaitGroup
	record := &panicRecord{}
	done.Add(len(items))
	for _, run := range items {
		workChan <- workItem{run: run, done: &done, panicked: record}
	}
	done.Wait()

	if record.value != nil {
		panic(record.value)
	}
	return nil
}
