package accumulator

import (
	"sync"
	"sync/atomic"
)

// The convergence phase of the temporal accumulation.
type Phase uint8

const (
	// The history length has not yet reached the configured cap.
	WarmingUp Phase = iota

	// The history length is pinned at the configured cap; the blend
	// factor no longer decreases.
	Converged
)

// Implements Stringer.
func (p Phase) String() string {
	if p == Converged {
		return "converged"
	}
	return "warming up"
}

// Scalar pipeline state shared between the accumulator and the code that
// detects scene or camera changes. Invalidate may be called from any
// goroutine; the flag is consumed by the accumulator once per frame.
type AccumulationState struct {
	dirty atomic.Bool

	mu sync.Mutex

	// Frames processed since the state was created or reset.
	frameCounter uint64

	// Frames accumulated since the last invalidation, capped.
	historyLength uint32
	historyCap    uint32
}

// Create a new accumulation state. The first frame always starts from an
// empty history.
func NewAccumulationState() *AccumulationState {
	s := &AccumulationState{}
	s.dirty.Store(true)
	return s
}

// Request a history reset at the next frame boundary.
func (s *AccumulationState) Invalidate() {
	s.dirty.Store(true)
}

// Check whether a reset is pending.
func (s *AccumulationState) Dirty() bool {
	return s.dirty.Load()
}

// Reset the frame counter and request a history reset.
func (s *AccumulationState) Reset() {
	s.mu.Lock()
	s.frameCounter = 0
	s.historyLength = 0
	s.mu.Unlock()
	s.dirty.Store(true)
}

// Get the number of frames processed since the last Reset.
func (s *AccumulationState) FrameCounter() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameCounter
}

// Get the number of frames accumulated since the last invalidation.
func (s *AccumulationState) HistoryLength() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyLength
}

// Get the current convergence phase.
func (s *AccumulationState) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.historyCap > 0 && s.historyLength >= s.historyCap {
		return Converged
	}
	return WarmingUp
}

// Atomically consume the dirty flag. Returns true if a reset was pending.
func (s *AccumulationState) consumeDirty() bool {
	return s.dirty.Swap(false)
}

// Advance the frame counters after a frame has been accumulated.
func (s *AccumulationState) advance(reset bool, historyCap uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frameCounter++
	s.historyCap = historyCap
	if reset {
		s.historyLength = 0
	}
	if s.historyLength < historyCap {
		s.historyLength++
	}
}
