package frame

import (
	"fmt"

	"github.com/achilleasa/polaris-denoise/types"
)

// Persisted temporal state for a single pixel.
type HistoryCell struct {
	// Temporally blended radiance.
	Diffuse  types.Vec3
	Specular types.Vec3

	// First and second raw moments of the blended luminance.
	Moment1 float32
	Moment2 float32

	// Number of consecutive frames accumulated since the last reset,
	// capped by the accumulator.
	HistoryLength uint32
}

// Estimate luminance variance from the stored moments. Catastrophic
// cancellation can make m2 - m1² slightly negative; the result is clamped
// to zero.
func (c *HistoryCell) Variance() float32 {
	v := c.Moment2 - c.Moment1*c.Moment1
	if v < 0 || !types.IsFinite(v) {
		return 0
	}
	return v
}

// Selects one of the two buffer generations kept by a HistoryStore.
type ParityIndex uint8

const (
	ParityEven ParityIndex = iota
	ParityOdd
)

// Get the other parity.
func (p ParityIndex) Other() ParityIndex {
	return 1 - p
}

// Implements Stringer.
func (p ParityIndex) String() string {
	if p == ParityEven {
		return "even"
	}
	return "odd"
}

// The per-pixel grids belonging to one buffer generation.
type Parity struct {
	Index ParityIndex
	Res   Resolution

	History  []HistoryCell
	Geometry []GeometrySample
}

func newParity(index ParityIndex, res Resolution) *Parity {
	return &Parity{
		Index:    index,
		Res:      res,
		History:  make([]HistoryCell, res.Pixels()),
		Geometry: make([]GeometrySample, res.Pixels()),
	}
}

// Panic if any grid of this parity does not match res. Mismatched grids
// can only be produced by a programming error.
func (p *Parity) mustMatch(res Resolution) {
	if p.Res != res || len(p.History) != res.Pixels() || len(p.Geometry) != res.Pixels() {
		panic(fmt.Sprintf(
			"frame: %s parity grids (res %s, %d history cells, %d geometry samples) do not match store resolution %s",
			p.Index, p.Res, len(p.History), len(p.Geometry), res,
		))
	}
}

// A two-slot ring of per-pixel history grids. One slot holds the frame
// being written (current) while the other holds the completed previous
// frame; Swap flips the roles at the end of each frame.
type HistoryStore struct {
	res     Resolution
	slots   [2]*Parity
	current ParityIndex
}

// Create a history store and allocate its grids.
func NewHistoryStore(res Resolution) (*HistoryStore, error) {
	s := &HistoryStore{}
	if err := s.Allocate(res); err != nil {
		return nil, err
	}
	return s, nil
}

// Allocate both parities for the given resolution. Any existing history is
// discarded.
func (s *HistoryStore) Allocate(res Resolution) error {
	if !res.Valid() {
		return fmt.Errorf("%w: got %s", ErrInvalidResolution, res)
	}

	s.res = res
	s.slots[ParityEven] = newParity(ParityEven, res)
	s.slots[ParityOdd] = newParity(ParityOdd, res)
	s.current = ParityEven
	return nil
}

// Get the store resolution.
func (s *HistoryStore) Resolution() Resolution {
	return s.res
}

// Get the index of the parity that is written this frame.
func (s *HistoryStore) CurrentIndex() ParityIndex {
	return s.current
}

// Get the parity that is written this frame.
func (s *HistoryStore) Current() *Parity {
	return s.slot(s.current)
}

// Get the parity written by the previous frame.
func (s *HistoryStore) Previous() *Parity {
	return s.slot(s.current.Other())
}

// Flip parities. Must only be called once the current frame has been
// fully consumed.
func (s *HistoryStore) Swap() {
	s.current = s.current.Other()
}

func (s *HistoryStore) slot(index ParityIndex) *Parity {
	p := s.slots[index]
	if p == nil {
		panic(ErrNotAllocated)
	}
	p.mustMatch(s.res)
	return p
}
