package frame

import (
	"errors"
	"math"
	"testing"
)

func TestHistoryStoreSwap(t *testing.T) {
	s, err := NewHistoryStore(Resolution{4, 3})
	if err != nil {
		t.Fatal(err)
	}

	if s.Current() == s.Previous() {
		t.Fatal("expected current and previous parities to be distinct")
	}

	for frame := 0; frame < 5; frame++ {
		cur, prev := s.Current(), s.Previous()
		if cur.Index == prev.Index {
			t.Fatalf("[frame %d] current and previous share parity %s", frame, cur.Index)
		}
		if len(cur.History) != 12 || len(prev.Geometry) != 12 {
			t.Fatalf("[frame %d] expected 12 cells per grid", frame)
		}

		cur.History[0].HistoryLength = uint32(frame + 1)
		s.Swap()

		// What was written as current must now be visible as previous
		if got := s.Previous().History[0].HistoryLength; got != uint32(frame+1) {
			t.Fatalf("[frame %d] expected previous history length %d; got %d", frame, frame+1, got)
		}
		if s.CurrentIndex() != prev.Index {
			t.Fatalf("[frame %d] expected parity to alternate", frame)
		}
	}
}

func TestHistoryStoreReallocateDiscardsHistory(t *testing.T) {
	s, err := NewHistoryStore(Resolution{2, 2})
	if err != nil {
		t.Fatal(err)
	}
	s.Current().History[3].HistoryLength = 7
	s.Swap()

	if err = s.Allocate(Resolution{3, 2}); err != nil {
		t.Fatal(err)
	}

	if s.CurrentIndex() != ParityEven {
		t.Fatalf("expected reallocation to reset parity to even; got %s", s.CurrentIndex())
	}
	for _, p := range []*Parity{s.Current(), s.Previous()} {
		if len(p.History) != 6 {
			t.Fatalf("expected %s parity to hold 6 cells; got %d", p.Index, len(p.History))
		}
		for i, c := range p.History {
			if c.HistoryLength != 0 {
				t.Fatalf("expected cell %d of %s parity to be reset; got history length %d", i, p.Index, c.HistoryLength)
			}
		}
	}
}

func TestHistoryStoreInvalidResolution(t *testing.T) {
	_, err := NewHistoryStore(Resolution{0, 4})
	if !errors.Is(err, ErrInvalidResolution) {
		t.Fatalf("expected ErrInvalidResolution; got %v", err)
	}
}

func TestHistoryStoreMismatchPanics(t *testing.T) {
	s, err := NewHistoryStore(Resolution{2, 2})
	if err != nil {
		t.Fatal(err)
	}
	s.slots[ParityOdd].History = s.slots[ParityOdd].History[:3]

	defer func() {
		if recover() == nil {
			t.Fatal("expected mismatched parity grids to panic")
		}
	}()
	s.Previous()
}

func TestVarianceNeverNegative(t *testing.T) {
	specs := []HistoryCell{
		{Moment1: 2, Moment2: 4},
		{Moment1: 0.1, Moment2: 0.0099999},
		{Moment1: 3, Moment2: 1},
		{Moment1: float32(math.NaN()), Moment2: 1},
	}

	for index, c := range specs {
		if v := c.Variance(); v < 0 || math.IsNaN(float64(v)) {
			t.Fatalf("[spec %d] expected non-negative variance; got %f", index, v)
		}
	}

	c := HistoryCell{Moment1: 1, Moment2: 3}
	if v := c.Variance(); v != 2 {
		t.Fatalf("expected variance 2; got %f", v)
	}
}

func TestMissDetection(t *testing.T) {
	specs := []struct {
		depth float32
		miss  bool
	}{
		{1, false},
		{0, true},
		{-1, true},
		{float32(math.Inf(1)), true},
		{float32(math.NaN()), true},
	}

	for index, s := range specs {
		sample := PixelSample{Depth: s.depth}
		if sample.IsMiss() != s.miss {
			t.Fatalf("[spec %d] expected IsMiss() for depth %f to be %t", index, s.depth, s.miss)
		}
	}
}
