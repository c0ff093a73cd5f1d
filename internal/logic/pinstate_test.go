package logic

import (
	"math/rand"
	"testing"
)

// scriptedLine returns levels in order, repeating the last one.
type scriptedLine struct {
	levels []bool
	i      int
}

func (s *scriptedLine) IsHigh() bool {
	if len(s.levels) == 0 {
		return false
	}
	v := s.levels[s.i]
	if s.i < len(s.levels)-1 {
		s.i++
	}
	return v
}

func line(levels ...bool) *scriptedLine {
	return &scriptedLine{levels: levels}
}

func TestRisingEdge(t *testing.T) {
	p := NewPinState(line(false, true, true, false, true))

	want := []bool{false, true, false, false, true}
	for i, w := range want {
		if got := p.RisingEdge(); got != w {
			t.Errorf("poll %d: expected %v, got %v", i, w, got)
		}
	}
}

func TestFallingEdge(t *testing.T) {
	p := NewPinState(line(true, false, false, true, false))

	want := []bool{false, true, false, false, true}
	for i, w := range want {
		if got := p.FallingEdge(); got != w {
			t.Errorf("poll %d: expected %v, got %v", i, w, got)
		}
	}
}

func TestRisingEdgeOnFirstHighSample(t *testing.T) {
	// Recorded level starts low, so a line that is already high reports an edge once.
	p := NewPinState(line(true, true))

	if !p.RisingEdge() {
		t.Error("expected rising edge on first high sample")
	}
	if p.RisingEdge() {
		t.Error("repeated high sample must not be an edge")
	}
}

func TestFallingEdgeNeedsHighFirst(t *testing.T) {
	p := NewPinState(line(false, false))

	if p.FallingEdge() {
		t.Error("low at startup is not a falling edge")
	}
}

func TestLevelQueriesUpdateRecordedLevel(t *testing.T) {
	// IsHigh observes high, so the following low sample is a falling edge.
	p := NewPinState(line(true, false))
	if !p.IsHigh() {
		t.Fatal("expected high")
	}
	if !p.FallingEdge() {
		t.Error("expected falling edge relative to the IsHigh observation")
	}

	// IsLow observes low, so the following high sample is a rising edge.
	p = NewPinState(line(true, false, true))
	p.IsHigh()
	if !p.IsLow() {
		t.Fatal("expected low")
	}
	if !p.RisingEdge() {
		t.Error("expected rising edge relative to the IsLow observation")
	}
}

func TestEdgesMatchTransitionsForRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for run := 0; run < 50; run++ {
		levels := make([]bool, 200)
		for i := range levels {
			levels[i] = rng.Intn(2) == 1
		}

		rising := NewPinState(line(levels...))
		falling := NewPinState(line(levels...))

		prev := false
		for i, level := range levels {
			wantRise := !prev && level
			wantFall := prev && !level
			if got := rising.RisingEdge(); got != wantRise {
				t.Fatalf("run %d poll %d: rising got %v, want %v", run, i, got, wantRise)
			}
			if got := falling.FallingEdge(); got != wantFall {
				t.Fatalf("run %d poll %d: falling got %v, want %v", run, i, got, wantFall)
			}
			prev = level
		}
	}
}

func TestFallingEdgeIsDualOfRisingEdge(t *testing.T) {
	levels := []bool{true, false, false, true, false, true, true, false}
	inverted := make([]bool, len(levels))
	for i, l := range levels {
		inverted[i] = !l
	}

	// Prime both with the inverse of their first sample so the start is symmetric.
	rising := NewPinState(line(append([]bool{false}, levels...)...))
	falling := NewPinState(line(append([]bool{true}, inverted...)...))
	rising.IsHigh()
	falling.IsHigh()

	for i := range levels {
		r := rising.RisingEdge()
		f := falling.FallingEdge()
		if r != f {
			t.Errorf("poll %d: rising=%v falling(inverted)=%v", i, r, f)
		}
	}
}
