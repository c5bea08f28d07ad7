package vvcdec

import "testing"

func mvf(x, y int32, refIdx int) MvField {
	return MvField{PredFlag: PredFlagL0, MV: [2]Mv{{X: x, Y: y}}, RefIdx: [2]int{refIdx, -1}}
}

func TestHMVPBufferUpdateAndEviction(t *testing.T) {
	var b HMVPBuffer
	for i := int32(0); i < hmvpCapacity+2; i++ {
		b.Update(mvf(i, i, 0))
	}
	if b.Len() != hmvpCapacity {
		t.Fatalf("got Len() %d, want %d", b.Len(), hmvpCapacity)
	}
	// Oldest two entries (0,0) and (1,1) should have been evicted.
	for i := 0; i < b.Len(); i++ {
		if b.At(i).MV[0].X < 2 {
			t.Fatalf("expected eviction of earliest entries, found %v at index %d", b.At(i), i)
		}
	}
}

func TestHMVPBufferUpdateDedupsIdenticalMotion(t *testing.T) {
	var b HMVPBuffer
	b.Update(mvf(1, 1, 0))
	b.Update(mvf(2, 2, 0))
	b.Update(mvf(1, 1, 0)) // re-push identical motion, should move to newest not duplicate.

	if b.Len() != 2 {
		t.Fatalf("got Len() %d, want 2", b.Len())
	}
	newest := b.Newest()
	if newest[0].MV[0].X != 1 || newest[0].MV[0].Y != 1 {
		t.Fatalf("expected re-pushed entry to become newest, got %v", newest[0])
	}
}

func TestHMVPBufferNewestOrder(t *testing.T) {
	var b HMVPBuffer
	b.Update(mvf(1, 1, 0))
	b.Update(mvf(2, 2, 0))
	b.Update(mvf(3, 3, 0))

	newest := b.Newest()
	want := []int32{3, 2, 1}
	for i, w := range want {
		if newest[i].MV[0].X != w {
			t.Fatalf("Newest()[%d].MV[0].X = %d, want %d", i, newest[i].MV[0].X, w)
		}
	}
}

func TestHMVPBufferReset(t *testing.T) {
	var b HMVPBuffer
	b.Update(mvf(1, 1, 0))
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("expected Reset to empty buffer, got Len() %d", b.Len())
	}
}

func TestPalettePredictorPushAndEvict(t *testing.T) {
	p := newPalettePredictor(2)
	p.Push(0, 10)
	p.Push(0, 20)
	p.Push(0, 30)
	if len(p.entries[0]) != 2 {
		t.Fatalf("got %d entries, want 2", len(p.entries[0]))
	}
	if p.entries[0][0] != 20 || p.entries[0][1] != 30 {
		t.Fatalf("got %v, want [20 30]", p.entries[0])
	}
}

func TestEntryPointReset(t *testing.T) {
	e := NewEntryPoint(4)
	e.HMVP.Update(mvf(1, 1, 0))
	e.HMVPIBC.Update(mvf(2, 2, 0))
	e.Palette.Push(0, 5)

	e.Reset()

	if e.HMVP.Len() != 0 || e.HMVPIBC.Len() != 0 || len(e.Palette.entries[0]) != 0 {
		t.Fatalf("expected Reset to clear all entry-point state, got %+v", e)
	}
}
