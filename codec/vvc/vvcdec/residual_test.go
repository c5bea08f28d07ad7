package vvcdec

import "testing"

func TestDiagonalScanOrder4x4CoversAllPositions(t *testing.T) {
	order := diagonalScanOrder4x4()
	seen := make(map[int]bool)
	for _, pos := range order {
		if pos < 0 || pos > 15 {
			t.Fatalf("scan position %d out of range", pos)
		}
		seen[pos] = true
	}
	if len(seen) != 16 {
		t.Fatalf("got %d distinct positions, want 16", len(seen))
	}
	if order[0] != 0 {
		t.Fatalf("expected DC position first, got %d", order[0])
	}
}

func TestResolveChromaQPAppliesOffsetsAndACT(t *testing.T) {
	r := &ResidualParser{pps: &PPS{CbQpOffset: 2, CrQpOffset: -1, ActEnabled: true}}
	cb, cr := r.resolveChromaQP(30)
	if cb != 27 || cr != 24 {
		t.Fatalf("got (%d,%d), want (27,24)", cb, cr)
	}
}

func TestResolveChromaQPWithoutACT(t *testing.T) {
	r := &ResidualParser{pps: &PPS{CbQpOffset: 1, CrQpOffset: 1}}
	cb, cr := r.resolveChromaQP(30)
	if cb != 31 || cr != 31 {
		t.Fatalf("got (%d,%d), want (31,31)", cb, cr)
	}
}

func TestResolveLumaQPWithoutCuQPDeltaReturnsCarriedQP(t *testing.T) {
	r := &ResidualParser{pps: &PPS{CuQPDeltaEnabled: false}, qg: qgState{prevQP: 26}}
	got := r.resolveLumaQP(&CodingUnit{}, &TransformUnit{})
	if got != 26 {
		t.Fatalf("got %d, want 26", got)
	}
}

func TestResetQGStateReseedsFromSliceQP(t *testing.T) {
	r := NewResidualParser(&SPS{}, &PPS{InitQP: 26}, &SliceHeader{SliceQpDelta: 3})
	r.qg.leftQP, r.qg.predicted = 40, true
	r.ResetQGState()
	if r.qg.prevQP != 29 || r.qg.predicted {
		t.Fatalf("got %+v, want prevQP=29, predicted=false", r.qg)
	}
}

func TestSplitIntoTUsSingleWhenWithinMaxTb(t *testing.T) {
	r := &ResidualParser{sps: &SPS{MaxTbSize: 64}}
	cu := &CodingUnit{X: 8, Y: 8, Width: 32, Height: 32}
	tus := r.splitIntoTUs(cu)
	if len(tus) != 1 || tus[0].Width != 32 || tus[0].Height != 32 {
		t.Fatalf("got %+v, want single 32x32 TU", tus)
	}
}

func TestSplitIntoTUsSplitsAboveMaxTb(t *testing.T) {
	r := &ResidualParser{sps: &SPS{MaxTbSize: 32}}
	cu := &CodingUnit{X: 0, Y: 0, Width: 64, Height: 64}
	tus := r.splitIntoTUs(cu)
	if len(tus) != 4 {
		t.Fatalf("got %d TUs, want 4", len(tus))
	}
	for _, tu := range tus {
		if tu.Width > 32 || tu.Height > 32 {
			t.Fatalf("TU %+v exceeds MaxTbSize", tu)
		}
	}
}

func TestSplitIntoTUsSbtVertical(t *testing.T) {
	r := &ResidualParser{sps: &SPS{MaxTbSize: 64}}
	cu := &CodingUnit{X: 0, Y: 0, Width: 16, Height: 8, SbtFlag: true, SbtIdx: 0}
	tus := r.splitIntoTUs(cu)
	if len(tus) != 2 {
		t.Fatalf("got %d TUs, want 2", len(tus))
	}
	if tus[0].Width+tus[1].Width != cu.Width {
		t.Fatalf("expected SBT halves to sum to full width, got %+v", tus)
	}
}
