package vvcdec

import "testing"

type fakeCULookup struct {
	parsed map[[2]int]PredMode
}

func (f *fakeCULookup) ParsedAt(x, y int) (bool, PredMode, int, int, int, int) {
	mode, ok := f.parsed[[2]int{x, y}]
	return ok, mode, 0, 0, 0, 0
}

func newTestOracle(sps *SPS, cus cuLookup) *Oracle {
	pps := &PPS{}
	sh := &SliceHeader{}
	return NewOracle(sps, pps, sh, cus, 0, 0, 0, 0)
}

func TestOracleUnavailableOutsidePicture(t *testing.T) {
	sps := &SPS{Width: 64, Height: 64, CTUSize: 64}
	o := newTestOracle(sps, &fakeCULookup{parsed: map[[2]int]PredMode{}})
	// B2 of a CU at (0,0) lies at (-1,-1), outside the picture.
	if o.Available(0, 0, 8, 8, PosB2) {
		t.Fatalf("expected B2 at picture origin to be unavailable")
	}
}

func TestOracleUnavailableIfNotYetParsed(t *testing.T) {
	sps := &SPS{Width: 64, Height: 64, CTUSize: 64}
	o := newTestOracle(sps, &fakeCULookup{parsed: map[[2]int]PredMode{}})
	if o.Available(8, 8, 8, 8, PosA1) {
		t.Fatalf("expected A1 to be unavailable when not yet parsed")
	}
}

func TestOracleAvailableWhenParsedAndInBounds(t *testing.T) {
	sps := &SPS{Width: 64, Height: 64, CTUSize: 64}
	cus := &fakeCULookup{parsed: map[[2]int]PredMode{{7, 15}: PredModeInter}}
	o := newTestOracle(sps, cus)
	if !o.Available(8, 8, 8, 8, PosA1) {
		t.Fatalf("expected A1 to be available once parsed")
	}
}

func TestOracleEntropySyncWavefrontRestriction(t *testing.T) {
	sps := &SPS{Width: 256, Height: 256, CTUSize: 64, EntropyCodingSyncEnabled: true}
	// B0 of a block at (64,8) sized 8x8 lies at (72,7), CTB x=64, equal to
	// current CTB x (64) so it should be allowed.
	cus := &fakeCULookup{parsed: map[[2]int]PredMode{{72, 7}: PredModeInter}}
	o := NewOracle(sps, &PPS{}, &SliceHeader{}, cus, 64, 0, 0, 0)
	if !o.Available(64, 8, 8, 8, PosB0) {
		t.Fatalf("expected same-CTB-x neighbour to be available under wavefront restriction")
	}

	// A B0 candidate from a CTB to the right of the current one must be
	// rejected even if otherwise parsed.
	cus2 := &fakeCULookup{parsed: map[[2]int]PredMode{{136, 7}: PredModeInter}}
	o2 := NewOracle(sps, &PPS{}, &SliceHeader{}, cus2, 64, 0, 0, 0)
	if o2.Available(64, 8, 8, 8, PosB0) {
		// B0 here only reaches +w so this case wouldn't actually cross CTBs
		// for an 8x8 block; construct a case that does with a 64-wide CU.
	}
	cus3 := &fakeCULookup{parsed: map[[2]int]PredMode{{128, 63}: PredModeInter}}
	o3 := NewOracle(sps, &PPS{}, &SliceHeader{}, cus3, 64, 0, 0, 0)
	if o3.Available(64, 64, 64, 64, PosB0) {
		t.Fatalf("expected neighbour from a later CTB column to be unavailable under wavefront restriction")
	}
}

func TestOracleVirtualBoundaryBlocksAvailability(t *testing.T) {
	sps := &SPS{Width: 64, Height: 64, CTUSize: 64}
	cus := &fakeCULookup{parsed: map[[2]int]PredMode{{7, 15}: PredModeInter}}
	pps := &PPS{VirtualBoundaries: []int{8}}
	o := NewOracle(sps, pps, &SliceHeader{}, cus, 0, 0, 0, 0)
	if o.Available(8, 8, 8, 8, PosA1) {
		t.Fatalf("expected neighbour across a virtual boundary to be unavailable")
	}
}

func TestAvailableForMergeRequiresMatchingPredMode(t *testing.T) {
	sps := &SPS{Width: 64, Height: 64, CTUSize: 64}
	cus := &fakeCULookup{parsed: map[[2]int]PredMode{{7, 15}: PredModeIntra}}
	o := newTestOracle(sps, cus)
	if o.AvailableForMerge(8, 8, 8, 8, PosA1, false) {
		t.Fatalf("expected intra neighbour to be rejected as an inter merge candidate")
	}
}

func TestSameMER(t *testing.T) {
	if !SameMER(4, 4, 6, 6, 2) {
		t.Fatalf("expected (4,4) and (6,6) to share a MER at log2level=2")
	}
	if SameMER(3, 3, 4, 4, 2) {
		t.Fatalf("expected (3,3) and (4,4) to be in different MERs at log2level=2")
	}
}
