package vvcdec

import "testing"

func TestPairwiseAverageRoundsEachDirection(t *testing.T) {
	a := MvField{PredFlag: PredFlagL0, MV: [2]Mv{{X: 1, Y: 1}}, RefIdx: [2]int{0, -1}}
	b := MvField{PredFlag: PredFlagL0, MV: [2]Mv{{X: 4, Y: 4}}, RefIdx: [2]int{0, -1}}

	avg, ok := pairwiseAverage(a, b)
	if !ok {
		t.Fatalf("expected pairwiseAverage to succeed")
	}
	if avg.MV[0] != (Mv{X: 3, Y: 3}) { // (1+4+1)>>1 == 3
		t.Fatalf("got %v, want {3 3}", avg.MV[0])
	}
}

func TestPairwiseAverageFailsWithoutTwoInterCandidates(t *testing.T) {
	a := MvField{PredFlag: PredFlagIntra}
	b := MvField{PredFlag: PredFlagL0, MV: [2]Mv{{X: 4, Y: 4}}, RefIdx: [2]int{0, -1}}
	if _, ok := pairwiseAverage(a, b); ok {
		t.Fatalf("expected failure when one side isn't inter-coded")
	}
}

func TestFillMotionGridIntraSentinel(t *testing.T) {
	sps := &SPS{Width: 32, Height: 32, ChromaFormatIDC: 1, BitDepth: 8}
	pic := newPicture(sps.Width, sps.Height, 32)
	m := &MVEngine{sps: sps}
	cu := &CodingUnit{X: 0, Y: 0, Width: 8, Height: 8, PU: PredictionUnit{Mode: PredModeIntra}}

	if err := m.FillMotionGrid(pic, cu); err != nil {
		t.Fatalf("FillMotionGrid: %v", err)
	}
	f := pic.MvFieldAt(4, 4)
	if f.PredFlag != PredFlagIntra {
		t.Fatalf("got PredFlag %v, want PredFlagIntra", f.PredFlag)
	}
}

func TestFillMotionGridInterCopiesMotion(t *testing.T) {
	sps := &SPS{Width: 32, Height: 32, ChromaFormatIDC: 1, BitDepth: 8}
	pic := newPicture(sps.Width, sps.Height, 32)
	m := &MVEngine{sps: sps}
	cu := &CodingUnit{
		X: 0, Y: 0, Width: 8, Height: 8,
		PU: PredictionUnit{
			Mode: PredModeInter,
			Inter: InterMotion{
				Dir:    PredFlagL0,
				RefIdx: [2]int{2, -1},
				MV:     [2]Mv{{X: 10, Y: -4}},
			},
		},
	}
	if err := m.FillMotionGrid(pic, cu); err != nil {
		t.Fatalf("FillMotionGrid: %v", err)
	}
	f := pic.MvFieldAt(0, 0)
	if f.PredFlag != PredFlagL0 || f.MV[0] != (Mv{X: 10, Y: -4}) || f.RefIdx[0] != 2 {
		t.Fatalf("got %+v, want L0 motion {10 -4} ref 2", f)
	}
}

func TestNewMVEngineCollectsRefPOCsAndLongTerm(t *testing.T) {
	pic := newPicture(16, 16, 16)
	pic.POC = 4
	refs := [2]RefPicList{
		{{Frame: pic, POC: 4, IsLongTerm: true}},
		nil,
	}
	m := NewMVEngine(&SPS{}, &PPS{}, &SliceHeader{}, 8, refs)
	if len(m.RefPOC[0]) != 1 || m.RefPOC[0][0] != 4 {
		t.Fatalf("got RefPOC[0] %v, want [4]", m.RefPOC[0])
	}
	if !m.RefLT[0][0] {
		t.Fatalf("expected RefLT[0][0] to be true")
	}
}
