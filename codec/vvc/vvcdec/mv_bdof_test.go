package vvcdec

import "testing"

func TestBDOFEligibleRejectsAffine(t *testing.T) {
	sps := &SPS{BDOFEnabled: true}
	motion := InterMotion{Dir: PredFlagL0 | PredFlagL1}
	if BDOFEligible(sps, motion, true, [2]bool{false, false}, false, 10, [2]int{8, 12}) {
		t.Fatalf("expected affine CUs to be ineligible for BDOF")
	}
}

func TestBDOFEligibleRequiresEqualDistance(t *testing.T) {
	sps := &SPS{BDOFEnabled: true}
	motion := InterMotion{Dir: PredFlagL0 | PredFlagL1}
	if BDOFEligible(sps, motion, false, [2]bool{false, false}, false, 10, [2]int{8, 11}) {
		t.Fatalf("expected unequal temporal distance to be ineligible")
	}
}

func TestRefineBDOFZeroGradientsReturnsAverage(t *testing.T) {
	g := bdofGradients{
		L0: []int32{100, 200}, L1: []int32{110, 190},
		GradX0: []int32{0, 0}, GradY0: []int32{0, 0},
		GradX1: []int32{0, 0}, GradY1: []int32{0, 0},
		Width: 2, Height: 1,
	}
	out := RefineBDOF(g, 1)
	want := []int32{105, 195}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}
