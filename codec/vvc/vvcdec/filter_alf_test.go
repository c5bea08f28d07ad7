package vvcdec

import "testing"

func TestClassifyALFBlockFlatRegionIsLowActivity(t *testing.T) {
	p := plane8(8, 8, func(x, y int) int32 { return 100 })
	class, _ := ClassifyALFBlock(p, 2, 2)
	if class != 0 {
		t.Fatalf("got class %d, want 0 for a flat region", class)
	}
}

func TestClassifyALFBlockHorizontalEdgeFavoursHorizontalTranspose(t *testing.T) {
	p := plane8(8, 8, func(x, y int) int32 {
		if x < 4 {
			return 20
		}
		return 220
	})
	_, transpose := ClassifyALFBlock(p, 2, 2)
	if transpose != 0 {
		t.Fatalf("got transpose %d, want 0 for a strong horizontal gradient", transpose)
	}
}

func TestApplyALFNoOpWithZeroCoefficients(t *testing.T) {
	p := plane8(8, 8, func(x, y int) int32 { return 50 })
	var set ALFFilterSet
	for c := range set.Clip {
		for i := range set.Clip[c] {
			set.Clip[c][i] = 1024
		}
	}
	ApplyALF(p, 2, 2, &set, 0, 0, 1023)
	for y := 2; y < 6; y++ {
		for x := 2; x < 6; x++ {
			if p.At(x, y) != 50 {
				t.Fatalf("expected sample at (%d,%d) unchanged with zero coefficients, got %d", x, y, p.At(x, y))
			}
		}
	}
}

func TestApplyALFCentreTapLeavesSampleUnchanged(t *testing.T) {
	p := plane8(8, 8, func(x, y int) int32 {
		if x == 2 && y == 2 {
			return 50
		}
		return 60
	})
	var set ALFFilterSet
	for c := range set.Clip {
		for i := range set.Clip[c] {
			set.Clip[c][i] = 1024
		}
	}
	set.Coeffs[0][12] = 128 // centre tap, unity weight after >>7 rounding.
	ApplyALF(p, 2, 2, &set, 0, 0, 255)
	if p.At(2, 2) != 50 {
		t.Fatalf("got %d, want unchanged centre sample under a unity self-tap", p.At(2, 2))
	}
}

func TestApplyCCALFRefinesChromaFromLuma(t *testing.T) {
	luma := plane8(8, 8, func(x, y int) int32 { return 100 })
	chroma := plane8(4, 4, func(x, y int) int32 { return 50 })
	var f CCALFFilter
	f.Coeffs[2] = 1024 // centre tap only, weight 1 after >>10.
	ApplyCCALF(chroma, luma, 1, 1, 2, 2, f, 255)
	if chroma.At(1, 1) != 150 {
		t.Fatalf("got %d, want 150", chroma.At(1, 1))
	}
}
