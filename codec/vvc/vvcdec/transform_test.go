package vvcdec

import "testing"

func TestInverseTransformSkipCopiesCoeffs(t *testing.T) {
	tb := &TransformBlock{Width: 4, Height: 2, Coeffs: []int32{1, 2, 3, 4, 5, 6, 7, 8}}
	got := InverseTransform(tb, 8, true, false)
	for i, v := range got {
		if v != tb.Coeffs[i] {
			t.Fatalf("index %d: got %d, want %d", i, v, tb.Coeffs[i])
		}
	}
}

func TestInverseTransformZeroCoeffsProducesZeroResidual(t *testing.T) {
	tb := &TransformBlock{Width: 4, Height: 4, Coeffs: make([]int32, 16)}
	got := InverseTransform(tb, 8, false, false)
	for i, v := range got {
		if v != 0 {
			t.Fatalf("index %d: got %d, want 0 for an all-zero coefficient block", i, v)
		}
	}
}

func TestInverseTransformEmptyBlockIsNoOp(t *testing.T) {
	tb := &TransformBlock{Width: 0, Height: 0}
	got := InverseTransform(tb, 8, false, false)
	if len(got) != 0 {
		t.Fatalf("got %d samples, want 0", len(got))
	}
}

func TestDctBasisCachesBySize(t *testing.T) {
	a := dctBasis(8, false)
	b := dctBasis(8, false)
	if a != b {
		t.Fatalf("expected dctBasis to return the memoised matrix for the same key")
	}
	c := dctBasis(8, true)
	if a == c {
		t.Fatalf("expected distinct DCT and DST bases for the same size")
	}
}

func TestAddResidualClipsToRange(t *testing.T) {
	p := &Plane{Width: 2, Height: 1, Stride: 2, Samples: []int32{250, 10}}
	AddResidual(p, 0, 0, 2, 1, []int32{100, -100}, 255)
	if p.Samples[0] != 255 {
		t.Fatalf("got %d, want clip to 255", p.Samples[0])
	}
	if p.Samples[1] != 0 {
		t.Fatalf("got %d, want clip to 0", p.Samples[1])
	}
}
