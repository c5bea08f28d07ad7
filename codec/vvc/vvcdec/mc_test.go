package vvcdec

import "testing"

func flatPicture(w, h int, val int32) *Picture {
	samples := make([]int32, w*h)
	for i := range samples {
		samples[i] = val
	}
	return &Picture{
		Width: w, Height: h,
		Planes: [3]*Plane{{Width: w, Height: h, Stride: w, Samples: samples}},
	}
}

func TestClampedAtClampsToPlaneBounds(t *testing.T) {
	p := &Plane{Width: 2, Height: 2, Stride: 2, Samples: []int32{1, 2, 3, 4}}
	if got := clampedAt(p, -1, -1); got != 1 {
		t.Fatalf("got %d, want top-left sample 1", got)
	}
	if got := clampedAt(p, 5, 5); got != 4 {
		t.Fatalf("got %d, want bottom-right sample 4", got)
	}
}

func TestInterpolateWholeSampleIsIdentity(t *testing.T) {
	ref := flatPicture(16, 16, 100)
	mc := NewPlaneMotionCompensator(ref, nil)
	out := mc.Interpolate(ref, 0, 4, 4, 4, 4, Mv{}, 8)
	for i, v := range out {
		if v != 100 {
			t.Fatalf("index %d: got %d, want 100 for a whole-sample flat block", i, v)
		}
	}
}

func TestInterpolateNilRefReturnsZeroedBlock(t *testing.T) {
	mc := NewPlaneMotionCompensator(nil, nil)
	out := mc.Interpolate(nil, 0, 0, 0, 4, 4, Mv{}, 8)
	if len(out) != 16 {
		t.Fatalf("got %d samples, want 16", len(out))
	}
	for _, v := range out {
		if v != 0 {
			t.Fatalf("expected a nil reference to produce an all-zero block, got %d", v)
		}
	}
}

func TestBilinearBlockFlatPictureIsUnchanged(t *testing.T) {
	ref := flatPicture(16, 16, 50)
	mc := NewPlaneMotionCompensator(ref, nil)
	out := mc.BilinearBlock(0, Mv{}, 2, 2, 4, 4)
	for i, v := range out {
		if v != 50 {
			t.Fatalf("index %d: got %d, want 50", i, v)
		}
	}
}

func TestBilinearBlockNilRefReturnsZeroedBlock(t *testing.T) {
	mc := NewPlaneMotionCompensator(nil, nil)
	out := mc.BilinearBlock(0, Mv{}, 0, 0, 4, 4)
	for _, v := range out {
		if v != 0 {
			t.Fatalf("expected a nil reference to produce an all-zero block, got %d", v)
		}
	}
}
