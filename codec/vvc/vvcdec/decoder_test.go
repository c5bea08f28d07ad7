package vvcdec

import "testing"

func TestMinInt(t *testing.T) {
	if got := minInt(3, 5); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
	if got := minInt(5, 3); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
}

func TestComponentRectLumaIsIdentity(t *testing.T) {
	sps := &SPS{ChromaFormatIDC: 1}
	x, y, w, h := componentRect(sps, 8, 16, 32, 16, 0)
	if x != 8 || y != 16 || w != 32 || h != 16 {
		t.Fatalf("got (%d,%d,%d,%d), want (8,16,32,16)", x, y, w, h)
	}
}

func TestComponentRectChromaHalvesFor420(t *testing.T) {
	sps := &SPS{ChromaFormatIDC: 1}
	x, y, w, h := componentRect(sps, 8, 16, 32, 16, 1)
	if x != 4 || y != 8 || w != 16 || h != 8 {
		t.Fatalf("got (%d,%d,%d,%d), want (4,8,16,8)", x, y, w, h)
	}
}

func TestComponentRectMonochromeChromaClampsToOne(t *testing.T) {
	sps := &SPS{ChromaFormatIDC: 0}
	_, _, w, h := componentRect(sps, 0, 0, 1, 1, 1)
	if w != 1 || h != 1 {
		t.Fatalf("got (%d,%d), want (1,1) for a degenerate 1x1 block", w, h)
	}
}

func TestMvFieldAtClampedNegativeIsZeroValue(t *testing.T) {
	p := &Plane{Width: 4, Height: 4, Stride: 4, Samples: make([]int32, 16)}
	got := mvFieldAtClamped(p, -1, 0)
	if got.PredFlag != 0 {
		t.Fatalf("got PredFlag %v, want the zero value for an out-of-bounds position", got.PredFlag)
	}
}

func TestMvFieldAtClampedInBoundsReportsIntra(t *testing.T) {
	p := &Plane{Width: 4, Height: 4, Stride: 4, Samples: make([]int32, 16)}
	got := mvFieldAtClamped(p, 0, 0)
	if got.PredFlag != PredFlagIntra {
		t.Fatalf("got PredFlag %v, want PredFlagIntra", got.PredFlag)
	}
}

func TestApplyLMCSInverseIdentityMapperLeavesSamplesUnchanged(t *testing.T) {
	var cw [lmcsNumBins]int32
	for i := range cw {
		cw[i] = 256 / lmcsNumBins
	}
	m := NewLMCSMapper(cw, 8)
	p := &Plane{Width: 2, Height: 1, Stride: 2, Samples: []int32{10, 200}}
	applyLMCSInverse(p, m)
	if p.Samples[0] != 10 || p.Samples[1] != 200 {
		t.Fatalf("got %v, want unchanged samples under an identity LMCS mapping", p.Samples)
	}
}

func TestNewPictureAllocatesChromaSubsampledPlanes(t *testing.T) {
	d := NewDecoder(Config{Logger: dumbLogger{}})
	sps := &SPS{ChromaFormatIDC: 1, Width: 16, Height: 16, MaxDecPicBufferingMinus1: 3}
	pic := d.NewPicture(sps, 0, nil)
	if pic.Planes[0].Width != 16 || pic.Planes[0].Height != 16 {
		t.Fatalf("got luma plane %dx%d, want 16x16", pic.Planes[0].Width, pic.Planes[0].Height)
	}
	if pic.Planes[1].Width != 8 || pic.Planes[1].Height != 8 {
		t.Fatalf("got chroma plane %dx%d, want 8x8 for 4:2:0", pic.Planes[1].Width, pic.Planes[1].Height)
	}
}

func TestDecoderDPBIsLazilySizedFromSPS(t *testing.T) {
	d := NewDecoder(Config{Logger: dumbLogger{}})
	sps := &SPS{MaxDecPicBufferingMinus1: 5}
	dpb := d.DPB(sps)
	if dpb == nil {
		t.Fatalf("expected a non-nil DPB")
	}
	if got := d.DPB(sps); got != dpb {
		t.Fatalf("expected DPB to be memoised across calls")
	}
}
