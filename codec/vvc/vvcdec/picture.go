/*
DESCRIPTION
  picture.go provides the decoded-picture data model: sample planes,
  per-4x4 motion metadata, and reference-marking state.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vvcdec

// FrameFlag is a bitmask of reference/output states a Picture can carry
// simultaneously, matching the reference decoder's VVC_FRAME_FLAG_*
// constants.
type FrameFlag uint8

const (
	FlagOutput FrameFlag = 1 << iota
	FlagShortRef
	FlagLongRef
	FlagBumping
)

// Plane is one sample plane (Y, Cb, or Cr) of a picture, stored as
// row-major samples at whatever bit depth the SPS specifies (values are
// widened to int to avoid depth-specific plumbing through the core).
type Plane struct {
	Width, Height int
	Stride        int
	Samples       []int32
}

// At returns the sample at (x,y). Callers are expected to have validated
// bounds via the Availability Oracle before calling.
func (p *Plane) At(x, y int) int32 { return p.Samples[y*p.Stride+x] }

// Set writes the sample at (x,y).
func (p *Plane) Set(x, y int, v int32) { p.Samples[y*p.Stride+x] = v }

// Picture is one decoded (or in-flight) frame: sample planes, the per-4x4
// MvField grid, the pre-DMVR-refinement mv grid used by spatial candidate
// derivation, and reference bookkeeping. Handles into the DPB are
// index+generation pairs (see DPB.Handle) rather than raw pointers, so
// cyclic current/reference relationships never need special-casing by a
// garbage collector walk — ownership is explicit via bump/unref.
type Picture struct {
	POC    int
	Planes [3]*Plane

	// MvFieldStride is the number of 4x4 units per row; MvFields is
	// row-major over the luma plane at 4x4 granularity.
	MvFieldStride int
	MvFields      []MvField

	// DmvrFields holds pre-refinement MVs for DMVR'd blocks, consulted
	// by spatial MV candidate derivation.
	DmvrFields []MvField

	Flags      FrameFlag
	IsLongTerm bool

	Collocated *Picture // picture used for TMVP in the current slice.

	Width, Height int // luma dimensions, for progress/height checks.

	progress *Progress

	// gen is the DPB slot generation this Picture was allocated under;
	// used by Handle to detect stale references.
	gen int
}

// newPicture allocates a Picture sized for the given SPS, with MvField
// grids pre-allocated and progress counters starting at zero.
func newPicture(width, height, ctuSize int) *Picture {
	mvStride := (width + 3) / 4
	mvRows := (height + 3) / 4
	p := &Picture{
		Width:         width,
		Height:        height,
		MvFieldStride: mvStride,
		MvFields:      make([]MvField, mvStride*mvRows),
		DmvrFields:    make([]MvField, mvStride*mvRows),
		progress:      newProgress(),
	}
	return p
}

// mvIndex returns the MvFields index for the 4x4 unit covering (x,y).
func (p *Picture) mvIndex(x, y int) int {
	return (y/4)*p.MvFieldStride + (x / 4)
}

// MvFieldAt returns the MvField for the 4x4 unit at luma (x,y).
func (p *Picture) MvFieldAt(x, y int) MvField {
	return p.MvFields[p.mvIndex(x, y)]
}

// SetMvFieldRegion fills every 4x4 unit inside the block (x0,y0,w,h) with
// f, enforcing the invariant that every leaf CU fully saturates the grid.
func (p *Picture) SetMvFieldRegion(x0, y0, w, h int, f MvField) {
	for y := y0; y < y0+h; y += 4 {
		row := (y / 4) * p.MvFieldStride
		for x := x0; x < x0+w; x += 4 {
			p.MvFields[row+x/4] = f
		}
	}
}

// Progress exposes the picture's progress protocol to callers outside the
// package (DPB, scheduler glue); most core code should prefer the
// package-level helpers AddListener/ReportProgress below.
func (p *Picture) Progress() *Progress { return p.progress }

// AddListener registers fn to fire once this picture's vp coordinate
// reaches y.
func (p *Picture) AddListener(vp ProgressKind, y int, fn func(cancelled bool)) {
	p.progress.AddListener(vp, y, fn)
}

// ReportProgress advances this picture's vp coordinate to y and wakes
// eligible listeners.
func (p *Picture) ReportProgress(vp ProgressKind, y int) {
	if vp == ProgressPixel && y > p.progress.Y(ProgressMV) {
		// Maintain progress[MV] >= progress[PIXEL] by bringing MV
		// progress along if a caller reports pixel progress ahead of it.
		p.progress.ReportProgress(ProgressMV, y)
	}
	p.progress.ReportProgress(vp, y)
}

// hasFlag reports whether every bit in mask is set in p.Flags.
func (p *Picture) hasFlag(mask FrameFlag) bool { return p.Flags&mask == mask }

// anyFlag reports whether any bit in mask is set in p.Flags.
func (p *Picture) anyFlag(mask FrameFlag) bool { return p.Flags&mask != 0 }
