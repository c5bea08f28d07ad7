/*
DESCRIPTION
  availability.go provides the neighbour availability oracle: given a CU
  position, reports which neighbouring spatial candidates are usable,
  respecting CTB, tile, slice, subpicture and virtual boundaries.

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

// NeighbourPos enumerates the spatial candidate positions. The constant
// order is not a search order; each candidate list walks them in its own.
type NeighbourPos int

const (
	PosA0 NeighbourPos = iota
	PosA1
	PosA2
	PosB0
	PosB1
	PosB2
	PosB3
)

// offset returns the (dx,dy) sample displacement of pos relative to the
// top-left of a wxh block, per the standard neighbour-position geometry.
func (pos NeighbourPos) offset(w, h int) (dx, dy int) {
	switch pos {
	case PosA0:
		return -1, h
	case PosA1:
		return -1, h - 1
	case PosA2:
		return -1, -1
	case PosB0:
		return w, -1
	case PosB1:
		return w - 1, -1
	case PosB2:
		return -1, -1
	case PosB3:
		return 0, -1
	}
	return 0, 0
}

// cuLookup is the minimal per-position information the Oracle needs about
// a previously-parsed block in order to answer availability/merge-list
// queries, supplied by the tree walker as it parses.
type cuLookup interface {
	// ParsedAt reports whether the 4x4-aligned position (x,y) has been
	// parsed yet (in raster/CTU scan order) and, if so, its pred mode and
	// owning CTB/tile/slice/subpic identifiers.
	ParsedAt(x, y int) (parsed bool, predMode PredMode, ctbX, tileIdx, sliceIdx, subpicIdx int)
}

// Oracle answers neighbour-availability and MER-equivalence queries for
// one slice
type Oracle struct {
	sps *SPS
	sh  *SliceHeader
	cus cuLookup

	ctbX, tileIdx, sliceIdx, subpicIdx int // identifiers of the *current* CU's CTB row context.

	virtBoundariesX, virtBoundariesY []int
}

// NewOracle returns an Oracle scoped to one slice's boundary configuration.
func NewOracle(sps *SPS, pps *PPS, sh *SliceHeader, cus cuLookup, ctbX, tileIdx, sliceIdx, subpicIdx int) *Oracle {
	return &Oracle{
		sps: sps, sh: sh, cus: cus,
		ctbX: ctbX, tileIdx: tileIdx, sliceIdx: sliceIdx, subpicIdx: subpicIdx,
		virtBoundariesX: pps.VirtualBoundaries,
	}
}

// Available reports whether the neighbour at pos relative to the wxh block
// at (x0,y0) can be used as a spatial candidate: it must exist in picture
// bounds, obey the entropy-sync wavefront restriction, share tile/slice/
// subpicture identity (or be a legal cross-boundary read per the relevant
// enable flags, which this simplified oracle treats as disabled across
// boundaries), sit on the legal side of any virtual boundary, and already
// have been parsed.
func (o *Oracle) Available(x0, y0, w, h int, pos NeighbourPos) bool {
	dx, dy := pos.offset(w, h)
	x, y := x0+dx, y0+dy

	if x < 0 || y < 0 || x >= o.sps.Width || y >= o.sps.Height {
		return false
	}

	// Entropy-sync wavefront restriction: A/B candidates must come from a
	// CTB whose x is <= the current CTB's x.
	if o.sps.EntropyCodingSyncEnabled {
		nbCtbX := (x / o.sps.CTUSize) * o.sps.CTUSize
		if nbCtbX > o.ctbX {
			return false
		}
	}

	if o.cus == nil {
		return false
	}
	parsed, predMode, ctbX, tileIdx, sliceIdx, subpicIdx := o.cus.ParsedAt(x, y)
	if !parsed {
		return false
	}
	if tileIdx != o.tileIdx || sliceIdx != o.sliceIdx || subpicIdx != o.subpicIdx {
		return false
	}
	_ = ctbX
	if o.crossesVirtualBoundary(x0, y0, x, y) {
		return false
	}
	_ = predMode
	return true
}

// AvailableForMerge additionally requires the candidate to be an inter- or
// IBC-coded block, since merge candidates must match pred_mode family.
func (o *Oracle) AvailableForMerge(x0, y0, w, h int, pos NeighbourPos, wantIBC bool) bool {
	if !o.Available(x0, y0, w, h, pos) {
		return false
	}
	dx, dy := pos.offset(w, h)
	_, mode, _, _, _, _ := o.cus.ParsedAt(x0+dx, y0+dy)
	if wantIBC {
		return mode == PredModeIBC
	}
	return mode == PredModeInter
}

// crossesVirtualBoundary reports whether the straight line between
// (x0,y0) and (x,y) crosses a declared virtual boundary, which suppresses
// both availability and in-loop filtering across it.
func (o *Oracle) crossesVirtualBoundary(x0, y0, x, y int) bool {
	for _, vb := range o.virtBoundariesX {
		if (x0 < vb) != (x < vb) {
			return true
		}
	}
	for _, vb := range o.virtBoundariesY {
		if (y0 < vb) != (y < vb) {
			return true
		}
	}
	return false
}

// SameMER reports whether two positions fall in the same Motion Estimation
// Region, i.e. their MER-aligned top-left corners match.
func SameMER(ax, ay, bx, by, log2ParMrgLevel int) bool {
	mask := ^((1 << uint(log2ParMrgLevel)) - 1)
	return (ax&mask) == (bx&mask) && (ay&mask) == (by&mask)
}
