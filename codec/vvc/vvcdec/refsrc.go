/*
DESCRIPTION
  refsrc.go provides the intra reference-sample source: above/left/corner
  sample rows substituted from the nearest available neighbour per the
  Oracle's availability verdicts, implementing refSampleSource for the
  Prediction Applier.

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

// PlaneRefSource supplies substituted above/left/corner reference samples
// for one CU's intra prediction, reading pic's planes and falling back to
// the nearest previously-substituted sample (or the mid grey level, if
// nothing is available at all) for any position the Oracle rejects.
type PlaneRefSource struct {
	pic      *Picture
	oracle   *Oracle
	x0, y0   int
	w, h     int
	bitDepth int
}

// NewPlaneRefSource returns a reference-sample source scoped to the CU at
// (x0,y0,w,h) in pic, using o to resolve neighbour availability.
func NewPlaneRefSource(pic *Picture, o *Oracle, x0, y0, w, h, bitDepth int) *PlaneRefSource {
	return &PlaneRefSource{pic: pic, oracle: o, x0: x0, y0: y0, w: w, h: h, bitDepth: bitDepth}
}

func (s *PlaneRefSource) mid() int32 { return int32(1 << uint(s.bitDepth-1)) }

func (s *PlaneRefSource) planeOf(plane int) *Plane { return s.pic.Planes[plane] }

// Above returns n samples starting x positions into the row above the CU,
// substituting unavailable samples with the last available one to the
// left, matching the reference-sample substitution process's left-to-right
// above-row sweep.
func (s *PlaneRefSource) Above(plane, x, n int) []int32 {
	p := s.planeOf(plane)
	out := make([]int32, n)
	last := s.mid()
	haveAny := false
	for i := 0; i < n; i++ {
		ax, ay := s.x0+x+i, s.y0-1
		if s.oracle.Available(s.x0, s.y0, s.w, s.h, posFor(x+i-1, -1)) && ax >= 0 && ax < p.Width && ay >= 0 {
			last = p.At(ax, ay)
			haveAny = true
		}
		out[i] = last
	}
	if !haveAny {
		for i := range out {
			out[i] = s.mid()
		}
	}
	return out
}

// Left returns n samples starting y positions down the column left of the
// CU, with the same substitution rule as Above but sweeping top-to-bottom.
func (s *PlaneRefSource) Left(plane, y, n int) []int32 {
	p := s.planeOf(plane)
	out := make([]int32, n)
	last := s.mid()
	haveAny := false
	for i := 0; i < n; i++ {
		lx, ly := s.x0-1, s.y0+y+i
		if s.oracle.Available(s.x0, s.y0, s.w, s.h, posFor(-1, y+i-1)) && lx >= 0 && ly >= 0 && ly < p.Height {
			last = p.At(lx, ly)
			haveAny = true
		}
		out[i] = last
	}
	if !haveAny {
		for i := range out {
			out[i] = s.mid()
		}
	}
	return out
}

// Corner returns the above-left sample, falling back to the first
// available above or left sample per the standard corner substitution
// order.
func (s *PlaneRefSource) Corner(plane int) int32 {
	p := s.planeOf(plane)
	cx, cy := s.x0-1, s.y0-1
	if s.oracle.Available(s.x0, s.y0, s.w, s.h, PosB2) && cx >= 0 && cy >= 0 {
		return p.At(cx, cy)
	}
	above := s.Above(plane, 0, 1)
	if above[0] != s.mid() {
		return above[0]
	}
	return s.Left(plane, 0, 1)[0]
}

// posFor maps a raw (dx,dy) offset back onto the nearest canonical
// NeighbourPos the Oracle understands, since Above/Left sweep sample by
// sample rather than candidate by candidate.
func posFor(dx, dy int) NeighbourPos {
	switch {
	case dy < 0 && dx < 0:
		return PosB2
	case dy < 0:
		return PosB1
	default:
		return PosA1
	}
}
