/*
DESCRIPTION
  mv_merge.go provides the MV Derivation Engine's shared state and the luma
  merge-candidate-list construction of 

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

import "github.com/pkg/errors"

// MVEngine derives motion for merge, AMVP, affine, and IBC CUs against one
// slice's reference picture lists
type MVEngine struct {
	sps *SPS
	pps *PPS
	sh  *SliceHeader

	CurrPOC int
	RefPOC  [2][]int
	RefLT   [2][]bool
	RefPics [2]RefPicList
}

// NewMVEngine returns an engine scoped to one slice.
func NewMVEngine(sps *SPS, pps *PPS, sh *SliceHeader, currPOC int, refLists [2]RefPicList) *MVEngine {
	m := &MVEngine{sps: sps, pps: pps, sh: sh, CurrPOC: currPOC, RefPics: refLists}
	for l := 0; l < 2; l++ {
		for _, e := range refLists[l] {
			m.RefPOC[l] = append(m.RefPOC[l], e.POC)
			m.RefLT[l] = append(m.RefLT[l], e.IsLongTerm)
		}
	}
	return m
}

// DeriveMerge builds the luma merge candidate list and selects cu.PU.MergeIdx
// from it
func (m *MVEngine) DeriveMerge(w *TreeWalker, cu *CodingUnit) error {
	cands := m.buildMergeList(w, cu)
	if len(cands) == 0 {
		return newError(ErrInvalidBitstream, errors.New("empty merge candidate list"))
	}
	idx := cu.PU.MergeIdx
	if idx < 0 || idx >= len(cands) {
		idx = len(cands) - 1
	}
	chosen := cands[idx]

	// Bi-prediction degeneracy: w+h == 12 forces L0-only.
	if chosen.PredFlag.Bi() && cu.Width+cu.Height == 12 {
		chosen.PredFlag &^= PredFlagL1
		chosen.MV[1] = Mv{}
		chosen.RefIdx[1] = -1
	}

	cu.PU.Inter = chosen.ToInterMotion()
	return nil
}

// buildMergeList builds the merge candidate list, filling it with zero
// candidates up to MaxNumMergeCand.
func (m *MVEngine) buildMergeList(w *TreeWalker, cu *CodingUnit) []MvField {
	o := w.Oracle((cu.X / w.sps.CTUSize) * w.sps.CTUSize)
	var list []MvField
	// appendUnique takes the exact neighbour(s) f must be compared against,
	// per 8.5.2.3's nbs[][2] pairing table, rather than scanning the whole
	// accumulated list.
	appendUnique := func(f MvField, cmp ...MvField) {
		for _, c := range cmp {
			if sameMotion(f, c) {
				return
			}
		}
		list = append(list, f)
	}

	spatial := func(pos NeighbourPos) (MvField, bool) {
		if !o.AvailableForMerge(cu.X, cu.Y, cu.Width, cu.Height, pos, false) {
			return MvField{}, false
		}
		dx, dy := pos.offset(cu.Width, cu.Height)
		return w.pic.MvFieldAt(cu.X+dx, cu.Y+dy), true
	}

	// Spatial: B1 unconditionally, then A1<-B1, B0<-B1, A0<-A1, and
	// B2<-{A1,B1} (B2 only considered while fewer than 4 candidates found).
	b1, hasB1 := spatial(PosB1)
	if hasB1 {
		appendUnique(b1)
	}
	a1, hasA1 := spatial(PosA1)
	if hasA1 && len(list) < m.sps.MaxNumMergeCand {
		if hasB1 {
			appendUnique(a1, b1)
		} else {
			appendUnique(a1)
		}
	}
	if len(list) < m.sps.MaxNumMergeCand {
		if b0, ok := spatial(PosB0); ok {
			if hasB1 {
				appendUnique(b0, b1)
			} else {
				appendUnique(b0)
			}
		}
	}
	if len(list) < m.sps.MaxNumMergeCand {
		if a0, ok := spatial(PosA0); ok {
			if hasA1 {
				appendUnique(a0, a1)
			} else {
				appendUnique(a0)
			}
		}
	}
	if len(list) < 4 && len(list) < m.sps.MaxNumMergeCand {
		if b2, ok := spatial(PosB2); ok {
			var cmp []MvField
			if hasA1 {
				cmp = append(cmp, a1)
			}
			if hasB1 {
				cmp = append(cmp, b1)
			}
			appendUnique(b2, cmp...)
		}
	}

	// Temporal (TMVP): bottom-right of collocated CU if in picture, else
	// centre; scaled by POC ratio unless long-term.
	if len(list) < m.sps.MaxNumMergeCand {
		if f, ok := m.temporalCandidate(cu); ok {
			appendUnique(f)
		}
	}

	// History: walk HMVP newest-to-oldest, capped at MaxNumMergeCand-1 so
	// the mandatory pairwise-average candidate below always has its
	// reserved slot. Only the two most recently pushed entries are checked
	// against A1/B1 for duplication (mvs.c's i<=2 in the 1-indexed ring
	// walk); older entries are taken as-is.
	hmvpCap := m.sps.MaxNumMergeCand - 1
	for i, f := range w.entry.HMVP.Newest() {
		if len(list) >= hmvpCap {
			break
		}
		if i < 2 {
			if hasA1 && sameMotion(f, a1) {
				continue
			}
			if hasB1 && sameMotion(f, b1) {
				continue
			}
		}
		appendUnique(f)
	}

	// Pairwise average of the first two entries.
	if len(list) >= 2 && len(list) < m.sps.MaxNumMergeCand {
		if avg, ok := pairwiseAverage(list[0], list[1]); ok {
			appendUnique(avg)
		}
	}

	// Zero motion with sweeping ref_idx until the list is full.
	refIdx := 0
	for len(list) < m.sps.MaxNumMergeCand {
		numL0 := len(m.RefPOC[0])
		numL1 := len(m.RefPOC[1])
		f := MvField{PredFlag: PredFlagL0, RefIdx: [2]int{refIdx % maxInt(numL0, 1), -1}}
		if m.sh.Type == SliceB && numL1 > 0 {
			f.PredFlag |= PredFlagL1
			f.RefIdx[1] = refIdx % numL1
		}
		list = append(list, f)
		refIdx++
		if refIdx > 64 {
			break // defensive bound; MaxNumMergeCand is always small in practice.
		}
	}
	return list
}

// temporalCandidate implements the TMVP lookup shared by merge (4.4.1(2))
// and AMVP (4.4.2): bottom-right of the collocated CU if in-picture, else
// centre, scaled by POC ratio unless either side is long-term.
func (m *MVEngine) temporalCandidate(cu *CodingUnit) (MvField, bool) {
	col := m.collocatedPicture()
	if col == nil {
		return MvField{}, false
	}
	brX, brY := cu.X+cu.Width, cu.Y+cu.Height
	x, y := brX, brY
	if brX >= m.sps.Width || brY >= m.sps.Height {
		x, y = cu.X+cu.Width/2, cu.Y+cu.Height/2
	}
	x -= x % 16
	y -= y % 16

	colMv := col.MvFieldAt(x, y)
	if colMv.PredFlag&(PredFlagL0|PredFlagL1) == 0 {
		return MvField{}, false
	}

	out := MvField{PredFlag: PredFlagL0, RefIdx: [2]int{0, -1}}
	l := 0
	if colMv.PredFlag&PredFlagL0 == 0 {
		l = 1
	}
	mv := roundMv(colMv.MV[l], 4, 4)
	if colIsLongTermAt(col, x, y) || (len(m.RefLT[0]) > 0 && m.RefLT[0][0]) {
		out.MV[0] = clipMv(mv)
	} else {
		ratio := pocScaleFactor(m.CurrPOC, m.RefPOC[0][0], col.POC, colMv.RefIdx[l])
		out.MV[0] = clipMv(mv.Scaled(ratio))
	}

	if m.sh.Type == SliceB && len(m.RefPOC[1]) > 0 {
		out.PredFlag |= PredFlagL1
		out.RefIdx[1] = 0
		if colIsLongTermAt(col, x, y) || (len(m.RefLT[1]) > 0 && m.RefLT[1][0]) {
			out.MV[1] = clipMv(mv)
		} else {
			ratio := pocScaleFactor(m.CurrPOC, m.RefPOC[1][0], col.POC, colMv.RefIdx[l])
			out.MV[1] = clipMv(mv.Scaled(ratio))
		}
	}
	return out, true
}

func (m *MVEngine) collocatedPicture() *Picture {
	list := 0
	if !m.sh.CollocatedFromL0 {
		list = 1
	}
	entries := m.RefPics[list]
	if m.sh.CollocatedRefIdx < 0 || m.sh.CollocatedRefIdx >= len(entries) {
		return nil
	}
	return entries[m.sh.CollocatedRefIdx].Frame
}

// colIsLongTermAt is a narrow accessor kept separate from Picture so the
// temporal scaling logic above reads as a single expression; the
// collocated picture's own long-term status governs TMVP scaling
// regardless of which list the referenced motion came from.
func colIsLongTermAt(col *Picture, x, y int) bool { return col.IsLongTerm }

// pocScaleFactor computes a simplified 8.5.5.3-style distScaleFactor used
// to scale a collocated MV from the collocated picture's own reference
// distance to the current reference distance, given only the pictures'
// POCs (the collocated side's own reference POC is not tracked by this
// engine, so colPOC itself stands in for td per the common case of a
// single-reference-distance GOP structure).
func pocScaleFactor(currPOC, currRefPOC, colPOC, colRefIdx int) int {
	tb := clip3(-128, 127, currPOC-currRefPOC)
	td := clip3(-128, 127, colPOC-currRefPOC)
	if td == 0 {
		return 4096
	}
	tx := (16384 + abs(td)/2) / td
	return clip3(-4096, 4095, (tb*tx+32)>>6)
}

func clip3(lo, hi, v int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// pairwiseAverage implements : average per-direction with
// rounding, ciip_flag=0, bcw_idx=0.
func pairwiseAverage(a, b MvField) (MvField, bool) {
	if a.PredFlag&(PredFlagL0|PredFlagL1) == 0 || b.PredFlag&(PredFlagL0|PredFlagL1) == 0 {
		return MvField{}, false
	}
	out := MvField{RefIdx: [2]int{-1, -1}}
	for l := 0; l < 2; l++ {
		la := a.PredFlag&(PredFlagL0<<uint(l)) != 0
		lb := b.PredFlag&(PredFlagL0<<uint(l)) != 0
		switch {
		case la && lb && a.RefIdx[l] == b.RefIdx[l]:
			out.PredFlag |= PredFlagL0 << uint(l)
			out.RefIdx[l] = a.RefIdx[l]
			out.MV[l] = Mv{(a.MV[l].X + b.MV[l].X + 1) >> 1, (a.MV[l].Y + b.MV[l].Y + 1) >> 1}
		case la:
			out.PredFlag |= PredFlagL0 << uint(l)
			out.RefIdx[l] = a.RefIdx[l]
			out.MV[l] = a.MV[l]
		case lb:
			out.PredFlag |= PredFlagL0 << uint(l)
			out.RefIdx[l] = b.RefIdx[l]
			out.MV[l] = b.MV[l]
		}
	}
	return out, out.PredFlag != 0
}

// FillMotionGrid writes cu's resolved motion (or the appropriate intra/IBC/
// palette sentinel) across its MvField footprint, so every leaf CU fills
// the grid regardless of pred mode and later merge-list construction can
// reject non-inter neighbours.
func (m *MVEngine) FillMotionGrid(pic *Picture, cu *CodingUnit) error {
	var f MvField
	switch cu.PU.Mode {
	case PredModeIntra:
		f = MvField{PredFlag: PredFlagIntra}
	case PredModePalette:
		f = MvField{PredFlag: PredFlagPLT}
	case PredModeIBC:
		f = MvField{PredFlag: PredFlagIBC, MV: [2]Mv{cu.PU.BV}, RefIdx: [2]int{-1, -1}}
	case PredModeInter:
		f = MvField{
			PredFlag:  cu.PU.Inter.Dir,
			MV:        cu.PU.Inter.MV,
			RefIdx:    cu.PU.Inter.RefIdx,
			BcwIdx:    cu.PU.Inter.BcwIdx,
			HpelIfIdx: cu.PU.Inter.HpelIfIdx,
			CiipFlag:  cu.PU.Inter.CiipFlag,
		}
	default:
		return newError(ErrInternal, errors.Errorf("unhandled pred mode %v", cu.PU.Mode))
	}
	pic.SetMvFieldRegion(cu.X, cu.Y, cu.Width, cu.Height, f)
	return nil
}
