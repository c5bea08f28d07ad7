/*
DESCRIPTION
  mv_amvp.go provides AMVP candidate-list construction and MVD application,
 

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

var errUnaryOverflow = errors.New("vvcdec: unary-coded value exceeded sanity bound")

// DeriveAMVP parses inter_pred_idc/ref_idx/mvd/mvp_flag and resolves the
// AMVP predictor for each active list
func (m *MVEngine) DeriveAMVP(w *TreeWalker, cu *CodingUnit) error {
	biAllowed := m.sh.Type == SliceB && cu.Width+cu.Height >= 12
	predL0 := true
	predL1 := false
	if biAllowed {
		predL0 = w.bins.bin(19) == 1
		if !predL0 {
			predL1 = true
		} else {
			predL1 = w.bins.bin(20) == 1
		}
	} else if m.sh.Type != SliceI {
		predL1 = false
	}

	var motion InterMotion
	motion.RefIdx = [2]int{-1, -1}

	if predL0 {
		refIdx, mv, err := m.amvpOneList(w, cu, 0)
		if err != nil {
			return err
		}
		motion.Dir |= PredFlagL0
		motion.RefIdx[0] = refIdx
		motion.MV[0] = mv
	}
	if predL1 {
		refIdx, mv, err := m.amvpOneList(w, cu, 1)
		if err != nil {
			return err
		}
		motion.Dir |= PredFlagL1
		motion.RefIdx[1] = refIdx
		motion.MV[1] = mv
	}

	cu.PU.Inter = motion
	return w.bins.err()
}

// amvpOneList resolves one list's ref_idx, candidate list, mvp_flag, and
// MVD application, with AMVR rounding of both predictor and MVD before
// addition.
func (m *MVEngine) amvpOneList(w *TreeWalker, cu *CodingUnit, list int) (int, Mv, error) {
	numRef := len(m.RefPOC[list])
	refIdx := w.readTruncUnary(numRef - 1)

	cands := m.buildAMVPList(w, cu, list, refIdx)
	mvpIdx := w.bins.bin(21)
	if mvpIdx >= len(cands) {
		mvpIdx = len(cands) - 1
	}
	mvp := cands[mvpIdx]

	mvd := m.readMVD(w)

	shift := uint(0)
	if w.sh.AMVREnabled {
		shift = 2 // quarter-pel to integer-pel shift; the 4-pel (AMVR "2") step is the default non-affine case.
	}
	if shift > 0 {
		mvp = roundMv(mvp, shift, shift)
		mvd = roundMv(mvd, shift, shift)
	}
	return refIdx, clipMv(mvp.Add(mvd)), nil
}

// buildAMVPList builds an AMVP candidate list: spatial {A0,A1} then
// {B0,B1,B2} same-list-first then cross-list (no scaling), deduped A
// against B; temporal via the TMVP mechanism if still short; history up
// to 4 entries both lists same-POC match; zero if still short.
func (m *MVEngine) buildAMVPList(w *TreeWalker, cu *CodingUnit, list, refIdx int) []Mv {
	o := w.Oracle((cu.X / w.sps.CTUSize) * w.sps.CTUSize)
	wantPOC := -1
	if refIdx < len(m.RefPOC[list]) {
		wantPOC = m.RefPOC[list][refIdx]
	}

	var cands []Mv
	sideA := func() (Mv, bool) {
		for _, pos := range [2]NeighbourPos{PosA0, PosA1} {
			if !o.AvailableForMerge(cu.X, cu.Y, cu.Width, cu.Height, pos, false) {
				continue
			}
			dx, dy := pos.offset(cu.Width, cu.Height)
			f := w.pic.MvFieldAt(cu.X+dx, cu.Y+dy)
			if mv, ok := sameRefMV(f, list, wantPOC, m.RefPOC); ok {
				return mv, true
			}
		}
		return Mv{}, false
	}
	sideB := func() (Mv, bool) {
		for _, pos := range [3]NeighbourPos{PosB0, PosB1, PosB2} {
			if !o.AvailableForMerge(cu.X, cu.Y, cu.Width, cu.Height, pos, false) {
				continue
			}
			dx, dy := pos.offset(cu.Width, cu.Height)
			f := w.pic.MvFieldAt(cu.X+dx, cu.Y+dy)
			if mv, ok := sameRefMV(f, list, wantPOC, m.RefPOC); ok {
				return mv, true
			}
		}
		return Mv{}, false
	}

	a, hasA := sideA()
	if hasA {
		cands = append(cands, a)
	}
	if b, hasB := sideB(); hasB && (!hasA || b != a) {
		cands = append(cands, b)
	}

	if len(cands) < 2 {
		if f, ok := m.temporalCandidate(cu); ok && f.PredFlag&(PredFlagL0<<uint(list)) != 0 {
			cands = append(cands, f.MV[list])
		}
	}

	if len(cands) < 2 {
		for _, f := range w.entry.HMVP.Newest() {
			if len(cands) >= 4 {
				break
			}
			if mv, ok := sameRefMV(f, list, wantPOC, m.RefPOC); ok {
				cands = append(cands, mv)
			}
		}
	}

	for len(cands) < 2 {
		cands = append(cands, Mv{})
	}
	return cands
}

// sameRefMV returns f's motion for list l if it references the same POC
// as wantPOC (checked in both its own list and, failing that, the other
// list, matching AMVP's "same-list first then cross-list" rule), without
// any scaling.
func sameRefMV(f MvField, list, wantPOC int, refPOC [2][]int) (Mv, bool) {
	if f.PredFlag&(PredFlagL0<<uint(list)) != 0 && f.RefIdx[list] < len(refPOC[list]) && refPOC[list][f.RefIdx[list]] == wantPOC {
		return f.MV[list], true
	}
	other := 1 - list
	if f.PredFlag&(PredFlagL0<<uint(other)) != 0 && f.RefIdx[other] < len(refPOC[other]) && refPOC[other][f.RefIdx[other]] == wantPOC {
		return f.MV[other], true
	}
	return Mv{}, false
}

// readMVD parses an abs_mvd_greater0/1_flag + abs_mvd_minus2 + sign pair
// structure for one component pair, per 7.3.8.9.
func (m *MVEngine) readMVD(w *TreeWalker) Mv {
	readComp := func() int32 {
		gt0 := w.bins.bypass()
		if gt0 == 0 {
			return 0
		}
		gt1 := w.bins.bypass()
		mag := int32(1)
		if gt1 == 1 {
			abs := w.readEGk(1)
			mag = abs + 2
		}
		sign := w.bins.bypass()
		if sign == 1 {
			mag = -mag
		}
		return mag
	}
	return Mv{readComp(), readComp()}
}

// readTruncUnary reads a truncated-unary-coded value bounded by max (the
// shape used for ref_idx and other small bounded indices throughout VVC).
func (w *TreeWalker) readTruncUnary(max int) int {
	if max <= 0 {
		return 0
	}
	v := 0
	for v < max && w.bins.bypass() == 1 {
		v++
	}
	return v
}

// readEGk reads a k-th order Exp-Golomb-coded bypass value, the shape used
// for abs_mvd_minus2 and various coefficient remainders.
func (w *TreeWalker) readEGk(k int) int32 {
	leadingZeros := 0
	for w.bins.bypass() == 0 {
		leadingZeros++
		if leadingZeros > 32 {
			w.bins.e = errUnaryOverflow
			return 0
		}
	}
	val := int32(0)
	bits := leadingZeros + k
	for i := 0; i < bits; i++ {
		val = val<<1 | int32(w.bins.bypass())
	}
	return val + int32((1<<uint(leadingZeros))-1)<<uint(k)
}
