/*
DESCRIPTION
  mv_affine.go provides affine merge/AMVP candidate construction and
  per-4x4-subblock motion field derivation

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

// AffineCandidate is one inherited or constructed affine candidate: a
// PredFlag and up to 3 control-point motion vectors.
type AffineCandidate struct {
	PredFlag PredFlag
	RefIdx   [2]int
	CpMV     [2][3]Mv // [list][cp].
	NumCp    int
}

// neighbourCU is the minimal surface the affine deriver needs about a
// previously-parsed CU, supplied by the tree walker's CU index.
type neighbourCU interface {
	AffineAt(x, y int) (cu *CodingUnit, ok bool)
}

// DeriveAffineMerge builds the affine merge candidate list (inherited then
// constructed then zero) and fills cu's per-subblock motion.
func (m *MVEngine) DeriveAffineMerge(w *TreeWalker, cu *CodingUnit, idx int, neigh neighbourCU) error {
	cands := m.buildAffineMergeList(w, cu, neigh)
	if idx >= len(cands) {
		idx = len(cands) - 1
	}
	if idx < 0 {
		cands = append(cands, AffineCandidate{PredFlag: PredFlagL0, NumCp: 2})
		idx = 0
	}
	applyAffineCandidate(cu, cands[idx])
	return m.fillAffineSubblocks(w, cu)
}

func (m *MVEngine) buildAffineMergeList(w *TreeWalker, cu *CodingUnit, neigh neighbourCU) []AffineCandidate {
	o := w.Oracle((cu.X / w.sps.CTUSize) * w.sps.CTUSize)
	var cands []AffineCandidate

	// Inherited: from a neighbouring affine CU, extrapolating CPMVs by the
	// size ratio from the neighbour's stored CPMVs. This also holds for
	// neighbours above a CTU top edge; their bottom-row 4x4 MVs are not used.
	for _, pos := range [5]NeighbourPos{PosA0, PosA1, PosB0, PosB1, PosB2} {
		if neigh == nil || !o.AvailableForMerge(cu.X, cu.Y, cu.Width, cu.Height, pos, false) {
			continue
		}
		dx, dy := pos.offset(cu.Width, cu.Height)
		nb, ok := neigh.AffineAt(cu.X+dx, cu.Y+dy)
		if !ok {
			continue
		}
		cands = append(cands, inheritAffine(nb, cu))
		if len(cands) >= m.sps.MaxNumAffineMergeCand {
			return cands
		}
	}

	// Constructed: mix corner candidates cp0..cp3 (cp3 from TMVP).
	if len(cands) < m.sps.MaxNumAffineMergeCand {
		if c, ok := m.constructedAffine(w, cu); ok {
			cands = append(cands, c)
		}
	}

	for len(cands) < m.sps.MaxNumAffineMergeCand && len(cands) < 1 {
		cands = append(cands, AffineCandidate{PredFlag: PredFlagL0, NumCp: 2})
	}
	return cands
}

// inheritAffine extrapolates nb's control-point motion to cu's position and
// size, implementing the inherited-candidate derivation.
func inheritAffine(nb *CodingUnit, cu *CodingUnit) AffineCandidate {
	c := AffineCandidate{PredFlag: nb.PU.Inter.Dir, RefIdx: nb.PU.Inter.RefIdx, NumCp: cu.PU.NumCp}
	if c.NumCp == 0 {
		c.NumCp = nb.PU.NumCp
	}
	for l := 0; l < 2; l++ {
		if c.PredFlag&(PredFlagL0<<uint(l)) == 0 {
			continue
		}
		dHorX, dVerX, dHorY, dVerY := affineGradients(nb, l)
		dx := cu.X - nb.X
		dy := cu.Y - nb.Y
		cp0 := Mv{
			nb.PU.CpMV[l][0].X + int32(dHorX*dx+dVerX*dy),
			nb.PU.CpMV[l][0].Y + int32(dHorY*dx+dVerY*dy),
		}
		c.CpMV[l][0] = clipMv(cp0)
		if c.NumCp >= 2 {
			cp1 := Mv{
				cp0.X + int32(dHorX*cu.Width),
				cp0.Y + int32(dHorY*cu.Width),
			}
			c.CpMV[l][1] = clipMv(cp1)
		}
		if c.NumCp >= 3 {
			cp2 := Mv{
				cp0.X + int32(dVerX*cu.Height),
				cp0.Y + int32(dVerY*cu.Height),
			}
			c.CpMV[l][2] = clipMv(cp2)
		}
	}
	return c
}

// affineGradients derives the per-sample (dHorX, dVerX, dHorY, dVerY)
// differences from nb's stored control points for list l, in 1/(width or
// height) units scaled by 1<<7 fixed point, matching the shape 8.5.5.9 uses.
func affineGradients(nb *CodingUnit, l int) (dHorX, dVerX, dHorY, dVerY int) {
	if nb.Width == 0 || nb.Height == 0 {
		return 0, 0, 0, 0
	}
	cp0, cp1 := nb.PU.CpMV[l][0], nb.PU.CpMV[l][1]
	dHorX = int(cp1.X-cp0.X) / nb.Width
	dHorY = int(cp1.Y-cp0.Y) / nb.Width
	if nb.PU.NumCp >= 3 {
		cp2 := nb.PU.CpMV[l][2]
		dVerX = int(cp2.X-cp0.X) / nb.Height
		dVerY = int(cp2.Y-cp0.Y) / nb.Height
	} else {
		dVerX, dVerY = -dHorY, dHorX
	}
	return
}

// constructedAffine mixes corner candidates cp0/cp1/cp2/cp3 (cp3 a TMVP)
// across the defined corner-combination set.
func (m *MVEngine) constructedAffine(w *TreeWalker, cu *CodingUnit) (AffineCandidate, bool) {
	o := w.Oracle((cu.X / w.sps.CTUSize) * w.sps.CTUSize)
	corner := func(positions []NeighbourPos) (MvField, bool) {
		for _, pos := range positions {
			if !o.AvailableForMerge(cu.X, cu.Y, cu.Width, cu.Height, pos, false) {
				continue
			}
			dx, dy := pos.offset(cu.Width, cu.Height)
			return w.pic.MvFieldAt(cu.X+dx, cu.Y+dy), true
		}
		return MvField{}, false
	}

	cp0, ok0 := corner([]NeighbourPos{PosB2, PosB3, PosA2})
	cp1, ok1 := corner([]NeighbourPos{PosB1, PosB0})
	cp2, ok2 := corner([]NeighbourPos{PosA1, PosA0})
	cp3, ok3 := m.temporalCandidate(cu)

	have := 0
	for _, ok := range []bool{ok0, ok1, ok2, ok3} {
		if ok {
			have++
		}
	}
	if have < 2 {
		return AffineCandidate{}, false
	}

	c := AffineCandidate{PredFlag: PredFlagL0, NumCp: 2}
	if ok0 {
		c.CpMV[0][0] = cp0.MV[0]
		c.RefIdx[0] = cp0.RefIdx[0]
	}
	if ok1 {
		c.CpMV[0][1] = cp1.MV[0]
	}
	if ok2 && c.NumCp < 3 {
		c.CpMV[0][2] = cp2.MV[0]
		c.NumCp = 3
	}
	if !ok1 && ok3 {
		c.CpMV[0][1] = cp3.MV[0]
	}
	return c, true
}

func applyAffineCandidate(cu *CodingUnit, c AffineCandidate) {
	cu.PU.AffineFlag = true
	cu.PU.NumCp = c.NumCp
	cu.PU.CpMV = c.CpMV
	cu.PU.Inter.Dir = c.PredFlag
	cu.PU.Inter.RefIdx = c.RefIdx
}

// activeAffineLists derives, per list, a clipped subblock MV via get, zeroing
// out lists not present in dir so bi-predicted affine CUs carry independent
// per-list motion into the grid instead of leaving list 1 at its zero value.
func activeAffineLists(dir PredFlag, get func(l int) Mv) [2]Mv {
	var mv [2]Mv
	for l := 0; l < 2; l++ {
		if dir&(PredFlagL0<<uint(l)) == 0 {
			continue
		}
		mv[l] = clipMv(get(l))
	}
	return mv
}

// fillAffineSubblocks derives each 4x4 sub-block's MV per active list as
// CP0 + dHor*x + dVer*y (rounded), forcing a shared centre-block MV across
// the whole CU when the fallback flag is set (extrapolated motion would
// exceed reference-buffer bounds)
func (m *MVEngine) fillAffineSubblocks(w *TreeWalker, cu *CodingUnit) error {
	fallback := affineFallback(cu, m.sps)

	if fallback {
		mv := activeAffineLists(cu.PU.Inter.Dir, func(l int) Mv {
			return subblockMV(cu, l, cu.Width/2, cu.Height/2)
		})
		w.pic.SetMvFieldRegion(cu.X, cu.Y, cu.Width, cu.Height, MvField{
			PredFlag: cu.PU.Inter.Dir,
			MV:       mv,
			RefIdx:   cu.PU.Inter.RefIdx,
		})
		return nil
	}

	for y := 0; y < cu.Height; y += 4 {
		for x := 0; x < cu.Width; x += 4 {
			sx, sy := x+2, y+2
			mv := activeAffineLists(cu.PU.Inter.Dir, func(l int) Mv {
				return subblockMV(cu, l, sx, sy)
			})
			w.pic.SetMvFieldRegion(cu.X+x, cu.Y+y, 4, 4, MvField{
				PredFlag: cu.PU.Inter.Dir,
				MV:       mv,
				RefIdx:   cu.PU.Inter.RefIdx,
			})
		}
	}
	return nil
}

func subblockMV(cu *CodingUnit, l, sx, sy int) Mv {
	cp0, cp1 := cu.PU.CpMV[l][0], cu.PU.CpMV[l][1]
	if cu.Width == 0 {
		return cp0
	}
	dHorX := int(cp1.X-cp0.X) * 1000 / cu.Width
	dHorY := int(cp1.Y-cp0.Y) * 1000 / cu.Width
	var dVerX, dVerY int
	if cu.PU.NumCp >= 3 && cu.Height != 0 {
		cp2 := cu.PU.CpMV[l][2]
		dVerX = int(cp2.X-cp0.X) * 1000 / cu.Height
		dVerY = int(cp2.Y-cp0.Y) * 1000 / cu.Height
	} else {
		dVerX, dVerY = -dHorY, dHorX
	}
	x := int32((dHorX*sx + dVerX*sy) / 1000)
	y := int32((dHorY*sx + dVerY*sy) / 1000)
	return Mv{cp0.X + x, cp0.Y + y}
}

// affineFallback reports whether the extrapolated per-subblock motion
// field would exceed a conservative reference-buffer margin, forcing a
// single shared centre MV for the whole CU. Both lists' control points are
// checked since a bi-predicted affine CU must fall back consistently across
// lists.
func affineFallback(cu *CodingUnit, sps *SPS) bool {
	const marginQuarterPel = 1 << 17
	for l := 0; l < 2; l++ {
		if cu.PU.Inter.Dir&(PredFlagL0<<uint(l)) == 0 {
			continue
		}
		for _, cp := range cu.PU.CpMV[l][:cu.PU.NumCp] {
			if cp.X < -marginQuarterPel || cp.X > marginQuarterPel || cp.Y < -marginQuarterPel || cp.Y > marginQuarterPel {
				return true
			}
		}
	}
	return false
}
