/*
DESCRIPTION
  mv_ibc.go provides IBC block-vector candidate list construction and
  bounds validation

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

// DeriveIBC parses an IBC CU's merge_flag/mvp selection or explicit
// MVD-coded block vector, validates the result stays inside the legal CTB
// search range, and records it as cu.PU.BV
func (m *MVEngine) DeriveIBC(w *TreeWalker, cu *CodingUnit) error {
	cands := m.buildIBCList(w, cu)

	mergeFlag := w.bins.bin(22) == 1
	var bv Mv
	if mergeFlag {
		idx := w.readTruncUnary(len(cands) - 1)
		if idx >= len(cands) {
			idx = len(cands) - 1
		}
		bv = cands[idx]
	} else {
		idx := w.bins.bin(23)
		if idx >= len(cands) {
			idx = len(cands) - 1
		}
		mvp := cands[idx]
		mvd := m.readMVD(w)
		bv = mvp.Add(mvd)
	}

	if err := validateIBCBV(w.sps, cu, bv); err != nil {
		return err
	}
	cu.PU.BV = bv

	bvField := MvField{PredFlag: PredFlagIBC, MV: [2]Mv{bv}, RefIdx: [2]int{-1, -1}}
	w.entry.HMVPIBC.Update(bvField)
	w.pic.SetMvFieldRegion(cu.X, cu.Y, cu.Width, cu.Height, bvField)
	return w.bins.err()
}

// buildIBCList implements : spatial A1/B1 dedup, then
// HMVP-IBC, then zero.
func (m *MVEngine) buildIBCList(w *TreeWalker, cu *CodingUnit) []Mv {
	o := w.Oracle((cu.X / w.sps.CTUSize) * w.sps.CTUSize)
	var cands []Mv
	seen := func(mv Mv) bool {
		for _, c := range cands {
			if c == mv {
				return true
			}
		}
		return false
	}

	for _, pos := range [2]NeighbourPos{PosA1, PosB1} {
		if !o.AvailableForMerge(cu.X, cu.Y, cu.Width, cu.Height, pos, true) {
			continue
		}
		dx, dy := pos.offset(cu.Width, cu.Height)
		f := w.pic.MvFieldAt(cu.X+dx, cu.Y+dy)
		if f.PredFlag&PredFlagIBC == 0 {
			continue
		}
		if !seen(f.MV[0]) {
			cands = append(cands, f.MV[0])
		}
	}

	for _, f := range w.entry.HMVPIBC.Newest() {
		if len(cands) >= m.sps.MaxNumMergeCand {
			break
		}
		if !seen(f.MV[0]) {
			cands = append(cands, f.MV[0])
		}
	}

	for len(cands) < 2 {
		cands = append(cands, Mv{})
	}
	return cands
}

// validateIBCBV checks that the block vector does not cross the current
// CTB row and stays within the current CTB or the immediately preceding
// one on the same row; violations are InvalidBitstream
// errors.
func validateIBCBV(sps *SPS, cu *CodingUnit, bv Mv) error {
	refX := cu.X + int(bv.X>>2) // BV is quarter-pel; IBC operates at integer-pel granularity.
	refY := cu.Y + int(bv.Y>>2)

	ctbSize := sps.CTUSize
	curCTBRow := cu.Y / ctbSize
	refCTBRow := refY / ctbSize
	if refCTBRow != curCTBRow {
		return newError(ErrInvalidBitstream, errors.Errorf("IBC block vector crosses CTB row: ref (%d,%d) not in row %d", refX, refY, curCTBRow))
	}

	curCTBCol := cu.X / ctbSize
	refCTBCol := refX / ctbSize
	if refCTBCol != curCTBCol && refCTBCol != curCTBCol-1 {
		return newError(ErrInvalidBitstream, errors.Errorf("IBC block vector reaches outside current/previous CTB: ref col %d, current col %d", refCTBCol, curCTBCol))
	}
	if refX < 0 || refY < 0 || refX+cu.Width > sps.Width || refY+cu.Height > sps.Height {
		return newError(ErrInvalidBitstream, errors.New("IBC reference block out of picture bounds"))
	}
	return nil
}
