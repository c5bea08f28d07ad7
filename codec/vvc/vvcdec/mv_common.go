/*
DESCRIPTION
  mv_common.go provides the motion vector and motion field primitives shared
  by every stage of the MV Derivation Engine.

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

// Mv is a motion vector in quarter-luma-sample units.
type Mv struct {
	X, Y int32
}

// Add returns the component-wise sum of m and o.
func (m Mv) Add(o Mv) Mv { return Mv{m.X + o.X, m.Y + o.Y} }

// Scaled returns m scaled by a distScaleFactor in 8.5.5.3 fixed point,
// rounded per the same equation used for TMVP/AMVP temporal scaling.
func (m Mv) Scaled(distScaleFactor int) Mv {
	round := func(v int32) int32 {
		x := int64(distScaleFactor) * int64(v)
		sign := int64(1)
		if x < 0 {
			sign = -1
		}
		mag := (sign * x + 127) >> 8
		return int32(sign * clip3i64(-(1<<15), (1<<15)-1, mag))
	}
	return Mv{round(m.X), round(m.Y)}
}

func clip3i64(lo, hi, v int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PredFlag is a bitmask of which lists/modes a 4x4 unit's motion info
// references, matching the reference decoder's pred_flag. It is kept as a
// bitmask at the MvField grid boundary for cheap storage/compare of
// per-4x4 units, and re-expressed as a sum type at higher levels;
// PredMode below is that sum type.
type PredFlag uint8

const (
	PredFlagIntra PredFlag = 1 << iota
	PredFlagL0
	PredFlagL1
	PredFlagIBC
	PredFlagPLT
)

// Bi reports whether both L0 and L1 are set.
func (p PredFlag) Bi() bool { return p&PredFlagL0 != 0 && p&PredFlagL1 != 0 }

// PredMode is an explicit sum type used by code that derives or consumes
// a single CU/PU's prediction instead of the packed
// per-4x4 MvField.
type PredMode int

const (
	PredModeIntra PredMode = iota
	PredModeInter
	PredModeIBC
	PredModePalette
)

// InterMotion is the Inter{dir, ref[2], mv[2]} variant of PredMode.
type InterMotion struct {
	Dir        PredFlag // PredFlagL0, PredFlagL1, or both.
	RefIdx     [2]int
	MV         [2]Mv
	BcwIdx     int
	HpelIfIdx  [2]int
	CiipFlag   bool
}

// MvField is the per-4x4-luma-unit motion record stored in the picture's
// motion grid.
type MvField struct {
	PredFlag  PredFlag
	MV        [2]Mv
	RefIdx    [2]int
	BcwIdx    int
	HpelIfIdx [2]int
	CiipFlag  bool
}

// ToInterMotion converts a PredFlagL0/L1/BI MvField into the InterMotion
// sum-type representation. Panics if f is not an inter field — callers
// must check PredFlag first.
func (f MvField) ToInterMotion() InterMotion {
	if f.PredFlag&(PredFlagL0|PredFlagL1) == 0 {
		panic("vvcdec: ToInterMotion called on non-inter MvField")
	}
	return InterMotion{
		Dir:       f.PredFlag & (PredFlagL0 | PredFlagL1),
		RefIdx:    f.RefIdx,
		MV:        f.MV,
		BcwIdx:    f.BcwIdx,
		HpelIfIdx: f.HpelIfIdx,
		CiipFlag:  f.CiipFlag,
	}
}

// sameMotion reports whether a and b reference the same (pred_flag, ref_idx,
// mv) tuple, the dedup test used throughout merge/AMVP/IBC list
// construction.
func sameMotion(a, b MvField) bool {
	if a.PredFlag != b.PredFlag {
		return false
	}
	for l := 0; l < 2; l++ {
		if a.PredFlag&(PredFlagL0<<uint(l)) == 0 {
			continue
		}
		if a.RefIdx[l] != b.RefIdx[l] || a.MV[l] != b.MV[l] {
			return false
		}
	}
	return true
}

// roundMv rounds mv to 4x4-aligned precision, used when compressing a
// collocated MV for TMVP storage.
func roundMv(mv Mv, lshift, rshift uint) Mv {
	round := func(v int32) int32 {
		offset := int32(1) << (rshift - 1)
		return ((v + offset) >> rshift) << lshift
	}
	if rshift == 0 {
		return Mv{mv.X << lshift, mv.Y << lshift}
	}
	return Mv{round(mv.X), round(mv.Y)}
}

// clipMv clips mv components into the legal 18-bit signed motion vector
// range used throughout MV derivation clauses.
func clipMv(mv Mv) Mv {
	const lo, hi = -(1 << 17), (1 << 17) - 1
	clamp := func(v int32) int32 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	return Mv{clamp(mv.X), clamp(mv.Y)}
}

// noBackwardPredFlag reports whether every active reference picture in
// both lists has a POC no greater than the current picture's POC, the
// eligibility precondition DMVR/BDOF share (ff_vvc_no_backward_pred_flag
// in the original decoder).
func noBackwardPredFlag(currPOC int, refPOCs [2][]int, numRef [2]int) bool {
	for l := 0; l < 2; l++ {
		for i := 0; i < numRef[l] && i < len(refPOCs[l]); i++ {
			if refPOCs[l][i] > currPOC {
				return false
			}
		}
	}
	return true
}
