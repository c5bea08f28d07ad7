/*
DESCRIPTION
  mv_dmvr.go provides decoder-side MV refinement: an 11x11 integer-offset
  SAD search between bilinear L0/L1 predictions followed by a 1-D parabolic
  sub-pel fit

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

// dmvrSearchRange is the +/-5 full-pel (11x11 candidate) search window of
// 8.5.3.2.
const dmvrSearchRange = 5

// DMVREligible reports whether a BI-predicted CU qualifies for DMVR: both
// references unscaled (DESIGN.md records the decision to disable DMVR
// when *either* side is scaled), no weighted prediction, equal-magnitude
// POC distance either side of the current picture.
func DMVREligible(sps *SPS, motion InterMotion, refScaled [2]bool, weightedPred bool, currPOC int, refPOC [2]int) bool {
	if !sps.DMVREnabled || !motion.Dir.Bi() {
		return false
	}
	if refScaled[0] || refScaled[1] {
		return false
	}
	if weightedPred || motion.BcwIdx != 0 || motion.CiipFlag {
		return false
	}
	return (currPOC - refPOC[0]) == -(currPOC - refPOC[1])
}

// sadSource supplies bilinear-interpolated sample blocks for SAD
// evaluation at an integer-pel offset, implemented by the Prediction
// Applier's motion-compensation path.
type sadSource interface {
	BilinearBlock(listIdx int, baseMV Mv, offX, offY, width, height int) []int32
}

// RefineDMVR searches the 11x11 integer-offset space around the L0/L1 MV
// pair, minimising SAD between the two bilinear predictions (L0 offset is
// the negation of the L1 offset), then applies a 1-D parabolic fit on the
// 3 SADs straddling the minimum along each axis
func RefineDMVR(src sadSource, width, height int, mv [2]Mv) (refined [2]Mv, cost int64) {
	type point struct {
		dx, dy int
		sad    int64
	}
	var costs [2*dmvrSearchRange + 1][2*dmvrSearchRange + 1]int64
	best := point{sad: -1}

	for dy := -dmvrSearchRange; dy <= dmvrSearchRange; dy++ {
		for dx := -dmvrSearchRange; dx <= dmvrSearchRange; dx++ {
			l0 := src.BilinearBlock(0, mv[0], dx, dy, width, height)
			l1 := src.BilinearBlock(1, mv[1], -dx, -dy, width, height)
			sad := sadOf(l0, l1)
			costs[dy+dmvrSearchRange][dx+dmvrSearchRange] = sad
			if best.sad < 0 || sad < best.sad {
				best = point{dx, dy, sad}
			}
		}
	}

	// Skip the sub-pel fit when the centre (zero-offset) SAD, reduced by a
	// quarter, is below the block area: the centre match is
	// already good enough relative to block size that further refinement
	// is not worth chasing (dmvr_mv_refine's early exit).
	centreSAD := costs[dmvrSearchRange][dmvrSearchRange]
	if centreSAD-(centreSAD>>2) < int64(width*height) {
		refined[0] = clipMv(mv[0])
		refined[1] = clipMv(mv[1])
		return refined, best.sad
	}

	fx := parabolicOffset(
		costs[best.dy+dmvrSearchRange][clampIdx(best.dx-1+dmvrSearchRange)],
		costs[best.dy+dmvrSearchRange][best.dx+dmvrSearchRange],
		costs[best.dy+dmvrSearchRange][clampIdx(best.dx+1+dmvrSearchRange)],
	)
	fy := parabolicOffset(
		costs[clampIdx(best.dy-1+dmvrSearchRange)][best.dx+dmvrSearchRange],
		costs[best.dy+dmvrSearchRange][best.dx+dmvrSearchRange],
		costs[clampIdx(best.dy+1+dmvrSearchRange)][best.dx+dmvrSearchRange],
	)

	refinedDX := int32(best.dx<<2) + fx
	refinedDY := int32(best.dy<<2) + fy
	refined[0] = clipMv(Mv{mv[0].X + refinedDX, mv[0].Y + refinedDY})
	refined[1] = clipMv(Mv{mv[1].X - refinedDX, mv[1].Y - refinedDY})
	return refined, best.sad
}

func clampIdx(i int) int {
	if i < 0 {
		return 0
	}
	if i > 2*dmvrSearchRange {
		return 2 * dmvrSearchRange
	}
	return i
}

// parabolicOffset fits a 1-D quadratic through 3 equally-spaced SAD
// samples straddling the integer minimum and returns the sub-pel offset
// (in quarter-pel units) of the fitted minimum, following the standard
// E(-1),E(0),E(1) closed-form parabola vertex.
func parabolicOffset(eMinus, eZero, ePlus int64) int32 {
	denom := eMinus - 2*eZero + ePlus
	if denom == 0 {
		return 0
	}
	offset := int64((eMinus - ePlus) * 4 / (2 * denom))
	if offset < -2 {
		offset = -2
	}
	if offset > 2 {
		offset = 2
	}
	return int32(offset)
}

func sadOf(a, b []int32) int64 {
	var sum int64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		sum += int64(d)
	}
	return sum
}
