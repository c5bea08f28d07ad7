/*
DESCRIPTION
  mv_bdof.go provides bi-directional optical flow sample refinement.

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

// BDOFEligible reports whether a BI-predicted CU qualifies for BDOF, per
// : BI, equal temporal distance either side, no weighted
// pred, no affine, no CIIP, and both references unscaled.
func BDOFEligible(sps *SPS, motion InterMotion, affine bool, refScaled [2]bool, weightedPred bool, currPOC int, refPOC [2]int) bool {
	if !sps.BDOFEnabled || !motion.Dir.Bi() || affine || motion.CiipFlag {
		return false
	}
	if weightedPred || motion.BcwIdx != 0 {
		return false
	}
	if refScaled[0] || refScaled[1] {
		return false
	}
	return (currPOC - refPOC[0]) == -(currPOC - refPOC[1])
}

// bdofGradients holds the pre-filter horizontal/vertical gradients and
// predicted samples for one 4x4 sub-block, supplied by the Prediction
// Applier's MC path (8.5.6.3 "prediction refinement with optical flow"
// reuses the same gradient arrays).
type bdofGradients struct {
	L0, L1     []int32 // pre-filter predicted samples, one per sub-block sample.
	GradX0, GradY0 []int32
	GradX1, GradY1 []int32
	Width, Height  int
}

// RefineBDOF computes the per-4x4 sub-block optical-flow offset (vx, vy)
// from the gradients and adds the motion-compensated correction to the
// bi-averaged prediction and 8.5.6.4.
func RefineBDOF(g bdofGradients, shift int) []int32 {
	n := g.Width * g.Height
	out := make([]int32, n)

	var sGxGx, sGyGy, sGxGy, sGxD, sGyD int64
	for i := 0; i < n; i++ {
		dx := int64(g.GradX0[i] + g.GradX1[i])
		dy := int64(g.GradY0[i] + g.GradY1[i])
		diff := int64(g.L1[i] - g.L0[i])
		sGxGx += dx * dx
		sGyGy += dy * dy
		sGxGy += dx * dy
		sGxD += dx * diff
		sGyD += dy * diff
	}

	var vx, vy int64
	if sGxGx > 0 {
		vx = clampBDOF(-sGxD << 2 / maxInt64(sGxGx, 1))
	}
	remD := sGyD - (vx*sGxGy)>>2
	if sGyGy > 0 {
		vy = clampBDOF(-remD << 2 / maxInt64(sGyGy, 1))
	}

	for i := 0; i < n; i++ {
		corr := (vx*int64(g.GradX0[i]-g.GradX1[i]) + vy*int64(g.GradY0[i]-g.GradY1[i])) >> 1
		sum := int64(g.L0[i]) + int64(g.L1[i]) + corr
		out[i] = int32(roundShift(sum, shift))
	}
	return out
}

func clampBDOF(v int64) int64 {
	const lim = 1 << 4
	if v < -lim {
		return -lim
	}
	if v > lim {
		return lim
	}
	return v
}

func roundShift(v int64, shift int) int64 {
	if shift <= 0 {
		return v
	}
	return (v + (1 << (uint(shift) - 1))) >> uint(shift)
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
