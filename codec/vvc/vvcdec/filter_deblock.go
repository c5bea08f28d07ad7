/*
DESCRIPTION
  filter_deblock.go provides the vertical/horizontal deblocking filter
  passes

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

import "gonum.org/v1/gonum/stat"

// betaTable and tcTable are the published deblocking lookup tables of
// 8.8.3.6.3/8.8.3.6.4, indexed by clipped QP.
var betaTable = [64]int32{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 20, 22, 24,
	26, 28, 30, 32, 34, 36, 38, 40, 42, 44, 46, 48, 50, 52, 54, 56,
	58, 60, 62, 64, 64, 64, 64, 64, 64, 64, 64, 64, 64, 64, 64, 64,
}

var tcTable = [64]int32{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2,
	2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 5, 5, 6, 6, 7, 8,
	9, 10, 11, 13, 14, 16, 18, 20, 22, 24, 25, 25, 25, 25, 25, 25,
}

// DeblockEdge is one 4-sample edge segment's derived filtering parameters.
type DeblockEdge struct {
	BS                int // boundary strength, 0-2.
	MaxFilterLengthP  int
	MaxFilterLengthQ  int
	Beta, Tc          int32
}

// BoundaryStrength derives bS from the two adjacent 4x4 MvFields and TU
// coded-block flags: intra on either side -> 2; coded
// residual on either side, or motion differing beyond a quarter-pel
// threshold, or differing reference pictures -> 1; else 0.
func BoundaryStrength(p, q MvField, pCoded, qCoded bool) int {
	if p.PredFlag&PredFlagIntra != 0 || q.PredFlag&PredFlagIntra != 0 {
		return 2
	}
	if pCoded || qCoded {
		return 1
	}
	if p.PredFlag != q.PredFlag {
		return 1
	}
	for l := 0; l < 2; l++ {
		if p.PredFlag&(PredFlagL0<<uint(l)) == 0 {
			continue
		}
		if p.RefIdx[l] != q.RefIdx[l] {
			return 1
		}
		if abs32(p.MV[l].X-q.MV[l].X) >= 4 || abs32(p.MV[l].Y-q.MV[l].Y) >= 4 {
			return 1
		}
	}
	return 0
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// MaxFilterLength returns the luma/chroma max_filter_length_p/q per
// : up to 7 for luma depending on TB size/sub-block presence/
// affine flag, up to 3 for chroma (requiring 8x8 TBs on both sides;
// horizontal CTU edges cap chroma at 1).
func MaxFilterLength(tbSize int, subblock, affine bool, isChroma, isCTUEdgeHoriz bool) int {
	if isChroma {
		if tbSize < 8 {
			return 0
		}
		if isCTUEdgeHoriz {
			return 1
		}
		return 3
	}
	if tbSize >= 32 {
		return 7
	}
	if tbSize >= 16 {
		if subblock || affine {
			return 5
		}
		return 7
	}
	if subblock || affine {
		return 2
	}
	return 3
}

// ResolveQP averages the two sides' QPs, with an
// optional LADF offset derived from the mean of localLumaSamples
// (gonum stat.Mean).
func ResolveQP(qpP, qpQ int, localLumaSamples []int32, ladfThresholds []int32, ladfOffsets []int32) int {
	qp := (qpP + qpQ + 1) >> 1
	if len(ladfThresholds) == 0 || len(localLumaSamples) == 0 {
		return qp
	}
	floats := make([]float64, len(localLumaSamples))
	for i, s := range localLumaSamples {
		floats[i] = float64(s)
	}
	mean := stat.Mean(floats, nil)
	for i, th := range ladfThresholds {
		if mean < float64(th) {
			return qp + int(ladfOffsets[i])
		}
	}
	if len(ladfOffsets) > len(ladfThresholds) {
		return qp + int(ladfOffsets[len(ladfOffsets)-1])
	}
	return qp
}

// LookupBetaTc clips qp into [0,63] and returns the published beta/tc
// table entries, per 8.8.3.6.3/8.8.3.6.4.
func LookupBetaTc(qp int, betaOffsetDiv2, tcOffsetDiv2 int) (beta, tc int32) {
	betaQP := clip3(0, 63, qp+betaOffsetDiv2*2)
	tcQP := clip3(0, 65, qp+tcOffsetDiv2*2)
	if tcQP > 63 {
		tcQP = 63
	}
	return betaTable[betaQP], tcTable[tcQP]
}

// FilterLumaEdge applies the sample-level strong/weak luma filter kernel
// to one 4-sample edge, writing filtered samples back into plane via
// dir-relative addressing (dir=true: vertical edge, horizontal neighbours;
// dir=false: horizontal edge, vertical neighbours).
func FilterLumaEdge(plane *Plane, x, y int, dir bool, edge DeblockEdge, bitDepthMax int32) {
	if edge.BS == 0 || edge.Beta == 0 {
		return
	}
	get := func(i int) int32 {
		if dir {
			return plane.At(x+i, y)
		}
		return plane.At(x, y+i)
	}
	set := func(i int, v int32) {
		if dir {
			plane.Set(x+i, y, v)
		} else {
			plane.Set(x, y+i, v)
		}
	}

	p0, p1, p2, q0, q1, q2 := get(-1), get(-2), get(-3), get(0), get(1), get(2)
	dp := abs32(p2 - 2*p1 + p0)
	dq := abs32(q2 - 2*q1 + q0)
	d := dp + dq
	if d >= edge.Beta {
		return
	}

	strong := d < edge.Beta>>2 && abs32(get(-4)-p0) < edge.Tc && abs32(get(3)-q0) < edge.Tc
	tc := edge.Tc
	if strong {
		filterStrong(set, get, tc, bitDepthMax)
	} else {
		filterWeak(set, get, tc, bitDepthMax)
	}
}

func filterWeak(set func(int, int32), get func(int) int32, tc, bitDepthMax int32) {
	p1, p0, q0, q1 := get(-2), get(-1), get(0), get(1)
	delta := (9*(q0-p0) - 3*(q1-p1) + 8) >> 4
	if abs32(delta) >= tc*10 {
		return
	}
	delta = clip3i32(-tc, tc, delta)
	set(-1, clampSample(p0+delta, bitDepthMax))
	set(0, clampSample(q0-delta, bitDepthMax))
	deltaP := clip3i32(-tc>>1, tc>>1, ((get(-3)+p0+1)>>1 - p1 + delta) >> 1)
	set(-2, clampSample(p1+deltaP, bitDepthMax))
	deltaQ := clip3i32(-tc>>1, tc>>1, ((get(2)+q0+1)>>1 - q1 - delta) >> 1)
	set(1, clampSample(q1+deltaQ, bitDepthMax))
}

func filterStrong(set func(int, int32), get func(int) int32, tc, bitDepthMax int32) {
	p3, p2, p1, p0 := get(-4), get(-3), get(-2), get(-1)
	q0, q1, q2, q3 := get(0), get(1), get(2), get(3)

	newP0 := clip3i32(p0-2*tc, p0+2*tc, (p2+2*p1+2*p0+2*q0+q1+4)>>3)
	newP1 := clip3i32(p1-2*tc, p1+2*tc, (p2+p1+p0+q0+2)>>2)
	newP2 := clip3i32(p2-2*tc, p2+2*tc, (2*p3+3*p2+p1+p0+q0+4)>>3)
	newQ0 := clip3i32(q0-2*tc, q0+2*tc, (p1+2*p0+2*q0+2*q1+q2+4)>>3)
	newQ1 := clip3i32(q1-2*tc, q1+2*tc, (p0+q0+q1+q2+2)>>2)
	newQ2 := clip3i32(q2-2*tc, q2+2*tc, (p0+q0+q1+3*q2+2*q3+4)>>3)

	set(-1, clampSample(newP0, bitDepthMax))
	set(-2, clampSample(newP1, bitDepthMax))
	set(-3, clampSample(newP2, bitDepthMax))
	set(0, clampSample(newQ0, bitDepthMax))
	set(1, clampSample(newQ1, bitDepthMax))
	set(2, clampSample(newQ2, bitDepthMax))
}

func clip3i32(lo, hi, v int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampSample(v, bitDepthMax int32) int32 {
	if v < 0 {
		return 0
	}
	if v > bitDepthMax {
		return bitDepthMax
	}
	return v
}
