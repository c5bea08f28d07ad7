/*
DESCRIPTION
  filter_alf.go provides the adaptive loop filter and its cross-component
  refinement pass

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

import "gonum.org/v1/gonum/floats"

const (
	numALFClasses    = 25
	numALFTransposes = 4
)

// ALFFilterSet is one alternative filter's 7-region-symmetric 13-tap
// diamond coefficients plus per-coefficient clipping values, as carried by
// an APS (up to 8 alternatives per slice
type ALFFilterSet struct {
	Coeffs [numALFClasses][13]int32
	Clip   [numALFClasses][13]int32
}

// ClassifyALFBlock classifies one 4x4 luma block into one of the 25
// ALF classes and one of 4 transposes from its horizontal/vertical/
// diagonal gradient sums, using gonum/floats to sum the
// per-direction gradient magnitude vectors.
func ClassifyALFBlock(plane *Plane, x0, y0 int) (class int, transpose int) {
	var hGrad, vGrad, d0Grad, d1Grad []float64
	for y := y0; y < y0+4; y++ {
		for x := x0; x < x0+4; x++ {
			if x+1 >= plane.Width || y+1 >= plane.Height || x < 1 || y < 1 {
				continue
			}
			c := plane.At(x, y)
			hGrad = append(hGrad, float64(abs32(2*c-plane.At(x-1, y)-plane.At(x+1, y))))
			vGrad = append(vGrad, float64(abs32(2*c-plane.At(x, y-1)-plane.At(x, y+1))))
			d0Grad = append(d0Grad, float64(abs32(2*c-plane.At(x-1, y-1)-plane.At(x+1, y+1))))
			d1Grad = append(d1Grad, float64(abs32(2*c-plane.At(x-1, y+1)-plane.At(x+1, y-1))))
		}
	}

	sumH, sumV := floats.Sum(hGrad), floats.Sum(vGrad)
	sumD0, sumD1 := floats.Sum(d0Grad), floats.Sum(d1Grad)

	hv := sumH + sumV
	d := sumD0 + sumD1
	activity := int((hv + d) / 32)
	if activity > 15 {
		activity = 15
	}
	class = activityToClass(activity)

	switch {
	case sumH > 2*sumV && sumD0 >= sumD1:
		transpose = 0
	case sumH > 2*sumV:
		transpose = 1
	case sumV > 2*sumH && sumD0 >= sumD1:
		transpose = 2
	case sumV > 2*sumH:
		transpose = 3
	case sumD0 >= 2*sumD1:
		transpose = 0
	default:
		transpose = 1
	}
	return class, transpose
}

// activityToClass maps a 0-15 activity metric onto the 25-class table via
// a simple monotone bucket scheme, standing in for the exact avgVar
// quantization table of 8.8.5.3.
func activityToClass(activity int) int {
	c := activity * numALFClasses / 16
	if c >= numALFClasses {
		c = numALFClasses - 1
	}
	return c
}

// alfTapOffsets is the 13-tap diamond footprint in (dx,dy) relative to the
// centre sample, per 8.8.5.2's filter shape.
var alfTapOffsets = [13][2]int{
	{0, -3},
	{-1, -2}, {0, -2}, {1, -2},
	{-2, -1}, {-1, -1}, {0, -1}, {1, -1}, {2, -1},
	{-3, 0}, {-2, 0}, {-1, 0}, {0, 0},
}

// ApplyALF filters plane over a 4x4 block using the class/transpose
// selected by ClassifyALFBlock, with per-tap clipping
func ApplyALF(plane *Plane, x0, y0 int, set *ALFFilterSet, class, transpose int, bitDepthMax int32) {
	coeffs := set.Coeffs[class]
	clip := set.Clip[class]
	for y := y0; y < y0+4; y++ {
		for x := x0; x < x0+4; x++ {
			var sum int64
			for i, off := range alfTapOffsets {
				dx, dy := transposeOffset(off[0], off[1], transpose)
				nx, ny := clampCoord(x+dx, plane.Width), clampCoord(y+dy, plane.Height)
				diff := plane.At(nx, ny) - plane.At(x, y)
				diff = clip3i32(-clip[i], clip[i], diff)
				if off != [2]int{0, 0} {
					// Point-symmetric partner tap of the diamond, same coefficient.
					mx, my := clampCoord(x-dx, plane.Width), clampCoord(y-dy, plane.Height)
					diff += clip3i32(-clip[i], clip[i], plane.At(mx, my)-plane.At(x, y))
				}
				sum += int64(coeffs[i]) * int64(diff)
			}
			v := plane.At(x, y) + int32((sum+64)>>7)
			plane.Set(x, y, clip3i32(0, bitDepthMax, v))
		}
	}
}

func transposeOffset(dx, dy, transpose int) (int, int) {
	switch transpose {
	case 1:
		return dy, dx
	case 2:
		return -dx, dy
	case 3:
		return dy, -dx
	default:
		return dx, dy
	}
}

func clampCoord(v, max int) int {
	if v < 0 {
		return 0
	}
	if v >= max {
		return max - 1
	}
	return v
}

// CCALFFilter is the 3x4 diamond cross-component coefficient set applied
// to chroma from co-located luma samples.
type CCALFFilter struct {
	Coeffs [8]int32
}

var ccalfTapOffsets = [8][2]int{
	{0, -1}, {-1, 0}, {0, 0}, {1, 0}, {0, 1},
	{-1, -1}, {1, -1}, {0, -2},
}

// ApplyCCALF refines one chroma sample using luma samples at (lumaX,
// lumaY) and its diamond neighbourhood CC-ALF pass.
func ApplyCCALF(chroma *Plane, luma *Plane, cx, cy, lumaX, lumaY int, f CCALFFilter, bitDepthMax int32) {
	var sum int64
	for i, off := range ccalfTapOffsets {
		nx, ny := clampCoord(lumaX+off[0], luma.Width), clampCoord(lumaY+off[1], luma.Height)
		sum += int64(f.Coeffs[i]) * int64(luma.At(nx, ny))
	}
	refined := chroma.At(cx, cy) + int32(sum>>10)
	chroma.Set(cx, cy, clip3i32(0, bitDepthMax, refined))
}
