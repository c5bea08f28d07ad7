/*
DESCRIPTION
  mc.go provides the motion-compensated sample interpolator consumed by the
  Prediction Applier and DMVR: separable 8-tap luma / 4-tap chroma
  fractional-pel filtering plus the bilinear predictor DMVR's SAD search
  needs, both reading from a reference Picture's planes with edge-clamped
  addressing.

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

// lumaTaps8 is the 8-tap luma interpolation filter set, indexed by
// quarter-pel phase 0..3 (phase 0 is the whole-sample identity row).
var lumaTaps8 = [4][8]int32{
	{0, 0, 0, 64, 0, 0, 0, 0},
	{-1, 4, -10, 58, 17, -5, 1, 0},
	{-1, 4, -11, 40, 40, -11, 4, -1},
	{0, 1, -5, 17, 58, -10, 4, -1},
}

// chromaTaps4 is the 4-tap chroma interpolation filter set, indexed by
// eighth-pel phase 0..3 (the two planes share phase granularity here since
// the core only models 4:2:0-equivalent chroma phase stepping).
var chromaTaps4 = [4][4]int32{
	{0, 64, 0, 0},
	{-4, 54, 16, -2},
	{-4, 36, 36, -4},
	{-2, 16, 54, -4},
}

// PlaneMotionCompensator runs fractional-pel interpolation and the
// bilinear SAD-source predictor over one Picture's planes, implementing
// mcSource and sadSource for the Prediction Applier and DMVR.
type PlaneMotionCompensator struct {
	refs [2]*Picture
}

// NewPlaneMotionCompensator returns a compensator over the two resolved
// reference pictures of the current PU (either may be nil for uni-pred).
func NewPlaneMotionCompensator(l0, l1 *Picture) *PlaneMotionCompensator {
	return &PlaneMotionCompensator{refs: [2]*Picture{l0, l1}}
}

// clampedAt reads plane at (x,y), clamping to the plane's bounds, the
// reference-sample padding every MC implementation applies at picture
// edges.
func clampedAt(p *Plane, x, y int) int32 {
	if x < 0 {
		x = 0
	}
	if x >= p.Width {
		x = p.Width - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= p.Height {
		y = p.Height - 1
	}
	return p.At(x, y)
}

// Interpolate returns a w*h block of motion-compensated samples for plane
// from ref at integer position (x,y) displaced by mv (quarter-pel for
// luma, implicitly halved for 4:2:0 chroma planes).
func (c *PlaneMotionCompensator) Interpolate(ref *Picture, plane, x, y, w, h int, mv Mv, bitDepth int) []int32 {
	if ref == nil || ref.Planes[plane] == nil {
		return make([]int32, w*h)
	}
	p := ref.Planes[plane]

	isLuma := plane == 0
	shift := 2
	taps := lumaTaps8[:]
	if !isLuma {
		shift = 3
		taps = chromaTaps4[:]
	}

	fracMask := int32(1<<shift) - 1
	intX := x + int(mv.X>>shift)
	intY := y + int(mv.Y>>shift)
	fracX := mv.X & fracMask
	fracY := mv.Y & fracMask

	// Normalise the fractional phase onto the filter table's stride
	// (4 phases for both tap sets here).
	phaseX := int(fracX) * 4 >> shift
	phaseY := int(fracY) * 4 >> shift

	out := make([]int32, w*h)
	half := len(taps[0]) / 2

	horiz := make([]int32, (h+len(taps[0]))*w)
	rows := h + len(taps[0]) - 1
	for ry := 0; ry < rows; ry++ {
		srcY := intY + ry - (half - 1)
		for cx := 0; cx < w; cx++ {
			var sum int32
			for t, tap := range taps[phaseX] {
				srcX := intX + cx + t - (half - 1)
				sum += tap * clampedAt(p, srcX, srcY)
			}
			horiz[ry*w+cx] = sum >> 6
		}
	}
	for oy := 0; oy < h; oy++ {
		for ox := 0; ox < w; ox++ {
			var sum int32
			for t, tap := range taps[phaseY] {
				sum += tap * horiz[(oy+t)*w+ox]
			}
			v := sum >> 6
			out[oy*w+ox] = clip3i32(0, int32(1<<uint(bitDepth))-1, v)
		}
	}
	return out
}

// BilinearBlock implements sadSource for DMVR: a cheap 2-tap bilinear
// fetch at baseMV plus the integer-pel search offset (offX,offY), skipping
// the full 8-tap kernel since DMVR only needs a cost surface, not
// reconstructable samples.
func (c *PlaneMotionCompensator) BilinearBlock(listIdx int, baseMV Mv, offX, offY, width, height int) []int32 {
	ref := c.refs[listIdx]
	if ref == nil || ref.Planes[0] == nil {
		return make([]int32, width*height)
	}
	p := ref.Planes[0]
	intX := int(baseMV.X>>2) + offX
	intY := int(baseMV.Y>>2) + offY
	out := make([]int32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			a := clampedAt(p, intX+x, intY+y)
			b := clampedAt(p, intX+x+1, intY+y)
			cc := clampedAt(p, intX+x, intY+y+1)
			d := clampedAt(p, intX+x+1, intY+y+1)
			out[y*width+x] = (a + b + cc + d + 2) >> 2
		}
	}
	return out
}
