/*
DESCRIPTION
  filter_sao.go provides the sample adaptive offset in-loop filter.

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

// SAOType distinguishes edge offset from band offset, or disabled.
type SAOType int

const (
	SAOOff SAOType = iota
	SAOEdgeOffset
	SAOBandOffset
)

// SAOParams carries one CTU/component's SAO selection, either inherited
// from the left/above CTU or explicitly read
type SAOParams struct {
	Type       SAOType
	EOClass    int // 0=horizontal,1=vertical,2=135deg,3=45deg.
	BandPos    int
	Offsets    [4]int32
	MergeLeft  bool
	MergeAbove bool
}

// ApplySAOEdgeOffset filters plane over [x0,x0+w)x[y0,y0+h) using pre-SAO
// samples from preFilter (the sao_pixel_buffer_h/v copy 
// requires so SAO decisions at CTU edges never see another CTU's SAO
// output), classifying each sample by comparing to its two EO-class
// neighbours.
func ApplySAOEdgeOffset(plane *Plane, preFilter *Plane, x0, y0, w, h int, params SAOParams, bitDepthMax int32) {
	dx, dy := eoClassOffsets(params.EOClass)
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			if x+dx < 0 || x+dx >= preFilter.Width || y+dy < 0 || y+dy >= preFilter.Height ||
				x-dx < 0 || x-dx >= preFilter.Width || y-dy < 0 || y-dy >= preFilter.Height {
				continue
			}
			c := preFilter.At(x, y)
			a := preFilter.At(x-dx, y-dy)
			b := preFilter.At(x+dx, y+dy)

			cat := edgeCategory(a, c, b)
			if cat == 0 {
				continue
			}
			offset := params.Offsets[cat-1]
			v := c + offset
			if v < 0 {
				v = 0
			}
			if v > bitDepthMax {
				v = bitDepthMax
			}
			plane.Set(x, y, v)
		}
	}
}

// ApplySAOBandOffset filters one component's CTU region using 32 equal
// intensity bands, 4 consecutive of which carry a signalled offset at
// params.BandPos.
func ApplySAOBandOffset(plane *Plane, preFilter *Plane, x0, y0, w, h int, params SAOParams, bitDepth int, bitDepthMax int32) {
	shift := uint(bitDepth - 5)
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			c := preFilter.At(x, y)
			band := int(c >> shift)
			rel := band - params.BandPos
			if rel < 0 || rel >= 4 {
				continue
			}
			v := c + params.Offsets[rel]
			if v < 0 {
				v = 0
			}
			if v > bitDepthMax {
				v = bitDepthMax
			}
			plane.Set(x, y, v)
		}
	}
}

func eoClassOffsets(class int) (dx, dy int) {
	switch class {
	case 0:
		return 1, 0
	case 1:
		return 0, 1
	case 2:
		return 1, 1
	default:
		return 1, -1
	}
}

// edgeCategory returns 0 (no filtering) or 1..4 per table 8-25's
// local-minimum/maximum classification of c against its two EO neighbours
// a, b.
func edgeCategory(a, c, b int32) int {
	switch {
	case c < a && c < b:
		return 1 // local minimum.
	case c < a && c == b, c < b && c == a:
		return 2
	case c > a && c == b, c > b && c == a:
		return 3
	case c > a && c > b:
		return 4 // local maximum.
	default:
		return 0
	}
}
