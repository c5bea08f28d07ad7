/*
DESCRIPTION
  residual.go provides the transform-tree walk and per-transform-block
  coefficient parsing All entropy reads go through the
  cabac.Reader contract via the tree walker's sticky-error bin reader.

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

// qgState tracks the quantization-group predictive QP state 
// describes: luma QP predicted from the left/above average within a
// quantization group, reset at each group/tile/slice-row boundary.
type qgState struct {
	leftQP, aboveQP int
	predicted       bool
	prevQP          int
}

// ResidualParser parses tu_*_coded_flag, QP resolution, and 4x4 sub-block
// coefficient scanning for one slice
type ResidualParser struct {
	sps *SPS
	pps *PPS
	sh  *SliceHeader

	qg qgState
}

// NewResidualParser returns a parser scoped to one slice, with the
// predictive-QP state seeded from the slice's initial QP.
func NewResidualParser(sps *SPS, pps *PPS, sh *SliceHeader) *ResidualParser {
	return &ResidualParser{
		sps: sps, pps: pps, sh: sh,
		qg: qgState{prevQP: pps.InitQP + sh.SliceQpDelta},
	}
}

// ResetQGState clears the predictive-QP carry at a quantization-group,
// tile, or slice-row boundary.
func (r *ResidualParser) ResetQGState() {
	r.qg = qgState{prevQP: r.pps.InitQP + r.sh.SliceQpDelta}
}

// TransformTree parses tu_y_coded_flag/tu_cb_coded_flag/tu_cr_coded_flag/
// joint_cbcr_residual_flag for cu's (possibly SBT-split) transform units,
// then the per-TB coefficient data
func (r *ResidualParser) TransformTree(cu *CodingUnit, bins *treeBinReader) error {
	tus := r.splitIntoTUs(cu)
	cu.TU = tus

	for i := range cu.TU {
		tu := &cu.TU[i]
		yCoded := bins.bin(30) == 1
		var cbCoded, crCoded, jointFlag bool
		if cu.ChromaFormatIDC != 0 && cu.TreeType != 1 {
			cbCoded = bins.bin(31) == 1
			crCoded = bins.bin(32) == 1
			if cbCoded && crCoded && r.pps.JointCbCrQpOffset != 0 {
				jointFlag = bins.bin(33) == 1
			}
		}
		tu.JointCbCrFlag = jointFlag

		tu.Blocks[0] = TransformBlock{X: tu.X, Y: tu.Y, Width: tu.Width, Height: tu.Height, CbfFlag: yCoded}
		if cu.ChromaFormatIDC != 0 {
			cw, ch := chromaDims(&SPS{ChromaFormatIDC: cu.ChromaFormatIDC}, tu.Width, tu.Height)
			cx, cy := chromaDims(&SPS{ChromaFormatIDC: cu.ChromaFormatIDC}, tu.X, tu.Y)
			tu.Blocks[1] = TransformBlock{X: cx, Y: cy, Width: cw, Height: ch, CbfFlag: cbCoded}
			tu.Blocks[2] = TransformBlock{X: cx, Y: cy, Width: cw, Height: ch, CbfFlag: crCoded}
		}

		lumaQP := r.resolveLumaQP(cu, tu)
		tu.Blocks[0].QP = lumaQP
		if cu.ChromaFormatIDC != 0 {
			cbQP, crQP := r.resolveChromaQP(lumaQP)
			tu.Blocks[1].QP = cbQP
			tu.Blocks[2].QP = crQP
		}

		for c := 0; c < 3; c++ {
			if !tu.Blocks[c].CbfFlag {
				continue
			}
			if err := r.parseCoefficients(&tu.Blocks[c], cu, bins); err != nil {
				return err
			}
		}
	}
	return bins.err()
}

// splitIntoTUs divides cu into one or more transform units following its
// SBT selection (if any) or MaxTbSize, matching the transform_tree
// recursion shape of 7.3.8.10 without reproducing its full grammar.
func (r *ResidualParser) splitIntoTUs(cu *CodingUnit) []TransformUnit {
	mk := func(x, y, w, h int) TransformUnit {
		return TransformUnit{X: x, Y: y, Width: w, Height: h}
	}
	if !cu.SbtFlag {
		if cu.Width <= r.sps.MaxTbSize && cu.Height <= r.sps.MaxTbSize {
			return []TransformUnit{mk(cu.X, cu.Y, cu.Width, cu.Height)}
		}
		return r.splitToMaxTb(cu.X, cu.Y, cu.Width, cu.Height)
	}

	// SBT: split into two TUs along the chosen axis at a quarter or half
	// position per cu.SbtIdx, matching 7.4.9.5's sbt_pos/sbt_quad_flag
	// shape in simplified form (one bit selects axis, already read by the
	// caller into SbtIdx's low bit; the high bit selects quad vs half).
	vertical := cu.SbtIdx&1 == 0
	quad := cu.SbtIdx&2 != 0
	if vertical {
		split := cu.Width / 2
		if quad {
			split = cu.Width / 4
		}
		return []TransformUnit{mk(cu.X, cu.Y, split, cu.Height), mk(cu.X+split, cu.Y, cu.Width-split, cu.Height)}
	}
	split := cu.Height / 2
	if quad {
		split = cu.Height / 4
	}
	return []TransformUnit{mk(cu.X, cu.Y, cu.Width, split), mk(cu.X, cu.Y+split, cu.Width, cu.Height-split)}
}

func (r *ResidualParser) splitToMaxTb(x, y, w, h int) []TransformUnit {
	if w <= r.sps.MaxTbSize && h <= r.sps.MaxTbSize {
		return []TransformUnit{{X: x, Y: y, Width: w, Height: h}}
	}
	var out []TransformUnit
	hw, hh := w, h
	if w > r.sps.MaxTbSize {
		hw = w / 2
	}
	if h > r.sps.MaxTbSize {
		hh = h / 2
	}
	out = append(out, r.splitToMaxTb(x, y, hw, hh)...)
	if hw < w {
		out = append(out, r.splitToMaxTb(x+hw, y, w-hw, hh)...)
	}
	if hh < h {
		out = append(out, r.splitToMaxTb(x, y+hh, hw, h-hh)...)
	}
	if hw < w && hh < h {
		out = append(out, r.splitToMaxTb(x+hw, y+hh, w-hw, h-hh)...)
	}
	return out
}

// resolveLumaQP implements the predictive left/above average within a
// quantization group
func (r *ResidualParser) resolveLumaQP(cu *CodingUnit, tu *TransformUnit) int {
	if !r.pps.CuQPDeltaEnabled {
		return r.qg.prevQP
	}
	pred := (r.qg.leftQP + r.qg.aboveQP + 1) >> 1
	if !r.qg.predicted {
		pred = r.qg.prevQP
	}
	r.qg.leftQP, r.qg.aboveQP = pred, pred
	r.qg.predicted = true
	r.qg.prevQP = pred
	return pred
}

// resolveChromaQP derives chroma QP from luma QP plus slice/PPS offsets,
// (ACT and per-group offset list handling are left as
// zero contributions when disabled).
func (r *ResidualParser) resolveChromaQP(lumaQP int) (cbQP, crQP int) {
	cbQP = lumaQP + r.pps.CbQpOffset
	crQP = lumaQP + r.pps.CrQpOffset
	if r.pps.ActEnabled {
		cbQP -= 5
		crQP -= 5
	}
	return cbQP, crQP
}

// parseCoefficients parses one transform block's 4x4 sub-blocks,
// traversing diagonals last-to-first, reading sig_coeff_flag,
// par_level_flag, gt1_flag, gt3_flag, remainder, and sign. Transform-skip
// blocks use BDPCM rules and omit gt3.
func (r *ResidualParser) parseCoefficients(tb *TransformBlock, cu *CodingUnit, bins *treeBinReader) error {
	tb.Coeffs = make([]int32, tb.Width*tb.Height)

	transformSkip := cu.PU.Mode == PredModeIntra && cu.PU.Intra.BdpcmDir != 0
	numSubX, numSubY := (tb.Width+3)/4, (tb.Height+3)/4

	for sbY := numSubY - 1; sbY >= 0; sbY-- {
		for sbX := numSubX - 1; sbX >= 0; sbX-- {
			if err := r.parseSubBlock(tb, sbX, sbY, transformSkip, bins); err != nil {
				return err
			}
		}
	}
	return bins.err()
}

// parseSubBlock handles one 4x4 coefficient group in reverse diagonal scan
// order
func (r *ResidualParser) parseSubBlock(tb *TransformBlock, sbX, sbY int, transformSkip bool, bins *treeBinReader) error {
	scan := diagonalScanOrder4x4()

	sigMask := make([]bool, 16)
	any := false
	for i := 15; i >= 0; i-- {
		pos := scan[i]
		sig := bins.bin(40) == 1
		sigMask[pos] = sig
		any = any || sig
	}
	if !any {
		return nil
	}

	for i := 15; i >= 0; i-- {
		pos := scan[i]
		if !sigMask[pos] {
			continue
		}
		level := int32(1)
		par := bins.bin(41)
		level += int32(par)
		gt1 := bins.bin(42)
		if gt1 == 1 {
			level++
			if !transformSkip {
				gt3 := bins.bin(43)
				if gt3 == 1 {
					level += 2 + int32(readCoeffRemainder(bins))
				}
			} else {
				level += int32(readCoeffRemainder(bins))
			}
		}
		sign := bins.bypass()
		if sign == 1 {
			level = -level
		}

		x, y := pos%4, pos/4
		baseX, baseY := sbX*4, sbY*4
		if baseX+x < tb.Width && baseY+y < tb.Height {
			tb.Coeffs[(baseY+y)*tb.Width+baseX+x] = level
		}
	}
	return bins.err()
}

// readCoeffRemainder reads a Rice-coded coefficient-level remainder,
// following 9.3.3.12's abs_remainder/dec_abs_level shape in simplified
// bypass-only form appropriate for the cabac.Reader boundary.
func readCoeffRemainder(bins *treeBinReader) int32 {
	const riceParam = 0
	prefix := 0
	for bins.bypass() == 1 {
		prefix++
		if prefix > 32 {
			bins.e = errUnaryOverflow
			return 0
		}
	}
	suffix := int32(0)
	for i := 0; i < riceParam; i++ {
		suffix = suffix<<1 | int32(bins.bypass())
	}
	return int32(prefix)<<uint(riceParam) + suffix
}

// diagonalScanOrder4x4 returns the 16 positions of a 4x4 block in
// up-right diagonal scan order, index 0 being the DC position, matching
// 6.5.2's standard coefficient scan used when neither vertical nor
// horizontal scans apply.
func diagonalScanOrder4x4() [16]int {
	var order [16]int
	idx := 0
	for diag := 0; diag < 7; diag++ {
		for y := 3; y >= 0; y-- {
			x := diag - y
			if x < 0 || x >= 4 {
				continue
			}
			order[idx] = y*4 + x
			idx++
		}
	}
	return order
}
