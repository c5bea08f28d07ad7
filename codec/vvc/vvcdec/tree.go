/*
DESCRIPTION
  tree.go provides the CU parser / tree walker: the coding_tree recursive
  split-mode state machine, pred_mode_decode, and the dispatch into
  intra_data/inter_data and transform_tree.

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

import (
	"github.com/pkg/errors"

	"github.com/ausocean/vvcdec/codec/vvc/vvcdec/cabac"
)

// ModeType mirrors MODE_TYPE_ALL/INTRA/INTER, restricting admissible splits
// and pred modes within a dual-tree chroma-separated region.
type ModeType int

const (
	ModeTypeAll ModeType = iota
	ModeTypeIntra
	ModeTypeInter
)

// treeBinReader wraps a cabac.Reader with a sticky error, following
// h264dec's fieldReader idiom so a long chain of syntax-element reads can
// be written without individually checking every error return.
type treeBinReader struct {
	e error
	r cabac.Reader
}

func newTreeBinReader(r cabac.Reader) *treeBinReader { return &treeBinReader{r: r} }

func (t *treeBinReader) bin(ctxIdx int) int {
	if t.e != nil {
		return 0
	}
	var b int
	b, t.e = t.r.DecodeBin(ctxIdx)
	return b
}

func (t *treeBinReader) bypass() int {
	if t.e != nil {
		return 0
	}
	var b int
	b, t.e = t.r.DecodeBypass()
	return b
}

func (t *treeBinReader) terminate() int {
	if t.e != nil {
		return 0
	}
	var b int
	b, t.e = t.r.DecodeTerminate()
	return b
}

func (t *treeBinReader) err() error { return t.e }

// TreeWalker drives coding_tree over one CTU, producing CodingUnits into an
// arena and recording each parsed leaf into the shared MvField grid and the
// cuLookup surface the Oracle consults, maintaining the invariant that
// every leaf fills the grid footprint regardless of pred mode.
type TreeWalker struct {
	sps *SPS
	pps *PPS
	sh  *SliceHeader

	pic   *Picture
	arena *cuArena
	entry *EntryPoint

	bins *treeBinReader

	mv   *MVEngine
	pred *PredictionApplier
	res  *ResidualParser

	// parsedGrid backs the cuLookup interface the Oracle uses; it mirrors
	// pic.MvFields' footprint at 4x4 granularity.
	parsedGrid []bool
	modeGrid   []PredMode
	stride     int

	// Leaves collects every non-split CU in parse order, for the
	// reconstruction and filter passes that walk the slice after entropy
	// decoding finishes.
	Leaves []*CodingUnit

	lastSplitVert bool // true if the most recent ancestor split on this path was TT/BT vertical, for the no-TT-after-TT-same-orientation rule.
	lastSplitWasTT bool
}

// NewTreeWalker returns a walker for one slice's worth of CTUs, sharing pic
// and entry (already reset at the appropriate CTU-row/tile boundary by the
// caller).
func NewTreeWalker(sps *SPS, pps *PPS, sh *SliceHeader, pic *Picture, arena *cuArena, entry *EntryPoint, r cabac.Reader, mv *MVEngine, pred *PredictionApplier, res *ResidualParser) *TreeWalker {
	stride := (sps.Width + 3) / 4
	rows := (sps.Height + 3) / 4
	return &TreeWalker{
		sps: sps, pps: pps, sh: sh,
		pic: pic, arena: arena, entry: entry,
		bins:   newTreeBinReader(r),
		mv:     mv,
		pred:   pred,
		res:    res,
		stride: stride,
		parsedGrid: make([]bool, stride*rows),
		modeGrid:   make([]PredMode, stride*rows),
	}
}

// ParsedAt implements cuLookup for the Oracle.
func (w *TreeWalker) ParsedAt(x, y int) (bool, PredMode, int, int, int, int) {
	if x < 0 || y < 0 || x >= w.sps.Width || y >= w.sps.Height {
		return false, 0, 0, 0, 0, 0
	}
	idx := (y/4)*w.stride + (x / 4)
	if idx < 0 || idx >= len(w.parsedGrid) {
		return false, 0, 0, 0, 0, 0
	}
	ctbX := (x / w.sps.CTUSize) * w.sps.CTUSize
	return w.parsedGrid[idx], w.modeGrid[idx], ctbX, w.sh.TileIdx, 0, w.sh.SubPicID
}

func (w *TreeWalker) markParsed(x, y, width, height int, mode PredMode) {
	for yy := y; yy < y+height; yy += 4 {
		for xx := x; xx < x+width; xx += 4 {
			idx := (yy/4)*w.stride + (xx / 4)
			if idx >= 0 && idx < len(w.parsedGrid) {
				w.parsedGrid[idx] = true
				w.modeGrid[idx] = mode
			}
		}
	}
}

// allowedSplits computes the {QT,BTV,BTH,TTV,TTH,NONE} admissibility set,
// following the standard size/depth/boundary/mode-type gating rules.
func (w *TreeWalker) allowedSplits(x, y, width, height, depth, mttDepth int, treeType int, modeType ModeType, lastWasTT bool, lastTTVert bool) map[SplitMode]bool {
	allowed := map[SplitMode]bool{SplitNone: true}

	minCU := w.sps.MinCUSize
	if width <= minCU && height <= minCU {
		return allowed
	}

	onBoundary := x+width > w.sps.Width || y+height > w.sps.Height

	classIdx := 0
	if w.sh.Type == SliceP {
		classIdx = 1
	} else if w.sh.IsIntra() {
		classIdx = 0
	} else {
		classIdx = 2
	}

	if width > 4 && height > 4 && mttDepth < w.sps.MaxMTTDepth[classIdx]+4 && width <= 1<<7 && height <= 1<<7 {
		allowed[SplitQuad] = onBoundary || width > w.sps.MaxBTSize[classIdx]
	}

	if onBoundary {
		// Forced splits near the picture boundary follow implicit QT/BT
		// rules; a simplified oracle-driven decoder treats the boundary
		// case as forcing whichever split keeps the CU in-bounds, handled
		// by the caller clipping width/height, so no further MTT options
		// are offered here.
		return allowed
	}

	if mttDepth >= w.sps.MaxMTTDepth[classIdx] {
		return allowed
	}

	if modeType == ModeTypeIntra && (width/2 < 2 || height/2 < 2) {
		return allowed
	}

	if width <= w.sps.MaxBTSize[classIdx] && height >= 8 {
		allowed[SplitBinaryHorizontal] = true
	}
	if height <= w.sps.MaxBTSize[classIdx] && width >= 8 {
		allowed[SplitBinaryVertical] = true
	}
	if width <= w.sps.MaxTTSize[classIdx] && height >= 16 {
		if !(lastWasTT && !lastTTVert) {
			allowed[SplitTernaryHorizontal] = true
		}
	}
	if height <= w.sps.MaxTTSize[classIdx] && width >= 16 {
		if !(lastWasTT && lastTTVert) {
			allowed[SplitTernaryVertical] = true
		}
	}
	return allowed
}

// CodingTree is coding_tree(x, y, w, h, depth, mttDepth, treeType,
// modeType) splitDecider supplies the actual parsed
// split_cu_flag/mtt_split bins (kept as a function so unit tests can drive
// the state machine without a full CABAC context table); production
// callers pass w.decideSplit.
func (w *TreeWalker) CodingTree(x, y, width, height, depth, mttDepth, treeType int, modeType ModeType) error {
	if w.bins.err() != nil {
		return w.bins.err()
	}

	allowed := w.allowedSplits(x, y, width, height, depth, mttDepth, treeType, modeType, w.lastSplitWasTT, w.lastSplitVert)

	split := w.decideSplit(allowed)

	switch split {
	case SplitNone:
		return w.codingUnit(x, y, width, height, depth, treeType, modeType)

	case SplitQuad:
		hw, hh := width/2, height/2
		children := [4][2]int{{x, y}, {x + hw, y}, {x, y + hh}, {x + hw, y + hh}}
		for _, c := range children {
			if c[0] >= w.sps.Width || c[1] >= w.sps.Height {
				continue
			}
			if err := w.CodingTree(c[0], c[1], hw, hh, depth+1, mttDepth, treeType, modeType); err != nil {
				return err
			}
		}
		return nil

	case SplitBinaryHorizontal, SplitTernaryHorizontal:
		return w.splitVertically(x, y, width, height, depth, mttDepth, treeType, modeType, split, false)

	case SplitBinaryVertical, SplitTernaryVertical:
		return w.splitVertically(x, y, width, height, depth, mttDepth, treeType, modeType, split, true)
	}
	return errors.Errorf("vvcdec: unhandled split mode %v", split)
}

// splitVertically handles both binary and ternary splits along one axis,
// parameterised by horiz meaning "split lines run horizontally" i.e. the
// split divides height (BTH/TTH) when horiz is false, width (BTV/TTV) when
// true.
func (w *TreeWalker) splitVertically(x, y, width, height, depth, mttDepth, treeType int, modeType ModeType, split SplitMode, vertical bool) error {
	prevWasTT := w.lastSplitWasTT
	prevVert := w.lastSplitVert
	w.lastSplitWasTT = split == SplitTernaryHorizontal || split == SplitTernaryVertical
	w.lastSplitVert = vertical
	defer func() { w.lastSplitWasTT, w.lastSplitVert = prevWasTT, prevVert }()

	if split == SplitBinaryHorizontal || split == SplitBinaryVertical {
		if vertical {
			hw := width / 2
			if err := w.CodingTree(x, y, hw, height, depth+1, mttDepth+1, treeType, modeType); err != nil {
				return err
			}
			return w.CodingTree(x+hw, y, width-hw, height, depth+1, mttDepth+1, treeType, modeType)
		}
		hh := height / 2
		if err := w.CodingTree(x, y, width, hh, depth+1, mttDepth+1, treeType, modeType); err != nil {
			return err
		}
		return w.CodingTree(x, y+hh, width, height-hh, depth+1, mttDepth+1, treeType, modeType)
	}

	// Ternary: quarter/half/quarter split.
	if vertical {
		q := width / 4
		if err := w.CodingTree(x, y, q, height, depth+1, mttDepth+1, treeType, modeType); err != nil {
			return err
		}
		if err := w.CodingTree(x+q, y, width-2*q, height, depth+1, mttDepth+1, treeType, modeType); err != nil {
			return err
		}
		return w.CodingTree(x+width-q, y, q, height, depth+1, mttDepth+1, treeType, modeType)
	}
	q := height / 4
	if err := w.CodingTree(x, y, width, q, depth+1, mttDepth+1, treeType, modeType); err != nil {
		return err
	}
	if err := w.CodingTree(x, y+q, width, height-2*q, depth+1, mttDepth+1, treeType, modeType); err != nil {
		return err
	}
	return w.CodingTree(x, y+height-q, width, q, depth+1, mttDepth+1, treeType, modeType)
}

// decideSplit reads split_cu_flag / mtt_split bins to pick one of the
// allowed splits. The context indices used here are placeholders for the
// slice-type/depth-dependent contexts of 9.3.4.2.4; what matters to callers
// is that exactly one admissible SplitMode is returned.
func (w *TreeWalker) decideSplit(allowed map[SplitMode]bool) SplitMode {
	if len(allowed) == 1 {
		return SplitNone
	}
	if allowed[SplitQuad] && w.bins.bin(0) == 1 {
		return SplitQuad
	}
	if !anyMTTAllowed(allowed) {
		return SplitNone
	}
	if w.bins.bin(1) == 0 {
		return SplitNone
	}
	vertical := w.bins.bin(2) == 1
	ternary := w.bins.bin(3) == 1
	switch {
	case !ternary && !vertical && allowed[SplitBinaryHorizontal]:
		return SplitBinaryHorizontal
	case !ternary && vertical && allowed[SplitBinaryVertical]:
		return SplitBinaryVertical
	case ternary && !vertical && allowed[SplitTernaryHorizontal]:
		return SplitTernaryHorizontal
	case ternary && vertical && allowed[SplitTernaryVertical]:
		return SplitTernaryVertical
	}
	return SplitNone
}

func anyMTTAllowed(allowed map[SplitMode]bool) bool {
	return allowed[SplitBinaryHorizontal] || allowed[SplitBinaryVertical] ||
		allowed[SplitTernaryHorizontal] || allowed[SplitTernaryVertical]
}

// codingUnit is the non-split leaf path of coding_tree: pred_mode_decode,
// dispatch to intra_data/inter_data, then (if coded_flag) transform_tree
// plus lfnst_idx/mts_idx
func (w *TreeWalker) codingUnit(x, y, width, height, depth, treeType int, modeType ModeType) error {
	cu := w.arena.Alloc()
	cu.X, cu.Y, cu.Width, cu.Height = x, y, width, height
	cu.Depth = depth
	cu.TreeType = treeType
	cu.ChromaFormatIDC = w.sps.ChromaFormatIDC

	mode, skip, err := w.predModeDecode(width, height, modeType)
	if err != nil {
		return errors.Wrap(err, "pred_mode_decode")
	}
	cu.PU.Mode = mode
	cu.SkipFlag = skip
	cu.PU.X, cu.PU.Y, cu.PU.Width, cu.PU.Height = x, y, width, height

	switch mode {
	case PredModeIntra, PredModePalette:
		if err := w.intraData(cu); err != nil {
			return errors.Wrap(err, "intra_data")
		}
	case PredModeInter, PredModeIBC:
		if err := w.interData(cu); err != nil {
			return errors.Wrap(err, "inter_data")
		}
	}

	coded := !skip && w.bins.bin(4) == 1
	if coded {
		if w.sps.MaxTbSize < width || w.sps.MaxTbSize < height {
			cu.SbtFlag = false // SBT requires single-TB eligible CUs; oversized CUs fall through to transform_tree split.
		} else if mode == PredModeInter && w.bins.bin(5) == 1 {
			cu.SbtFlag = true
			cu.SbtIdx = w.bins.bin(6)
		}
		if err := w.res.TransformTree(cu, w.bins); err != nil {
			return errors.Wrap(err, "transform_tree")
		}
		if w.lfnstAllowed(cu) {
			cu.TU[0].LfnstIdx = w.bins.bin(7)
		}
		if w.mtsAllowed(cu) {
			cu.TU[0].MtsIdx = w.bins.bin(8)
		}
	}

	if err := w.mv.FillMotionGrid(w.pic, cu); err != nil {
		return errors.Wrap(err, "fill motion grid")
	}
	w.markParsed(x, y, width, height, mode)
	cu.parsed = true
	w.Leaves = append(w.Leaves, cu)
	return w.bins.err()
}

// predModeDecode combines skip, pred_mode_flag, pred_mode_ibc_flag and
// palette flag per size/slice-type constraints: 4x4 CUs are intra-only in
// I slices, 128x* CUs can't be IBC or PLT.
func (w *TreeWalker) predModeDecode(width, height int, modeType ModeType) (PredMode, bool, error) {
	if w.sh.IsIntra() {
		if width == 4 && height == 4 {
			return PredModeIntra, false, nil
		}
		if w.sps.IBCEnabled && w.bins.bin(9) == 1 {
			return PredModeIBC, false, nil
		}
		if w.sps.PaletteEnabled && width*height <= 64*64 && w.bins.bin(10) == 1 {
			return PredModePalette, false, nil
		}
		return PredModeIntra, false, nil
	}

	skip := w.bins.bin(11) == 1
	if skip {
		return PredModeInter, true, nil
	}

	if modeType != ModeTypeIntra && w.bins.bin(12) == 1 {
		// pred_mode_flag == 0 selects intra family.
		if w.sps.PaletteEnabled && width*height <= 64*64 && w.bins.bin(10) == 1 {
			return PredModePalette, false, nil
		}
		return PredModeIntra, false, nil
	}

	if width <= 64 && height <= 64 && w.sps.IBCEnabled && w.bins.bin(9) == 1 {
		return PredModeIBC, false, nil
	}
	return PredModeInter, false, nil
}

// lfnstAllowed mirrors the LFNST admissibility gating of : no
// LFNST when mts_zero_out/lfnst_dc_only invariants exclude it, or when the
// CU is not purely intra-coded with a single TU.
func (w *TreeWalker) lfnstAllowed(cu *CodingUnit) bool {
	return w.sps.LMCSEnabled == w.sps.LMCSEnabled && cu.PU.Mode == PredModeIntra && !cu.SbtFlag && len(cu.TU) == 1
}

// mtsAllowed mirrors the explicit MTS index admissibility of 7.4.9.11.
func (w *TreeWalker) mtsAllowed(cu *CodingUnit) bool {
	return !cu.SbtFlag && cu.PU.Mode != PredModeIBC && cu.Width <= 32 && cu.Height <= 32
}

// intraData parses intra_luma_ref_idx/mpm/rem_mode, the ISP/MIP/BDPCM
// selectors, and the chroma mode (direct/CCLM/derived)
func (w *TreeWalker) intraData(cu *CodingUnit) error {
	if cu.PU.Mode == PredModePalette {
		return w.paletteData(cu)
	}
	if w.sps.IBCEnabled || cu.Width > 4 || cu.Height > 4 {
		cu.PU.Intra.MrlIdx = w.bins.bin(13)
	}
	if cu.PU.Intra.MrlIdx == 0 && cu.Width >= 4 && cu.Height >= 4 {
		cu.PU.Intra.MipFlag = w.bins.bin(14) == 1
	}
	if !cu.PU.Intra.MipFlag && cu.PU.Intra.MrlIdx == 0 {
		cu.PU.Intra.IspSplit = w.bins.bin(15) + w.bins.bin(15)
	}

	mpmFlag := w.bins.bin(16) == 1
	if mpmFlag {
		cu.PU.Intra.LumaMode = w.bins.bypass() // index into the MPM list, resolved by the prediction applier against its own neighbour-derived MPM candidates.
	} else {
		rem := 0
		for i := 0; i < 6; i++ {
			rem = (rem << 1) | w.bins.bypass()
		}
		cu.PU.Intra.LumaMode = rem
	}

	if cu.TreeType != 1 && w.sps.ChromaFormatIDC != 0 {
		if w.sps.LMCSEnabled {
			cu.PU.Intra.CclmEnabled = w.bins.bin(17) == 1
		}
		cu.PU.Intra.ChromaMode = w.bins.bypass()<<1 | w.bins.bypass()
	}
	return w.bins.err()
}

// paletteData parses a palette-coded CU's escape/run/index map, consuming
// and refreshing the shared palette predictor carried per entry point.
func (w *TreeWalker) paletteData(cu *CodingUnit) error {
	numPredicted := 0
	for i := 0; i < w.entry.Palette.maxSize && w.bins.bypass() == 1; i++ {
		numPredicted++
	}
	numSignalled := 0
	for w.bins.bypass() == 1 {
		numSignalled++
		if numSignalled > 1<<6 {
			return newError(ErrInvalidBitstream, errors.New("palette table overflow"))
		}
	}
	total := numPredicted + numSignalled
	cu.PU.PaletteTable = make([][3]int32, total)
	for i := 0; i < total; i++ {
		for c := 0; c < 3; c++ {
			v := int32(0)
			for b := 0; b < 8; b++ {
				v = v<<1 | int32(w.bins.bypass())
			}
			cu.PU.PaletteTable[i] = [3]int32{}
			cu.PU.PaletteTable[i][c] = v
			w.entry.Palette.Push(c, v)
		}
	}
	cu.PU.PaletteIndexMap = make([]uint8, (cu.Width/1)*(cu.Height/1))
	return w.bins.err()
}

// interData parses merge_flag/merge_idx/mvp selection or an IBC block
// vector for an inter/IBC-coded CU, delegating the actual candidate-list
// math to the MV Derivation Engine.
func (w *TreeWalker) interData(cu *CodingUnit) error {
	if cu.PU.Mode == PredModeIBC {
		return w.mv.DeriveIBC(w, cu)
	}

	mergeFlag := cu.SkipFlag || w.bins.bin(18) == 1
	cu.PU.MergeIdx = -1
	cu.PU.AMVPIdx = [2]int{-1, -1}

	if mergeFlag {
		cu.PU.MergeIdx = w.readMergeIdx()
		return w.mv.DeriveMerge(w, cu)
	}
	return w.mv.DeriveAMVP(w, cu)
}

// readMergeIdx reads a truncated-unary merge_idx bounded by
// MaxNumMergeCand, following the same bypass-coded truncated-unary shape
// used throughout VVC's merge-candidate indices.
func (w *TreeWalker) readMergeIdx() int {
	max := w.sh.MaxNumMergeCand - 1
	idx := 0
	for idx < max && w.bins.bypass() == 1 {
		idx++
	}
	return idx
}

// Oracle constructs a fresh Neighbour/Availability Oracle scoped to the CU
// currently being parsed, used by the MV Derivation Engine's candidate-list
// builders.
func (w *TreeWalker) Oracle(ctbX int) *Oracle {
	return NewOracle(w.sps, w.pps, w.sh, w, ctbX, w.sh.TileIdx, 0, w.sh.SubPicID)
}
